package hosttable

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetOverwrite(t *testing.T) {
	tbl := New()
	ip := net.ParseIP("10.0.0.1")

	_, ok := tbl.Get(ip)
	require.False(t, ok)

	tbl.Put(Entry{IP: ip, MAC: mustMAC("bb:bb:bb:bb:bb:01"), Interface: "eth1"})
	e, ok := tbl.Get(ip)
	require.True(t, ok)
	require.Equal(t, "eth1", e.Interface)
	require.Equal(t, mustMAC("bb:bb:bb:bb:bb:01"), e.MAC)

	tbl.Put(Entry{IP: ip, MAC: mustMAC("bb:bb:bb:bb:bb:02"), Interface: "eth1"})
	e, ok = tbl.Get(ip)
	require.True(t, ok)
	require.Equal(t, mustMAC("bb:bb:bb:bb:bb:02"), e.MAC)
	require.Equal(t, 1, tbl.Len())
}

func mustMAC(s string) net.HardwareAddr {
	m, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return m
}
