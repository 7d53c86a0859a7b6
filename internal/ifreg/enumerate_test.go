package ifreg

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLinkSource struct {
	links []link
}

func (f *fakeLinkSource) Links() ([]link, error) { return f.links, nil }
func (f *fakeLinkSource) WaitUp(ctx context.Context, name string) error { return nil }

func mac(s string) net.HardwareAddr {
	m, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return m
}

func TestEnumerateSkipsManagementAndNamesWithoutDigits(t *testing.T) {
	src := &fakeLinkSource{links: []link{
		{Name: "mgmt0", HWAddr: mac("aa:aa:aa:aa:aa:00")},
		{Name: "eth1", HWAddr: mac("aa:aa:aa:aa:aa:01"), Up: true, Physical: true},
		{Name: "lo", HWAddr: nil},
		{Name: "1.100", HWAddr: mac("aa:aa:aa:aa:aa:02")},
	}}
	reg := NewRegistry()

	mgmt, err := Enumerate(context.Background(), src, reg, "mgmt0")
	require.NoError(t, err)
	require.Equal(t, "mgmt0", mgmt.Name)
	_, ok := reg.Lookup("mgmt0")
	require.False(t, ok, "management interface must not be registered")

	eth1, ok := reg.Lookup("eth1")
	require.True(t, ok)
	require.Equal(t, uint32(1), eth1.Port)
	require.True(t, eth1.Physical)

	vlan, ok := reg.Lookup("1.100")
	require.True(t, ok)
	require.Equal(t, uint32(1), vlan.Port)
	require.Equal(t, uint32(100), vlan.VLAN)
	require.False(t, vlan.Physical)

	_, ok = reg.Lookup("lo")
	require.False(t, ok, "interface with no digit run must be skipped")
}

func TestEnumerateMissingManagementInterface(t *testing.T) {
	src := &fakeLinkSource{links: []link{{Name: "eth1", Physical: true}}}
	reg := NewRegistry()

	_, err := Enumerate(context.Background(), src, reg, "mgmt0")
	require.Error(t, err)
}

func TestRegistrySetActiveAffectsAllSubinterfaces(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Interface{Port: 1, Name: "eth1", Physical: true})
	reg.Register(Interface{Port: 1, VLAN: 100, Name: "1.100"})
	reg.Register(Interface{Port: 2, Name: "eth2", Physical: true})

	found := reg.SetActive(1, true)
	require.True(t, found)

	eth1, _ := reg.Lookup("eth1")
	require.True(t, eth1.Active)
	vlan, _ := reg.Lookup("1.100")
	require.True(t, vlan.Active)
	eth2, _ := reg.Lookup("eth2")
	require.False(t, eth2.Active)
}

func TestParsePortName(t *testing.T) {
	cases := []struct {
		name       string
		port, vlan uint32
		physical   bool
		ok         bool
	}{
		{"eth1", 1, 0, true, true},
		{"1.100", 1, 100, false, true},
		{"lo", 0, 0, false, false},
		{"port12", 12, 0, true, true},
	}
	for _, c := range cases {
		port, vlan, physical, ok := parsePortName(c.name)
		require.Equal(t, c.ok, ok, c.name)
		if !ok {
			continue
		}
		require.Equal(t, c.port, port, c.name)
		require.Equal(t, c.vlan, vlan, c.name)
		require.Equal(t, c.physical, physical, c.name)
	}
}
