package flowmod

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"rfclientd/internal/ifreg"
)

func mustMAC(s string) net.HardwareAddr {
	m, err := net.ParseMAC(s)
	if err != nil {
		panic(err)
	}
	return m
}

// TestBuildRouteEntryMatchesS1 reproduces spec scenario S1: a resolved
// ADD for 10.1.0.0/16 via a host on active interface eth1, port 1.
func TestBuildRouteEntryMatchesS1(t *testing.T) {
	local := ifreg.Interface{Port: 1, Name: "eth1", HWAddr: mustMAC("aa:aa:aa:aa:aa:01"), Active: true}
	gatewayMAC := mustMAC("bb:bb:bb:bb:bb:01")

	fm := BuildRouteEntry(OpAdd, local, net.ParseIP("10.1.0.0"), 16, gatewayMAC)

	require.Equal(t, OpAdd, fm.Op)
	require.Equal(t, uint32(1), fm.VMPort)
	require.Equal(t, uint16(0x40B0), fm.Priority)
	require.Len(t, fm.MatchList, 1)
	require.Equal(t, MatchIPv4, fm.MatchList[0].Kind)
	require.Equal(t, net.CIDRMask(16, 32), fm.MatchList[0].Mask)

	require.Equal(t, ActionSetEthSrc, fm.ActionList[0].Kind)
	require.Equal(t, mustMAC("aa:aa:aa:aa:aa:01"), fm.ActionList[0].EthAddr)
	require.Equal(t, ActionSetEthDst, fm.ActionList[1].Kind)
	require.Equal(t, gatewayMAC, fm.ActionList[1].EthAddr)
	require.Equal(t, ActionOutputToPort, fm.ActionList[len(fm.ActionList)-1].Kind)
}

func TestBuildRouteEntryAddsVLANSwapWhenPresent(t *testing.T) {
	local := ifreg.Interface{Port: 1, VLAN: 100, HWAddr: mustMAC("aa:aa:aa:aa:aa:01")}
	fm := BuildRouteEntry(OpAdd, local, net.ParseIP("10.1.0.0"), 16, mustMAC("bb:bb:bb:bb:bb:01"))

	found := false
	for _, a := range fm.ActionList {
		if a.Kind == ActionSwapVLANID {
			found = true
			require.Equal(t, uint32(100), a.VLANID)
		}
	}
	require.True(t, found, "expected a swap-vlan-id action")
}

func TestBuildHostEntryUsesFullPrefix(t *testing.T) {
	local := ifreg.Interface{Port: 1, HWAddr: mustMAC("aa:aa:aa:aa:aa:01")}
	fm := BuildHostEntry(OpAdd, local, net.ParseIP("10.0.0.1"), mustMAC("bb:bb:bb:bb:bb:01"))
	require.Equal(t, net.CIDRMask(32, 32), fm.MatchList[0].Mask)
}

// TestBuildNHLFEMatchesS4 reproduces spec scenario S4: an MPLS SWAP.
func TestBuildNHLFEMatchesS4(t *testing.T) {
	local := ifreg.Interface{Port: 1, HWAddr: mustMAC("aa:aa:aa:aa:aa:01")}
	n := NHLFE{
		TableOp:   NHLFEAdd,
		IPVersion: 4,
		NextHop:   net.ParseIP("10.0.0.1"),
		InLabel:   100,
		OutLabel:  200,
		Op:        MPLSSwap,
	}

	fm := BuildNHLFE(n, local, mustMAC("cc:cc:cc:cc:cc:01"))

	require.Equal(t, OpAdd, fm.Op)
	require.Equal(t, MatchMPLSLabel, fm.MatchList[0].Kind)
	require.Equal(t, uint32(100), fm.MatchList[0].MPLS)

	var swap *Action
	for i := range fm.ActionList {
		if fm.ActionList[i].Kind == ActionSwapMPLS {
			swap = &fm.ActionList[i]
		}
	}
	require.NotNil(t, swap)
	require.Equal(t, uint32(200), swap.MPLS)
}

func TestBuildControllerPuntsCoversRequiredProtocols(t *testing.T) {
	local := ifreg.Interface{Port: 2}
	punts := BuildControllerPunts(local)

	require.NotEmpty(t, punts)
	var got []controllerPunt
	for _, p := range punts {
		require.Equal(t, OpController, p.Op)
		require.Equal(t, uint16(PriorityHigh), p.Priority)
		var k controllerPunt
		for _, m := range p.MatchList {
			switch m.Kind {
			case MatchEtherType:
				k.etherType = m.EtherType
			case MatchIPProto:
				k.ipProto = m.IPProto
			case MatchL4DstPort:
				k.l4Port = m.Port
			}
		}
		got = append(got, k)
	}
	require.Contains(t, got, controllerPunt{etherType: 0x0806})
	require.Contains(t, got, controllerPunt{etherType: 0x0800, ipProto: 1})
	require.Contains(t, got, controllerPunt{etherType: 0x86DD, ipProto: 58})
	require.Contains(t, got, controllerPunt{etherType: 0x0800, ipProto: 6, l4Port: 179})
	require.Contains(t, got, controllerPunt{etherType: 0x0800, ipProto: 89})
}

func TestPortCacheSwapIsOneShot(t *testing.T) {
	c := NewPortCache()
	c.Append(2, FlowMod{Op: OpAdd})
	require.Equal(t, 1, c.Len(2))

	out := c.Swap(2)
	require.Len(t, out, 1)
	require.Equal(t, 0, c.Len(2))
	require.Empty(t, c.Swap(2))
}
