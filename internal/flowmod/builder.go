package flowmod

import (
	"net"

	"rfclientd/internal/ifreg"
)

// BuildRouteEntry constructs the flow-mod for a resolved route: match on
// the destination prefix, rewrite src/dst MAC and (if present) the VLAN,
// output toward local.Port. Priority favors longer prefixes, per spec.md
// 4.6 and the PRIORITY_LOW + prefix_len*PRIORITY_BAND formula in
// defs.h.
func BuildRouteEntry(op Op, local ifreg.Interface, dst net.IP, prefixLen uint8, gatewayMAC net.HardwareAddr) FlowMod {
	return build(op, local, dst, prefixLen, gatewayMAC)
}

// BuildHostEntry constructs the flow-mod for a directly-reachable host:
// identical shape to a route entry but with a full-length prefix mask.
func BuildHostEntry(op Op, local ifreg.Interface, hostIP net.IP, hostMAC net.HardwareAddr) FlowMod {
	prefixLen := uint8(32)
	if hostIP.To4() == nil {
		prefixLen = 128
	}
	return build(op, local, hostIP, prefixLen, hostMAC)
}

func build(op Op, local ifreg.Interface, dst net.IP, prefixLen uint8, dstMAC net.HardwareAddr) FlowMod {
	matchKind := MatchIPv4
	if dst.To4() == nil {
		matchKind = MatchIPv6
	}

	fm := FlowMod{
		Op:     op,
		VMPort: local.Port,
		MatchList: []Match{
			{Kind: matchKind, IP: dst, Mask: net.CIDRMask(int(prefixLen), maskBits(matchKind))},
		},
		ActionList: []Action{
			{Kind: ActionSetEthSrc, EthAddr: local.HWAddr},
			{Kind: ActionSetEthDst, EthAddr: dstMAC},
		},
		Priority: PriorityLow + uint16(prefixLen)*PriorityBand,
	}
	if local.VLAN != 0 {
		fm.ActionList = append(fm.ActionList, Action{Kind: ActionSwapVLANID, VLANID: local.VLAN})
	}
	fm.ActionList = append(fm.ActionList, Action{Kind: ActionOutputToPort, Port: local.Port})
	return fm
}

func maskBits(kind MatchKind) int {
	if kind == MatchIPv6 {
		return 128
	}
	return 32
}

// BuildNHLFE constructs the flow-mod for an MPLS label-switching entry:
// match on the in-label only, append the single requested MPLS action
// with out_label already converted to host byte order by the caller, and
// rewrite src/dst MAC toward the next hop.
func BuildNHLFE(n NHLFE, local ifreg.Interface, nextHopMAC net.HardwareAddr) FlowMod {
	op := OpAdd
	if n.TableOp == NHLFERemove {
		op = OpDelete
	}

	fm := FlowMod{
		Op:     op,
		VMPort: local.Port,
		MatchList: []Match{
			{Kind: MatchMPLSLabel, MPLS: n.InLabel},
		},
		ActionList: []Action{
			{Kind: ActionSetEthSrc, EthAddr: local.HWAddr},
			{Kind: ActionSetEthDst, EthAddr: nextHopMAC},
		},
		Priority: PriorityLow,
	}

	switch n.Op {
	case MPLSPush:
		fm.ActionList = append(fm.ActionList, Action{Kind: ActionPushMPLS, MPLS: n.OutLabel})
	case MPLSPop:
		fm.ActionList = append(fm.ActionList, Action{Kind: ActionPopMPLS})
	case MPLSSwap:
		fm.ActionList = append(fm.ActionList, Action{Kind: ActionSwapMPLS, MPLS: n.OutLabel})
	}
	fm.ActionList = append(fm.ActionList, Action{Kind: ActionOutputToPort, Port: local.Port})
	return fm
}

// controllerPunt describes one (ether-type/proto, L4 port) tuple that
// should be flow-modded to the controller when a port becomes active.
type controllerPunt struct {
	etherType uint16
	ipProto   uint8
	l4Port    uint16
}

// BuildControllerPunts constructs the RMT_CONTROLLER flow-mods for a
// newly-active port: ICMP/ARP for IPv4, ICMPv6 for IPv6, BGP on TCP/179,
// OSPF by IP-proto 89, per spec.md 4.6.
func BuildControllerPunts(local ifreg.Interface) []FlowMod {
	const (
		etherTypeIPv4 = 0x0800
		etherTypeIPv6 = 0x86DD
		etherTypeARP  = 0x0806
		protoICMP     = 1
		protoICMPv6   = 58
		protoTCP      = 6
		protoOSPF     = 89
		bgpPort       = 179
	)

	punts := []controllerPunt{
		{etherType: etherTypeARP},
		{etherType: etherTypeIPv4, ipProto: protoICMP},
		{etherType: etherTypeIPv6, ipProto: protoICMPv6},
		{etherType: etherTypeIPv4, ipProto: protoTCP, l4Port: bgpPort},
		{etherType: etherTypeIPv4, ipProto: protoOSPF},
	}

	out := make([]FlowMod, 0, len(punts))
	for _, p := range punts {
		matches := []Match{{Kind: MatchEtherType, EtherType: p.etherType}}
		if p.ipProto != 0 {
			matches = append(matches, Match{Kind: MatchIPProto, IPProto: p.ipProto})
		}
		if p.l4Port != 0 {
			matches = append(matches, Match{Kind: MatchL4DstPort, Port: p.l4Port})
		}
		out = append(out, FlowMod{
			Op:        OpController,
			VMPort:    local.Port,
			MatchList: matches,
			Priority:  PriorityHigh,
		})
	}
	return out
}
