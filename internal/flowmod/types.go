// Package flowmod builds and caches outbound flow-modification messages
// (spec component C6). Grounded on the wire vocabulary in
// _examples/original_source/rflib/defs.h (RFMT_*/RFAT_* match and action
// kinds, PRIORITY_* constants) and FlowTable.cc's three emission shapes.
package flowmod

import "net"

// Op is the flow-mod's top-level operation.
type Op int

const (
	OpAdd Op = iota
	OpDelete
	OpController
)

// Priority constants from the wire protocol's defs.h, preserved literally
// so priorities stay compatible with the server.
const (
	PriorityLowest = 0x0000
	PriorityLow    = 0x4010
	PriorityHigh   = 0x8020
	PriorityHighest = 0xC030
	PriorityBand   = 0x0A
)

// MatchKind identifies one match_list element's field.
type MatchKind int

const (
	MatchEthDst MatchKind = iota
	MatchVLANID
	MatchIPv4
	MatchIPv6
	MatchMPLSLabel
	MatchEtherType
	MatchIPProto
	MatchL4SrcPort
	MatchL4DstPort
)

// Match is one match_list element. Only the fields relevant to Kind are
// populated.
type Match struct {
	Kind     MatchKind
	EthAddr  net.HardwareAddr
	VLANID   uint32
	IP       net.IP
	Mask     net.IPMask
	MPLS     uint32
	EtherType uint16
	IPProto  uint8
	Port     uint16
}

// ActionKind identifies one action_list element's operation.
type ActionKind int

const (
	ActionSetEthSrc ActionKind = iota
	ActionSetEthDst
	ActionSwapVLANID
	ActionPushMPLS
	ActionPopMPLS
	ActionSwapMPLS
	ActionOutputToPort
)

// Action is one action_list element.
type Action struct {
	Kind    ActionKind
	EthAddr net.HardwareAddr
	VLANID  uint32
	MPLS    uint32
	Port    uint32
}

// FlowMod is the outbound message sent to the central controller.
type FlowMod struct {
	Op         Op
	VMID       uint64
	VMPort     uint32
	MatchList  []Match
	ActionList []Action
	Priority   uint16
}
