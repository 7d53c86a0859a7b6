package flowmod

import "net"

// NHLFEOp identifies what to do with the label-switching entry.
type NHLFEOp int

const (
	NHLFEAdd NHLFEOp = iota
	NHLFERemove
)

// MPLSOp identifies the MPLS label operation the wire frame requested.
type MPLSOp int

const (
	MPLSPush MPLSOp = iota
	MPLSPop
	MPLSSwap
)

// NHLFE is the transient label-switching entry decoded from an FPM NHLFE
// frame (spec.md 3, data model). It exists only long enough for the
// builder to translate it into a FlowMod.
type NHLFE struct {
	TableOp   NHLFEOp
	NextHop   net.IP
	IPVersion int
	InLabel   uint32
	OutLabel  uint32
	Op        MPLSOp
}
