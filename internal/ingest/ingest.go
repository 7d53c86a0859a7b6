// Package ingest implements the two mutually-exclusive route-source
// adapters (spec component C2): the netlink adapter and the FPM adapter.
// Both push onto the same pendingqueue and write the same host table, so
// downstream components are source-agnostic, per spec.md 4.2's closing
// note and the RouteSource capability from spec.md 9's design notes.
package ingest

import (
	"context"
	"net"

	"rfclientd/internal/flowmod"
	"rfclientd/internal/hosttable"
	"rfclientd/internal/ifreg"
	"rfclientd/internal/pendingqueue"
)

// Sink is everything an adapter needs to hand off decoded events:
// RouteMods go to the pending queue, neighbor events go to the host
// table (and, if the owning interface is active, to the emitter as a
// host-entry flow-mod), and NHLFE frames go straight to the emitter
// after translation.
type Sink struct {
	Queue   *pendingqueue.Queue
	Hosts   *hosttable.Table
	Ifaces  InterfaceLookup
	Emitter Emitter
}

// InterfaceLookup is the capability adapters need from the interface
// registry: resolve a kernel interface name to the agent's local view,
// and exclude the management interface from route ingestion.
type InterfaceLookup interface {
	Lookup(name string) (ifreg.Interface, bool)
	IsManagement(name string) bool
}

// Emitter is the capability adapters need to push a host-entry or NHLFE
// flow-mod once built.
type Emitter interface {
	EmitRoute(ctx context.Context, local ifreg.Interface, fm flowmod.FlowMod)
	EmitHost(ctx context.Context, local ifreg.Interface, fm flowmod.FlowMod)
}

// handleNeighbor writes a resolved neighbor into the host table and, if
// its interface is active, emits a host-entry flow-mod. Shared by both
// adapters, per spec.md 4.2: "Neighbor events for reachable entries
// translate into host-table writes and, if the interface is active, a
// host-entry flow-mod emission."
func (s *Sink) handleNeighbor(ctx context.Context, ip net.IP, mac net.HardwareAddr, ifaceName string) {
	local, ok := s.Ifaces.Lookup(ifaceName)
	if !ok {
		return
	}
	s.Hosts.Put(hosttable.Entry{IP: ip, MAC: mac, Interface: ifaceName})

	fm := flowmod.BuildHostEntry(flowmod.OpAdd, local, ip, mac)
	s.Emitter.EmitHost(ctx, local, fm)
}

// handleRoute normalizes a route to a PendingRoute and pushes it onto
// the queue, skipping the management interface per spec.md 4.2.
func (s *Sink) handleRoute(ctx context.Context, op pendingqueue.Op, ifaceName string, dst net.IP, prefixLen uint8, gateway net.IP) {
	if s.Ifaces.IsManagement(ifaceName) {
		return
	}
	if prefixLen == 0 {
		dst = allZeros(dst)
	}
	_ = s.Queue.Push(ctx, pendingqueue.PendingRoute{
		Op: op,
		Entry: pendingqueue.RouteEntry{
			Dst:       dst,
			PrefixLen: prefixLen,
			Gateway:   gateway,
			Interface: ifaceName,
		},
	})
}

func allZeros(dst net.IP) net.IP {
	if v4 := dst.To4(); v4 != nil {
		return net.IPv4zero
	}
	return net.IPv6zero
}

// handleNHLFE translates a decoded label-switching frame directly into a
// flow-mod, per spec.md 4.6's NHLFE emission shape.
func (s *Sink) handleNHLFE(ctx context.Context, n flowmod.NHLFE) {
	host, ok := s.Hosts.Get(n.NextHop)
	if !ok {
		return
	}
	local, ok := s.Ifaces.Lookup(host.Interface)
	if !ok {
		return
	}
	fm := flowmod.BuildNHLFE(n, local, host.MAC)
	s.Emitter.EmitRoute(ctx, local, fm)
}
