// Package gateway implements the gateway resolver (spec component C4):
// the single-threaded consumer of the pending-route queue that maintains
// the route table and the unresolved-gateway set, and drives neighbor
// discovery. Grounded on original_source/rfclient/FlowTable.cc's
// processingLoop (the drain-then-sweep cycle) and resolveGateway (the
// TCP-connect ND trick), generalized to Go channels/goroutines per
// spec.md 9's "single owned Agent value" design note.
package gateway

import (
	"context"
	"io"
	"net"
	"time"

	"rfclientd/internal/flowmod"
	"rfclientd/internal/hosttable"
	"rfclientd/internal/ifreg"
	"rfclientd/internal/pendingqueue"
	"rfclientd/internal/rferrors"
	"rfclientd/internal/rflog"
	"rfclientd/internal/rfmetrics"
)

// InterfaceLookup is the capability the resolver needs from the
// interface registry, kept narrow per spec.md 9's anti-cyclic-reference
// design note.
type InterfaceLookup interface {
	Lookup(name string) (ifreg.Interface, bool)
}

// Emitter is the capability the resolver needs from the flow-mod
// builder/emitter (C6): hand it a built FlowMod and let it decide
// whether to send or cache based on the interface's active state.
type Emitter interface {
	EmitRoute(ctx context.Context, local ifreg.Interface, fm flowmod.FlowMod)
}

// Resolver owns the route table and unresolved set exclusively; no other
// goroutine reads or writes them, so they need no mutex (spec.md 9).
type Resolver struct {
	queue   *pendingqueue.Queue
	hosts   *hosttable.Table
	ifaces  InterfaceLookup
	emitter Emitter
	nd      NeighborDiscoverer
	metrics *rfmetrics.Metrics
	log     *rflog.Logger

	routes     map[string]pendingqueue.RouteEntry
	unresolved map[string]pendingqueue.RouteEntry
	pendingND  map[string]io.Closer

	sweepInterval time.Duration
}

// Config bundles the Resolver's collaborators.
type Config struct {
	Queue   *pendingqueue.Queue
	Hosts   *hosttable.Table
	Ifaces  InterfaceLookup
	Emitter Emitter
	ND      NeighborDiscoverer
	Metrics *rfmetrics.Metrics
	Log     *rflog.Logger
}

// NewResolver creates a Resolver from cfg.
func NewResolver(cfg Config) *Resolver {
	log := cfg.Log
	if log == nil {
		log = rflog.Component("gateway")
	}
	return &Resolver{
		queue:         cfg.Queue,
		hosts:         cfg.Hosts,
		ifaces:        cfg.Ifaces,
		emitter:       cfg.Emitter,
		nd:            cfg.ND,
		metrics:       cfg.Metrics,
		log:           log,
		routes:        make(map[string]pendingqueue.RouteEntry),
		unresolved:    make(map[string]pendingqueue.RouteEntry),
		pendingND:     make(map[string]io.Closer),
		sweepInterval: time.Millisecond,
	}
}

// Run drives the drain-then-sweep cycle until ctx is canceled, per
// spec.md 4.4.
func (r *Resolver) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.drain(ctx)
		r.sweep(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *Resolver) drain(ctx context.Context) {
	for _, p := range r.queue.Drain() {
		key := p.Entry.Key()
		switch p.Op {
		case pendingqueue.OpAdd:
			r.handleAdd(ctx, key, p.Entry)
		case pendingqueue.OpDelete:
			r.handleDelete(ctx, key, p.Entry)
		}
	}
}

// warnDrop logs a dropped event tagged with its rferrors.Kind, so the
// disposition that decided to drop it (rather than retry or escalate) is
// visible in the log line.
func (r *Resolver) warnDrop(err error, kvs ...any) {
	r.log.Warn(err.Error(), append([]any{"kind", rferrors.GetKind(err).String()}, kvs...)...)
}

func (r *Resolver) handleAdd(ctx context.Context, key string, entry pendingqueue.RouteEntry) {
	if _, exists := r.routes[key]; exists {
		r.warnDrop(rferrors.New(rferrors.KindDuplicate, "duplicate route add"), "key", key)
		if r.metrics != nil {
			r.metrics.DuplicateRoutes.Inc()
		}
		return
	}
	r.routes[key] = entry

	host, ok := r.hosts.Get(entry.Gateway)
	if !ok {
		r.unresolved[key] = entry
		r.updateUnresolvedMetric()
		return
	}
	r.emitAdd(ctx, entry, host)
}

func (r *Resolver) handleDelete(ctx context.Context, key string, entry pendingqueue.RouteEntry) {
	stored, exists := r.routes[key]
	if !exists {
		r.warnDrop(rferrors.New(rferrors.KindMalformed, "delete for unknown route"), "key", key)
		return
	}
	delete(r.routes, key)
	delete(r.unresolved, key)
	r.updateUnresolvedMetric()

	host, ok := r.hosts.Get(stored.Gateway)
	if !ok {
		r.warnDrop(rferrors.New(rferrors.KindUnresolvable, "gateway unresolved, dropping delete emission"), "key", key)
		return
	}

	local, ok := r.ifaces.Lookup(stored.Interface)
	if !ok {
		r.warnDrop(rferrors.New(rferrors.KindMalformed, "unknown local interface for delete"), "interface", stored.Interface)
		return
	}
	fm := flowmod.BuildRouteEntry(flowmod.OpDelete, local, stored.Dst, stored.PrefixLen, host.MAC)
	r.emitter.EmitRoute(ctx, local, fm)
}

func (r *Resolver) emitAdd(ctx context.Context, entry pendingqueue.RouteEntry, host hosttable.Entry) {
	local, ok := r.ifaces.Lookup(entry.Interface)
	if !ok {
		r.warnDrop(rferrors.New(rferrors.KindMalformed, "unknown local interface for route"), "interface", entry.Interface)
		return
	}
	fm := flowmod.BuildRouteEntry(flowmod.OpAdd, local, entry.Dst, entry.PrefixLen, host.MAC)
	r.emitter.EmitRoute(ctx, local, fm)
}

// sweep implements spec.md 4.4 step 2: for each still-unresolved route,
// kick neighbor discovery at most once per sweep; for each now-resolved
// route, emit the deferred ADD and drop it from unresolved.
func (r *Resolver) sweep(ctx context.Context) {
	if len(r.unresolved) == 0 {
		return
	}
	for key, entry := range r.unresolved {
		host, ok := r.hosts.Get(entry.Gateway)
		if !ok {
			r.startND(entry.Gateway)
			continue
		}
		r.emitAdd(ctx, entry, host)
		delete(r.unresolved, key)
		r.closeND(entry.Gateway)
	}
	r.updateUnresolvedMetric()
}

func (r *Resolver) startND(gateway net.IP) {
	key := gateway.String()
	if _, inProgress := r.pendingND[key]; inProgress {
		return
	}
	c, err := r.nd.Start(gateway)
	if err != nil {
		r.log.Debug("neighbor discovery attempt failed", "gateway", key, "error", err)
		return
	}
	r.pendingND[key] = c
}

func (r *Resolver) closeND(gateway net.IP) {
	key := gateway.String()
	if c, ok := r.pendingND[key]; ok {
		_ = c.Close()
		delete(r.pendingND, key)
	}
}

func (r *Resolver) updateUnresolvedMetric() {
	if r.metrics != nil {
		r.metrics.UnresolvedRoutes.Set(float64(len(r.unresolved)))
	}
}

// UnresolvedCount reports how many routes await gateway resolution, for
// tests.
func (r *Resolver) UnresolvedCount() int {
	return len(r.unresolved)
}

// RouteCount reports the route table's size, for tests.
func (r *Resolver) RouteCount() int {
	return len(r.routes)
}
