// Package outbound implements the flow-mod emission decision (spec
// component C6's active/inactive branch) and the credit-limited pump
// that drains emitted flow-mods onto IPC (component C7). Grounded on
// FlowTable.cc's sendToHw/updateNHLFE active-interface check, redesigned
// per spec.md 4.6 to cache route and NHLFE emissions for a down port
// instead of dropping them.
package outbound

import (
	"context"

	"rfclientd/internal/flowmod"
	"rfclientd/internal/ifreg"
	"rfclientd/internal/rfmetrics"
)

// Emitter decides, for each built FlowMod, whether to push it onto the
// outbound queue or divert it into the per-port cache.
type Emitter struct {
	cache   *flowmod.PortCache
	queue   chan flowmod.FlowMod
	metrics *rfmetrics.Metrics
}

// NewEmitter creates an Emitter with the given outbound queue capacity.
func NewEmitter(cache *flowmod.PortCache, queueCapacity int, metrics *rfmetrics.Metrics) *Emitter {
	return &Emitter{cache: cache, queue: make(chan flowmod.FlowMod, queueCapacity), metrics: metrics}
}

// Queue exposes the outbound channel for the pump to drain.
func (e *Emitter) Queue() <-chan flowmod.FlowMod {
	return e.queue
}

// EmitRoute pushes fm if local is active, otherwise caches it for replay
// when the port comes up. Covers both route-entry and NHLFE emission,
// which share the cache-on-down-port behavior in spec.md 4.6.
func (e *Emitter) EmitRoute(ctx context.Context, local ifreg.Interface, fm flowmod.FlowMod) {
	if !local.Active {
		e.cache.Append(local.Port, fm)
		if e.metrics != nil {
			e.metrics.PortCacheDepth.WithLabelValues(portLabel(local.Port)).Set(float64(e.cache.Len(local.Port)))
		}
		return
	}
	e.push(ctx, fm)
}

// EmitHost pushes fm if local is active; if inactive the host-entry
// emission is simply dropped, per spec.md 4.6's emission invariant (host
// entries are not cached, only route entries are).
func (e *Emitter) EmitHost(ctx context.Context, local ifreg.Interface, fm flowmod.FlowMod) {
	if !local.Active {
		return
	}
	e.push(ctx, fm)
}

// FlushPort replays everything cached for port through the normal emit
// path, in FIFO order, exactly once.
func (e *Emitter) FlushPort(ctx context.Context, port uint32) {
	for _, fm := range e.cache.Swap(port) {
		e.push(ctx, fm)
	}
}

func (e *Emitter) push(ctx context.Context, fm flowmod.FlowMod) {
	select {
	case e.queue <- fm:
		if e.metrics != nil {
			e.metrics.FlowModsSent.WithLabelValues(opLabel(fm.Op)).Inc()
		}
	case <-ctx.Done():
	}
}

func opLabel(op flowmod.Op) string {
	switch op {
	case flowmod.OpAdd:
		return "add"
	case flowmod.OpDelete:
		return "delete"
	case flowmod.OpController:
		return "controller"
	default:
		return "unknown"
	}
}

func portLabel(port uint32) string {
	return itoa(port)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
