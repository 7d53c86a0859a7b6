package outbound

import (
	"context"
	"sync/atomic"
	"time"

	"rfclientd/internal/flowmod"
	"rfclientd/internal/ipc"
	"rfclientd/internal/rfmetrics"
)

// Pump drains the emitter's queue onto IPC, respecting an in-flight
// credit window: at most maxOutstanding unacknowledged flow-mods may be
// in flight at once (spec.md 4.7).
type Pump struct {
	client         ipc.Client
	queue          <-chan flowmod.FlowMod
	maxOutstanding uint64
	outstanding    atomic.Uint64
	vmID           uint64
	metrics        *rfmetrics.Metrics

	pollInterval time.Duration
}

// NewPump creates a Pump. maxOutstanding defaults to 1 if zero, per
// spec.md's default.
func NewPump(client ipc.Client, queue <-chan flowmod.FlowMod, vmID uint64, maxOutstanding uint64, metrics *rfmetrics.Metrics) *Pump {
	if maxOutstanding == 0 {
		maxOutstanding = 1
	}
	return &Pump{
		client:         client,
		queue:          queue,
		maxOutstanding: maxOutstanding,
		vmID:           vmID,
		metrics:        metrics,
		pollInterval:   time.Millisecond,
	}
}

// Ack decrements the in-flight counter. Called by the control-plane
// handler on PCT_ROUTEMOD_ACK.
func (p *Pump) Ack() {
	for {
		cur := p.outstanding.Load()
		if cur == 0 {
			return
		}
		if p.outstanding.CompareAndSwap(cur, cur-1) {
			if p.metrics != nil {
				p.metrics.OutstandingMods.Set(float64(cur - 1))
			}
			return
		}
	}
}

// Outstanding reports the current in-flight count, for tests and metrics.
func (p *Pump) Outstanding() uint64 {
	return p.outstanding.Load()
}

// Run drains the queue until ctx is canceled.
func (p *Pump) Run(ctx context.Context) error {
	for {
		select {
		case fm, ok := <-p.queue:
			if !ok {
				return nil
			}
			if err := p.send(ctx, fm); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pump) send(ctx context.Context, fm flowmod.FlowMod) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for p.outstanding.Load() >= p.maxOutstanding {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := p.client.SendRouteMod(ctx, ipc.RouteMod{VMID: p.vmID, Mod: fm}); err != nil {
		return err
	}
	p.outstanding.Add(1)
	if p.metrics != nil {
		p.metrics.OutstandingMods.Set(float64(p.outstanding.Load()))
	}
	return nil
}
