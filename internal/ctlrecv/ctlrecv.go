// Package ctlrecv implements the control-plane handler (spec component
// C9): it consumes inbound PORT_CONFIG messages from the IPC client and
// drives the per-port active/inactive state machine described in
// spec.md 4.9. Named ctlrecv rather than the teacher's existing
// internal/ctlplane (a large, unrelated firewall control-plane package)
// to avoid a package-name collision.
package ctlrecv

import (
	"context"
	"errors"

	"rfclientd/internal/flowmod"
	"rfclientd/internal/ifreg"
	"rfclientd/internal/ipc"
	"rfclientd/internal/outbound"
	"rfclientd/internal/rferrors"
	"rfclientd/internal/rflog"
)

// Acker is the capability the ROUTEMOD_ACK case needs from the outbound
// pump: retire one outstanding credit.
type Acker interface {
	Ack()
}

// Flusher is the capability the MAP_SUCCESS case needs from the
// emitter: replay a port's cached flow-mods and accept the
// controller-punt flow-mods built for a newly-active port.
type Flusher interface {
	EmitRoute(ctx context.Context, local ifreg.Interface, fm flowmod.FlowMod)
	FlushPort(ctx context.Context, port uint32)
}

// Handler owns the receive loop over an ipc.Client and dispatches each
// PortConfig by OperationID, per spec.md 4.9's table.
type Handler struct {
	client ipc.Client
	reg    *ifreg.Registry
	flush  Flusher
	ack    Acker
	log    *rflog.Logger
}

// New creates a Handler wired to client, reg, and the outbound side.
func New(client ipc.Client, reg *ifreg.Registry, flush Flusher, ack Acker) *Handler {
	return &Handler{client: client, reg: reg, flush: flush, ack: ack, log: rflog.Component("ctlrecv")}
}

// Run blocks, dispatching inbound messages until ctx is canceled or the
// client's receive loop returns a non-context error.
func (h *Handler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := h.client.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			h.log.Warn("ipc receive failed", "error", err)
			return err
		}
		h.dispatch(ctx, msg)
	}
}

// warnDrop logs a dropped event tagged with its rferrors.Kind, so the
// disposition that decided to drop it is visible in the log line.
func (h *Handler) warnDrop(err error, kvs ...any) {
	h.log.Warn(err.Error(), append([]any{"kind", rferrors.GetKind(err).String()}, kvs...)...)
}

func (h *Handler) dispatch(ctx context.Context, msg ipc.PortConfig) {
	switch msg.OperationID {
	case ipc.PCTMapRequest:
		h.log.Warn("received deprecated PCT_MAP_REQUEST", "vm_port", msg.VMPort)

	case ipc.PCTReset:
		if !h.reg.SetActive(msg.VMPort, false) {
			h.warnDrop(rferrors.New(rferrors.KindInactivePort, "reset for unknown vm_port"), "vm_port", msg.VMPort)
		}

	case ipc.PCTMapSuccess:
		if !h.reg.SetActive(msg.VMPort, true) {
			h.warnDrop(rferrors.New(rferrors.KindInactivePort, "map_success for unknown vm_port"), "vm_port", msg.VMPort)
			return
		}
		local, ok := h.reg.LookupByPort(msg.VMPort)
		if !ok {
			return
		}
		for _, punt := range flowmod.BuildControllerPunts(local) {
			h.flush.EmitRoute(ctx, local, punt)
		}
		h.flush.FlushPort(ctx, msg.VMPort)

	case ipc.PCTRouteModAck:
		h.ack.Ack()

	default:
		h.warnDrop(rferrors.New(rferrors.KindUnknownOp, "unknown port_config operation_id"),
			"operation_id", int(msg.OperationID), "vm_port", msg.VMPort)
	}
}

var _ Flusher = (*outbound.Emitter)(nil)
