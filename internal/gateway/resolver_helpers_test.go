package gateway

import (
	"context"

	"rfclientd/internal/flowmod"
	"rfclientd/internal/ifreg"
	"rfclientd/internal/pendingqueue"
)

// outboundStub is a minimal Emitter double that records everything
// pushed to it, rather than modeling the active/cache split — that split
// is outbound's own responsibility and is exercised by its own tests.
type outboundStub struct {
	emitted []flowmod.FlowMod
	emitter Emitter
}

func newOutboundStub() *outboundStub {
	s := &outboundStub{}
	s.emitter = recordingEmitter{s}
	return s
}

type recordingEmitter struct {
	stub *outboundStub
}

func (r recordingEmitter) EmitRoute(ctx context.Context, local ifreg.Interface, fm flowmod.FlowMod) {
	r.stub.emitted = append(r.stub.emitted, fm)
}

func pendingqueueNew() *pendingqueue.Queue {
	return pendingqueue.New(16)
}
