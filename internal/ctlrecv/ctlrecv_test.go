package ctlrecv

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rfclientd/internal/flowmod"
	"rfclientd/internal/ifreg"
	"rfclientd/internal/ipc"
)

type fakeFlusher struct {
	emitted []flowmod.FlowMod
	flushed []uint32
}

func (f *fakeFlusher) EmitRoute(ctx context.Context, local ifreg.Interface, fm flowmod.FlowMod) {
	f.emitted = append(f.emitted, fm)
}

func (f *fakeFlusher) FlushPort(ctx context.Context, port uint32) {
	f.flushed = append(f.flushed, port)
}

type fakeAcker struct {
	count int
}

func (a *fakeAcker) Ack() { a.count++ }

func newRegWithPort(port uint32) *ifreg.Registry {
	reg := ifreg.NewRegistry()
	reg.Register(ifreg.Interface{
		Port:     port,
		Name:     "eth1",
		HWAddr:   net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		Physical: true,
	})
	return reg
}

func TestMapSuccessActivatesAndFlushes(t *testing.T) {
	reg := newRegWithPort(5)
	flusher := &fakeFlusher{}
	acker := &fakeAcker{}
	h := New(ipc.NewMockClient(), reg, flusher, acker)

	h.dispatch(context.Background(), ipc.PortConfig{VMPort: 5, OperationID: ipc.PCTMapSuccess})

	iface, ok := reg.Lookup("eth1")
	require.True(t, ok)
	require.True(t, iface.Active)
	require.NotEmpty(t, flusher.emitted, "controller-punt flow-mods should be emitted")
	require.Equal(t, []uint32{5}, flusher.flushed)
}

func TestResetDeactivates(t *testing.T) {
	reg := newRegWithPort(5)
	reg.SetActive(5, true)
	h := New(ipc.NewMockClient(), reg, &fakeFlusher{}, &fakeAcker{})

	h.dispatch(context.Background(), ipc.PortConfig{VMPort: 5, OperationID: ipc.PCTReset})

	iface, ok := reg.Lookup("eth1")
	require.True(t, ok)
	require.False(t, iface.Active)
}

func TestRouteModAckDecrementsCredit(t *testing.T) {
	reg := newRegWithPort(5)
	acker := &fakeAcker{}
	h := New(ipc.NewMockClient(), reg, &fakeFlusher{}, acker)

	h.dispatch(context.Background(), ipc.PortConfig{VMPort: 5, OperationID: ipc.PCTRouteModAck})

	require.Equal(t, 1, acker.count)
}

func TestUnknownOperationIsDroppedNotFatal(t *testing.T) {
	reg := newRegWithPort(5)
	h := New(ipc.NewMockClient(), reg, &fakeFlusher{}, &fakeAcker{})

	require.NotPanics(t, func() {
		h.dispatch(context.Background(), ipc.PortConfig{VMPort: 5, OperationID: ipc.OperationID(99)})
	})
}

func TestRunDispatchesUntilClientReturnsError(t *testing.T) {
	client := ipc.NewMockClient()
	reg := newRegWithPort(5)
	acker := &fakeAcker{}
	h := New(client, reg, &fakeFlusher{}, acker)

	client.Inbound <- ipc.PortConfig{VMPort: 5, OperationID: ipc.PCTRouteModAck}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := h.Run(ctx)
	require.Error(t, err)
	require.Equal(t, 1, acker.count)
}
