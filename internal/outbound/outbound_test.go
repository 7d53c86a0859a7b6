package outbound

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rfclientd/internal/flowmod"
	"rfclientd/internal/ifreg"
	"rfclientd/internal/ipc"
)

// TestEmitterCachesRouteOnInactivePort reproduces spec scenario S3's
// caching half.
func TestEmitterCachesRouteOnInactivePort(t *testing.T) {
	cache := flowmod.NewPortCache()
	e := NewEmitter(cache, 4, nil)
	down := ifreg.Interface{Port: 2, Active: false}

	e.EmitRoute(context.Background(), down, flowmod.FlowMod{Op: flowmod.OpAdd, VMPort: 2})

	require.Equal(t, 1, cache.Len(2))
	select {
	case <-e.Queue():
		t.Fatal("no flow-mod should reach the outbound queue while the port is down")
	default:
	}
}

func TestEmitterDropsHostEntryOnInactivePort(t *testing.T) {
	cache := flowmod.NewPortCache()
	e := NewEmitter(cache, 4, nil)
	down := ifreg.Interface{Port: 2, Active: false}

	e.EmitHost(context.Background(), down, flowmod.FlowMod{Op: flowmod.OpAdd, VMPort: 2})

	require.Equal(t, 0, cache.Len(2), "host-entry emissions are dropped, not cached")
}

func TestFlushPortReplaysCacheExactlyOnce(t *testing.T) {
	cache := flowmod.NewPortCache()
	e := NewEmitter(cache, 4, nil)
	down := ifreg.Interface{Port: 2, Active: false}
	e.EmitRoute(context.Background(), down, flowmod.FlowMod{Op: flowmod.OpAdd, VMPort: 2})

	e.FlushPort(context.Background(), 2)

	select {
	case fm := <-e.Queue():
		require.Equal(t, flowmod.OpAdd, fm.Op)
	default:
		t.Fatal("expected the cached flow-mod to be replayed onto the queue")
	}
	require.Equal(t, 0, cache.Len(2))

	e.FlushPort(context.Background(), 2)
	select {
	case <-e.Queue():
		t.Fatal("flush must not replay an already-drained cache")
	default:
	}
}

// TestPumpCreditWindowBlocksSecondSend reproduces spec scenario S6.
func TestPumpCreditWindowBlocksSecondSend(t *testing.T) {
	client := ipc.NewMockClient()
	cache := flowmod.NewPortCache()
	e := NewEmitter(cache, 4, nil)
	pump := NewPump(client, e.Queue(), 1, 1, nil)
	pump.pollInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pump.Run(ctx)

	up := ifreg.Interface{Port: 1, Active: true}
	e.EmitRoute(ctx, up, flowmod.FlowMod{Op: flowmod.OpAdd, VMPort: 1})
	e.EmitRoute(ctx, up, flowmod.FlowMod{Op: flowmod.OpAdd, VMPort: 1})

	require.Eventually(t, func() bool {
		return len(client.Sent) == 1
	}, time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	require.Len(t, client.Sent, 1, "second send must wait for the ack")

	pump.Ack()

	require.Eventually(t, func() bool {
		return len(client.Sent) == 2
	}, time.Second, time.Millisecond)
}
