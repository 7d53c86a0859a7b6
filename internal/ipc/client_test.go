package ipc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJSONClientReceiveRejectsRouteMod(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	client := NewJSONClient(clientConn)
	server := NewJSONClient(serverConn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- client.SendRouteMod(ctx, RouteMod{VMID: 42})
	}()

	pc, err := server.Receive(ctx)
	_ = pc
	require.Error(t, err, "RouteMod is not a PortConfig, Receive should reject it")
	require.NoError(t, <-done)
}

func TestJSONClientReceivesPortConfig(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	client := NewJSONClient(clientConn)
	server := NewJSONClient(serverConn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		_ = server.send(ctx, MsgPortConfig, PortConfig{VMPort: 2, OperationID: PCTMapSuccess})
	}()

	pc, err := client.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(2), pc.VMPort)
	require.Equal(t, PCTMapSuccess, pc.OperationID)
}

func TestJSONClientReceiveUnblocksOnContextCancel(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	client := NewJSONClient(clientConn)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := client.Receive(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Receive did not unblock on context cancellation")
	}
}

func TestMockClientRecordsSends(t *testing.T) {
	m := NewMockClient()
	require.NoError(t, m.SendPortRegister(context.Background(), PortRegister{Port: 1}))
	require.Len(t, m.Sent, 1)

	m.Inbound <- PortConfig{VMPort: 1, OperationID: PCTRouteModAck}
	pc, err := m.Receive(context.Background())
	require.NoError(t, err)
	require.Equal(t, PCTRouteModAck, pc.OperationID)
}
