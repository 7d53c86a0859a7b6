package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client is the capability rfclientd's components need from the IPC bus:
// send an outbound message, receive the next inbound PortConfig. Spec.md
// puts the transport itself out of scope; this interface is the seam a
// concrete transport (or a test double) plugs into.
type Client interface {
	SendPortRegister(ctx context.Context, msg PortRegister) error
	SendRouteMod(ctx context.Context, msg RouteMod) error
	Receive(ctx context.Context) (PortConfig, error)
	Close() error
}

// JSONClient is a newline-delimited JSON transport over a net.Conn,
// following the JSONL idiom in grimm-is-glacic/internal/protocol.
type JSONClient struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder

	mu sync.Mutex
}

// Dial connects to the controller at addr.
func Dial(ctx context.Context, addr string) (*JSONClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial ipc %s: %w", addr, err)
	}
	return NewJSONClient(conn), nil
}

// NewJSONClient wraps an already-established connection.
func NewJSONClient(conn net.Conn) *JSONClient {
	return &JSONClient{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(bufio.NewReader(conn)),
	}
}

// watchCancel arranges for conn's pending deadline to expire as soon as
// ctx is canceled, unblocking whatever read/write is in flight on it. The
// returned stop func must be called once the caller's blocking operation
// returns, so the watcher goroutine doesn't outlive it.
func watchCancel(ctx context.Context, conn net.Conn) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.SetDeadline(time.Now())
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (c *JSONClient) send(ctx context.Context, msgType MessageType, body any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msgType, err)
	}
	stop := watchCancel(ctx, c.conn)
	defer stop()
	if err := c.enc.Encode(Envelope{Type: msgType, ID: uuid.New().String(), Body: raw}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("encode %s: %w", msgType, err)
	}
	return nil
}

func (c *JSONClient) SendPortRegister(ctx context.Context, msg PortRegister) error {
	return c.send(ctx, MsgPortRegister, msg)
}

func (c *JSONClient) SendRouteMod(ctx context.Context, msg RouteMod) error {
	return c.send(ctx, MsgRouteMod, msg)
}

// Receive blocks until the controller sends a PortConfig or ctx is
// canceled, in which case the read is unblocked via a deadline rather
// than left to hang, mirroring FPMAdapter.Run's close-on-ctx.Done idiom.
func (c *JSONClient) Receive(ctx context.Context) (PortConfig, error) {
	stop := watchCancel(ctx, c.conn)
	defer stop()

	var env Envelope
	if err := c.dec.Decode(&env); err != nil {
		if ctx.Err() != nil {
			return PortConfig{}, ctx.Err()
		}
		return PortConfig{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type != MsgPortConfig {
		return PortConfig{}, fmt.Errorf("unexpected message type %q on inbound channel", env.Type)
	}
	var pc PortConfig
	if err := json.Unmarshal(env.Body, &pc); err != nil {
		return PortConfig{}, fmt.Errorf("unmarshal port_config: %w", err)
	}
	return pc, nil
}

func (c *JSONClient) Close() error {
	return c.conn.Close()
}
