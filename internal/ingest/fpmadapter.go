package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"rfclientd/internal/rflog"
)

// FPMAdapter is the alternative route source to NLAdapter: it accepts a
// single TCP client (the routing stack's forwarding plane manager) and
// decodes its framed messages, per spec.md 4.2. Grounded on
// original_source/rfclient/FPMServer.cc's create_listen_sock/read_fpm_msg
// accept-one-client loop.
type FPMAdapter struct {
	sink *Sink
	log  *rflog.Logger
	addr string
}

// NewFPMAdapter creates an FPMAdapter listening on addr (host:port, e.g.
// ":2620"). An empty addr defaults to the vendor FPM port on all
// interfaces.
func NewFPMAdapter(sink *Sink, addr string) *FPMAdapter {
	if addr == "" {
		addr = fmt.Sprintf(":%d", fpmDefaultPort)
	}
	return &FPMAdapter{sink: sink, log: rflog.Component("fpmadapter"), addr: addr}
}

// Run listens for FPM clients until ctx is canceled. Per spec.md 4.2, on
// any socket error or EOF the adapter closes the connection and waits
// for the next client; it only returns when ctx is canceled or the
// listener itself fails to bind.
func (a *FPMAdapter) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", a.addr)
	if err != nil {
		return fmt.Errorf("fpmadapter: listen: %w", err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.log.Warn("accept failed", "error", err)
			continue
		}
		a.serve(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// serve reads framed messages from a single client until it disconnects
// or sends something malformed, then returns so Run can accept the next
// one.
func (a *FPMAdapter) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	for {
		if ctx.Err() != nil {
			return
		}

		header := make([]byte, fpmHeaderLen)
		if _, err := io.ReadFull(conn, header); err != nil {
			if !errors.Is(err, io.EOF) {
				a.log.Debug("fpm header read failed", "error", err)
			}
			return
		}
		h, err := decodeFPMHeader(header)
		if err != nil {
			a.log.Warn("malformed fpm message", "error", err)
			return
		}

		bodyLen := int(h.Length) - fpmHeaderLen
		body := make([]byte, bodyLen)
		if bodyLen > 0 {
			if _, err := io.ReadFull(conn, body); err != nil {
				a.log.Debug("fpm body read failed", "error", err)
				return
			}
		}

		a.dispatch(ctx, h.Type, body)
	}
}

func (a *FPMAdapter) dispatch(ctx context.Context, msgType uint8, body []byte) {
	switch msgType {
	case fpmMsgTypeNetlink:
		op, ifIndex, dst, prefixLen, gateway, err := decodeNetlinkRoutePayload(body)
		if err != nil {
			a.log.Warn("fpm netlink payload decode failed", "error", err)
			return
		}
		if gateway == nil {
			return
		}
		iface, err := net.InterfaceByIndex(ifIndex)
		if err != nil {
			a.log.Debug("fpm route references unknown ifindex", "ifindex", ifIndex, "error", err)
			return
		}
		a.sink.handleRoute(ctx, op, iface.Name, dst, prefixLen, gateway)

	case fpmMsgTypeNHLFE:
		n, err := decodeNHLFE(body)
		if err != nil {
			a.log.Warn("fpm nhlfe payload decode failed", "error", err)
			return
		}
		a.sink.handleNHLFE(ctx, n)

	case fpmMsgTypeFTN:
		a.log.Debug("fpm ftn message received, ignoring")

	default:
		a.log.Warn("unknown fpm message type", "type", msgType)
	}
}
