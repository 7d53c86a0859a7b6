//go:build linux

package ingest

import (
	"context"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"rfclientd/internal/pendingqueue"
	"rfclientd/internal/rflog"
)

// NLAdapter subscribes to the kernel's route and neighbor tables and
// translates updates into Sink calls, per spec.md 4.2. Grounded on
// grimm-is-glacic/internal/network/monitor.go's RouteSubscribe/
// AddrSubscribe idiom, generalized to also subscribe to neighbor events.
type NLAdapter struct {
	sink *Sink
	log  *rflog.Logger
}

// NewNLAdapter creates an NLAdapter delivering events to sink.
func NewNLAdapter(sink *Sink) *NLAdapter {
	return &NLAdapter{sink: sink, log: rflog.Component("nladapter")}
}

// Run subscribes to route and neighbor updates until ctx is canceled.
func (a *NLAdapter) Run(ctx context.Context) error {
	routeUpdates := make(chan netlink.RouteUpdate, 1024)
	if err := netlink.RouteSubscribe(routeUpdates, ctx.Done()); err != nil {
		return err
	}

	neighUpdates := make(chan netlink.NeighUpdate, 1024)
	if err := netlink.NeighSubscribe(neighUpdates, ctx.Done()); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-routeUpdates:
			if !ok {
				return nil
			}
			a.handleRouteUpdate(ctx, u)
		case u, ok := <-neighUpdates:
			if !ok {
				return nil
			}
			a.handleNeighUpdate(ctx, u)
		}
	}
}

func (a *NLAdapter) handleRouteUpdate(ctx context.Context, u netlink.RouteUpdate) {
	if u.Table != 0 && u.Table != unix.RT_TABLE_MAIN {
		return
	}
	if u.Route.Dst == nil && u.Route.Gw == nil {
		return
	}

	link, err := netlink.LinkByIndex(u.Route.LinkIndex)
	if err != nil {
		return
	}
	ifaceName := link.Attrs().Name

	gateway := u.Route.Gw
	if gateway == nil {
		for _, nh := range u.Route.MultiPath {
			if nh.Gw != nil {
				gateway = nh.Gw
				break
			}
		}
	}
	if gateway == nil {
		return
	}

	dst, prefixLen := routeDestination(u.Route.Dst)

	op := pendingqueue.OpAdd
	if u.Type == unix.RTM_DELROUTE {
		op = pendingqueue.OpDelete
	}
	a.sink.handleRoute(ctx, op, ifaceName, dst, prefixLen, gateway)
}

func routeDestination(dst *net.IPNet) (net.IP, uint8) {
	if dst == nil {
		return net.IPv4zero, 0
	}
	ones, _ := dst.Mask.Size()
	return dst.IP, uint8(ones)
}

func (a *NLAdapter) handleNeighUpdate(ctx context.Context, u netlink.NeighUpdate) {
	if u.Neigh.State&(unix.NUD_REACHABLE|unix.NUD_PERMANENT|unix.NUD_NOARP|unix.NUD_STALE|unix.NUD_PROBE|unix.NUD_DELAY) == 0 {
		return
	}
	if len(u.Neigh.HardwareAddr) == 0 {
		return
	}
	link, err := netlink.LinkByIndex(u.Neigh.LinkIndex)
	if err != nil {
		return
	}
	a.sink.handleNeighbor(ctx, u.Neigh.IP, u.Neigh.HardwareAddr, link.Attrs().Name)
}
