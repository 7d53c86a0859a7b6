//go:build linux

package ifreg

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// netlinkSource implements LinkSource against the real kernel, following
// the RealNetlinker wrapper idiom from grimm-is-glacic/internal/network.
type netlinkSource struct {
	pollInterval time.Duration
}

// NewLinkSource returns the Linux LinkSource.
func NewLinkSource() LinkSource {
	return &netlinkSource{pollInterval: 200 * time.Millisecond}
}

func (s *netlinkSource) Links() ([]link, error) {
	nlLinks, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	out := make([]link, 0, len(nlLinks))
	for _, nl := range nlLinks {
		attrs := nl.Attrs()
		if attrs.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := netlink.AddrList(nl, unix.AF_UNSPEC)
		if err != nil {
			return nil, fmt.Errorf("list addrs for %s: %w", attrs.Name, err)
		}
		ips := make([]net.IP, 0, len(addrs))
		for _, a := range addrs {
			ips = append(ips, a.IP)
		}
		out = append(out, link{
			Name:     attrs.Name,
			HWAddr:   attrs.HardwareAddr,
			IPList:   ips,
			Up:       attrs.Flags&unix.IFF_UP != 0,
			Physical: nl.Type() == "device",
		})
	}
	return out, nil
}

func (s *netlinkSource) WaitUp(ctx context.Context, name string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		l, err := netlink.LinkByName(name)
		if err == nil && l.Attrs().RawFlags&unix.IFF_RUNNING != 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s to come up: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}
