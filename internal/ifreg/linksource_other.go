//go:build !linux

package ifreg

import (
	"context"
	"fmt"
)

// netlinkSource is unavailable outside Linux; rfclientd's kernel ingest
// depends on netlink sockets the other platforms don't have.
type netlinkSource struct{}

// NewLinkSource returns a LinkSource that always fails. rfclientd only
// runs on Linux; this stub exists so the package still builds elsewhere,
// mirroring grimm-is-glacic's manager_other.go split.
func NewLinkSource() LinkSource {
	return &netlinkSource{}
}

func (s *netlinkSource) Links() ([]link, error) {
	return nil, fmt.Errorf("ifreg: link enumeration requires linux")
}

func (s *netlinkSource) WaitUp(ctx context.Context, name string) error {
	return fmt.Errorf("ifreg: link enumeration requires linux")
}
