//go:build !linux

package ingest

import (
	"context"
	"fmt"
)

// NLAdapter is unavailable outside Linux; rfclientd's kernel ingest
// depends on netlink sockets the other platforms don't have.
type NLAdapter struct{}

// NewNLAdapter returns an NLAdapter whose Run always fails.
func NewNLAdapter(sink *Sink) *NLAdapter {
	return &NLAdapter{}
}

func (a *NLAdapter) Run(ctx context.Context) error {
	return fmt.Errorf("ingest: netlink adapter requires linux")
}
