//go:build linux

package ifreg

import (
	"fmt"
	"runtime"

	"github.com/vishvananda/netns"
)

// WithNamespace runs fn with the calling goroutine's OS thread pinned
// inside the named network namespace, restoring the original namespace
// before returning. Grounded on grimm-is-glacic/cmd/netns_linux.go's
// setupNetworkNamespace (LockOSThread, netns.Get, netns.GetFromName,
// netns.Set), generalized from that command's one-shot veth setup to a
// scoped run-and-restore helper so enumeration can be pinned to the
// routing daemon's namespace per spec.md's -netns flag.
func WithNamespace(name string, fn func() error) error {
	if name == "" {
		return fn()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origns, err := netns.Get()
	if err != nil {
		return fmt.Errorf("get current netns: %w", err)
	}
	defer origns.Close()

	target, err := netns.GetFromName(name)
	if err != nil {
		return fmt.Errorf("open netns %q: %w", name, err)
	}
	defer target.Close()

	if err := netns.Set(target); err != nil {
		return fmt.Errorf("enter netns %q: %w", name, err)
	}
	defer netns.Set(origns)

	return fn()
}
