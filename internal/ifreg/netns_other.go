//go:build !linux

package ifreg

import "fmt"

// WithNamespace is unsupported outside Linux; network namespaces are a
// Linux kernel concept.
func WithNamespace(name string, fn func() error) error {
	if name == "" {
		return fn()
	}
	return fmt.Errorf("netns %q: network namespaces are only supported on linux", name)
}
