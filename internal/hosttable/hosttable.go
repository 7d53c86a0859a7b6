// Package hosttable is the shared IP-to-MAC table (spec component C5):
// written by the route-source adapters on neighbor-reachable events, read
// by the gateway resolver and flow-mod builder. Grounded on
// grimm-is-glacic/internal/host's single-mutex map idiom.
package hosttable

import (
	"net"
	"sync"
)

// Entry records the resolved link-layer address for an IP, and which
// local interface it was learned on.
type Entry struct {
	IP        net.IP
	MAC       net.HardwareAddr
	Interface string
}

// Table is a mutex-guarded IP-to-Entry map. Entries are never deleted
// during the agent's lifetime — spec.md 4.5 documents this as an open
// limitation, not an oversight: a host that goes unreachable simply stops
// being refreshed.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty Table.
func New() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Put records or overwrites the entry for ip. Writing the same MAC again
// is a no-op in effect (idempotent); writing a different MAC overwrites.
func (t *Table) Put(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[e.IP.String()] = e
}

// Get returns the entry for ip, if known.
func (t *Table) Get(ip net.IP) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[ip.String()]
	return e, ok
}

// Len reports how many hosts are currently known, for metrics.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
