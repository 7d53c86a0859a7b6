package flowmod

import "sync"

// PortCache holds flow-mods built while their interface was inactive.
// Spec.md 4.6: "if local.active == false, the emission is not sent;
// instead a CachedRM is appended to a per-port vector. When C9 observes
// the port transition to active, it swaps out the vector and replays
// each cached entry through the normal emit path."
type PortCache struct {
	mu    sync.Mutex
	byPort map[uint32][]FlowMod
}

// NewPortCache creates an empty PortCache.
func NewPortCache() *PortCache {
	return &PortCache{byPort: make(map[uint32][]FlowMod)}
}

// Append adds fm to port's cache.
func (c *PortCache) Append(port uint32, fm FlowMod) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byPort[port] = append(c.byPort[port], fm)
}

// Swap atomically removes and returns everything cached for port, for
// replay through the normal emit path when the port becomes active.
func (c *PortCache) Swap(port uint32) []FlowMod {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.byPort[port]
	delete(c.byPort, port)
	return out
}

// Len reports how many flow-mods are cached for port, for metrics.
func (c *PortCache) Len(port uint32) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byPort[port])
}
