package ifreg

import (
	"hash/fnv"
	"net"
)

// vmIDMask keeps the derived identifier inside the 48 bits the wire
// protocol's vm_id field carries (rflib/defs.h: uint64_t vm_id, but only
// the low 48 bits are ever populated from a MAC-sized quantity).
const vmIDMask = (uint64(1) << 48) - 1

// DeriveVMID folds the management interface's MAC address into a 48-bit
// identifier. The original agent concatenated the MAC's hex digits
// directly into a uint64; we hash instead, per spec.md's "hashing the MAC
// of the management interface" wording — the two disagree, and the spec's
// literal text wins (see DESIGN.md, vm_id Open Question).
func DeriveVMID(mac net.HardwareAddr) uint64 {
	h := fnv.New64a()
	h.Write(mac)
	return h.Sum64() & vmIDMask
}
