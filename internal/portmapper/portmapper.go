// Package portmapper implements the port-map frame sender (spec
// component C8): one raw L2 discovery frame per inactive physical
// interface every PORT_MAP_INTERVAL, so the central server can learn
// which physical switch port corresponds to which virtual port. Grounded
// on grimm-is-glacic/internal/network/lldp/lldp.go's packet.Listen/raw-
// frame idiom, generalized from receive to send.
package portmapper

import (
	"context"
	"encoding/binary"
	"net"
	"time"

	"github.com/mdlayher/packet"

	"rfclientd/internal/ifreg"
	"rfclientd/internal/rflog"
)

// EtherTypePortMap is the RouteFlow magic ethertype for discovery frames.
const EtherTypePortMap = 0x0A0A

// DefaultInterval is PORT_MAP_INTERVAL, per spec.md 4.8.
const DefaultInterval = 10 * time.Second

// frameLen is the fixed 23-byte discovery frame: 6 dst + 6 src + 2
// ethertype + 8 vm_id + 1 port.
const frameLen = 6 + 6 + 2 + 8 + 1

// sender abstracts the raw-socket write so tests can substitute a
// recording double instead of opening an AF_PACKET socket.
type sender interface {
	WriteTo(b []byte, addr net.Addr) (int, error)
	Close() error
}

// openSocket is swapped out in tests.
var openSocket = func(ifaceName string) (sender, net.Addr, error) {
	ifi, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, nil, err
	}
	conn, err := packet.Listen(ifi, packet.Raw, EtherTypePortMap, nil)
	if err != nil {
		return nil, nil, err
	}
	addr := &packet.Addr{HardwareAddr: net.HardwareAddr{0, 0, 0, 0, 0, 0}}
	return conn, addr, nil
}

// Mapper owns one goroutine per physical interface, matching the
// original's per-interface mapper-thread shape (spec.md EXPANSION 4,
// item 3) even though this agent's interface set is static after
// startup.
type Mapper struct {
	reg      *ifreg.Registry
	vmID     uint64
	interval time.Duration
	log      *rflog.Logger
	upCheck  func(name string) bool
}

// New creates a Mapper that probes every physical interface in reg using
// vmID as the discovery frame's identity.
func New(reg *ifreg.Registry, vmID uint64, interval time.Duration) *Mapper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Mapper{reg: reg, vmID: vmID, interval: interval, log: rflog.Component("portmapper"), upCheck: interfaceIsUp}
}

// Run spawns one goroutine per physical interface and blocks until ctx
// is canceled.
func (m *Mapper) Run(ctx context.Context) error {
	ifaces := m.reg.Physical()
	done := make(chan struct{}, len(ifaces))
	for _, iface := range ifaces {
		iface := iface
		go func() {
			m.loop(ctx, iface)
			done <- struct{}{}
		}()
	}
	for range ifaces {
		<-done
	}
	return ctx.Err()
}

func (m *Mapper) loop(ctx context.Context, iface ifreg.Interface) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx, iface)
		}
	}
}

// probe re-reads the interface's current state from the registry (since
// Active is mutated by the control-plane handler after Mapper starts)
// and sends one frame if it's still physical and inactive.
func (m *Mapper) probe(ctx context.Context, iface ifreg.Interface) {
	current, ok := m.reg.Lookup(iface.Name)
	if !ok || current.Active {
		return
	}
	if !m.upCheck(current.Name) {
		return
	}

	conn, addr, err := openSocket(current.Name)
	if err != nil {
		m.log.Warn("port map socket open failed", "interface", current.Name, "error", err)
		return
	}
	defer conn.Close()

	frame := buildFrame(current.HWAddr, m.vmID, current.Port)
	if _, err := conn.WriteTo(frame, addr); err != nil {
		m.log.Warn("port map frame send failed", "interface", current.Name, "error", err)
	}
}

func buildFrame(srcMAC net.HardwareAddr, vmID uint64, port uint32) []byte {
	frame := make([]byte, frameLen)
	// dst MAC left all-zero
	copy(frame[6:12], srcMAC)
	binary.BigEndian.PutUint16(frame[12:14], EtherTypePortMap)
	binary.LittleEndian.PutUint64(frame[14:22], vmID)
	frame[22] = byte(port)
	return frame
}

func interfaceIsUp(name string) bool {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return false
	}
	return ifi.Flags&net.FlagUp != 0
}
