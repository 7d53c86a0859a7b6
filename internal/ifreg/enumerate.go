package ifreg

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"

	"rfclientd/internal/rferrors"
)

// digitRun finds the first run of decimal digits in an interface name,
// per spec.md 4.1: "the port number is derived from the first run of
// digits in the name".
var digitRun = regexp.MustCompile(`\d+`)

// Enumerate scans the host's interfaces via src, skipping mgmtName and
// any interface whose name carries no digit run, registers every
// surviving interface into reg, and blocks on each physical interface
// until it reports running before returning its state. It returns the
// management interface's snapshot so the caller can derive the agent's
// vm_id.
func Enumerate(ctx context.Context, src LinkSource, reg *Registry, mgmtName string) (Interface, error) {
	reg.SetManagement(mgmtName)

	links, err := src.Links()
	if err != nil {
		return Interface{}, rferrors.Wrap(err, rferrors.KindFatal, "enumerate interfaces")
	}

	var mgmt Interface
	haveMgmt := false

	for _, l := range links {
		if l.Name == mgmtName {
			mgmt = Interface{
				Name:   l.Name,
				HWAddr: l.HWAddr,
				IPList: l.IPList,
			}
			haveMgmt = true
			continue
		}

		port, vlan, isPhysical, ok := parsePortName(l.Name)
		if !ok {
			continue
		}

		if isPhysical {
			if err := src.WaitUp(ctx, l.Name); err != nil {
				return Interface{}, rferrors.Wrap(err, rferrors.KindFatal, fmt.Sprintf("wait for %s", l.Name))
			}
		}

		iface := Interface{
			Port:     port,
			Name:     l.Name,
			HWAddr:   l.HWAddr,
			VLAN:     vlan,
			IPList:   stripScope(l.IPList),
			Physical: isPhysical,
			Active:   false,
		}
		reg.Register(iface)
	}

	if !haveMgmt {
		return Interface{}, rferrors.Errorf(rferrors.KindFatal, "management interface %q not found", mgmtName)
	}
	return mgmt, nil
}

// parsePortName derives the port number (and VLAN, if any) from an
// interface name of the form "<port>" or "<port>.<vlan>". ok is false for
// names with no digit run, which are skipped as not matching the
// physical naming convention.
func parsePortName(name string) (port, vlan uint32, isPhysical, ok bool) {
	if dot := strings.Index(name, "."); dot >= 0 {
		base, sub := name[:dot], name[dot+1:]
		baseMatch := digitRun.FindString(base)
		subMatch := digitRun.FindString(sub)
		if baseMatch == "" || subMatch == "" {
			return 0, 0, false, false
		}
		p, err := strconv.ParseUint(baseMatch, 10, 32)
		if err != nil {
			return 0, 0, false, false
		}
		v, err := strconv.ParseUint(subMatch, 10, 32)
		if err != nil {
			return 0, 0, false, false
		}
		return uint32(p), uint32(v), false, true
	}

	match := digitRun.FindString(name)
	if match == "" {
		return 0, 0, false, false
	}
	p, err := strconv.ParseUint(match, 10, 32)
	if err != nil {
		return 0, 0, false, false
	}
	return uint32(p), 0, true, true
}

// stripScope drops IPv6 zone identifiers. netlink.Addr already yields a
// bare net.IP with no zone component, so this is a pass-through; it
// exists as the single seam where a future address source that does
// carry a zone (e.g. one built from net.IPAddr) gets normalized.
func stripScope(ips []net.IP) []net.IP {
	return ips
}
