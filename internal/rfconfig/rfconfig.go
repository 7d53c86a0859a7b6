// Package rfconfig parses rfclientd's CLI flags into a Config, following
// the flag.NewFlagSet idiom grimm-is-glacic's cmd package uses for every
// subcommand.
package rfconfig

import (
	"flag"
	"fmt"
	"io"
	"strconv"
)

const (
	defaultIPCAddress = "127.0.0.1:6633"
	defaultVMIDSource = "eth0"
)

// Version is rfclientd's reported version string, printed by -v.
const Version = "rfclientd 0.1.0"

// Config is rfclientd's fully-parsed runtime configuration, per spec.md
// 6's CLI surface.
type Config struct {
	IPCAddress      string
	UseFPM          bool
	VMIDSourceIface string
	VMIDOverride    *uint64
	Netns           string
	ShowHelp        bool
	ShowVersion     bool
}

// Parse parses args (excluding the program name) into a Config. -h and -v
// print help/version to out and set ShowHelp/ShowVersion so the caller
// exits 0 without starting the agent, per spec.md 6.
func Parse(args []string, out io.Writer) (Config, error) {
	fs := flag.NewFlagSet("rfclientd", flag.ContinueOnError)
	fs.SetOutput(out)

	cfg := Config{
		IPCAddress:      defaultIPCAddress,
		VMIDSourceIface: defaultVMIDSource,
	}

	fs.StringVar(&cfg.IPCAddress, "a", defaultIPCAddress, "IPC endpoint address")
	fs.BoolVar(&cfg.UseFPM, "f", false, "use the FPM adapter instead of netlink")
	var ifaceFlag string
	fs.StringVar(&ifaceFlag, "i", "", "derive vm_id from the MAC of this interface")
	var vmIDHex string
	fs.StringVar(&vmIDHex, "n", "", "set vm_id explicitly, in hex")
	fs.StringVar(&cfg.Netns, "netns", "", "pin interface enumeration to this network namespace")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "show help and exit")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "show version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.ShowHelp {
		fs.Usage()
		return cfg, nil
	}
	if cfg.ShowVersion {
		fmt.Fprintln(out, Version)
		return cfg, nil
	}

	if ifaceFlag != "" && vmIDHex != "" {
		return Config{}, fmt.Errorf("-i and -n are mutually exclusive")
	}
	if ifaceFlag != "" {
		cfg.VMIDSourceIface = ifaceFlag
	}
	if vmIDHex != "" {
		id, err := parseVMIDHex(vmIDHex)
		if err != nil {
			return Config{}, fmt.Errorf("-n: %w", err)
		}
		cfg.VMIDOverride = &id
	}

	return cfg, nil
}

func parseVMIDHex(s string) (uint64, error) {
	return strconv.ParseUint(s, 16, 48)
}
