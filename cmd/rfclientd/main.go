// Command rfclientd is the RouteFlow client agent: it enumerates local
// interfaces, ingests route and neighbor events from the kernel (or an
// FPM peer), resolves gateways, and emits flow-mods to a central
// controller over IPC, per spec.md.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rfclientd/internal/agent"
	"rfclientd/internal/ipc"
	"rfclientd/internal/rfconfig"
	"rfclientd/internal/rflog"
)

const metricsAddr = "127.0.0.1:9116"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := rfconfig.Parse(args, os.Stderr)
	if err != nil {
		return 1
	}
	if cfg.ShowHelp || cfg.ShowVersion {
		return 0
	}

	log := rflog.Default()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := ipc.Dial(ctx, cfg.IPCAddress)
	if err != nil {
		log.Error("failed to connect to controller", "address", cfg.IPCAddress, "error", err)
		return 1
	}

	a, err := agent.New(ctx, cfg, client)
	if err != nil {
		log.Error("agent initialization failed", "error", err)
		return 1
	}
	defer a.Close()

	go serveMetrics(log, a)

	if err := a.Register(ctx); err != nil {
		log.Error("port registration failed", "error", err)
		return 1
	}

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("agent exited", "error", err)
		return 1
	}
	return 0
}

func serveMetrics(log *rflog.Logger, a *agent.Agent) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.MetricsRegistry(), promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(metricsAddr, mux); err != nil {
		log.Warn("metrics server stopped", "error", err)
	}
}
