// Package agent is rfclientd's composition root: it owns every
// component named in spec.md 2 and wires them together, following
// spec.md 9's "single owned Agent value, no globals" design note.
package agent

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"rfclientd/internal/ctlrecv"
	"rfclientd/internal/flowmod"
	"rfclientd/internal/gateway"
	"rfclientd/internal/hosttable"
	"rfclientd/internal/ifreg"
	"rfclientd/internal/ingest"
	"rfclientd/internal/ipc"
	"rfclientd/internal/outbound"
	"rfclientd/internal/pendingqueue"
	"rfclientd/internal/portmapper"
	"rfclientd/internal/rfconfig"
	"rfclientd/internal/rferrors"
	"rfclientd/internal/rflog"
	"rfclientd/internal/rfmetrics"
)

const (
	pendingQueueCapacity    = 1024
	outboundQueueCapacity   = 1024
	managementInterfaceName = "eth0"
)

// Agent owns every long-running component and the channels/structures
// connecting them.
type Agent struct {
	cfg        rfconfig.Config
	log        *rflog.Logger
	metrics    *rfmetrics.Metrics
	registerer *prometheus.Registry

	registry *ifreg.Registry
	hosts    *hosttable.Table
	queue    *pendingqueue.Queue
	cache    *flowmod.PortCache

	client   ipc.Client
	emitter  *outbound.Emitter
	pump     *outbound.Pump
	resolver *gateway.Resolver
	sink     *ingest.Sink
	mapper   *portmapper.Mapper
	ctl      *ctlrecv.Handler

	vmID uint64

	nlAdapter  *ingest.NLAdapter
	fpmAdapter *ingest.FPMAdapter
}

// New builds an Agent from cfg around an already-connected IPC client.
// It performs interface enumeration, so it can fail per spec.md 6's
// "interface enumeration failure" exit condition.
func New(ctx context.Context, cfg rfconfig.Config, client ipc.Client) (*Agent, error) {
	log := rflog.Default()
	registerer := prometheus.NewRegistry()
	metrics := rfmetrics.New(registerer)

	registry := ifreg.NewRegistry()
	linkSource := ifreg.NewLinkSource()

	var mgmt ifreg.Interface
	err := ifreg.WithNamespace(cfg.Netns, func() error {
		var enumErr error
		mgmt, enumErr = ifreg.Enumerate(ctx, linkSource, registry, managementInterfaceName)
		return enumErr
	})
	if err != nil {
		return nil, rferrors.Wrap(err, rferrors.KindFatal, "enumerate interfaces")
	}

	vmID := ifreg.DeriveVMID(mgmt.HWAddr)
	if cfg.VMIDOverride != nil {
		vmID = *cfg.VMIDOverride
	} else if cfg.VMIDSourceIface != "" && cfg.VMIDSourceIface != managementInterfaceName {
		if iface, ok := registry.Lookup(cfg.VMIDSourceIface); ok {
			vmID = ifreg.DeriveVMID(iface.HWAddr)
		}
	}

	hosts := hosttable.New()
	queue := pendingqueue.New(pendingQueueCapacity)
	cache := flowmod.NewPortCache()

	emitter := outbound.NewEmitter(cache, outboundQueueCapacity, metrics)
	pump := outbound.NewPump(client, emitter.Queue(), vmID, 1, metrics)

	sink := &ingest.Sink{
		Queue:   queue,
		Hosts:   hosts,
		Ifaces:  registry,
		Emitter: emitter,
	}

	discoverer := gateway.NewTCPConnectDiscoverer()
	resolver := gateway.NewResolver(gateway.Config{
		Queue:   queue,
		Hosts:   hosts,
		Ifaces:  registry,
		Emitter: emitter,
		ND:      discoverer,
		Metrics: metrics,
		Log:     rflog.Component("gateway"),
	})

	mapper := portmapper.New(registry, vmID, portmapper.DefaultInterval)
	ctl := ctlrecv.New(client, registry, emitter, pump)

	a := &Agent{
		cfg:        cfg,
		log:        log,
		metrics:    metrics,
		registerer: registerer,
		registry:   registry,
		hosts:    hosts,
		queue:    queue,
		cache:    cache,
		client:   client,
		emitter:  emitter,
		pump:     pump,
		resolver: resolver,
		sink:     sink,
		mapper:   mapper,
		ctl:      ctl,
		vmID:     vmID,
	}

	if cfg.UseFPM {
		a.fpmAdapter = ingest.NewFPMAdapter(sink, "")
	} else {
		a.nlAdapter = ingest.NewNLAdapter(sink)
	}

	return a, nil
}

// Register sends a PortRegister for every physical interface and marks
// it inactive, per spec.md 4.1.
func (a *Agent) Register(ctx context.Context) error {
	for _, iface := range a.registry.Physical() {
		a.registry.SetActive(iface.Port, false)
		if err := a.client.SendPortRegister(ctx, ipc.PortRegister{
			VMID: a.vmID,
			Port: iface.Port,
			MAC:  iface.HWAddr,
		}); err != nil {
			return rferrors.Wrap(err, rferrors.KindFatal, "register port "+iface.Name)
		}
	}
	return nil
}

// Run starts every component and blocks until ctx is canceled or any
// component returns a non-context error, in which case the remaining
// components are canceled and the first such error is returned.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	components := []func(context.Context) error{
		a.resolver.Run,
		a.pump.Run,
		a.mapper.Run,
		a.ctl.Run,
	}
	if a.nlAdapter != nil {
		components = append(components, a.nlAdapter.Run)
	}
	if a.fpmAdapter != nil {
		components = append(components, a.fpmAdapter.Run)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(components))
	for _, run := range components {
		run := run
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && ctx.Err() == nil {
				errs <- err
				cancel()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	return nil
}

// Close releases the IPC connection.
func (a *Agent) Close() error {
	return a.client.Close()
}

// MetricsRegistry exposes the agent's prometheus registry so main can
// serve it over HTTP.
func (a *Agent) MetricsRegistry() *prometheus.Registry {
	return a.registerer
}
