// Package runtime owns the live side of the messaging core: who is connected
// to which room, and how a stored message or notification reaches them.
// It contains no storage or transport code.
package runtime

import (
	"context"
	"devconnect/contract"
	"devconnect/domain/event"
	"devconnect/observability"
	"devconnect/runtime/workers"
	"log/slog"
	"sync"
	"time"
)

type Options struct {
	NotifyOnMessage    bool
	NotifierBufferSize int
	MetricInterval     time.Duration
}

// Orchestrator wires the router to the background workers and drives their
// lifecycle through the supervisor.
type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	registry   *Registry
	router     *Router
	metrics    *observability.Metrics
	options    Options
	notifier   chan event.DomainEvent
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry *Registry, router *Router, metrics *observability.Metrics, options Options) *Orchestrator {
	o := &Orchestrator{
		log:        log,
		supervisor: supervisor,
		registry:   registry,
		router:     router,
		metrics:    metrics,
		options:    options,
	}
	if options.NotifyOnMessage {
		o.notifier = make(chan event.DomainEvent, options.NotifierBufferSize)
		router.WithNotifier(o.notifier)
	}
	return o
}

func (o *Orchestrator) Registry() *Registry { return o.registry }

func (o *Orchestrator) Router() *Router { return o.router }

// Start registers the background workers and blocks until the supervisor
// returns, which happens once ctx is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.notifier != nil {
		o.supervisor.Add(workers.NewNotifierWorker(o.log, o.router, o.notifier))
	}
	if o.options.MetricInterval > 0 {
		o.supervisor.Add(workers.NewGaugeWorker(o.log, o.registry, o.metrics, o.options.MetricInterval))
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

// Stop cancels the workers and closes every live connection.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	closed := o.registry.CloseAll()
	o.log.Debug("Live connections closed", "count", closed)
}
