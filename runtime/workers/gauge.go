package workers

import (
	"context"
	"devconnect/contract"
	"devconnect/observability"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// GaugeWorker samples the registry and the server process into gauges.
type GaugeWorker struct {
	log            *slog.Logger
	registry       contract.IRegistry
	metrics        *observability.Metrics
	metricInterval time.Duration
}

func NewGaugeWorker(log *slog.Logger, registry contract.IRegistry,
	metrics *observability.Metrics, metricInterval time.Duration) *GaugeWorker {
	return &GaugeWorker{log: log, registry: registry, metrics: metrics, metricInterval: metricInterval}
}

func (w GaugeWorker) Run(ctx context.Context) error {
	self, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		w.log.Debug("Process metrics disabled", "error", err)
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping gauge sampling")
			return nil
		case <-ticker.C:
			rooms, connections := w.registry.Stats()
			w.metrics.SetRegistryStats(rooms, connections)
			if self != nil {
				w.sampleProcess(self)
			}
		}
	}
}

func (w GaugeWorker) sampleProcess(p *process.Process) {
	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Debug("Error while reading process cpu usage", "error", err)
		return
	}
	memory, err := p.MemoryPercent()
	if err != nil {
		w.log.Debug("Error while reading process memory usage", "error", err)
		return
	}
	w.metrics.SetProcessUsage(cpu, float64(memory))
}
