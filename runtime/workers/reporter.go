package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"duo-chat/contract"
	"duo-chat/observability"

	"github.com/shirou/gopsutil/process"
)

// ReporterWorker periodically logs process health (RSS, CPU, OS status)
// together with the routing core counters. It is supervised and restarts
// on failure.
type ReporterWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	monitor  *observability.Monitor
	interval time.Duration
}

func NewReporterWorker(log *slog.Logger, registry contract.IRegistry, monitor *observability.Monitor, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, registry: registry, monitor: monitor, interval: interval}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			stats := w.monitor.Snapshot()
			w.log.Info("Service health",
				"ram_bytes", rss,
				"cpu_percent", cpu,
				"pid_status", status,
				"registered", w.registry.Len(),
				"messages_routed", stats.MessagesRouted,
				"broadcasts", stats.Broadcasts,
				"dropped_frames", stats.DroppedFrames,
				"heartbeat_deaths", stats.HeartbeatDeaths,
			)
		}
	}
}

// selfStats retrieves technical metrics (memory, CPU and OS status) for the
// given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
