package runtime

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"presence-lab/contract"
	"presence-lab/registry"
)

// StatsWorker periodically logs process health next to the live presence
// counts, and re-publishes every room's member count to the cache so the
// short-lived counter keys survive quiet rooms.
type StatsWorker struct {
	log      *slog.Logger
	peers    *registry.Peers
	rooms    *registry.Rooms
	gateway  contract.Gateway
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, peers *registry.Peers, rooms *registry.Rooms, gateway contract.Gateway, interval time.Duration) *StatsWorker {
	return &StatsWorker{
		log:      log,
		peers:    peers,
		rooms:    rooms,
		gateway:  gateway,
		interval: interval,
	}
}

// Run executes the main loop of the worker, reporting health metrics
// (CPU, RAM, connection and room counts) every interval.
func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info("Starting stats worker", "interval", w.interval)
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
			w.report(ctx, p)
		}
	}
}

func (w *StatsWorker) report(ctx context.Context, p *process.Process) {
	counts := w.rooms.Counts()
	for room, count := range counts {
		if err := w.gateway.UpdateRoomCount(ctx, room, count); err != nil {
			w.log.Warn("Room count refresh failed", "room", room, "error", err)
		}
	}

	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
		return
	}
	w.log.Info("Presence stats",
		"connections", w.peers.Len(),
		"rooms", len(counts),
		"cpu_percent", cpu,
		"ram_bytes", rss,
	)
}

// selfStats retrieves technical metrics (Memory and CPU) for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
