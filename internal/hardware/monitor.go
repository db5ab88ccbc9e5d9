// Package hardware reports the host the benchmark runs on so that throughput
// numbers can be read against the machine that produced them.
package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// cpuSampleInterval is how long a CPU usage sample is measured over
const cpuSampleInterval = 200 * time.Millisecond

// Monitor samples CPU and memory usage of the host
type Monitor struct {
	mu          sync.RWMutex
	logicalCPUs int
}

// NewMonitor creates a host monitor, detecting the logical CPU count once
func NewMonitor() (*Monitor, error) {
	count, err := cpu.Counts(true)
	if err != nil {
		return nil, fmt.Errorf("failed to detect cpu count: %w", err)
	}
	debug.Info("Detected %d logical CPUs", count)
	return &Monitor{logicalCPUs: count}, nil
}

// LogicalCPUs returns the detected logical CPU count
func (m *Monitor) LogicalCPUs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logicalCPUs
}

// Snapshot samples current CPU and memory usage
func (m *Monitor) Snapshot(ctx context.Context) (*models.HostSnapshot, error) {
	percents, err := cpu.PercentWithContext(ctx, cpuSampleInterval, false)
	if err != nil {
		return nil, fmt.Errorf("failed to sample cpu usage: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory usage: %w", err)
	}

	snapshot := &models.HostSnapshot{
		LogicalCPUs:   m.LogicalCPUs(),
		MemoryTotalMB: vm.Total / 1024 / 1024,
		MemoryUsedPct: vm.UsedPercent,
	}
	if len(percents) > 0 {
		snapshot.CPUPercent = percents[0]
	}
	return snapshot, nil
}
