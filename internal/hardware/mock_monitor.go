package hardware

import (
	"context"
	"os"
	"strconv"

	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// MockMonitor returns a fixed host snapshot. Values can be overridden with
// MOCK_CPU_COUNT, MOCK_CPU_PERCENT and MOCK_MEMORY_MB.
type MockMonitor struct {
	snapshot models.HostSnapshot
}

// NewMockMonitor creates a mock monitor from the environment
func NewMockMonitor() *MockMonitor {
	m := &MockMonitor{snapshot: models.HostSnapshot{
		LogicalCPUs:   getEnvInt("MOCK_CPU_COUNT", 8),
		CPUPercent:    getEnvFloat("MOCK_CPU_PERCENT", 12.5),
		MemoryTotalMB: uint64(getEnvInt("MOCK_MEMORY_MB", 16384)),
		MemoryUsedPct: 40,
	}}
	debug.Info("Creating mock host monitor: %d CPUs, %d MB", m.snapshot.LogicalCPUs, m.snapshot.MemoryTotalMB)
	return m
}

// Snapshot returns a copy of the configured snapshot
func (m *MockMonitor) Snapshot(context.Context) (*models.HostSnapshot, error) {
	s := m.snapshot
	return &s, nil
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
