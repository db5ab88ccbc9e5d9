package hardware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockMonitorDefaults(t *testing.T) {
	s, err := NewMockMonitor().Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, s.LogicalCPUs)
	assert.Equal(t, uint64(16384), s.MemoryTotalMB)
}

func TestMockMonitorEnvOverrides(t *testing.T) {
	t.Setenv("MOCK_CPU_COUNT", "2")
	t.Setenv("MOCK_CPU_PERCENT", "not-a-number")

	m := NewMockMonitor()
	s, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, s.LogicalCPUs)
	assert.Equal(t, 12.5, s.CPUPercent)

	// snapshots are copies
	s.LogicalCPUs = 99
	again, _ := m.Snapshot(context.Background())
	assert.Equal(t, 2, again.LogicalCPUs)
}

func TestMonitorSnapshot(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		t.Skipf("host metrics unavailable: %v", err)
	}
	s, err := m.Snapshot(context.Background())
	if err != nil {
		t.Skipf("host metrics unavailable: %v", err)
	}
	assert.Greater(t, s.LogicalCPUs, 0)
	assert.Greater(t, s.MemoryTotalMB, uint64(0))
}
