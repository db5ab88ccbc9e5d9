package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "DATABASE_URL", "WORDLIST_DIR", "DATA_DIR", "MAX_CONCURRENT_JOBS",
		"WORKER_TIMEOUT_MS", "WORKER_TERMINATE_GRACE_MS", "TIMEOUT_SWEEP_SCHEDULE", "STARTUP_RETRY_DELAY_MS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, defaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, 2, cfg.MaxConcurrentJobs)
	assert.Equal(t, 120*time.Second, cfg.WorkerTimeout)
	assert.Equal(t, 2*time.Second, cfg.TerminateGrace)
	assert.Equal(t, "@every 10s", cfg.TimeoutSweepSchedule)
	assert.True(t, filepath.IsAbs(cfg.WordlistDir))
	assert.Equal(t, filepath.Join(cfg.DataDir, "crack.potfile"), cfg.PotfilePath())
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_CONCURRENT_JOBS", "5")
	t.Setenv("WORKER_TIMEOUT_MS", "0")
	t.Setenv("WORDLIST_DIR", "/opt/wordlists")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5, cfg.MaxConcurrentJobs)
	assert.Equal(t, time.Duration(0), cfg.WorkerTimeout)
	assert.Equal(t, "/opt/wordlists", cfg.WordlistDir)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_CONCURRENT_JOBS", "many")
	t.Setenv("PORT", "-1")

	cfg := Load()

	assert.Equal(t, defaultMaxConcurrentJobs, cfg.MaxConcurrentJobs)
	assert.Equal(t, defaultPort, cfg.Port)
}
