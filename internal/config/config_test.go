package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-attention-agent/internal/core"
	"go-attention-agent/internal/policy"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supervisor.yaml")
	data := []byte(`
cycle:
  period: 50ms
system:
  grace_period: 4s
  highlight: panel
track:
  distance_threshold: 40
warning_lights:
  WarningLight:0: 0
agents: [system, evaluator]
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("SUPERVISOR_CONFIG", path)
	t.Setenv("SUPERVISOR_REDIS_ADDR", "redis:6380")
	t.Setenv("SUPERVISOR_CYCLE_PERIOD", "20ms")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, cfg.Cycle.Period)
	assert.Equal(t, 256, cfg.Cycle.MaxEvents)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 4*time.Second, cfg.System.Grace)
	assert.Equal(t, policy.ModePanel, cfg.SystemMonitor().Mode)
	assert.Equal(t, 40.0, cfg.TrackMonitor().DistanceThreshold)
	assert.Equal(t, 0, cfg.WarningLights[core.ComponentID("WarningLight:0")])
	assert.Equal(t, []string{"system", "evaluator"}, cfg.Agents)
}

func TestLoadRejectsShortPeriod(t *testing.T) {
	t.Setenv("SUPERVISOR_CYCLE_PERIOD", "100us")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("SUPERVISOR_CYCLE_PERIOD", "soon")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Fuel.Mode = "blink"
	cfg.Track.Grace = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "highlight mode")
	assert.Contains(t, err.Error(), "track grace period")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
