package monitor

import (
	"fmt"
	"log"
	"time"

	"go-attention-agent/internal/belief"
	"go-attention-agent/internal/core"
	"go-attention-agent/internal/policy"
	"go-attention-agent/internal/snapshot"
)

// SystemConfig configures the warning light and scale supervisor.
type SystemConfig struct {
	Grace          time.Duration
	Mode           policy.Mode
	ScaleThreshold int
	// Desired is the good state of every warning light.
	Desired map[core.ComponentID]int
}

// NewSystem supervises warning lights and scales.
func NewSystem(snap snapshot.Snapshot, cfg SystemConfig, logger *log.Logger, opts ...Option) (*Monitor, error) {
	for _, id := range snap.Components.Group("WarningLight") {
		if _, ok := cfg.Desired[id]; !ok {
			return nil, fmt.Errorf("monitor system: no desired state for %s", id)
		}
	}
	if cfg.ScaleThreshold <= 0 {
		return nil, fmt.Errorf("monitor system: scale threshold must be positive")
	}
	task := Task{
		Name:   snapshot.TaskSystem,
		Groups: []string{"WarningLight", "Scale"},
		Acceptable: func(id core.ComponentID, rec belief.Record) bool {
			switch r := rec.(type) {
			case belief.Light:
				return r.State == cfg.Desired[id]
			case belief.Scale:
				return r.Deviation() < cfg.ScaleThreshold
			}
			return true
		},
	}
	settings := policy.Settings{Grace: cfg.Grace, Mode: cfg.Mode, Panel: policy.PanelID(task.Name)}
	return New("system", task, snap, settings, logger, opts...)
}

// FuelConfig configures the tank and pump supervisor.
type FuelConfig struct {
	Grace time.Duration
	Mode  policy.Mode
}

// NewFuel supervises the main tanks and the pumps. Auxiliary tanks are
// mirrored but never highlighted.
func NewFuel(snap snapshot.Snapshot, cfg FuelConfig, logger *log.Logger, opts ...Option) (*Monitor, error) {
	task := Task{
		Name:   snapshot.TaskFuel,
		Groups: []string{"FuelTank", "Pump"},
		Alertable: func(id core.ComponentID, rec belief.Record) bool {
			if t, ok := rec.(belief.Tank); ok {
				return t.Main
			}
			return true
		},
		Acceptable: func(id core.ComponentID, rec belief.Record) bool {
			switch r := rec.(type) {
			case belief.Tank:
				return !r.Main || r.Acceptable
			case belief.Pump:
				return r.Status != belief.PumpFailed
			}
			return true
		},
	}
	settings := policy.Settings{Grace: cfg.Grace, Mode: cfg.Mode, Panel: policy.PanelID(task.Name)}
	return New("fuel", task, snap, settings, logger, opts...)
}

// TrackConfig configures the tracking supervisor.
type TrackConfig struct {
	Grace             time.Duration
	DistanceThreshold float64
}

// NewTrack supervises the tracking target; it is acceptable while within
// DistanceThreshold pixels of the panel center.
func NewTrack(snap snapshot.Snapshot, cfg TrackConfig, logger *log.Logger, opts ...Option) (*Monitor, error) {
	if len(snap.Components.Group("Target")) != 1 {
		return nil, fmt.Errorf("monitor track: expected exactly one target")
	}
	if cfg.DistanceThreshold <= 0 {
		return nil, fmt.Errorf("monitor track: distance threshold must be positive")
	}
	task := Task{
		Name:   snapshot.TaskTrack,
		Groups: []string{"Target"},
		Acceptable: func(id core.ComponentID, rec belief.Record) bool {
			if r, ok := rec.(belief.Target); ok {
				return r.Distance() <= cfg.DistanceThreshold
			}
			return true
		},
	}
	settings := policy.Settings{Grace: cfg.Grace, Mode: policy.ModeComponent, Panel: policy.PanelID(task.Name)}
	return New("track", task, snap, settings, logger, opts...)
}
