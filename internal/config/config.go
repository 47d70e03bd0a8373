// Package config loads the supervisor settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-attention-agent/internal/core"
	"go-attention-agent/internal/eval"
	"go-attention-agent/internal/eventbus"
	"go-attention-agent/internal/monitor"
	"go-attention-agent/internal/operator"
	"go-attention-agent/internal/policy"
	"go-attention-agent/internal/scheduler"
)

// Config defines supervisor configuration.
type Config struct {
	Cycle         CycleConfig              `yaml:"cycle"`
	Redis         RedisConfig              `yaml:"redis"`
	Metrics       MetricsConfig            `yaml:"metrics"`
	Agents        []string                 `yaml:"agents"`
	System        SystemConfig             `yaml:"system"`
	Fuel          FuelConfig               `yaml:"fuel"`
	Track         TrackConfig              `yaml:"track"`
	Operator      OperatorConfig           `yaml:"operator"`
	WarningLights map[core.ComponentID]int `yaml:"warning_lights"`
}

// CycleConfig defines the scheduler cadence and limits.
type CycleConfig struct {
	Period      time.Duration `yaml:"period"`
	MaxEvents   int           `yaml:"max_events"`
	MaxDispatch int           `yaml:"max_dispatch"`
}

// RedisConfig defines the connection to the environment.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Events   string `yaml:"events_topic"`
	Commands string `yaml:"commands_topic"`
	Buffer   int    `yaml:"buffer"`
}

// MetricsConfig defines the Prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SystemConfig defines the warning light and scale supervisor.
type SystemConfig struct {
	Grace          time.Duration `yaml:"grace_period"`
	Mode           policy.Mode   `yaml:"highlight"`
	ScaleThreshold int           `yaml:"scale_threshold"`
}

// FuelConfig defines the tank and pump supervisor.
type FuelConfig struct {
	Grace time.Duration `yaml:"grace_period"`
	Mode  policy.Mode   `yaml:"highlight"`
}

// TrackConfig defines the tracking supervisor.
type TrackConfig struct {
	Grace             time.Duration `yaml:"grace_period"`
	DistanceThreshold float64       `yaml:"distance_threshold"`
}

// OperatorConfig defines the simulated operator.
type OperatorConfig struct {
	Delay    time.Duration `yaml:"delay"`
	EyeSpeed float64       `yaml:"eye_speed"`
}

// Default returns the reference settings.
func Default() Config {
	return Config{
		Cycle: CycleConfig{Period: 100 * time.Millisecond, MaxEvents: 256, MaxDispatch: 1024},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Events:   eventbus.TopicEvents,
			Commands: eventbus.TopicCommands,
			Buffer:   4096,
		},
		Metrics: MetricsConfig{Addr: ":9102"},
		Agents:  []string{"system", "fuel", "track", "evaluator"},
		System:  SystemConfig{Grace: 3 * time.Second, Mode: policy.ModeComponent, ScaleThreshold: 2},
		Fuel:    FuelConfig{Grace: 3 * time.Second, Mode: policy.ModeComponent},
		Track:   TrackConfig{Grace: 2 * time.Second, DistanceThreshold: 50},
		Operator: OperatorConfig{
			Delay:    time.Second,
			EyeSpeed: 0.1,
		},
		WarningLights: map[core.ComponentID]int{"WarningLight:0": 1, "WarningLight:1": 0},
	}
}

// Load reads path, or SUPERVISOR_CONFIG when path is empty, over the
// defaults and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("SUPERVISOR_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.Redis.Addr = getenvDefault("SUPERVISOR_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Metrics.Addr = getenvDefault("SUPERVISOR_METRICS_ADDR", cfg.Metrics.Addr)
	if v := os.Getenv("SUPERVISOR_CYCLE_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("SUPERVISOR_CYCLE_PERIOD: %w", err)
		}
		cfg.Cycle.Period = d
	}
	if v := os.Getenv("SUPERVISOR_AGENTS"); v != "" {
		cfg.Agents = splitCSV(v)
	}
	return cfg, cfg.Validate()
}

// Validate checks the invariants the agents rely on.
func (c Config) Validate() error {
	var errs []error
	if c.Cycle.Period < scheduler.MinPeriod {
		errs = append(errs, fmt.Errorf("cycle period %v below %v", c.Cycle.Period, scheduler.MinPeriod))
	}
	if c.Cycle.MaxEvents <= 0 || c.Cycle.MaxDispatch <= 0 {
		errs = append(errs, errors.New("cycle limits must be positive"))
	}
	if c.Redis.Buffer <= 0 {
		errs = append(errs, errors.New("redis buffer must be positive"))
	}
	if c.Redis.Events == "" || c.Redis.Commands == "" {
		errs = append(errs, errors.New("redis topics required"))
	}
	for name, g := range map[string]time.Duration{"system": c.System.Grace, "fuel": c.Fuel.Grace, "track": c.Track.Grace} {
		if g <= 0 {
			errs = append(errs, fmt.Errorf("%s grace period must be positive", name))
		}
	}
	if !c.System.Mode.Valid() || !c.Fuel.Mode.Valid() {
		errs = append(errs, errors.New("highlight mode must be component or panel"))
	}
	if c.System.ScaleThreshold <= 0 {
		errs = append(errs, errors.New("scale threshold must be positive"))
	}
	if c.Track.DistanceThreshold <= 0 {
		errs = append(errs, errors.New("distance threshold must be positive"))
	}
	if c.Operator.EyeSpeed < 0 || c.Operator.EyeSpeed > 1 {
		errs = append(errs, errors.New("operator eye speed must be within [0,1]"))
	}
	if len(c.Agents) == 0 {
		errs = append(errs, errors.New("no agents configured"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Scheduler returns the scheduler settings.
func (c Config) Scheduler() scheduler.Config {
	return scheduler.Config{Period: c.Cycle.Period, MaxEvents: c.Cycle.MaxEvents, MaxDispatch: c.Cycle.MaxDispatch}
}

// Topics returns the transport topics.
func (c Config) Topics() eventbus.Topics {
	return eventbus.Topics{Events: c.Redis.Events, Commands: c.Redis.Commands}
}

// SystemMonitor returns the system supervisor settings.
func (c Config) SystemMonitor() monitor.SystemConfig {
	return monitor.SystemConfig{
		Grace:          c.System.Grace,
		Mode:           c.System.Mode,
		ScaleThreshold: c.System.ScaleThreshold,
		Desired:        c.WarningLights,
	}
}

// FuelMonitor returns the fuel supervisor settings.
func (c Config) FuelMonitor() monitor.FuelConfig {
	return monitor.FuelConfig{Grace: c.Fuel.Grace, Mode: c.Fuel.Mode}
}

// TrackMonitor returns the tracking supervisor settings.
func (c Config) TrackMonitor() monitor.TrackConfig {
	return monitor.TrackConfig{Grace: c.Track.Grace, DistanceThreshold: c.Track.DistanceThreshold}
}

// Evaluator returns the evaluator settings.
func (c Config) Evaluator() eval.Config {
	return eval.Config{Desired: c.WarningLights}
}

// SimulatedOperator returns the simulated operator settings.
func (c Config) SimulatedOperator() operator.Config {
	return operator.Config{Delay: c.Operator.Delay, EyeSpeed: c.Operator.EyeSpeed, Desired: c.WarningLights}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitCSV(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
