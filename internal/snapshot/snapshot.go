// Package snapshot holds the static component configuration and window
// layout supplied by the environment at startup.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"go-attention-agent/internal/core"
)

// Blackboard keys the environment writes its snapshots under.
const (
	ComponentsKey = "snapshot:components"
	LayoutKey     = "snapshot:layout"
)

// Task panel names.
const (
	TaskFuel   = "fuel"
	TaskSystem = "system"
	TaskTrack  = "track"
	TaskWindow = "window"
)

// ComponentConfig carries the static and initial properties of one component.
// Fields not relevant to a component's group are left zero.
type ComponentConfig struct {
	Capacity         float64 `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Fuel             float64 `json:"fuel,omitempty" yaml:"fuel,omitempty"`
	AcceptPosition   float64 `json:"accept_position,omitempty" yaml:"accept_position,omitempty"`
	AcceptProportion float64 `json:"accept_proportion,omitempty" yaml:"accept_proportion,omitempty"`
	BurnRate         float64 `json:"burn_rate,omitempty" yaml:"burn_rate,omitempty"`
	Position         int     `json:"position,omitempty" yaml:"position,omitempty"`
	Size             int     `json:"size,omitempty" yaml:"size,omitempty"`
	State            int     `json:"state,omitempty" yaml:"state,omitempty"`
	Grace            float64 `json:"grace,omitempty" yaml:"grace,omitempty"`
	Key              string  `json:"key,omitempty" yaml:"key,omitempty"`
	Invert           bool    `json:"invert,omitempty" yaml:"invert,omitempty"`
	Step             float64 `json:"step,omitempty" yaml:"step,omitempty"`
	EventRate        float64 `json:"event_rate,omitempty" yaml:"event_rate,omitempty"`
	FlowRate         float64 `json:"flow_rate,omitempty" yaml:"flow_rate,omitempty"`
}

// MainTank reports whether the tank has an acceptable range to keep.
func (c ComponentConfig) MainTank() bool { return c.AcceptProportion > 0 }

// Components maps every component to its configuration.
type Components map[core.ComponentID]ComponentConfig

// Group returns the ids of one group in sorted order.
func (c Components) Group(group string) []core.ComponentID {
	var ids []core.ComponentID
	for id := range c {
		if id.Group() == group {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Rect is a position/size pair in window coordinates.
type Rect struct {
	Position [2]float64 `json:"position" yaml:"position"`
	Size     [2]float64 `json:"size" yaml:"size"`
}

// Center returns the middle of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.Position[0] + r.Size[0]/2, r.Position[1] + r.Size[1]/2
}

// Panel is the geometry of one task panel and of the widgets inside it.
type Panel struct {
	Rect       `yaml:",inline"`
	Components map[core.ComponentID]Rect `json:"components,omitempty" yaml:"components,omitempty"`
}

// Layout maps task names to panels.
type Layout map[string]Panel

// MissingComponentError reports a component or panel absent from a snapshot.
type MissingComponentError struct {
	Task      string
	Component core.ComponentID
}

func (e *MissingComponentError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("snapshot: layout has no %q panel", e.Task)
	}
	return fmt.Sprintf("snapshot: %s missing from %q", e.Component, e.Task)
}

// Panel returns a task panel or a MissingComponentError.
func (l Layout) Panel(task string) (Panel, error) {
	p, ok := l[task]
	if !ok {
		return Panel{}, &MissingComponentError{Task: task}
	}
	return p, nil
}

// Snapshot bundles both environment snapshots.
type Snapshot struct {
	Components Components `json:"components" yaml:"components"`
	Layout     Layout     `json:"layout" yaml:"layout"`
}

// Validate checks that both halves are present.
func (s Snapshot) Validate() error {
	if len(s.Components) == 0 {
		return errors.New("snapshot: no components")
	}
	if len(s.Layout) == 0 {
		return errors.New("snapshot: no layout")
	}
	return nil
}

// LoadFile reads a snapshot from a YAML file.
func LoadFile(path string) (Snapshot, error) {
	var s Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return s, s.Validate()
}

// Decoder reads a typed value from a key/value store.
type Decoder interface {
	Decode(ctx context.Context, key string, out interface{}) (int64, error)
}

// Load reads both snapshots from the blackboard.
func Load(ctx context.Context, store Decoder) (Snapshot, error) {
	var s Snapshot
	if _, err := store.Decode(ctx, ComponentsKey, &s.Components); err != nil {
		return s, fmt.Errorf("load components: %w", err)
	}
	if _, err := store.Decode(ctx, LayoutKey, &s.Layout); err != nil {
		return s, fmt.Errorf("load layout: %w", err)
	}
	return s, s.Validate()
}

// Writer stores several values atomically.
type Writer interface {
	Txn(ctx context.Context, values map[string]interface{}, ttl time.Duration) error
}

// Save writes both snapshots to the blackboard in one transaction.
func Save(ctx context.Context, store Writer, s Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return store.Txn(ctx, map[string]interface{}{ComponentsKey: s.Components, LayoutKey: s.Layout}, 0)
}
