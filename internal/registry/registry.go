// Package registry builds agents by kind and keeps them in registration
// order for the scheduler.
package registry

import (
	"fmt"
	"log"
	"sync"

	"go-attention-agent/internal/config"
	"go-attention-agent/internal/core"
	"go-attention-agent/internal/eval"
	"go-attention-agent/internal/monitor"
	"go-attention-agent/internal/operator"
	"go-attention-agent/internal/snapshot"
)

// Agent kinds understood by SnapshotFactory.
const (
	KindSystem    = "system"
	KindFuel      = "fuel"
	KindTrack     = "track"
	KindEvaluator = "evaluator"
	KindOperator  = "operator"
)

// Factory creates agents of various kinds.
type Factory interface {
	Create(kind string) (core.Agent, error)
}

// SnapshotFactory builds agents from the environment snapshots and settings.
type SnapshotFactory struct {
	Snapshot snapshot.Snapshot
	Config   config.Config
	Logger   *log.Logger
	Clock    core.Clock
}

// Create builds one agent.
func (f SnapshotFactory) Create(kind string) (core.Agent, error) {
	clock := f.Clock
	if clock == nil {
		clock = core.SystemClock{}
	}
	switch kind {
	case KindSystem:
		return monitor.NewSystem(f.Snapshot, f.Config.SystemMonitor(), f.Logger, monitor.WithClock(clock))
	case KindFuel:
		return monitor.NewFuel(f.Snapshot, f.Config.FuelMonitor(), f.Logger, monitor.WithClock(clock))
	case KindTrack:
		return monitor.NewTrack(f.Snapshot, f.Config.TrackMonitor(), f.Logger, monitor.WithClock(clock))
	case KindEvaluator:
		return eval.New(f.Snapshot, f.Config.Evaluator(), f.Logger, eval.WithClock(clock))
	case KindOperator:
		return operator.New(f.Snapshot, f.Config.SimulatedOperator(), f.Logger)
	}
	return nil, fmt.Errorf("unknown agent kind %q", kind)
}

// Registry owns the running agents.
type Registry struct {
	mu      sync.RWMutex
	factory Factory
	agents  []core.Agent
	byID    map[string]core.Agent
}

// New returns an empty registry.
func New(f Factory) *Registry {
	return &Registry{factory: f, byID: make(map[string]core.Agent)}
}

// Spawn creates an agent and registers it.
func (r *Registry) Spawn(kind string) (core.Agent, error) {
	ag, err := r.factory.Create(kind)
	if err != nil {
		return nil, fmt.Errorf("create agent %s: %w", kind, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[ag.ID()]; dup {
		return nil, fmt.Errorf("agent %s already registered", ag.ID())
	}
	r.byID[ag.ID()] = ag
	r.agents = append(r.agents, ag)
	return ag, nil
}

// SpawnAll creates one agent per kind, stopping at the first failure.
func (r *Registry) SpawnAll(kinds []string) error {
	for _, k := range kinds {
		if _, err := r.Spawn(k); err != nil {
			return err
		}
	}
	return nil
}

// Agents returns the agents in registration order.
func (r *Registry) Agents() []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// AgentIDs returns the identifiers in registration order.
func (r *Registry) AgentIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.agents))
	for _, ag := range r.agents {
		ids = append(ids, ag.ID())
	}
	return ids
}

// Get looks up an agent by identifier.
func (r *Registry) Get(id string) (core.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ag, ok := r.byID[id]
	return ag, ok
}

// Evaluator returns the registered evaluator, if any.
func (r *Registry) Evaluator() (*eval.Evaluator, bool) {
	ag, ok := r.Get(KindEvaluator)
	if !ok {
		return nil, false
	}
	ev, ok := ag.(*eval.Evaluator)
	return ev, ok
}
