package registry

import (
	"testing"
	"time"

	"go-attention-agent/internal/config"
	"go-attention-agent/internal/core"
	"go-attention-agent/internal/snapshot"
)

type stubFactory struct{ a core.Agent }

func (f stubFactory) Create(kind string) (core.Agent, error) { return f.a, nil }

type dummyAgent struct{}

func (dummyAgent) ID() string                          { return "dummy" }
func (dummyAgent) Revise([]core.Perception) error      { return nil }
func (dummyAgent) Decide(now time.Time) []core.Command { return nil }

func TestSpawnAgent(t *testing.T) {
	r := New(stubFactory{dummyAgent{}})
	if _, err := r.Spawn("dummy"); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if len(r.AgentIDs()) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(r.AgentIDs()))
	}
	if _, err := r.Spawn("dummy"); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if _, ok := r.Get("dummy"); !ok {
		t.Fatal("agent should be registered")
	}
}

func TestSnapshotFactory(t *testing.T) {
	f := SnapshotFactory{Snapshot: snapshot.Stub(), Config: config.Default()}
	r := New(f)
	kinds := []string{KindSystem, KindFuel, KindTrack, KindEvaluator, KindOperator}
	if err := r.SpawnAll(kinds); err != nil {
		t.Fatalf("spawn all: %v", err)
	}
	ids := r.AgentIDs()
	for i, k := range kinds {
		if ids[i] != k {
			t.Fatalf("expected %s at %d, got %v", k, i, ids)
		}
	}
	if _, ok := r.Evaluator(); !ok {
		t.Fatal("evaluator not found")
	}
	if len(r.Agents()) != len(kinds) {
		t.Fatalf("expected %d agents", len(kinds))
	}
}

func TestUnknownKind(t *testing.T) {
	r := New(SnapshotFactory{Snapshot: snapshot.Stub(), Config: config.Default()})
	if _, err := r.Spawn("pilot"); err == nil {
		t.Fatal("expected unknown kind error")
	}
}

func TestMissingLayoutFails(t *testing.T) {
	snap := snapshot.Stub()
	delete(snap.Layout, snapshot.TaskFuel)
	r := New(SnapshotFactory{Snapshot: snap, Config: config.Default()})
	if err := r.SpawnAll([]string{KindSystem, KindFuel}); err == nil {
		t.Fatal("expected missing panel error")
	}
	if len(r.AgentIDs()) != 1 {
		t.Fatalf("expected only the system agent, got %v", r.AgentIDs())
	}
}
