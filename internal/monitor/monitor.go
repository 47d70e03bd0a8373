// Package monitor implements the task supervisors: each mirrors the
// components of one task, follows the operator's gaze and raises or clears
// highlights through the alerting policy.
package monitor

import (
	"errors"
	"fmt"
	"log"
	"time"

	"go-attention-agent/internal/attention"
	"go-attention-agent/internal/belief"
	"go-attention-agent/internal/core"
	"go-attention-agent/internal/policy"
	"go-attention-agent/internal/snapshot"
)

// Task describes what a monitor owns and how it judges its components.
type Task struct {
	Name   string
	Groups []string
	// Alertable selects the owned components the policy may highlight.
	Alertable  func(id core.ComponentID, rec belief.Record) bool
	Acceptable func(id core.ComponentID, rec belief.Record) bool
}

// Option customizes a monitor.
type Option func(*Monitor)

// WithClock sets the clock used at construction for initially bad components.
func WithClock(c core.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// Monitor is one task supervisor.
type Monitor struct {
	id        string
	task      Task
	beliefs   *belief.Store
	attn      *attention.Tracker
	policy    *policy.Policy
	alertable []core.ComponentID
	ok        map[core.ComponentID]bool
	clock     core.Clock
	logger    *log.Logger
}

// New builds a monitor for a task. Every owned component must be present in
// the task's layout panel.
func New(id string, task Task, snap snapshot.Snapshot, settings policy.Settings, logger *log.Logger, opts ...Option) (*Monitor, error) {
	if logger == nil {
		logger = log.Default()
	}
	panel, err := snap.Layout.Panel(task.Name)
	if err != nil {
		return nil, err
	}
	beliefs, err := belief.NewStore(snap.Components, task.Groups...)
	if err != nil {
		return nil, err
	}
	pol, err := policy.New(settings)
	if err != nil {
		return nil, err
	}
	m := &Monitor{
		id:      id,
		task:    task,
		beliefs: beliefs,
		attn:    attention.NewTracker(attention.BoxOf(panel.Rect)),
		policy:  pol,
		ok:      make(map[core.ComponentID]bool),
		clock:   core.SystemClock{},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}

	start := m.clock.Now()
	for _, cid := range beliefs.IDs() {
		if _, ok := panel.Components[cid]; !ok {
			return nil, &snapshot.MissingComponentError{Task: task.Name, Component: cid}
		}
		rec, _ := beliefs.Get(cid)
		if task.Alertable == nil || task.Alertable(cid, rec) {
			m.alertable = append(m.alertable, cid)
		}
		m.ok[cid] = task.Acceptable(cid, rec)
		if !m.ok[cid] {
			m.attn.MarkFailed(cid, start)
		}
	}
	return m, nil
}

// ID returns the agent identifier.
func (m *Monitor) ID() string { return m.id }

// Task returns the task name.
func (m *Monitor) Task() string { return m.task.Name }

// Owned returns the alertable components in sorted order.
func (m *Monitor) Owned() []core.ComponentID { return m.alertable }

// Acceptable reports the last computed acceptability of a component.
func (m *Monitor) Acceptable(id core.ComponentID) bool { return m.ok[id] }

// Attention exposes the attention tracker.
func (m *Monitor) Attention() *attention.Tracker { return m.attn }

// Beliefs exposes the belief store.
func (m *Monitor) Beliefs() *belief.Store { return m.beliefs }

// Revise consumes one sorted perception batch.
func (m *Monitor) Revise(perceptions []core.Perception) error {
	for _, p := range perceptions {
		ev := p.Event
		if !ev.Label.Known() {
			return &core.UnknownLabelError{Agent: m.id, Event: ev}
		}
		switch p.Category {
		case core.CategoryGaze:
			if ev.Label != core.LabelGaze {
				continue
			}
			x, okx := ev.Float("x")
			y, oky := ev.Float("y")
			if !okx || !oky {
				m.logger.Printf("monitor %s: gaze without position %s", m.id, ev.ID)
				continue
			}
			m.attn.ObserveGaze(x, y, ev.Timestamp)
		case core.CategoryHighlight:
			on, ok := ev.Bool("value")
			if !ok {
				m.logger.Printf("monitor %s: highlight without value %s", m.id, ev.ID)
				continue
			}
			m.attn.SetHighlighted(p.Subject, on)
		default:
			changed, err := m.beliefs.Apply(p)
			if err != nil {
				if errors.Is(err, belief.ErrPayload) {
					m.logger.Printf("monitor %s: %v", m.id, err)
					continue
				}
				return fmt.Errorf("monitor %s: %w", m.id, err)
			}
			if changed {
				m.refresh(p.Subject, ev.Timestamp)
			}
		}
	}
	return nil
}

func (m *Monitor) refresh(id core.ComponentID, ts time.Time) {
	rec, _ := m.beliefs.Get(id)
	now := m.task.Acceptable(id, rec)
	m.attn.Transition(id, m.ok[id], now, ts)
	m.ok[id] = now
}

// Decide runs the alerting policy.
func (m *Monitor) Decide(now time.Time) []core.Command {
	return m.policy.Decide(m, now)
}

var _ core.Agent = (*Monitor)(nil)
var _ policy.View = (*Monitor)(nil)
