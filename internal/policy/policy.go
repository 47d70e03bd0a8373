// Package policy turns belief and attention state into highlight commands.
//
// Decisions are made by layers in priority order. A layer may suppress every
// layer below it; the look layer does so whenever the operator is looking at
// the task, which clears alerts before anything else is considered.
package policy

import (
	"fmt"
	"time"

	"go-attention-agent/internal/attention"
	"go-attention-agent/internal/core"
)

// Mode selects the highlight granularity.
type Mode string

const (
	ModeComponent Mode = "component"
	ModePanel     Mode = "panel"
)

// Valid reports whether the mode is supported.
func (m Mode) Valid() bool { return m == ModeComponent || m == ModePanel }

// PanelID names the aggregate highlight target of a task.
func PanelID(task string) core.ComponentID { return core.ComponentID("Panel:" + task) }

// View is the state a monitor exposes to the policy.
type View interface {
	// Owned returns the alertable components in sorted order.
	Owned() []core.ComponentID
	Acceptable(id core.ComponentID) bool
	Attention() *attention.Tracker
}

// Settings configures one task's policy.
type Settings struct {
	Grace time.Duration
	Mode  Mode
	Panel core.ComponentID
}

// Layer is one decision rule.
type Layer interface {
	Name() string
	Decide(v View, s Settings, now time.Time) (cmds []core.Command, suppress bool)
}

// Policy runs its layers from highest to lowest priority.
type Policy struct {
	settings Settings
	layers   []Layer
}

// New returns the look > repair > alert layering.
func New(s Settings) (*Policy, error) {
	if !s.Mode.Valid() {
		return nil, fmt.Errorf("policy: unknown highlight mode %q", s.Mode)
	}
	if s.Grace < 0 {
		return nil, fmt.Errorf("policy: negative grace period %s", s.Grace)
	}
	if s.Mode == ModePanel && s.Panel == "" {
		return nil, fmt.Errorf("policy: panel mode needs a panel id")
	}
	return &Policy{settings: s, layers: []Layer{lookLayer{}, repairLayer{}, alertLayer{}}}, nil
}

// Settings returns the configured settings.
func (p *Policy) Settings() Settings { return p.settings }

// Decide runs the layers. Emitted commands are applied to the tracker's
// highlight map as they are produced so lower layers and the next cycle see
// the intended state until the environment reports otherwise.
func (p *Policy) Decide(v View, now time.Time) []core.Command {
	var out []core.Command
	tr := v.Attention()
	for _, l := range p.layers {
		cmds, suppress := l.Decide(v, p.settings, now)
		for _, c := range cmds {
			on, _ := c.Payload["value"].(bool)
			tr.SetHighlighted(c.Destination, on)
		}
		out = append(out, cmds...)
		if suppress {
			break
		}
	}
	return out
}

type lookLayer struct{}

func (lookLayer) Name() string { return "look" }

func (lookLayer) Decide(v View, s Settings, now time.Time) ([]core.Command, bool) {
	tr := v.Attention()
	if !tr.IsLooking() {
		return nil, false
	}
	var cmds []core.Command
	for _, id := range v.Owned() {
		if tr.Highlighted(id) {
			cmds = append(cmds, core.Highlight(id, false))
		}
	}
	if s.Panel != "" && tr.Highlighted(s.Panel) {
		cmds = append(cmds, core.Highlight(s.Panel, false))
	}
	return cmds, true
}

type repairLayer struct{}

func (repairLayer) Name() string { return "repair" }

func (repairLayer) Decide(v View, s Settings, now time.Time) ([]core.Command, bool) {
	tr := v.Attention()
	var cmds []core.Command
	allOK := true
	for _, id := range v.Owned() {
		ok := v.Acceptable(id)
		allOK = allOK && ok
		if ok && tr.Highlighted(id) {
			cmds = append(cmds, core.Highlight(id, false))
		}
	}
	if s.Panel != "" && allOK && tr.Highlighted(s.Panel) {
		cmds = append(cmds, core.Highlight(s.Panel, false))
	}
	return cmds, false
}

type alertLayer struct{}

func (alertLayer) Name() string { return "alert" }

func (alertLayer) Decide(v View, s Settings, now time.Time) ([]core.Command, bool) {
	tr := v.Attention()
	// one alert on screen at a time
	if tr.AnyHighlighted() {
		return nil, false
	}
	for _, id := range v.Owned() {
		if v.Acceptable(id) || !tr.Ready(id, now, s.Grace) {
			continue
		}
		if s.Mode == ModePanel {
			return []core.Command{core.Highlight(s.Panel, true)}, false
		}
		return []core.Command{core.Highlight(id, true)}, false
	}
	return nil, false
}
