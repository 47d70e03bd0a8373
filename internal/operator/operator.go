// Package operator provides a simulated operator that reacts to the
// environment the way an attentive human would, for closed-loop runs
// without a human in the seat.
package operator

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"go-attention-agent/internal/belief"
	"go-attention-agent/internal/core"
	"go-attention-agent/internal/snapshot"
)

// EyeTracker is the component gaze commands are addressed to.
const EyeTracker core.ComponentID = "EyeTracker:0"

// KeyCodes maps arrow keys to the codes the environment expects.
var KeyCodes = map[string]int{"Up": 98, "Down": 104, "Left": 100, "Right": 102}

// Config holds operator settings.
type Config struct {
	// Delay is the minimum gap between clicks. Zero reacts to everything at once.
	Delay time.Duration
	// EyeSpeed is the fraction of the remaining distance the gaze covers per
	// decide. Zero or one jumps straight to the target.
	EyeSpeed float64
	// Desired is the good state of every warning light.
	Desired map[core.ComponentID]int
}

// Operator mirrors every component and issues corrective input.
type Operator struct {
	cfg        Config
	logger     *log.Logger
	components snapshot.Components
	mirror     *belief.Store

	centers     map[core.ComponentID][2]float64
	window      [2]float64
	eye         [2]float64
	highlighted map[core.ComponentID]time.Time
	lastAction  time.Time

	// feeders lists the pumps filling each main tank.
	feeders map[core.ComponentID][]core.ComponentID
	// auxiliary pumps fill the reserve tanks.
	auxiliary []core.ComponentID
	target    core.ComponentID
}

// New builds an operator from the environment snapshots.
func New(snap snapshot.Snapshot, cfg Config, logger *log.Logger) (*Operator, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.EyeSpeed < 0 || cfg.EyeSpeed > 1 {
		return nil, fmt.Errorf("operator: eye speed %v outside [0,1]", cfg.EyeSpeed)
	}
	mirror, err := belief.NewStore(snap.Components, "WarningLight", "Scale", "FuelTank", "Pump", "Target")
	if err != nil {
		return nil, fmt.Errorf("operator: %w", err)
	}
	window, err := snap.Layout.Panel(snapshot.TaskWindow)
	if err != nil {
		return nil, err
	}
	o := &Operator{
		cfg:         cfg,
		logger:      logger,
		components:  snap.Components,
		mirror:      mirror,
		centers:     make(map[core.ComponentID][2]float64),
		highlighted: make(map[core.ComponentID]time.Time),
		feeders:     make(map[core.ComponentID][]core.ComponentID),
	}
	o.window[0], o.window[1] = window.Center()
	o.eye = o.window

	for task, panel := range snap.Layout {
		x, y := panel.Center()
		o.centers[core.ComponentID("Panel:"+task)] = [2]float64{x, y}
		for id, r := range panel.Components {
			x, y := r.Center()
			o.centers[id] = [2]float64{x, y}
		}
	}
	if targets := snap.Components.Group("Target"); len(targets) > 0 {
		o.target = targets[0]
		if track, err := snap.Layout.Panel(snapshot.TaskTrack); err == nil {
			x, y := track.Center()
			o.centers[o.target] = [2]float64{x, y}
		}
	}

	for _, pump := range snap.Components.Group("Pump") {
		idx := pump.Index()
		if len(idx) != 2 {
			return nil, fmt.Errorf("operator: pump %s does not name two tanks", pump)
		}
		to := core.ComponentID("FuelTank:" + idx[1:])
		if snap.Components[to].MainTank() {
			o.feeders[to] = append(o.feeders[to], pump)
		} else {
			o.auxiliary = append(o.auxiliary, pump)
		}
	}
	return o, nil
}

// ID returns the agent identifier.
func (o *Operator) ID() string { return "operator" }

// Eye returns the simulated gaze position.
func (o *Operator) Eye() (float64, float64) { return o.eye[0], o.eye[1] }

// Revise mirrors the batch.
func (o *Operator) Revise(perceptions []core.Perception) error {
	for _, p := range perceptions {
		ev := p.Event
		if !ev.Label.Known() {
			return &core.UnknownLabelError{Agent: o.ID(), Event: ev}
		}
		switch p.Category {
		case core.CategoryGaze:
			continue
		case core.CategoryHighlight:
			on, ok := ev.Bool("value")
			if !ok {
				continue
			}
			if !on {
				delete(o.highlighted, p.Subject)
			} else if _, seen := o.highlighted[p.Subject]; !seen {
				o.highlighted[p.Subject] = ev.Timestamp
			}
			continue
		}
		if _, err := o.mirror.Apply(p); err != nil {
			if errors.Is(err, belief.ErrPayload) {
				o.logger.Printf("operator: %v", err)
				continue
			}
			return fmt.Errorf("operator: %w", err)
		}
	}
	return nil
}

// Decide issues corrective clicks and key presses, and moves the gaze toward
// the earliest highlighted component.
func (o *Operator) Decide(now time.Time) []core.Command {
	var cmds []core.Command
	clicks := o.clicks()
	switch {
	case o.cfg.Delay <= 0:
		cmds = append(cmds, clicks...)
	case len(clicks) > 0 && now.Sub(o.lastAction) >= o.cfg.Delay:
		o.lastAction = now
		cmds = append(cmds, clicks[0])
	}
	cmds = append(cmds, o.steer()...)
	if g, ok := o.moveEye(); ok {
		cmds = append(cmds, g)
	}
	return cmds
}

func (o *Operator) clicks() []core.Command {
	var out []core.Command
	for _, id := range o.mirror.IDs() {
		rec, _ := o.mirror.Get(id)
		switch r := rec.(type) {
		case belief.Scale:
			if r.Position != r.Center() {
				out = append(out, click(id))
			}
		case belief.Light:
			if want, ok := o.cfg.Desired[id]; ok && r.State != want {
				out = append(out, click(id))
			}
		}
	}
	for _, pump := range o.auxiliary {
		if o.pump(pump) == belief.PumpOff {
			out = append(out, click(pump))
		}
	}
	tanks := make([]core.ComponentID, 0, len(o.feeders))
	for tank := range o.feeders {
		tanks = append(tanks, tank)
	}
	sort.Slice(tanks, func(i, j int) bool { return tanks[i] < tanks[j] })
	for _, tank := range tanks {
		rec, _ := o.mirror.Get(tank)
		t, ok := rec.(belief.Tank)
		if !ok {
			continue
		}
		c := o.components[tank]
		short := c.AcceptPosition*c.Capacity - t.Level
		for _, pump := range o.feeders[tank] {
			st := o.pump(pump)
			if (short > 0 && st == belief.PumpOff) || (short < 0 && st == belief.PumpOn) {
				out = append(out, click(pump))
			}
		}
	}
	return out
}

func (o *Operator) pump(id core.ComponentID) belief.PumpStatus {
	rec, _ := o.mirror.Get(id)
	if p, ok := rec.(belief.Pump); ok {
		return p.Status
	}
	return belief.PumpFailed
}

// steer presses the keys that bring the target back toward the center.
func (o *Operator) steer() []core.Command {
	if o.target == "" {
		return nil
	}
	rec, _ := o.mirror.Get(o.target)
	t, ok := rec.(belief.Target)
	if !ok {
		return nil
	}
	invert := o.components[o.target].Invert
	var out []core.Command
	if t.X != 0 {
		out = append(out, keyPress(o.target, direction(t.X, invert, "Left", "Right")))
	}
	if t.Y != 0 {
		out = append(out, keyPress(o.target, direction(t.Y, invert, "Up", "Down")))
	}
	return out
}

// direction picks the key moving a coordinate toward zero. Inverted controls
// push the target away from the pressed direction.
func direction(v float64, invert bool, neg, pos string) string {
	if (v > 0) == invert {
		return pos
	}
	return neg
}

func (o *Operator) focus() [2]float64 {
	var first core.ComponentID
	var at time.Time
	for id, ts := range o.highlighted {
		if first == "" || ts.Before(at) || (ts.Equal(at) && id < first) {
			first, at = id, ts
		}
	}
	if c, ok := o.centers[first]; ok {
		return c
	}
	return o.window
}

func (o *Operator) moveEye() (core.Command, bool) {
	to := o.focus()
	speed := o.cfg.EyeSpeed
	if speed == 0 {
		speed = 1
	}
	dx, dy := (to[0]-o.eye[0])*speed, (to[1]-o.eye[1])*speed
	if math.Hypot(dx, dy) < 0.5 {
		return core.Command{}, false
	}
	o.eye[0] += dx
	o.eye[1] += dy
	return core.Command{
		Destination: EyeTracker,
		Label:       core.LabelGaze,
		Payload:     map[string]interface{}{"x": o.eye[0], "y": o.eye[1]},
	}, true
}

func click(id core.ComponentID) core.Command {
	return core.Command{Destination: id, Label: core.LabelClick, Payload: map[string]interface{}{}}
}

func keyPress(id core.ComponentID, key string) core.Command {
	return core.Command{
		Destination: id,
		Label:       core.LabelKey,
		Payload:     map[string]interface{}{"key": key, "keycode": KeyCodes[key], "action": "press"},
	}
}

var _ core.Agent = (*Operator)(nil)
