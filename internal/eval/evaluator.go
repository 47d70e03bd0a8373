// Package eval scores operator performance from the classified event stream.
package eval

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"go-attention-agent/internal/belief"
	"go-attention-agent/internal/core"
	"go-attention-agent/internal/snapshot"
)

const (
	// TargetProportion is the target's size relative to the tracking panel.
	TargetProportion = 1.0 / 6
	// AcceptableProportion is the half-width of the acceptable tracking
	// region relative to the tracking panel.
	AcceptableProportion = 1.0 / 4
)

// Config holds evaluator settings.
type Config struct {
	// Desired is the good state of every warning light.
	Desired map[core.ComponentID]int
}

// Option customizes an evaluator.
type Option func(*Evaluator)

// WithClock sets the clock that marks the start of the run.
func WithClock(c core.Clock) Option {
	return func(e *Evaluator) { e.clock = c }
}

type scaleSample struct {
	avg  MovingAverage
	last time.Time
	half float64
}

// Evaluator is a read-only agent that keeps score accumulators. Scores may be
// queried from any goroutine.
type Evaluator struct {
	mu      sync.RWMutex
	clock   core.Clock
	logger  *log.Logger
	desired map[core.ComponentID]int
	mirror  *belief.Store

	trackDen      [2]float64
	trackHalf     float64
	tracking      MovingAverage
	trackingTime  *IntervalTimer
	lights        map[core.ComponentID]*IntervalTimer
	scales        map[core.ComponentID]*scaleSample
	tanks         map[core.ComponentID]*IntervalTimer
	highlightTime *IntervalTimer
	highlighted   map[core.ComponentID]bool
}

// New builds an evaluator over every component in the snapshot.
func New(snap snapshot.Snapshot, cfg Config, logger *log.Logger, opts ...Option) (*Evaluator, error) {
	if logger == nil {
		logger = log.Default()
	}
	e := &Evaluator{
		clock:       core.SystemClock{},
		logger:      logger,
		desired:     cfg.Desired,
		lights:      make(map[core.ComponentID]*IntervalTimer),
		scales:      make(map[core.ComponentID]*scaleSample),
		tanks:       make(map[core.ComponentID]*IntervalTimer),
		highlighted: make(map[core.ComponentID]bool),
	}
	for _, opt := range opts {
		opt(e)
	}

	track, err := snap.Layout.Panel(snapshot.TaskTrack)
	if err != nil {
		return nil, err
	}
	for i := range e.trackDen {
		e.trackDen[i] = (1 - TargetProportion) * track.Size[i]
	}
	e.trackHalf = AcceptableProportion / (1 - TargetProportion)

	mirror, err := belief.NewStore(snap.Components, "WarningLight", "Scale", "FuelTank", "Pump", "Target")
	if err != nil {
		return nil, fmt.Errorf("evaluator: %w", err)
	}
	e.mirror = mirror

	now := e.clock.Now()
	e.trackingTime = NewIntervalTimer(now)
	e.highlightTime = NewIntervalTimer(now)
	for _, id := range mirror.IDs() {
		rec, _ := mirror.Get(id)
		switch r := rec.(type) {
		case belief.Light:
			want, ok := cfg.Desired[id]
			if !ok {
				return nil, fmt.Errorf("evaluator: no desired state for %s", id)
			}
			e.lights[id] = NewIntervalTimer(now)
			e.lights[id].Set(r.State != want, now)
		case belief.Scale:
			e.scales[id] = &scaleSample{last: now, half: float64(r.Center())}
		case belief.Tank:
			if r.Main {
				e.tanks[id] = NewIntervalTimer(now)
				e.tanks[id].Set(!r.Acceptable, now)
			}
		}
	}
	return e, nil
}

// ID returns the agent identifier.
func (e *Evaluator) ID() string { return "evaluator" }

// Revise folds a perception batch into the accumulators.
func (e *Evaluator) Revise(perceptions []core.Perception) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range perceptions {
		ev := p.Event
		if !ev.Label.Known() {
			return &core.UnknownLabelError{Agent: e.ID(), Event: ev}
		}
		if p.Category == core.CategoryHighlight {
			e.observeHighlight(p.Subject, ev)
			continue
		}
		changed, err := e.mirror.Apply(p)
		if err != nil {
			if errors.Is(err, belief.ErrPayload) {
				e.logger.Printf("evaluator: %v", err)
				continue
			}
			return fmt.Errorf("evaluator: %w", err)
		}
		if p.Category == core.CategoryTrack && ev.Label == core.LabelMove {
			// every positioned move is a tracking sample, moved or not
			if _, ok := ev.Float("x"); ok && e.mirror.Owns(p.Subject) {
				e.sampleTarget(p.Subject, ev.Timestamp)
			}
			continue
		}
		if changed || ev.Label == core.LabelChange || ev.Label == core.LabelFuel {
			e.sample(p.Subject, ev.Timestamp)
		}
	}
	return nil
}

func (e *Evaluator) observeHighlight(id core.ComponentID, ev core.Event) {
	on, ok := ev.Bool("value")
	if !ok {
		e.logger.Printf("evaluator: highlight without value %s", ev.ID)
		return
	}
	if on {
		e.highlighted[id] = true
	} else {
		delete(e.highlighted, id)
	}
	e.highlightTime.Set(len(e.highlighted) > 0, ev.Timestamp)
}

func (e *Evaluator) sampleTarget(id core.ComponentID, ts time.Time) {
	rec, _ := e.mirror.Get(id)
	t, ok := rec.(belief.Target)
	if !ok {
		return
	}
	d := math.Max(2*math.Abs(t.X)/e.trackDen[0], 2*math.Abs(t.Y)/e.trackDen[1])
	e.tracking.Add(d, 1)
	e.trackingTime.Set(d > e.trackHalf, ts)
}

func (e *Evaluator) sample(id core.ComponentID, ts time.Time) {
	rec, _ := e.mirror.Get(id)
	switch r := rec.(type) {
	case belief.Light:
		e.lights[id].Set(r.State != e.desired[id], ts)
	case belief.Scale:
		s := e.scales[id]
		s.avg.Add(float64(r.Deviation()), ts.Sub(s.last).Seconds())
		s.last = ts
	case belief.Tank:
		if t, ok := e.tanks[id]; ok {
			t.Set(!r.Acceptable, ts)
		}
	}
}

// Decide never issues commands.
func (e *Evaluator) Decide(now time.Time) []core.Command { return nil }

// Scores materializes every score at now.
func (e *Evaluator) Scores(now time.Time) Scores {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Scores{
		Tracking:     e.tracking.Average(),
		TrackingTime: e.trackingTime.Ratio(now),
		Highlight:    e.highlightTime.Ratio(now),
	}
	var lights, scales, tanks []float64
	for _, id := range sortedKeys(e.lights) {
		lights = append(lights, e.lights[id].Ratio(now))
	}
	for _, id := range sortedKeys(e.tanks) {
		tanks = append(tanks, e.tanks[id].Ratio(now))
	}
	for _, sc := range e.scales {
		if sc.half > 0 {
			scales = append(scales, sc.avg.Average()/sc.half)
		}
	}
	s.WarningLight = mean(lights)
	s.Scale = mean(scales)
	s.FuelTank = mean(tanks)
	return s
}

// Tank returns the out-of-range ratio of one main tank.
func (e *Evaluator) Tank(id core.ComponentID, now time.Time) (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.tanks[id]
	if !ok {
		return math.NaN(), false
	}
	return t.Ratio(now), true
}

func sortedKeys(m map[core.ComponentID]*IntervalTimer) []core.ComponentID {
	ids := make([]core.ComponentID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var _ core.Agent = (*Evaluator)(nil)
