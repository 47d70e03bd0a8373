// Package belief keeps an agent's mirrored model of the components it owns.
package belief

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go-attention-agent/internal/core"
	"go-attention-agent/internal/snapshot"
)

// ErrPayload marks an owned event whose payload lacks the fields its label needs.
var ErrPayload = errors.New("belief: malformed payload")

// Store maps every owned component to its record. Lookups are total over
// the owned set: every id is initialized at construction.
type Store struct {
	records     map[core.ComponentID]Record
	interaction map[core.ComponentID]time.Time
}

// NewStore builds records for every component whose group is listed.
func NewStore(components snapshot.Components, groups ...string) (*Store, error) {
	s := &Store{
		records:     make(map[core.ComponentID]Record),
		interaction: make(map[core.ComponentID]time.Time),
	}
	for _, g := range groups {
		ids := components.Group(g)
		if len(ids) == 0 {
			return nil, fmt.Errorf("belief: no %s components configured", g)
		}
		for _, id := range ids {
			rec, err := initial(id, components[id])
			if err != nil {
				return nil, err
			}
			s.records[id] = rec
		}
	}
	return s, nil
}

func initial(id core.ComponentID, c snapshot.ComponentConfig) (Record, error) {
	switch id.Group() {
	case "WarningLight":
		return Light{State: c.State}, nil
	case "Scale":
		if c.Size <= 0 {
			return nil, fmt.Errorf("belief: %s has no size", id)
		}
		return Scale{Position: c.Position, Size: c.Size}, nil
	case "FuelTank":
		if c.Capacity <= 0 {
			return nil, fmt.Errorf("belief: %s has no capacity", id)
		}
		t := Tank{Level: c.Fuel, Capacity: c.Capacity, Main: c.MainTank(), Acceptable: true}
		if t.Main {
			target := c.AcceptPosition * c.Capacity
			t.Acceptable = math.Abs(c.Fuel-target) <= c.AcceptProportion*c.Capacity/2
		}
		return t, nil
	case "Pump":
		return Pump{Status: PumpStatus(c.State)}, nil
	case "Target":
		return Target{}, nil
	}
	return nil, fmt.Errorf("belief: %s has no record type", id)
}

// Owns reports whether id is mirrored by this store.
func (s *Store) Owns(id core.ComponentID) bool {
	_, ok := s.records[id]
	return ok
}

// IDs returns the owned ids in sorted order.
func (s *Store) IDs() []core.ComponentID {
	ids := make([]core.ComponentID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Get returns the record of an owned component.
func (s *Store) Get(id core.ComponentID) (Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// LastInteraction is when the component was last clicked or keyed.
func (s *Store) LastInteraction(id core.ComponentID) time.Time {
	return s.interaction[id]
}

// Apply revises the subject's record. It reports whether the record changed.
// Perceptions about components outside the store are ignored.
func (s *Store) Apply(p core.Perception) (bool, error) {
	rec, ok := s.records[p.Subject]
	if !ok {
		return false, nil
	}
	ev := p.Event
	if ev.Label == core.LabelClick || ev.Label == core.LabelKey {
		s.interaction[p.Subject] = ev.Timestamp
		return false, nil
	}

	next, err := revise(rec, ev)
	if err != nil {
		return false, fmt.Errorf("%w: %s %s: %v", ErrPayload, p.Subject, ev.Label, err)
	}
	if next == rec {
		return false, nil
	}
	s.records[p.Subject] = next
	return true, nil
}

func revise(rec Record, ev core.Event) (Record, error) {
	switch r := rec.(type) {
	case Light:
		switch ev.Label {
		case core.LabelChange:
			v, ok := ev.Int("value")
			if !ok {
				return rec, errors.New("missing value")
			}
			r.State = v
		case core.LabelSwitch:
			r.State = 1 - r.State
		}
		return r, nil
	case Scale:
		switch ev.Label {
		case core.LabelChange:
			v, ok := ev.Int("value")
			if !ok {
				return rec, errors.New("missing value")
			}
			r.Position = v
		case core.LabelSlide:
			d, ok := ev.Int("slide")
			if !ok {
				return rec, errors.New("missing slide")
			}
			r.Position += d
		}
		r.Position = clamp(r.Position, 0, r.Size-1)
		return r, nil
	case Tank:
		switch ev.Label {
		case core.LabelFuel:
			if v, ok := ev.Float("value"); ok {
				r.Level = v
			}
			a, ok := ev.Bool("acceptable")
			if !ok {
				return rec, errors.New("missing acceptable")
			}
			r.Acceptable = a
		case core.LabelChange:
			v, ok := ev.Float("value")
			if !ok {
				return rec, errors.New("missing value")
			}
			r.Level = v
		}
		return r, nil
	case Pump:
		if ev.Label == core.LabelChange {
			v, ok := ev.Int("value")
			if !ok {
				return rec, errors.New("missing value")
			}
			r.Status = PumpStatus(v)
		}
		return r, nil
	case Target:
		if ev.Label == core.LabelMove {
			x, okx := ev.Float("x")
			y, oky := ev.Float("y")
			if !okx || !oky {
				// relative key steps carry no position
				return rec, nil
			}
			r.X, r.Y = x, y
		}
		return r, nil
	}
	return rec, fmt.Errorf("unsupported record %T", rec)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
