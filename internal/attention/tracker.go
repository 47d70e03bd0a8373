// Package attention tracks where the operator is looking and the timers the
// alerting policy debounces against.
package attention

import (
	"sort"
	"time"

	"go-attention-agent/internal/core"
	"go-attention-agent/internal/snapshot"
)

// Box is a bounding rectangle in window coordinates.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// BoxOf converts a layout rectangle.
func BoxOf(r snapshot.Rect) Box {
	return Box{X1: r.Position[0], Y1: r.Position[1], X2: r.Position[0] + r.Size[0], Y2: r.Position[1] + r.Size[1]}
}

// Contains is an inclusive point-in-rectangle test.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y1 && y <= b.Y2
}

// Tracker holds one agent's attention state and hysteresis timers.
type Tracker struct {
	box         Box
	gazeX       float64
	gazeY       float64
	lastViewed  time.Time
	highlighted map[core.ComponentID]bool
	lastFailed  map[core.ComponentID]time.Time
}

// NewTracker starts with the gaze at the window origin and a task never viewed.
func NewTracker(box Box) *Tracker {
	return &Tracker{
		box:         box,
		highlighted: make(map[core.ComponentID]bool),
		lastFailed:  make(map[core.ComponentID]time.Time),
	}
}

// Box returns the task bounding box.
func (t *Tracker) Box() Box { return t.box }

// ObserveGaze moves the gaze and stamps lastViewed when it lands on the task.
func (t *Tracker) ObserveGaze(x, y float64, ts time.Time) {
	t.gazeX, t.gazeY = x, y
	if t.IsLooking() {
		t.lastViewed = ts
	}
}

// Gaze returns the last known gaze position.
func (t *Tracker) Gaze() (float64, float64) { return t.gazeX, t.gazeY }

// IsLooking reports whether the current gaze is inside the task box.
func (t *Tracker) IsLooking() bool { return t.box.Contains(t.gazeX, t.gazeY) }

// LastViewed is the timestamp of the last gaze sample inside the task box.
func (t *Tracker) LastViewed() time.Time { return t.lastViewed }

// SetHighlighted records the highlight state of any component, owned or not.
func (t *Tracker) SetHighlighted(id core.ComponentID, on bool) {
	if on {
		t.highlighted[id] = true
		return
	}
	delete(t.highlighted, id)
}

// Highlighted reports the highlight state of a component.
func (t *Tracker) Highlighted(id core.ComponentID) bool { return t.highlighted[id] }

// AnyHighlighted scans the highlight map on every call.
func (t *Tracker) AnyHighlighted() bool {
	for _, on := range t.highlighted {
		if on {
			return true
		}
	}
	return false
}

// HighlightedIDs returns every highlighted component in sorted order.
func (t *Tracker) HighlightedIDs() []core.ComponentID {
	ids := make([]core.ComponentID, 0, len(t.highlighted))
	for id, on := range t.highlighted {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Transition stamps lastFailed when a component goes from acceptable to unacceptable.
func (t *Tracker) Transition(id core.ComponentID, wasOK, isOK bool, ts time.Time) {
	if wasOK && !isOK {
		t.lastFailed[id] = ts
	}
}

// MarkFailed stamps lastFailed unconditionally.
func (t *Tracker) MarkFailed(id core.ComponentID, ts time.Time) { t.lastFailed[id] = ts }

// LastFailed is the last acceptable to unacceptable transition of a component.
func (t *Tracker) LastFailed(id core.ComponentID) time.Time { return t.lastFailed[id] }

// Ready holds once both the failure and the last look are older than grace.
func (t *Tracker) Ready(id core.ComponentID, now time.Time, grace time.Duration) bool {
	return now.Sub(t.lastFailed[id]) > grace && now.Sub(t.lastViewed) > grace
}
