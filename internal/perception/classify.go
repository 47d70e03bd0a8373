// Package perception maps raw environment events to typed perceptions.
package perception

import (
	"fmt"
	"log"
	"sort"

	"go-attention-agent/internal/core"
)

var groups = map[string]core.Category{
	"WarningLight": core.CategoryWarningLight,
	"Scale":        core.CategoryScale,
	"FuelTank":     core.CategoryFuelTank,
	"Pump":         core.CategoryPump,
	"Target":       core.CategoryTrack,
	"EyeTracker":   core.CategoryGaze,
	"Highlight":    core.CategoryHighlight,
}

// GroupCategory returns the category of a component group.
func GroupCategory(group string) (core.Category, bool) {
	c, ok := groups[group]
	return c, ok
}

// UnclassifiedEventError reports an event whose source and destination both
// fall outside the known groups.
type UnclassifiedEventError struct {
	Event core.Event
}

func (e *UnclassifiedEventError) Error() string {
	return fmt.Sprintf("unclassified event %s: no group for %q or %q", e.Event.ID, e.Event.Source, e.Event.Destination)
}

// Classify looks up the source group first and falls back to the destination.
func Classify(ev core.Event) (core.Perception, error) {
	if c, ok := groups[ev.Source.Group()]; ok {
		return core.Perception{Category: c, Subject: subject(c, ev.Source), Event: ev}, nil
	}
	if c, ok := groups[ev.Destination.Group()]; ok {
		return core.Perception{Category: c, Subject: subject(c, ev.Destination), Event: ev}, nil
	}
	return core.Perception{}, &UnclassifiedEventError{Event: ev}
}

func subject(c core.Category, id core.ComponentID) core.ComponentID {
	if c == core.CategoryHighlight {
		return core.ComponentID(id.Index())
	}
	return id
}

// ClassifyBatch classifies a batch, logs and drops what cannot be classified,
// and returns the rest ordered by event identifier.
func ClassifyBatch(events []core.Event, logger *log.Logger) ([]core.Perception, int) {
	if logger == nil {
		logger = log.Default()
	}
	out := make([]core.Perception, 0, len(events))
	dropped := 0
	for _, ev := range events {
		p, err := Classify(ev)
		if err != nil {
			logger.Println("drop event", err)
			dropped++
			continue
		}
		out = append(out, p)
	}
	Sort(out)
	return out, dropped
}

// Sort orders perceptions by event identifier.
func Sort(ps []core.Perception) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Event.ID < ps[j].Event.ID })
}
