package core

import (
	"strings"
	"time"
)

// ComponentID names one monitored widget as "<Group>:<Index>".
type ComponentID string

// Group returns the part before the first ':'.
func (c ComponentID) Group() string {
	g, _, _ := strings.Cut(string(c), ":")
	return g
}

// Index returns the part after the first ':' or "" when there is none.
func (c ComponentID) Index() string {
	_, i, _ := strings.Cut(string(c), ":")
	return i
}

// Event is a state change reported by the environment.
type Event struct {
	ID          string                 `json:"id"`
	Timestamp   time.Time              `json:"timestamp"`
	Source      ComponentID            `json:"source"`
	Destination ComponentID            `json:"destination"`
	Label       Label                  `json:"label"`
	Payload     map[string]interface{} `json:"payload"`
}

// Float reads a numeric payload field.
func (e Event) Float(key string) (float64, bool) {
	switch v := e.Payload[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Int reads a numeric payload field truncated to int.
func (e Event) Int(key string) (int, bool) {
	f, ok := e.Float(key)
	return int(f), ok
}

// Bool reads a boolean payload field. Numbers are true when non-zero.
func (e Event) Bool(key string) (bool, bool) {
	if b, ok := e.Payload[key].(bool); ok {
		return b, true
	}
	f, ok := e.Float(key)
	return f != 0, ok
}

// Command is an intent emitted by an agent for the environment to carry out.
type Command struct {
	ID          string                 `json:"id"`
	Destination ComponentID            `json:"destination"`
	Label       Label                  `json:"label"`
	Payload     map[string]interface{} `json:"payload"`
}

// Event converts the command to its wire form.
func (c Command) Event(source ComponentID, ts time.Time) Event {
	return Event{
		ID:          c.ID,
		Timestamp:   ts,
		Source:      source,
		Destination: c.Destination,
		Label:       c.Label,
		Payload:     c.Payload,
	}
}

// Highlight builds a highlight on/off command for a component.
func Highlight(id ComponentID, on bool) Command {
	return Command{Destination: id, Label: LabelHighlight, Payload: map[string]interface{}{"value": on}}
}
