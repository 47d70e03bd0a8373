package core

import "fmt"

// Label tags what kind of change an event carries.
type Label string

const (
	LabelSwitch    Label = "switch"
	LabelSlide     Label = "slide"
	LabelClick     Label = "click"
	LabelHighlight Label = "highlight"
	LabelGaze      Label = "gaze"
	LabelSaccade   Label = "saccade"
	LabelKey       Label = "key"
	LabelMove      Label = "move"
	LabelChange    Label = "change"
	LabelFuel      Label = "fuel"
)

// Known reports whether the label belongs to the environment protocol.
func (l Label) Known() bool {
	switch l {
	case LabelSwitch, LabelSlide, LabelClick, LabelHighlight, LabelGaze,
		LabelSaccade, LabelKey, LabelMove, LabelChange, LabelFuel:
		return true
	default:
		return false
	}
}

// UnknownLabelError is returned by agents that receive a label outside the protocol.
type UnknownLabelError struct {
	Agent string
	Event Event
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("agent %s: unknown label %q in event %s (%s->%s)",
		e.Agent, e.Event.Label, e.Event.ID, e.Event.Source, e.Event.Destination)
}

// Category is the semantic class of a perception.
type Category int

const (
	CategoryWarningLight Category = iota
	CategoryScale
	CategoryFuelTank
	CategoryPump
	CategoryTrack
	CategoryGaze
	CategoryHighlight
)

var categoryNames = [...]string{"WarningLight", "Scale", "FuelTank", "Pump", "Track", "Gaze", "Highlight"}

func (c Category) String() string {
	if int(c) < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Perception is a classified view of an event. Subject is the component the
// event is about, resolved by the classifier.
type Perception struct {
	Category Category
	Subject  ComponentID
	Event    Event
}
