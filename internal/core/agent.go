package core

import "time"

// Agent is one participant of the cycle: it revises its beliefs from the
// whole perception batch and then decides which commands to emit.
type Agent interface {
	ID() string
	Revise(perceptions []Perception) error
	Decide(now time.Time) []Command
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
