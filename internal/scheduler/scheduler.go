// Package scheduler drives the agents: one cycle polls a batch of events,
// feeds the whole batch to every agent, collects their commands and
// dispatches them to the environment until no follow-up events remain.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"go-attention-agent/internal/core"
	"go-attention-agent/internal/perception"
)

var (
	// ErrDispatchLimit is logged when a cycle keeps producing follow-up
	// events past the configured cap.
	ErrDispatchLimit = errors.New("scheduler: dispatch limit reached")
	// ErrTransport wraps failures talking to the environment.
	ErrTransport = errors.New("scheduler: transport")
)

// MinPeriod is the shortest permitted cycle period.
const MinPeriod = time.Millisecond

// Environment is the external system the agents observe and act on.
type Environment interface {
	Alive() bool
	// Poll returns at most max pending events without blocking.
	Poll(ctx context.Context, max int) ([]core.Event, error)
	// Execute carries out an event and returns any events it synthesized
	// that must be executed within the same cycle.
	Execute(ctx context.Context, ev core.Event) ([]core.Event, error)
}

// Stats describes one completed cycle.
type Stats struct {
	Events     int
	Dropped    int
	Commands   int
	Dispatched int
	Duplicates int
	Truncated  bool
	Duration   time.Duration
}

// Observer is notified after every cycle.
type Observer interface {
	ObserveCycle(Stats)
}

// Config holds scheduler settings.
type Config struct {
	Period      time.Duration
	MaxEvents   int
	MaxDispatch int
}

// Option customizes a scheduler.
type Option func(*Scheduler)

// WithClock sets the clock that timestamps cycles.
func WithClock(c core.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithObserver registers a cycle observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observers = append(s.observers, o) }
}

// WithAfterCycle registers a hook run after every cycle of Run.
func WithAfterCycle(fn func(ctx context.Context, now time.Time)) Option {
	return func(s *Scheduler) { s.after = append(s.after, fn) }
}

// Scheduler runs the agents in lock step.
type Scheduler struct {
	env       Environment
	agents    []core.Agent
	cfg       Config
	clock     core.Clock
	logger    *log.Logger
	observers []Observer
	after     []func(ctx context.Context, now time.Time)
}

// New validates the configuration and returns a scheduler.
func New(env Environment, agents []core.Agent, cfg Config, logger *log.Logger, opts ...Option) (*Scheduler, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Period < MinPeriod {
		return nil, fmt.Errorf("scheduler: period %v below %v", cfg.Period, MinPeriod)
	}
	if cfg.MaxEvents <= 0 || cfg.MaxDispatch <= 0 {
		return nil, fmt.Errorf("scheduler: batch and dispatch limits must be positive")
	}
	s := &Scheduler{env: env, agents: agents, cfg: cfg, clock: core.SystemClock{}, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Cycle runs one revise, decide and dispatch round. Agent errors are fatal;
// transport errors are wrapped in ErrTransport.
func (s *Scheduler) Cycle(ctx context.Context) (Stats, error) {
	start := s.clock.Now()
	var st Stats

	events, err := s.env.Poll(ctx, s.cfg.MaxEvents)
	if err != nil {
		return st, fmt.Errorf("%w: poll: %v", ErrTransport, err)
	}
	perceptions, dropped := perception.ClassifyBatch(events, s.logger)
	st.Events, st.Dropped = len(events), dropped

	for _, a := range s.agents {
		if err := a.Revise(perceptions); err != nil {
			return st, fmt.Errorf("agent %s revise: %w", a.ID(), err)
		}
	}

	var queue []core.Event
	for _, a := range s.agents {
		for _, cmd := range a.Decide(start) {
			if cmd.ID == "" {
				cmd.ID = uuid.NewString()
			}
			queue = append(queue, cmd.Event(core.ComponentID(a.ID()), start))
		}
	}
	st.Commands = len(queue)

	s.dispatch(ctx, queue, &st)
	st.Duration = s.clock.Now().Sub(start)
	for _, o := range s.observers {
		o.ObserveCycle(st)
	}
	return st, nil
}

// dispatch executes the queue to quiescence. Logically identical events are
// executed once per cycle, and at most MaxDispatch events are executed.
func (s *Scheduler) dispatch(ctx context.Context, queue []core.Event, st *Stats) {
	seen := make(map[string]bool)
	for len(queue) > 0 {
		if st.Dispatched >= s.cfg.MaxDispatch {
			s.logger.Printf("%v: dropping %d events", ErrDispatchLimit, len(queue))
			st.Truncated = true
			return
		}
		ev := queue[0]
		queue = queue[1:]

		key := identity(ev)
		if seen[key] {
			st.Duplicates++
			continue
		}
		seen[key] = true

		st.Dispatched++
		follow, err := s.env.Execute(ctx, ev)
		if err != nil {
			s.logger.Printf("execute %s %s: %v", ev.Destination, ev.Label, err)
			continue
		}
		queue = append(queue, follow...)
	}
}

// identity ignores the event id and timestamp. fmt prints maps in key order.
func identity(ev core.Event) string {
	return fmt.Sprintf("%s|%s|%s|%v", ev.Source, ev.Destination, ev.Label, ev.Payload)
}

// Run cycles every period until ctx is done or the environment dies.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Period)
	defer ticker.Stop()

	for {
		if !s.env.Alive() {
			s.logger.Println("environment closed, stopping")
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Cycle(ctx); err != nil {
				if errors.Is(err, ErrTransport) {
					s.logger.Println("cycle", err)
					continue
				}
				return err
			}
			now := s.clock.Now()
			for _, fn := range s.after {
				fn(ctx, now)
			}
		}
	}
}
