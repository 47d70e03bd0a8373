package eventbus

import (
	"context"
	"fmt"
	"log"
	"sync"

	"go-attention-agent/internal/core"
)

// Topics names the channels shared with the environment.
type Topics struct {
	Events   string
	Commands string
}

// Transport adapts a Bus to the scheduler's environment: incoming events are
// buffered until polled and executed events are published as commands.
type Transport struct {
	bus      Bus
	topics   Topics
	capacity int
	logger   *log.Logger

	mu       sync.Mutex
	buf      []core.Event
	overflow int
	dropped  int
	alive    bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewTransport subscribes to the events topic. At most capacity events are
// buffered; newer events are dropped while the buffer is full.
func NewTransport(ctx context.Context, bus Bus, topics Topics, capacity int, logger *log.Logger) (*Transport, error) {
	if logger == nil {
		logger = log.Default()
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("transport: capacity must be positive")
	}
	ctx, cancel := context.WithCancel(ctx)
	ch, err := bus.Subscribe(ctx, topics.Events)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("transport: %w", err)
	}
	t := &Transport{
		bus:      bus,
		topics:   topics,
		capacity: capacity,
		logger:   logger,
		alive:    true,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go t.collect(ch)
	return t, nil
}

func (t *Transport) collect(ch <-chan core.Event) {
	defer close(t.done)
	for ev := range ch {
		t.mu.Lock()
		if len(t.buf) >= t.capacity {
			t.overflow++
			t.mu.Unlock()
			continue
		}
		t.buf = append(t.buf, ev)
		t.mu.Unlock()
	}
	t.mu.Lock()
	t.alive = false
	t.mu.Unlock()
}

// Alive is false once the subscription has ended.
func (t *Transport) Alive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.alive
}

// Poll drains up to max buffered events in arrival order.
func (t *Transport) Poll(ctx context.Context, max int) ([]core.Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.buf)
	if n > max {
		n = max
	}
	out := make([]core.Event, n)
	copy(out, t.buf[:n])
	t.buf = t.buf[n:]
	if t.overflow > 0 {
		t.logger.Printf("transport dropped %d events on a full buffer", t.overflow)
		t.dropped += t.overflow
		t.overflow = 0
	}
	return out, nil
}

// Dropped is the total number of events lost to a full buffer and reported
// by Poll.
func (t *Transport) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Pending is the number of buffered events.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf)
}

// Execute publishes the event on the commands topic. The remote environment
// reports the effects on the events topic, so nothing follows locally.
func (t *Transport) Execute(ctx context.Context, ev core.Event) ([]core.Event, error) {
	if err := t.bus.Publish(ctx, t.topics.Commands, ev); err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	return nil, nil
}

// Close ends the subscription and waits for the collector to stop.
func (t *Transport) Close(ctx context.Context) error {
	t.cancel()
	err := t.bus.Unsubscribe(ctx, t.topics.Events)
	<-t.done
	return err
}
