package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"go-attention-agent/internal/core"
)

// retryDelay is the pause after a failed receive before trying again.
const retryDelay = time.Second

// RedisBus carries JSON-encoded events over Redis pub/sub and redials when
// the server stops answering.
type RedisBus struct {
	mu      sync.Mutex
	rdb     *redis.Client
	options *redis.Options
	subs    map[string]*redis.PubSub
	logger  *log.Logger
}

// NewRedisBus creates a Redis-backed event bus.
func NewRedisBus(opts *redis.Options, logger *log.Logger) *RedisBus {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisBus{
		rdb:     redis.NewClient(opts),
		options: opts,
		subs:    make(map[string]*redis.PubSub),
		logger:  logger,
	}
}

// client returns a live client, redialing once if a ping fails. Callers hold mu.
func (b *RedisBus) client(ctx context.Context) *redis.Client {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		b.logger.Println("eventbus redial", err)
		_ = b.rdb.Close()
		b.rdb = redis.NewClient(b.options)
	}
	return b.rdb
}

// Ping reports whether the server answers.
func (b *RedisBus) Ping(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("eventbus ping %s: %w", b.options.Addr, err)
	}
	return nil
}

// Publish sends an event to a topic.
func (b *RedisBus) Publish(ctx context.Context, topic string, event core.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	b.mu.Lock()
	rdb := b.client(ctx)
	b.mu.Unlock()
	if err := rdb.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe listens for events on a topic.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (<-chan core.Event, error) {
	return b.subscribe(ctx, topic, false)
}

// SubscribePattern listens for events on every topic matching a glob pattern.
func (b *RedisBus) SubscribePattern(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return b.subscribe(ctx, pattern, true)
}

// subscribe waits for the server to confirm the subscription so that nothing
// published after it returns is missed.
func (b *RedisBus) subscribe(ctx context.Context, key string, pattern bool) (<-chan core.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.subs[key]; dup {
		return nil, fmt.Errorf("subscribe %s: already subscribed", key)
	}
	rdb := b.client(ctx)
	var ps *redis.PubSub
	if pattern {
		ps = rdb.PSubscribe(ctx, key)
	} else {
		ps = rdb.Subscribe(ctx, key)
	}
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}
	b.subs[key] = ps
	return b.receive(ctx, ps), nil
}

// receive decodes messages until ctx ends or the subscription is closed.
// Malformed payloads are logged and skipped.
func (b *RedisBus) receive(ctx context.Context, ps *redis.PubSub) <-chan core.Event {
	ch := make(chan core.Event)
	go func() {
		defer close(ch)
		for {
			msg, err := ps.ReceiveMessage(ctx)
			switch {
			case err == nil:
			case ctx.Err() != nil, errors.Is(err, redis.ErrClosed):
				return
			default:
				b.logger.Println("eventbus receive", err)
				time.Sleep(retryDelay)
				continue
			}
			var ev core.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Printf("eventbus drop malformed event on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// Unsubscribe closes the subscription for a topic or pattern.
func (b *RedisBus) Unsubscribe(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ps, ok := b.subs[key]
	if !ok {
		return nil
	}
	delete(b.subs, key)
	return ps.Close()
}

// Close terminates all subscriptions and closes the client.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, ps := range b.subs {
		_ = ps.Close()
		delete(b.subs, key)
	}
	return b.rdb.Close()
}

var _ Bus = (*RedisBus)(nil)
