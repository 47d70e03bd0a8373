// Package eventbus connects the scheduler to an environment that speaks
// JSON events over Redis pub/sub.
package eventbus

import (
	"context"

	"go-attention-agent/internal/core"
)

// Bus defines publish/subscribe semantics for environment events.
type Bus interface {
	Publish(ctx context.Context, topic string, event core.Event) error
	Subscribe(ctx context.Context, topic string) (<-chan core.Event, error)
	SubscribePattern(ctx context.Context, pattern string) (<-chan core.Event, error)
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// Default topics shared with the environment.
const (
	TopicEvents   = "icu.events"
	TopicCommands = "icu.commands"
)
