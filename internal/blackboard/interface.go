// Package blackboard is the shared key/value store the supervisor reads
// environment snapshots from and publishes scores to.
package blackboard

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("blackboard: key not found")

// Update is a change notification for one key.
type Update struct {
	Key     string      `json:"key"`
	Value   interface{} `json:"value"`
	Version int64       `json:"version,omitempty"`
}

// Store defines operations for a versioned shared knowledge base.
type Store interface {
	Put(ctx context.Context, key string, value interface{}, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (interface{}, int64, error)
	Decode(ctx context.Context, key string, out interface{}) (int64, error)
	Txn(ctx context.Context, values map[string]interface{}, ttl time.Duration) error
	Watch(ctx context.Context, pattern string) (<-chan Update, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
