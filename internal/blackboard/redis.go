package blackboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// notifyPrefix prefixes the pub/sub channel announcing changes to a key.
const notifyPrefix = "blackboard:update:"

// RedisStore keeps each key in a hash with a JSON "value" field and an
// integer "version" field that grows on every write.
type RedisStore struct {
	mu      sync.Mutex
	rdb     *redis.Client
	options *redis.Options
	logger  *log.Logger
}

// NewRedisStore returns a RedisStore connected with the given options.
func NewRedisStore(opts *redis.Options, logger *log.Logger) *RedisStore {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisStore{rdb: redis.NewClient(opts), options: opts, logger: logger}
}

// client returns a live client, redialing once if a ping fails.
func (s *RedisStore) client(ctx context.Context) *redis.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.logger.Println("blackboard redial", err)
		_ = s.rdb.Close()
		s.rdb = redis.NewClient(s.options)
	}
	return s.rdb
}

// Put stores a value with optional TTL and returns the new version. The
// version is read and bumped under WATCH so concurrent writers never reuse one.
func (s *RedisStore) Put(ctx context.Context, key string, value interface{}, ttl time.Duration) (int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("blackboard put %s: %w", key, err)
	}
	rdb := s.client(ctx)

	var ver int64
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, key, "version").Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		ver = cur + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "value", data, "version", ver)
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		return 0, fmt.Errorf("blackboard put %s: %w", key, err)
	}
	s.notify(ctx, rdb, Update{Key: key, Value: value, Version: ver})
	return ver, nil
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

func (s *RedisStore) notify(ctx context.Context, p publisher, upd Update) {
	payload, err := json.Marshal(upd)
	if err != nil {
		s.logger.Println("blackboard notify", err)
		return
	}
	p.Publish(ctx, notifyPrefix+upd.Key, payload)
}

// Get retrieves a value decoded into generic JSON types, and its version.
func (s *RedisStore) Get(ctx context.Context, key string) (interface{}, int64, error) {
	var v interface{}
	ver, err := s.Decode(ctx, key, &v)
	if err != nil {
		return nil, 0, err
	}
	return v, ver, nil
}

// Decode unmarshals the value stored at key into out and returns its version.
func (s *RedisStore) Decode(ctx context.Context, key string, out interface{}) (int64, error) {
	fields, err := s.client(ctx).HGetAll(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("blackboard get %s: %w", key, err)
	}
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	var ver int64
	if raw := fields["version"]; raw != "" {
		if ver, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return 0, fmt.Errorf("blackboard get %s: version: %w", key, err)
		}
	}
	if err := json.Unmarshal([]byte(fields["value"]), out); err != nil {
		return 0, fmt.Errorf("blackboard decode %s: %w", key, err)
	}
	return ver, nil
}

// Txn writes several keys in one MULTI block, bumping each version.
func (s *RedisStore) Txn(ctx context.Context, values map[string]interface{}, ttl time.Duration) error {
	encoded := make(map[string][]byte, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("blackboard txn %s: %w", k, err)
		}
		encoded[k] = data
	}

	pipe := s.client(ctx).TxPipeline()
	for k, data := range encoded {
		pipe.HIncrBy(ctx, k, "version", 1)
		pipe.HSet(ctx, k, "value", data)
		if ttl > 0 {
			pipe.Expire(ctx, k, ttl)
		}
		s.notify(ctx, pipe, Update{Key: k, Value: values[k]})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("blackboard txn: %w", err)
	}
	return nil
}

// Watch streams updates of keys matching a glob pattern until ctx is done.
func (s *RedisStore) Watch(ctx context.Context, pattern string) (<-chan Update, error) {
	ps := s.client(ctx).PSubscribe(ctx, notifyPrefix+pattern)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("blackboard watch %s: %w", pattern, err)
	}
	ch := make(chan Update)
	go func() {
		defer close(ch)
		defer ps.Close()
		for {
			msg, err := ps.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
					return
				}
				s.logger.Println("blackboard watch", err)
				time.Sleep(time.Second)
				continue
			}
			var upd Update
			if err := json.Unmarshal([]byte(msg.Payload), &upd); err != nil {
				s.logger.Println("blackboard watch drop", err)
				continue
			}
			select {
			case ch <- upd:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// Delete removes a key from the store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client(ctx).Del(ctx, key).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rdb.Close()
}

var _ Store = (*RedisStore)(nil)
