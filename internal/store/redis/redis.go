// Package redis is the primary session store backend. Records are stored
// as JSON values with a per-key TTL; Redis handles expiry natively.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vetassist/vetchat/internal/domain"
	"github.com/vetassist/vetchat/internal/store"
)

// Store implements store.SessionStore on a Redis client. The go-redis
// client is safe for concurrent use, so no additional locking is needed.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ store.SessionStore = (*Store)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int

	// SessionTTL is the sliding window Get uses when refreshing a key's
	// expiry.
	SessionTTL time.Duration
}

// New creates a store on a fresh Redis client. The connection is not
// probed here; callers use Ping to check reachability.
func New(opts Options) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		ttl: opts.SessionTTL,
	}
}

// NewWithClient wraps an existing client, mainly for tests.
func NewWithClient(client *redis.Client, sessionTTL time.Duration) *Store {
	return &Store{client: client, ttl: sessionTTL}
}

func (s *Store) Get(ctx context.Context, key store.Key) (*domain.SessionRecord, error) {
	// GETEX refreshes the TTL atomically with the read (sliding expiration).
	val, err := s.client.GetEx(ctx, key.String(), s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}
	return &rec, nil
}

func (s *Store) Put(ctx context.Context, key store.Key, rec *domain.SessionRecord, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	if err := s.client.Set(ctx, key.String(), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *Store) Incr(ctx context.Context, counterKey string, window time.Duration) (int64, time.Duration, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, counterKey)
	// NX: only set the window TTL on the first increment.
	pipe.ExpireNX(ctx, counterKey, window)
	ttl := pipe.TTL(ctx, counterKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redis incr: %w", err)
	}
	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}

// PurgeExpired is a no-op: Redis expires keys natively.
func (s *Store) PurgeExpired(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying client connections.
func (s *Store) Close() error {
	return s.client.Close()
}
