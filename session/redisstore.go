package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport-level failure of the Redis
// credential backend so callers can distinguish "backend down" from
// "credential absent".
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisStore is a Redis-backed CredentialStore for headless deployments —
// CI runners and scheduled audit agents that share one issued credential
// across short-lived processes. The stored blob carries a TTL equal to the
// credential's remaining validity, so Redis expires it in step with the
// server-side validity window.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a credential store backed by the given Redis client.
// prefix namespaces the key; it defaults to "akc" when empty.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "akc"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key() string {
	return s.prefix + ":credential"
}

// Load implements CredentialStore. A missing key or an expired credential is
// reported as absent.
func (s *RedisStore) Load(ctx context.Context) (*Credential, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		// A corrupt blob is unusable; drop it so the next bootstrap starts clean.
		_ = s.Clear(ctx)
		return nil, nil
	}
	if !cred.Valid(time.Now()) {
		_ = s.Clear(ctx)
		return nil, nil
	}
	return &cred, nil
}

// Save implements CredentialStore. Saving an already expired credential
// clears the key instead.
func (s *RedisStore) Save(ctx context.Context, cred Credential) error {
	ttl := cred.Remaining(time.Now())
	if ttl <= 0 {
		return s.Clear(ctx)
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Clear implements CredentialStore.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
