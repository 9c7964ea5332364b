package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "session:"
	accountPrefix = "account_sessions:"
)

// RedisStore keeps sessions in Redis with per-key TTL expiry. Each account's
// token IDs are tracked in a set so ClearAccount can revoke them in bulk.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a connected Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, tokenID string, p Principal, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+tokenID, raw, ttl)
	pipe.SAdd(ctx, accountPrefix+p.AccountID, tokenID)
	// Sessions share one TTL, so refreshing the index on every save keeps it
	// alive at least as long as its newest member.
	pipe.Expire(ctx, accountPrefix+p.AccountID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, tokenID string) (Principal, error) {
	raw, err := s.client.Get(ctx, keyPrefix+tokenID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Principal{}, ErrNotFound
	}
	if err != nil {
		return Principal{}, fmt.Errorf("loading session: %w", err)
	}

	var p Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return Principal{}, fmt.Errorf("unmarshaling session: %w", err)
	}
	return p, nil
}

func (s *RedisStore) Clear(ctx context.Context, tokenID string) error {
	raw, err := s.client.Get(ctx, keyPrefix+tokenID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	var p Principal
	pipe := s.client.TxPipeline()
	if err := json.Unmarshal(raw, &p); err == nil {
		pipe.SRem(ctx, accountPrefix+p.AccountID, tokenID)
	}
	pipe.Del(ctx, keyPrefix+tokenID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearAccount(ctx context.Context, accountID, keepTokenID string) error {
	tokenIDs, err := s.client.SMembers(ctx, accountPrefix+accountID).Result()
	if err != nil {
		return fmt.Errorf("listing account sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, tokenID := range tokenIDs {
		if tokenID == keepTokenID {
			continue
		}
		pipe.Del(ctx, keyPrefix+tokenID)
		pipe.SRem(ctx, accountPrefix+accountID, tokenID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clearing account sessions: %w", err)
	}
	return nil
}
