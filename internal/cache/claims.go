// Package cache holds short-lived doctor verification claims.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ClaimStore remembers that a browser session proved the phone number of a
// share's doctor. Claims expire after the store's TTL.
type ClaimStore interface {
	Grant(ctx context.Context, sessionID string, shareID int64) error
	Verified(ctx context.Context, sessionID string, shareID int64) (bool, error)
}

func claimKey(sessionID string, shareID int64) string {
	return fmt.Sprintf("medshare:verified:%s:%d", sessionID, shareID)
}

type RedisClaimStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisClaimStore parses a redis:// URL.
func NewRedisClaimStore(url string, ttl time.Duration) (*RedisClaimStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	return &RedisClaimStore{Client: redis.NewClient(opts), TTL: ttl}, nil
}

func (s *RedisClaimStore) Ping(ctx context.Context) error {
	return errors.Wrap(s.Client.Ping(ctx).Err(), "ping redis")
}

func (s *RedisClaimStore) Grant(ctx context.Context, sessionID string, shareID int64) error {
	err := s.Client.Set(ctx, claimKey(sessionID, shareID), "1", s.TTL).Err()
	return errors.Wrap(err, "store verification claim")
}

func (s *RedisClaimStore) Verified(ctx context.Context, sessionID string, shareID int64) (bool, error) {
	n, err := s.Client.Exists(ctx, claimKey(sessionID, shareID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "check verification claim")
	}
	return n == 1, nil
}

func (s *RedisClaimStore) Close() error {
	return s.Client.Close()
}

// MemoryClaimStore is used when no Redis URL is configured.
type MemoryClaimStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
	TTL    time.Duration
	Now    func() time.Time
}

func NewMemoryClaimStore(ttl time.Duration) *MemoryClaimStore {
	return &MemoryClaimStore{claims: map[string]time.Time{}, TTL: ttl, Now: time.Now}
}

func (s *MemoryClaimStore) Grant(_ context.Context, sessionID string, shareID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	// drop expired claims on write so the map stays bounded by live sessions
	for k, exp := range s.claims {
		if !now.Before(exp) {
			delete(s.claims, k)
		}
	}
	s.claims[claimKey(sessionID, shareID)] = now.Add(s.TTL)
	return nil
}

func (s *MemoryClaimStore) Verified(_ context.Context, sessionID string, shareID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.claims[claimKey(sessionID, shareID)]
	return ok && s.Now().Before(exp), nil
}

var (
	_ ClaimStore = (*RedisClaimStore)(nil)
	_ ClaimStore = (*MemoryClaimStore)(nil)
)
