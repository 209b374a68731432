package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"relay/internal/cache"
)

// Store remembers revoked session tokens by token id until the token would have expired.
type Store interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type MemoryStorage struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStorage) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.revoked[tokenID] = until
	return nil
}

func (s *MemoryStorage) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.revoked[tokenID]
	return ok && s.now().Before(until), nil
}

func (s *MemoryStorage) pruneLocked() {
	now := s.now()
	for id, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, id)
		}
	}
}

// RedisStorage lets every instance see a logout, with Redis expiring the entry.
type RedisStorage struct {
	cache *cache.RedisCache
}

func NewRedisStorage(c *cache.RedisCache) *RedisStorage {
	return &RedisStorage{cache: c}
}

func key(tokenID string) string {
	return "session:revoked:" + tokenID
}

func (s *RedisStorage) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return errors.Wrap(s.cache.Set(ctx, key(tokenID), "1", ttl), "sessions.Revoke")
}

func (s *RedisStorage) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.cache.Get(ctx, key(tokenID))
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "sessions.IsRevoked")
	}
	return true, nil
}
