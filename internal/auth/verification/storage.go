package verification

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"relay/internal/cache"
)

// ErrNoCode is returned by Store.Load when no code was issued for the email.
var ErrNoCode = errors.New("verification: no code issued")

// retention keeps expired codes around long enough to tell "expired" from "never sent".
const retention = time.Hour

type Store interface {
	Save(ctx context.Context, email string, code ResetCode) error
	Load(ctx context.Context, email string) (ResetCode, error)
	Delete(ctx context.Context, email string) error
}

type MemoryStorage struct {
	mu    sync.Mutex
	codes map[string]ResetCode
	now   func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{codes: make(map[string]ResetCode), now: time.Now}
}

func (s *MemoryStorage) Save(_ context.Context, email string, code ResetCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, c := range s.codes {
		if now.After(c.ExpiresAt.Add(retention)) {
			delete(s.codes, k)
		}
	}
	s.codes[email] = code
	return nil
}

func (s *MemoryStorage) Load(_ context.Context, email string) (ResetCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[email]
	if !ok || s.now().After(c.ExpiresAt.Add(retention)) {
		return ResetCode{}, ErrNoCode
	}
	return c, nil
}

func (s *MemoryStorage) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

// RedisStorage keeps codes in Redis as "code:expiresUnixNano:attempts" under otp:<email>.
type RedisStorage struct {
	cache *cache.RedisCache
}

func NewRedisStorage(c *cache.RedisCache) *RedisStorage {
	return &RedisStorage{cache: c}
}

func key(email string) string {
	return "otp:" + email
}

func (s *RedisStorage) Save(ctx context.Context, email string, code ResetCode) error {
	value := code.Code + ":" + strconv.FormatInt(code.ExpiresAt.UnixNano(), 10) + ":" + strconv.Itoa(code.Attempts)
	ttl := time.Until(code.ExpiresAt) + retention
	return errors.Wrap(s.cache.Set(ctx, key(email), value, ttl), "otpStore.Save")
}

func (s *RedisStorage) Load(ctx context.Context, email string) (ResetCode, error) {
	value, err := s.cache.Get(ctx, key(email))
	if errors.Is(err, cache.ErrMiss) {
		return ResetCode{}, ErrNoCode
	}
	if err != nil {
		return ResetCode{}, errors.Wrap(err, "otpStore.Load")
	}
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return ResetCode{}, errors.Errorf("otpStore.Load: malformed entry for %s", email)
	}
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ResetCode{}, errors.Wrap(err, "otpStore.Load: parse expiry")
	}
	attempts, err := strconv.Atoi(parts[2])
	if err != nil {
		return ResetCode{}, errors.Wrap(err, "otpStore.Load: parse attempts")
	}
	return ResetCode{Code: parts[0], ExpiresAt: time.Unix(0, nanos), Attempts: attempts}, nil
}

func (s *RedisStorage) Delete(ctx context.Context, email string) error {
	return errors.Wrap(s.cache.Delete(ctx, key(email)), "otpStore.Delete")
}
