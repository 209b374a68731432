package verification

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/moby/locker"
	"github.com/pkg/errors"

	"relay/infrastructure"
)

const (
	codeLength = 6
	// maxAttempts wrong guesses burn the code.
	maxAttempts = 5
)

//go:generate mockgen -destination=mocks/mailer.go -package=mocks relay/internal/auth/verification Mailer

type Mailer interface {
	SendOneTimeCode(to, code string, ttl time.Duration) error
}

// Service issues and redeems time-limited password reset codes, one live code per email.
type Service struct {
	store  Store
	mailer Mailer
	ttl    time.Duration
	locks  *locker.Locker
	now    func() time.Time
}

func NewService(store Store, mailer Mailer, ttl time.Duration) *Service {
	return &Service{
		store:  store,
		mailer: mailer,
		ttl:    ttl,
		locks:  locker.New(),
		now:    time.Now,
	}
}

// IssueCode replaces any previous code for email and mails the new one.
func (s *Service) IssueCode(ctx context.Context, email string) (string, error) {
	email = normalize(email)
	code, err := infrastructure.GenerateNumericCode(codeLength)
	if err != nil {
		return "", err
	}

	s.locks.Lock(email)
	defer func() { _ = s.locks.Unlock(email) }()

	if err := s.store.Save(ctx, email, ResetCode{Code: code, ExpiresAt: s.now().Add(s.ttl)}); err != nil {
		return "", err
	}
	if err := s.mailer.SendOneTimeCode(email, code, s.ttl); err != nil {
		_ = s.store.Delete(ctx, email)
		return "", errors.Wrap(err, "mail one-time code")
	}
	return code, nil
}

// Check compares code against the live code for email without consuming it.
func (s *Service) Check(ctx context.Context, email, code string) (Result, error) {
	email = normalize(email)
	s.locks.Lock(email)
	defer func() { _ = s.locks.Unlock(email) }()
	return s.check(ctx, email, code)
}

// RedeemCode checks code and, when valid, consumes it so it cannot be used again.
func (s *Service) RedeemCode(ctx context.Context, email, code string) (Result, error) {
	email = normalize(email)
	s.locks.Lock(email)
	defer func() { _ = s.locks.Unlock(email) }()

	res, err := s.check(ctx, email, code)
	if err != nil || res != CodeValid {
		return res, err
	}
	if err := s.store.Delete(ctx, email); err != nil {
		return CodeMissing, err
	}
	return CodeValid, nil
}

func (s *Service) check(ctx context.Context, email, code string) (Result, error) {
	stored, err := s.store.Load(ctx, email)
	if errors.Is(err, ErrNoCode) {
		return CodeMissing, nil
	}
	if err != nil {
		return CodeMissing, err
	}
	if s.now().After(stored.ExpiresAt) {
		return CodeExpired, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(strings.TrimSpace(code))) != 1 {
		return CodeMismatch, s.recordMiss(ctx, email, stored)
	}
	return CodeValid, nil
}

func (s *Service) recordMiss(ctx context.Context, email string, stored ResetCode) error {
	stored.Attempts++
	if stored.Attempts >= maxAttempts {
		return s.store.Delete(ctx, email)
	}
	return s.store.Save(ctx, email, stored)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
