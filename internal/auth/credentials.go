package auth

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"

	"relay/infrastructure"
	"relay/internal/sessions"
	"relay/pkg/jwt"
)

const PasswordMinLength = 6

// Credentials hashes passwords and issues and verifies session tokens.
type Credentials struct {
	tokens     *jwt.JWT
	revoked    sessions.Store
	cost       int
	minEntropy float64
}

func NewCredentials(tokens *jwt.JWT, revoked sessions.Store, cost int, minEntropy float64) *Credentials {
	return &Credentials{tokens: tokens, revoked: revoked, cost: cost, minEntropy: minEntropy}
}

// CheckPassword enforces the minimum length and entropy for new passwords.
func (c *Credentials) CheckPassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return errors.Wrapf(infrastructure.ErrWeakPassword, "must be at least %d characters", PasswordMinLength)
	}
	if err := passwordvalidator.Validate(password, c.minEntropy); err != nil {
		return errors.Wrap(infrastructure.ErrWeakPassword, err.Error())
	}
	return nil
}

func (c *Credentials) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), c.cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

func (c *Credentials) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (c *Credentials) IssueSessionToken(userID uuid.UUID) (string, error) {
	token, err := c.tokens.GenerateToken(userID)
	return token, errors.Wrap(err, "issue session token")
}

// VerifySessionToken returns the user a live, unrevoked token was issued to.
func (c *Credentials) VerifySessionToken(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, errors.Wrap(infrastructure.ErrUnauthenticated, "no session token")
	}
	claims, err := c.tokens.Parse(token)
	if err != nil {
		return uuid.Nil, errors.Wrap(infrastructure.ErrUnauthenticated, err.Error())
	}
	revoked, err := c.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if revoked {
		return uuid.Nil, errors.Wrap(infrastructure.ErrUnauthenticated, "session ended")
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, errors.Wrap(infrastructure.ErrUnauthenticated, jwt.ErrInvalidToken.Error())
	}
	return id, nil
}

// RevokeSessionToken ends a session before its expiry. Tokens that no longer verify are
// ignored since they cannot be used anyway.
func (c *Credentials) RevokeSessionToken(ctx context.Context, token string) error {
	claims, err := c.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return c.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Middleware rejects requests without a valid session token and stores the caller's id in
// the request context.
func (c *Credentials) Middleware(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := c.VerifySessionToken(r.Context(), infrastructure.SessionToken(r))
			if err != nil {
				infrastructure.WriteError(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(infrastructure.WithUserID(r.Context(), id)))
		})
	}
}
