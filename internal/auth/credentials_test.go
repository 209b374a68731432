package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"relay/infrastructure"
	"relay/internal/sessions"
	"relay/pkg/jwt"
)

func newTestCredentials() *Credentials {
	return NewCredentials(jwt.NewJWT([]byte("test-secret"), time.Hour), sessions.NewMemoryStorage(), bcrypt.MinCost, 40)
}

func TestCheckPassword(t *testing.T) {
	creds := newTestCredentials()

	assert.ErrorIs(t, creds.CheckPassword("abc"), infrastructure.ErrWeakPassword)
	assert.ErrorIs(t, creds.CheckPassword("aaaaaaa"), infrastructure.ErrWeakPassword)
	assert.NoError(t, creds.CheckPassword("Tangerine-Walrus-81"))
}

func TestHashAndVerifyPassword(t *testing.T) {
	creds := newTestCredentials()

	hash, err := creds.HashPassword("Tangerine-Walrus-81")
	require.NoError(t, err)
	assert.NotEqual(t, "Tangerine-Walrus-81", hash)
	assert.True(t, creds.VerifyPassword("Tangerine-Walrus-81", hash))
	assert.False(t, creds.VerifyPassword("tangerine-walrus-81", hash))
}

func TestSessionTokens(t *testing.T) {
	ctx := context.Background()
	creds := newTestCredentials()
	id := uuid.New()

	token, err := creds.IssueSessionToken(id)
	require.NoError(t, err)

	got, err := creds.VerifySessionToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = creds.VerifySessionToken(ctx, "")
	assert.ErrorIs(t, err, infrastructure.ErrUnauthenticated)

	other := NewCredentials(jwt.NewJWT([]byte("other-secret"), time.Hour), sessions.NewMemoryStorage(), bcrypt.MinCost, 40)
	_, err = other.VerifySessionToken(ctx, token)
	assert.ErrorIs(t, err, infrastructure.ErrUnauthenticated)
}

func TestRevokeSessionToken(t *testing.T) {
	ctx := context.Background()
	creds := newTestCredentials()

	token, err := creds.IssueSessionToken(uuid.New())
	require.NoError(t, err)
	other, err := creds.IssueSessionToken(uuid.New())
	require.NoError(t, err)

	require.NoError(t, creds.RevokeSessionToken(ctx, token))
	_, err = creds.VerifySessionToken(ctx, token)
	assert.ErrorIs(t, err, infrastructure.ErrUnauthenticated)

	_, err = creds.VerifySessionToken(ctx, other)
	assert.NoError(t, err, "revoking one session leaves the others alive")

	assert.NoError(t, creds.RevokeSessionToken(ctx, "not-a-token"))
}

func TestMiddleware(t *testing.T) {
	creds := newTestCredentials()
	log, _ := test.NewNullLogger()
	id := uuid.New()
	token, err := creds.IssueSessionToken(id)
	require.NoError(t, err)

	var seen uuid.UUID
	h := creds.Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = infrastructure.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: infrastructure.SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, id, seen)
	})

	t.Run("bearer", func(t *testing.T) {
		seen = uuid.Nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, id, seen)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
