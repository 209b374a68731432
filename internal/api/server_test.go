package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"relay/config"
	"relay/internal/auth"
	"relay/internal/auth/verification"
	"relay/internal/chat"
	"relay/internal/contacts"
	"relay/internal/database"
	"relay/internal/email"
	"relay/internal/media"
	"relay/internal/presence"
	"relay/internal/sessions"
	"relay/internal/user/storage"
	"relay/pkg/jwt"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	ctx := context.Background()
	log, _ := test.NewNullLogger()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "messages.db"), log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, "", &chat.Message{}))
	t.Cleanup(func() { _ = db.Close() })

	users := storage.NewMemoryStorage()
	creds := auth.NewCredentials(jwt.NewJWT([]byte("secret"), time.Hour), sessions.NewMemoryStorage(), bcrypt.MinCost, 0)
	files := media.NewDiskStore(t.TempDir(), "http://localhost/media")
	mailer := email.NewLogSender(log)
	codes := verification.NewService(verification.NewMemoryStorage(), mailer, time.Minute)
	registry := presence.NewRegistry(log)

	contactsSvc := contacts.NewService(users, log)
	chatSvc := chat.NewService(chat.NewGormRepository(db.ORM), users, contactsSvc, files,
		chat.NewCoordinator(registry, log), log)
	authSvc := auth.NewService(users, creds, files, codes, mailer, log)

	handlers := Handlers{
		Auth:     auth.NewJSONHandler(authSvc, creds, auth.CookieOptions{TTL: time.Hour}, log),
		Contacts: contacts.NewJSONHandler(contactsSvc, log),
		Chat:     chat.NewJSONHandler(chatSvc, log),
		Presence: presence.NewHandler(registry, creds, cfg.AllowedOrigins, log),
	}
	return NewServer(cfg, creds, handlers, files, NewHealth(db, cfg.AllowedOrigins, log), log)
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"http://app.test"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
}

type session struct {
	id    string
	token string
}

func call(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func signup(t *testing.T, h http.Handler, name, mail string) session {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/auth/signup", "",
		`{"fullName":"`+name+`","email":"`+mail+`","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return session{id: body.ID, token: body.Token}
}

func TestContactAndMessageFlow(t *testing.T) {
	srv := newTestServer(t, testConfig())
	alice := signup(t, srv, "Alice", "alice@example.com")
	bob := signup(t, srv, "Bob", "bob@example.com")

	rec := call(t, srv, http.MethodPost, "/api/contacts/requests/"+bob.id, alice.token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, srv, http.MethodPost, "/api/contacts/requests/"+bob.id, alice.token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, srv, http.MethodGet, "/api/contacts/requests", bob.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), alice.id)

	rec = call(t, srv, http.MethodPost, "/api/contacts/requests/"+alice.id+"/accept", bob.token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, srv, http.MethodGet, "/api/contacts", alice.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), bob.id)

	rec = call(t, srv, http.MethodPost, "/api/messages/"+bob.id, alice.token, `{"text":"hi bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, srv, http.MethodGet, "/api/messages/"+alice.id, bob.token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []chat.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi bob", msgs[0].Text)

	rec = call(t, srv, http.MethodPost, "/api/blocks/"+alice.id, bob.token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, srv, http.MethodPost, "/api/messages/"+bob.id, alice.token, `{"text":"still there?"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPIRequiresSession(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := call(t, srv, http.MethodGet, "/api/contacts", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, srv, http.MethodGet, "/api/presence", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	srv := newTestServer(t, testConfig())
	alice := signup(t, srv, "Alice", "alice@example.com")

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/api/presence", alice.token, "").Code)
	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, "/api/auth/logout", alice.token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, http.MethodGet, "/api/presence", alice.token, "").Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := call(t, srv, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, testConfig())
	rec := call(t, srv, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/contacts", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 2
	srv := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, call(t, srv, http.MethodGet, "/healthz", "", "").Code)
}
