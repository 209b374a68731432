package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/infrastructure"
)

func newTestRouter(t *testing.T) (*mux.Router, *fixture) {
	f := newFixture(t)
	log, _ := test.NewNullLogger()
	h := NewJSONHandler(f.svc, f.svc.creds, CookieOptions{TTL: time.Hour}, log)

	r := mux.NewRouter()
	public := r.PathPrefix("/api").Subrouter()
	private := r.PathPrefix("/api").Subrouter()
	private.Use(f.svc.creds.Middleware(log))
	h.RegisterRoutes(public, private)
	return r, f
}

func do(r http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == infrastructure.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestSignupSetsSession(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, http.MethodPost, "/api/auth/signup",
		`{"fullName":"Ada","email":"ada@example.com","password":"`+goodPassword+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ada@example.com", body["email"])
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, body, "passwordHash")

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	rec = do(r, http.MethodGet, "/api/auth/check", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fullName":"Ada"`)

	rec = do(r, http.MethodPost, "/api/auth/signup",
		`{"fullName":"Ada","email":"ada@example.com","password":"`+goodPassword+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginAndLogout(t *testing.T) {
	r, f := newTestRouter(t)
	id := f.signup(t, "Ada", "ada@example.com")

	rec := do(r, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"nope-nope-1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"`+goodPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = do(r, http.MethodGet, "/api/users/"+id, "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = do(r, http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)
}

func TestPrivateRoutesRequireSession(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/auth/check", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPut, "/api/auth/profile", `{}`).Code)
}

func TestMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := do(r, http.MethodPost, "/api/auth/login", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
