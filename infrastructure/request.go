package infrastructure

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// PathUUID parses the named route variable as a user or message id.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, errors.Wrapf(ErrInvalidInput, "%s: %v", name, err)
	}
	return id, nil
}

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "jwt"

// SessionToken extracts the session token from the cookie, a bearer Authorization header
// or the token query parameter, in that order.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
