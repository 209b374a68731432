package auth

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"relay/infrastructure"
	"relay/internal/user"
)

// CookieOptions controls the session cookie.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

type JSONHandler struct {
	service *Service
	creds   *Credentials
	cookie  CookieOptions
	log     logrus.FieldLogger
}

func NewJSONHandler(service *Service, creds *Credentials, cookie CookieOptions, log logrus.FieldLogger) *JSONHandler {
	return &JSONHandler{service: service, creds: creds, cookie: cookie, log: log}
}

type sessionResponse struct {
	*user.User
	Token string `json:"token"`
}

// RegisterRoutes mounts the public endpoints on public and the session-bound ones on private.
func (h *JSONHandler) RegisterRoutes(public, private *mux.Router) {
	public.HandleFunc("/auth/signup", h.Signup).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	public.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	public.HandleFunc("/auth/otp", h.SendOTP).Methods(http.MethodPost)
	public.HandleFunc("/auth/otp/verify", h.VerifyOTP).Methods(http.MethodPost)
	public.HandleFunc("/auth/password", h.ChangePassword).Methods(http.MethodPatch)

	private.HandleFunc("/auth/check", h.Check).Methods(http.MethodGet)
	private.HandleFunc("/auth/profile", h.UpdateProfile).Methods(http.MethodPut)
	private.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
}

func (h *JSONHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupInput
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	u, token, err := h.service.Signup(r.Context(), req)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	h.setSession(w, token)
	infrastructure.WriteJSON(w, http.StatusCreated, sessionResponse{User: u, Token: token})
}

func (h *JSONHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	u, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	h.setSession(w, token)
	infrastructure.WriteJSON(w, http.StatusOK, sessionResponse{User: u, Token: token})
}

// Logout revokes the presented session, if any, and clears the cookie.
func (h *JSONHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := infrastructure.SessionToken(r); token != "" {
		if err := h.creds.RevokeSessionToken(r.Context(), token); err != nil {
			infrastructure.WriteError(w, h.log, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     infrastructure.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *JSONHandler) Check(w http.ResponseWriter, r *http.Request) {
	id, err := infrastructure.UserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	u, err := h.service.User(r.Context(), id)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, u)
}

func (h *JSONHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := infrastructure.UserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	var req struct {
		ProfilePic string `json:"profilePic"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	u, err := h.service.UpdateProfilePic(r.Context(), id, req.ProfilePic)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, u)
}

func (h *JSONHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := infrastructure.PathUUID(r, "id")
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	u, err := h.service.User(r.Context(), id)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, u.Summary())
}

func (h *JSONHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	if err := h.service.SendResetCode(r.Context(), req.Email); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"message": "code sent"})
}

func (h *JSONHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	if err := h.service.VerifyResetCode(r.Context(), req.Email, req.Code); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"message": "code verified"})
}

func (h *JSONHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func (h *JSONHandler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     infrastructure.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
