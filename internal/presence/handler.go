package presence

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"relay/infrastructure"
)

type TokenVerifier interface {
	VerifySessionToken(ctx context.Context, token string) (uuid.UUID, error)
}

type Handler struct {
	registry *Registry
	verifier TokenVerifier
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewHandler accepts websocket upgrades from the given origins; "*" allows any origin.
func NewHandler(registry *Registry, verifier TokenVerifier, origins []string, log logrus.FieldLogger) *Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Handler{
		registry: registry,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
		log: log,
	}
}

// RegisterRoutes mounts the websocket endpoint on r and the snapshot endpoint on api.
func (h *Handler) RegisterRoutes(r, api *mux.Router) {
	r.HandleFunc("/ws", h.ServeWS)
	api.HandleFunc("/presence", h.OnlineUsers).Methods(http.MethodGet)
}

// ServeWS registers the connection for its user until it disconnects. The registration is
// removed on every exit path.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.verifier.VerifySessionToken(r.Context(), infrastructure.SessionToken(r))
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := newClient(conn)
	id := h.registry.Open(userID, c)
	defer func() {
		h.registry.Close(id)
		c.Close()
	}()

	go c.writePump()
	c.readPump()
}

func (h *Handler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	infrastructure.WriteJSON(w, http.StatusOK, map[string][]uuid.UUID{
		"onlineUsers": h.registry.Snapshot(),
	})
}
