package contacts

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"relay/infrastructure"
)

type JSONHandler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewJSONHandler(service *Service, log logrus.FieldLogger) *JSONHandler {
	return &JSONHandler{service: service, log: log}
}

// RegisterRoutes mounts the relationship endpoints on an authenticated router.
func (h *JSONHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/users/{id}/profile", h.Profile).Methods(http.MethodGet)
	r.HandleFunc("/contacts", h.ListContacts).Methods(http.MethodGet)
	r.HandleFunc("/contacts/requests", h.ListIncoming).Methods(http.MethodGet)
	r.HandleFunc("/contacts/requests/outgoing", h.ListOutgoing).Methods(http.MethodGet)
	r.HandleFunc("/contacts/requests/{id}", h.SendRequest).Methods(http.MethodPost)
	r.HandleFunc("/contacts/requests/{id}/accept", h.AcceptRequest).Methods(http.MethodPost)
	r.HandleFunc("/blocks/{id}", h.IsBlocked).Methods(http.MethodGet)
	r.HandleFunc("/blocks/{id}", h.Block).Methods(http.MethodPost)
	r.HandleFunc("/blocks/{id}", h.Unblock).Methods(http.MethodDelete)
}

func (h *JSONHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, target, err := actorAndTarget(r)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	profile, err := h.service.Profile(r.Context(), actor, target)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, profile)
}

func (h *JSONHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	actor, err := infrastructure.UserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	list, err := h.service.ListContacts(r.Context(), actor)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, list)
}

func (h *JSONHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	actor, err := infrastructure.UserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	list, err := h.service.ListIncomingRequests(r.Context(), actor)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, list)
}

func (h *JSONHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	actor, err := infrastructure.UserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	list, err := h.service.ListOutgoingRequests(r.Context(), actor)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, list)
}

func (h *JSONHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	actor, target, err := actorAndTarget(r)
	if err == nil {
		err = h.service.SendRequest(r.Context(), actor, target)
	}
	h.respondDone(w, err, "contact request sent")
}

func (h *JSONHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	actor, requester, err := actorAndTarget(r)
	if err == nil {
		err = h.service.AcceptRequest(r.Context(), actor, requester)
	}
	h.respondDone(w, err, "contact request accepted")
}

func (h *JSONHandler) Block(w http.ResponseWriter, r *http.Request) {
	actor, target, err := actorAndTarget(r)
	if err == nil {
		err = h.service.Block(r.Context(), actor, target)
	}
	h.respondDone(w, err, "user blocked")
}

func (h *JSONHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	actor, target, err := actorAndTarget(r)
	if err == nil {
		err = h.service.Unblock(r.Context(), actor, target)
	}
	h.respondDone(w, err, "user unblocked")
}

func (h *JSONHandler) IsBlocked(w http.ResponseWriter, r *http.Request) {
	actor, target, err := actorAndTarget(r)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	blocked, err := h.service.IsBlocked(r.Context(), actor, target)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]bool{"isBlocked": blocked})
}

func (h *JSONHandler) respondDone(w http.ResponseWriter, err error, msg string) {
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func actorAndTarget(r *http.Request) (actor, target uuid.UUID, err error) {
	actor, err = infrastructure.UserIDFromContext(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	target, err = infrastructure.PathUUID(r, "id")
	return actor, target, err
}
