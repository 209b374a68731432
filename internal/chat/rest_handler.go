package chat

import (
	"net/http"

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

// RegisterRoutes mounts the message endpoints on an authenticated router.
func (h *JSONHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/messages/{id}", h.Fetch).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}", h.Send).Methods(http.MethodPost)
}

func (h *JSONHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	actor, err := infrastructure.UserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	other, err := infrastructure.PathUUID(r, "id")
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}

	messages, err := h.service.Fetch(r.Context(), actor, other)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, messages)
}

func (h *JSONHandler) Send(w http.ResponseWriter, r *http.Request) {
	sender, err := infrastructure.UserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	receiver, err := infrastructure.PathUUID(r, "id")
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}

	var content Content
	if err := infrastructure.DecodeJSON(r, &content); err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}

	m, err := h.service.Send(r.Context(), sender, receiver, content)
	if err != nil {
		infrastructure.WriteError(w, h.log, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, m)
}
