package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"relay/config"
	"relay/infrastructure"
	"relay/internal/auth"
	"relay/internal/chat"
	"relay/internal/contacts"
	"relay/internal/media"
	"relay/internal/presence"
)

// Handlers are the JSON surfaces mounted under /api.
type Handlers struct {
	Auth     *auth.JSONHandler
	Contacts *contacts.JSONHandler
	Chat     *chat.JSONHandler
	Presence *presence.Handler
}

type Server struct {
	router  *mux.Router
	handler http.Handler
	limiter *RateLimiter
	health  *Health
}

func NewServer(
	cfg *config.Config,
	creds *auth.Credentials,
	handlers Handlers,
	files *media.DiskStore,
	health *Health,
	log logrus.FieldLogger,
) *Server {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)

	s := &Server{
		router:  router,
		limiter: NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustedProxies),
		health:  health,
	}
	s.setupRoutes(creds, handlers, files, log)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Grpc-Web", "X-User-Agent"},
	})

	s.handler = Logger(log)(Recoverer(log)(s.limiter.Middleware(c.Handler(router))))
	return s
}

func (s *Server) setupRoutes(creds *auth.Credentials, h Handlers, files *media.DiskStore, log logrus.FieldLogger) {
	s.router.MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return s.health.isGRPCWeb(r)
	}).Handler(s.health.web)
	s.router.Handle("/healthz", s.health).Methods(http.MethodGet)
	s.router.PathPrefix("/media/").Handler(http.StripPrefix("/media/", files.Handler()))

	public := s.router.PathPrefix("/api").Subrouter()
	private := s.router.PathPrefix("/api").Subrouter()
	private.Use(creds.Middleware(log))

	h.Auth.RegisterRoutes(public, private)
	h.Contacts.RegisterRoutes(private)
	h.Chat.RegisterRoutes(private)
	h.Presence.RegisterRoutes(s.router, private)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Limiter exposes the rate limiter so the caller can prune idle clients.
func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	infrastructure.WriteJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
}
