package api

import (
	"context"
	"net/http"
	"time"

	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"relay/infrastructure"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves the grpc health protocol, natively and over grpc-web, and tracks database
// reachability as the overall serving status.
type Health struct {
	status *health.Server
	grpc   *grpc.Server
	web    *grpcweb.WrappedGrpcServer
	db     Pinger
	log    logrus.FieldLogger
}

func NewHealth(db Pinger, origins []string, log logrus.FieldLogger) *Health {
	srv := grpc.NewServer()
	status := health.NewServer()
	healthpb.RegisterHealthServer(srv, status)
	reflection.Register(srv)

	return &Health{
		status: status,
		grpc:   srv,
		web:    grpcweb.WrapServer(srv, grpcweb.WithOriginFunc(originAllowed(origins))),
		db:     db,
		log:    log.WithField("component", "health"),
	}
}

func (h *Health) GRPC() *grpc.Server {
	return h.grpc
}

// Check pings the database and publishes the result.
func (h *Health) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	err := h.db.Ping(ctx)
	if err != nil {
		h.status.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}
	h.status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Watch runs Check every interval until ctx is done.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := h.Check(ctx); err != nil {
			h.log.WithError(err).Warn("database unreachable")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown marks every service as not serving and stops the grpc server.
func (h *Health) Shutdown() {
	h.status.Shutdown()
	h.grpc.GracefulStop()
}

func (h *Health) isGRPCWeb(r *http.Request) bool {
	return h.web.IsGrpcWebRequest(r) || h.web.IsAcceptableGrpcCorsRequest(r)
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Check(r.Context()); err != nil {
		h.log.WithError(err).Warn("health check failed")
		infrastructure.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func originAllowed(origins []string) func(string) bool {
	return func(origin string) bool {
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
