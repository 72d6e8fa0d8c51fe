// Package httptransport assembles the HTTP surface: middleware chain, health
// and metrics endpoints, and the per-module handler registrations. Business
// logic stays in the module services.
package httptransport

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	documenthandler "hati/internal/document/handler"
	notaryhandler "hati/internal/notary/handler"
	"hati/internal/platform/metrics"
	"hati/internal/platform/middleware"
	"hati/internal/platform/redis"
	wallethandler "hati/internal/wallet/handler"
	"hati/pkg/platform/httputil"
)

// Deps carries everything the router mounts. Nil DB/Redis mean the in-memory
// backends are in use and are skipped by the health probe.
type Deps struct {
	Documents *documenthandler.Handler
	Notary    *notaryhandler.Handler
	Wallet    *wallethandler.Handler

	JWTValidator middleware.JWTValidator
	Metrics      *metrics.Metrics
	Logger       *slog.Logger

	DB    *sql.DB
	Redis *redis.Client
}

// NewRouter builds the full route tree.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", handleHealth(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.JWTValidator, deps.Logger))

		// Record-service and wallet routes get a request timeout. Notary
		// routes don't: notarization waits on chain confirmation and the
		// ledger client enforces its own deadline.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			deps.Documents.Register(r)
			deps.Wallet.Register(r)
		})
		deps.Notary.Register(r)
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth reports liveness plus the state of the configured backends.
func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK

		if deps.DB != nil {
			if err := deps.DB.PingContext(ctx); err != nil {
				resp.Checks["postgres"] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				resp.Checks["postgres"] = "ok"
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Health(ctx); err != nil {
				resp.Checks["redis"] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			} else {
				resp.Checks["redis"] = "ok"
			}
		}

		httputil.WriteJSON(w, status, resp)
	}
}
