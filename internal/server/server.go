// Package server assembles the HTTP surface: public probes and metrics, and
// the authenticated payment API behind the middleware chain.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/josh-kwaku/swift-payment-portal/internal/handler"
	"github.com/josh-kwaku/swift-payment-portal/internal/middleware"
)

type Deps struct {
	JWTSecret   string
	Payments    *handler.PaymentHandler
	Health      *handler.HealthHandler
	Idempotency func(http.Handler) http.Handler
	Gatherer    prometheus.Gatherer
	OpenAPI     []byte
}

// NewRouter wires recovery, tracing, auth and logging around the API routes.
// Health, metrics and docs skip auth.
func NewRouter(d Deps) http.Handler {
	idem := d.Idempotency
	if idem == nil {
		idem = func(next http.Handler) http.Handler { return next }
	}

	api := http.NewServeMux()
	api.Handle("POST /api/v1/payments", idem(http.HandlerFunc(d.Payments.Create)))
	api.HandleFunc("GET /api/v1/payments/{id}", d.Payments.Get)
	api.HandleFunc("GET /api/v1/staff/payments", d.Payments.ListByStatus)
	api.HandleFunc("POST /api/v1/staff/payments/{id}/verify", d.Payments.Verify)
	api.HandleFunc("POST /api/v1/staff/payments/{id}/submit", d.Payments.Submit)
	api.HandleFunc("GET /api/v1/staff/payments/{id}/events", d.Payments.Events)

	mux := http.NewServeMux()
	if d.Health != nil {
		mux.HandleFunc("GET /health", d.Health.Liveness)
		mux.HandleFunc("GET /health/ready", d.Health.Readiness)
	}
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if len(d.OpenAPI) > 0 {
		mux.HandleFunc("GET /docs", handler.ServeDocs())
		mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(d.OpenAPI))
	}
	mux.Handle("/api/", middleware.Auth(d.JWTSecret)(middleware.Logging(api)))

	return middleware.Recovery(middleware.Tracing(mux))
}
