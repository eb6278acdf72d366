package main

import (
	"net/http"
	"strings"

	"github.com/rs/cors"

	"github.com/granadev/grana/internal/api/middleware"
	"github.com/granadev/grana/pkg/metrics"
)

// buildHandler assembles the mux and the middleware chain.
func buildHandler(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	deps.TransactionsHandler.Register(mux)
	deps.BudgetsHandler.Register(mux)
	deps.CategorizationHandler.Register(mux)
	deps.OverridesHandler.Register(mux)
	deps.AdminHandler.Register(mux)

	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.Metrics(handler)
	handler = middleware.RateLimit(
		float64(deps.Config.Server.RateLimitPerSecond),
		deps.Config.Server.RateLimitBurst,
	)(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: strings.Split(deps.Config.Server.CORSOrigins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(handler)
	handler = middleware.Logger(deps.Logger)(handler)
	handler = middleware.Recovery(deps.Logger)(handler)

	return handler
}
