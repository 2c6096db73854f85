package api

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"cargo-dispatch-service/internal/api/handlers"
	"cargo-dispatch-service/internal/config"
	"cargo-dispatch-service/internal/metrics"
	"cargo-dispatch-service/internal/ports"
)

// Dependencies collects what the handlers need. Events may be nil, in which
// case /planning/events is not served.
type Dependencies struct {
	Logger    *slog.Logger
	Repo      ports.PlanningRepository
	Planning  handlers.PlanningService
	Routes    handlers.RouteService
	Events    handlers.EventSource
	RateLimit config.RateLimitConfig
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	inventory := &handlers.InventoryHandler{Repo: deps.Repo}
	planHandler := &handlers.PlanHandler{Service: deps.Planning}
	routeHandler := &handlers.RouteHandler{Service: deps.Routes}

	// Planning and routing endpoints share one limiter; reads of static
	// state and the event stream are not limited.
	var limiter *rate.Limiter
	if deps.RateLimit.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(deps.RateLimit.RPS), max(deps.RateLimit.Burst, 1))
	}
	limited := func(h http.HandlerFunc) http.Handler { return rateLimitMiddleware(limiter, h) }

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/shipments", inventory.PendingShipments)
	mux.HandleFunc("/vehicles", inventory.AvailableVehicles)

	mux.Handle("/planning/plan-next", limited(planHandler.PlanNext))
	mux.Handle("/planning/analysis", limited(planHandler.Analysis))
	mux.Handle("/planning/health", limited(planHandler.Health))
	mux.Handle("/planning/cancel", limited(planHandler.Cancel))
	mux.Handle("/planning/complete/", limited(planHandler.Complete))

	mux.Handle("/routes/shortest", limited(routeHandler.Shortest))
	mux.Handle("/routes/optimal", limited(routeHandler.Optimal))
	mux.Handle("/routes/network", limited(routeHandler.Network))

	if deps.Events != nil {
		eventsHandler := &handlers.EventsHandler{Source: deps.Events}
		mux.HandleFunc("/planning/events", eventsHandler.Stream)
	}

	return requestIDMiddleware(loggingMiddleware(logger, mux))
}
