package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/pipeline"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/pubsub"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the collaborators of the API router. Store and
// Publisher are optional; their routes are only mounted when set.
type RouterConfig struct {
	Pipeline      *pipeline.Pipeline
	Store         storage.IndicatorStorage
	Publisher     *pubsub.SnapshotPublisher
	HealthChecks  map[string]HealthCheck
	DefaultSymbol string
	DateLayout    string
	MaxBodyBytes  int64
}

// NewRouter builds the API routes
func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(LoggingMiddleware()))

	v1 := router.PathPrefix("/api/v1").Subrouter()

	indicatorHandler := NewIndicatorHandler(cfg.Pipeline, cfg.DefaultSymbol, cfg.DateLayout)
	v1.Handle("/indicators", BodyLimitMiddleware(cfg.MaxBodyBytes)(http.HandlerFunc(indicatorHandler.Compute))).Methods("POST")
	v1.HandleFunc("/indicators/columns", indicatorHandler.Columns).Methods("GET")

	if cfg.Publisher != nil {
		snapshotHandler := NewSnapshotHandler(cfg.Publisher)
		v1.HandleFunc("/indicators/{symbol}/latest", snapshotHandler.Latest).Methods("GET")
		v1.HandleFunc("/runs", snapshotHandler.Runs).Methods("GET")
	}
	if cfg.Store != nil {
		historyHandler := NewHistoryHandler(cfg.Store, cfg.DateLayout)
		v1.HandleFunc("/indicators/{symbol}/history", historyHandler.History).Methods("GET")
	}

	RegisterHealthRoutes(router, NewHealthHandler(cfg.HealthChecks))
	return router
}

// RegisterHealthRoutes mounts the probes and the metrics endpoint on router
func RegisterHealthRoutes(router *mux.Router, health *HealthHandler) {
	router.HandleFunc("/health", health.Health).Methods("GET")
	router.HandleFunc("/ready", health.Ready).Methods("GET")
	router.HandleFunc("/live", health.Live).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())
}

// NewHandler wraps router with the outer middleware chain
func NewHandler(router *mux.Router) http.Handler {
	middlewares := ChainMiddleware(
		RequestIDMiddleware(),
		CORSMiddleware(),
		ErrorHandlingMiddleware(),
	)
	return middlewares(router)
}
