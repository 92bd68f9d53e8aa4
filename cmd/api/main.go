package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/api"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/config"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/data"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/indicator"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/pipeline"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/pubsub"
	"github.com/mohamedkhairy/ohlcv-indicators/internal/storage"
	"github.com/mohamedkhairy/ohlcv-indicators/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment, "indicators-api"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting indicator API service",
		logger.Int("port", cfg.API.Port),
		logger.Int("health_port", cfg.API.HealthCheckPort),
		logger.Bool("db_enabled", cfg.Indicators.DBEnabled),
		logger.Bool("redis_enabled", cfg.Indicators.RedisEnabled),
	)

	// Initialize indicator engine
	engineConfig := indicator.DefaultEngineConfig()
	engineConfig.Parallel = cfg.Indicators.Parallel
	engine, err := indicator.NewDefaultEngine(engineConfig)
	if err != nil {
		logger.Fatal("Failed to initialize indicator engine", logger.ErrorField(err))
	}

	reader := data.NewCSVReader(data.CSVReaderConfig{
		DateLayouts: cfg.Indicators.DateLayouts,
		Strict:      cfg.Indicators.StrictInput,
	})

	checks := make(map[string]api.HealthCheck)
	routerConfig := api.RouterConfig{
		DefaultSymbol: cfg.Indicators.Symbol,
		DateLayout:    cfg.Indicators.OutputDateLayout,
		MaxBodyBytes:  cfg.API.MaxBodyBytes,
		HealthChecks:  checks,
	}
	var opts []pipeline.Option

	// Initialize indicator store (optional)
	if cfg.Indicators.DBEnabled {
		store, err := storage.NewIndicatorStore(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to initialize indicator store", logger.ErrorField(err))
		}
		defer store.Close()

		schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = store.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to prepare indicator schema", logger.ErrorField(err))
		}

		opts = append(opts, pipeline.WithStore(store))
		routerConfig.Store = store
		checks["database"] = func(ctx context.Context) error {
			_, err := store.GetRows(ctx, cfg.Indicators.Symbol, time.Now(), time.Now())
			return err
		}
	}

	// Initialize Redis snapshot publisher (optional)
	if cfg.Indicators.RedisEnabled {
		redisClient, err := pubsub.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis client", logger.ErrorField(err))
		}
		defer redisClient.Close()

		publisherConfig := pubsub.SnapshotPublisherConfigFromRedisConfig(cfg.Redis)
		publisherConfig.DateLayout = cfg.Indicators.OutputDateLayout
		publisher := pubsub.NewSnapshotPublisher(redisClient, publisherConfig)

		opts = append(opts, pipeline.WithPublisher(publisher))
		routerConfig.Publisher = publisher
		checks["redis"] = redisClient.Ping
	}

	routerConfig.Pipeline = pipeline.New(reader, engine, opts...)
	router := api.NewRouter(routerConfig)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      api.NewHandler(router),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Health and metrics on a separate port
	healthRouter := mux.NewRouter()
	api.RegisterHealthRoutes(healthRouter, api.NewHealthHandler(checks))
	healthServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.HealthCheckPort),
		Handler:      healthRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	var wg sync.WaitGroup
	for _, srv := range []*http.Server{server, healthServer} {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			logger.Info("Starting HTTP server", logger.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("HTTP server failed",
					logger.String("addr", srv.Addr),
					logger.ErrorField(err),
				)
			}
		}(srv)
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down indicator API service")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{server, healthServer} {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down HTTP server",
				logger.String("addr", srv.Addr),
				logger.ErrorField(err),
			)
		}
	}

	wg.Wait()
	logger.Info("Indicator API service stopped")
}
