package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"

	"cargo-dispatch-service/internal/adapters/cache"
	"cargo-dispatch-service/internal/adapters/events"
	"cargo-dispatch-service/internal/adapters/repositories"
	"cargo-dispatch-service/internal/adapters/roadnetwork"
	"cargo-dispatch-service/internal/api"
	"cargo-dispatch-service/internal/config"
	"cargo-dispatch-service/internal/graph"
	"cargo-dispatch-service/internal/metrics"
	"cargo-dispatch-service/internal/platform/db"
	"cargo-dispatch-service/internal/platform/obs"
	"cargo-dispatch-service/internal/ports"
	"cargo-dispatch-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres or memory, Redis, Neo4j) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	strategy, err := graph.ParseRouteStrategy(strings.ToLower(cfg.Planner.RouteStrategy))
	if err != nil {
		return err
	}

	repo, network, closeRepo, err := buildRepository(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	if cfg.Graph.URI != "" {
		runner, err := roadnetwork.NewNeo4jClient(ctx, roadnetwork.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := runner.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "err", err)
			}
		}()
		network = roadnetwork.NewNeo4jRoadNetwork(runner)
		logger.Info("road network from graph database", "uri", cfg.Graph.URI)
	}

	var (
		broker ports.EventBroker = events.NewMemoryBroker()
		stats  ports.StatsCache  = cache.NewMemoryStatsCache()
	)
	if cfg.Redis.URL != "" {
		rdb, err := openRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		broker = events.NewRedisBroker(rdb, events.DefaultChannel)
		stats = cache.NewRedisStatsCache(rdb)
		logger.Info("redis stats cache and event broker enabled")
	}

	metrics.RegisterDefault()

	svc := services.NewDispatchService(repo, network, broker, stats, services.Options{
		RouteStrategy:       strategy,
		AverageSpeedKmh:     cfg.Planner.AverageSpeedKmh,
		RecommendationLimit: cfg.Planner.RecommendationLimit,
		StatsTTL:            cfg.Planner.StatsTTL,
	})

	router := api.NewRouter(api.Dependencies{
		Logger:    logger,
		Repo:      repo,
		Planning:  svc,
		Routes:    svc,
		Events:    svc,
		RateLimit: cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "route_strategy", strategy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// Postgres when DATABASE_URL is set, otherwise an in-memory store seeded
// from SEED_PATH. Both double as the road network.
func buildRepository(ctx context.Context, logger *slog.Logger, cfg config.Config) (ports.PlanningRepository, ports.RoadNetwork, func(), error) {
	if cfg.Database.URL == "" {
		seed, err := repositories.LoadSeed(cfg.Database.SeedPath)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("using in-memory repository", "seed", cfg.Database.SeedPath,
			"shipments", len(seed.Shipments), "vehicles", len(seed.Vehicles))
		repo := repositories.NewMemoryRepository(seed)
		return repo, repo, func() {}, nil
	}

	conn, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := repositories.InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	logger.Info("using postgres repository")
	repo := repositories.NewPostgresRepository(conn)
	return repo, repo, func() { _ = conn.Close() }, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("open redis: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("open redis: ping: %w", err)
	}
	return rdb, nil
}
