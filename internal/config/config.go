package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Graph     GraphConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Planner   PlannerConfig
}

type HTTPConfig struct {
	Port              int
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// DatabaseConfig selects Postgres when URL is set; otherwise the service
// runs on an in-memory store seeded from SeedPath.
type DatabaseConfig struct {
	URL      string
	SeedPath string
}

type RedisConfig struct {
	URL string
}

// GraphConfig describes connectivity to the Neo4j road network.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// RateLimitConfig bounds requests to the planning endpoints. RPS <= 0
// disables the limiter.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

const (
	defaultPort             = 8080
	defaultSeedPath         = "data/seeds/dispatch.json"
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultRateLimitRPS     = 5
	defaultRateLimitBurst   = 10
)

// Load reads configuration from environment variables, applying defaults.
// When PLANNER_CONFIG names a YAML file, planner settings are read from it
// first and individual env vars override them.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			SeedPath: Get("SEED_PATH", defaultSeedPath),
		},
		Redis: RedisConfig{URL: os.Getenv("REDIS_URL")},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       os.Getenv("GRAPH_DATABASE"),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Logging: LoggingConfig{
			Level:         Get("LOG_LEVEL", defaultLoggingLevel),
			Format:        Get("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		RateLimit: RateLimitConfig{
			RPS:   parseFloatWithDefault("RATE_LIMIT_RPS", defaultRateLimitRPS),
			Burst: parseIntWithDefault("RATE_LIMIT_BURST", defaultRateLimitBurst),
		},
		Planner: DefaultPlanner(),
	}

	port, err := parsePort("PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	if path := strings.TrimSpace(os.Getenv("PLANNER_CONFIG")); path != "" {
		p, err := LoadPlannerFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Planner = p
	}

	if v := os.Getenv("ROUTE_STRATEGY"); v != "" {
		cfg.Planner.RouteStrategy = v
	}
	cfg.Planner.AverageSpeedKmh = parseFloatWithDefault("AVERAGE_SPEED_KMH", cfg.Planner.AverageSpeedKmh)
	cfg.Planner.RecommendationLimit = parseIntWithDefault("RECOMMENDATION_LIMIT", cfg.Planner.RecommendationLimit)

	if v := os.Getenv("STATS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STATS_TTL: %w", err)
		}
		cfg.Planner.StatsTTL = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
		}
		cfg.HTTP.WriteTimeout = d
	}

	if err := cfg.Planner.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Get returns the env var for key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
