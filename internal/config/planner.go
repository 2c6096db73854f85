package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PlannerConfig tunes the planning service.
type PlannerConfig struct {
	// nearest_neighbor or matrix_two_opt
	RouteStrategy       string
	AverageSpeedKmh     float64
	RecommendationLimit int
	StatsTTL            time.Duration
}

func DefaultPlanner() PlannerConfig {
	return PlannerConfig{
		RouteStrategy:       "nearest_neighbor",
		AverageSpeedKmh:     60,
		RecommendationLimit: 5,
		StatsTTL:            5 * time.Minute,
	}
}

func (p PlannerConfig) Validate() error {
	switch strings.ToLower(p.RouteStrategy) {
	case "nearest_neighbor", "matrix_two_opt":
	default:
		return fmt.Errorf("planner config: unknown route_strategy %q", p.RouteStrategy)
	}
	if p.AverageSpeedKmh <= 0 {
		return errors.New("planner config: average_speed_kmh must be > 0")
	}
	if p.RecommendationLimit <= 0 {
		return errors.New("planner config: recommendation_limit must be > 0")
	}
	if p.StatsTTL <= 0 {
		return errors.New("planner config: stats_ttl must be > 0")
	}
	return nil
}

type plannerFile struct {
	Planner struct {
		RouteStrategy       string  `yaml:"route_strategy"`
		AverageSpeedKmh     float64 `yaml:"average_speed_kmh"`
		RecommendationLimit int     `yaml:"recommendation_limit"`
		StatsTTL            string  `yaml:"stats_ttl"`
	} `yaml:"planner"`
}

// LoadPlannerFile reads planner settings from a YAML file. Keys that are
// absent keep their defaults.
func LoadPlannerFile(path string) (PlannerConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return PlannerConfig{}, fmt.Errorf("planner config: read %q: %w", path, err)
	}
	return ParsePlanner(b)
}

func ParsePlanner(b []byte) (PlannerConfig, error) {
	var f plannerFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return PlannerConfig{}, fmt.Errorf("planner config: parse yaml: %w", err)
	}

	cfg := DefaultPlanner()
	if f.Planner.RouteStrategy != "" {
		cfg.RouteStrategy = f.Planner.RouteStrategy
	}
	if f.Planner.AverageSpeedKmh != 0 {
		cfg.AverageSpeedKmh = f.Planner.AverageSpeedKmh
	}
	if f.Planner.RecommendationLimit != 0 {
		cfg.RecommendationLimit = f.Planner.RecommendationLimit
	}
	if f.Planner.StatsTTL != "" {
		d, err := time.ParseDuration(f.Planner.StatsTTL)
		if err != nil {
			return PlannerConfig{}, fmt.Errorf("planner config: stats_ttl: %w", err)
		}
		cfg.StatsTTL = d
	}

	if err := cfg.Validate(); err != nil {
		return PlannerConfig{}, err
	}
	return cfg, nil
}
