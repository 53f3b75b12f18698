package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cargo-tracker/internal/core/cache"
	"cargo-tracker/internal/core/config"
	"cargo-tracker/internal/core/logger"
	routeadapter "cargo-tracker/internal/features/routemap/adapters"
	routeservice "cargo-tracker/internal/features/routemap/service"
	trackingadapter "cargo-tracker/internal/features/tracking/adapters"
	"cargo-tracker/internal/features/tracking/ports"
	trackingservice "cargo-tracker/internal/features/tracking/service"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "tracker",
	Short:         "Track ocean cargo shipments from the command line",
	Long:          "Queries a shipping line's public tracking site with a real browser,\nextracts voyage and arrival details with a language model, and keeps a\nlocal history of results.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and initializes logging. Every subcommand starts
// here.
func setup() (*config.AppConfig, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, nil
}

// buildHistoryStore wires the configured history backend. The returned close
// function releases backend connections.
func buildHistoryStore(cfg *config.AppConfig) (ports.HistoryStore, func(), error) {
	switch cfg.History.Backend {
	case "file":
		return trackingadapter.NewFileHistoryStore(cfg.History.Path), func() {}, nil
	case "redis":
		redisCache, err := cache.NewRedisAdapter(cfg.History.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		ttl := time.Duration(cfg.History.TTLSeconds) * time.Second
		return trackingadapter.NewRedisHistoryStore(redisCache, ttl), func() { redisCache.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend: %s", cfg.History.Backend)
	}
}

// buildTrackingService wires the full pipeline from configuration.
func buildTrackingService(ctx context.Context, cfg *config.AppConfig) (*trackingservice.TrackingService, func(), error) {
	store, closeStore, err := buildHistoryStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	agent, err := trackingadapter.NewGeminiAgent(ctx, cfg.Gemini, cfg.Tracking.URL)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	sessions := trackingadapter.NewBrowserSessionFactory(cfg.Tracking, cfg.Proxy)
	mapper := routeservice.NewRouteMapService(
		routeadapter.NewNominatimGeocoder(cfg.RouteMap.NominatimURL),
		routeadapter.NewLeafletRenderer(cfg.RouteMap.ResultsDir),
	)

	return trackingservice.NewTrackingService(store, sessions, agent, mapper), closeStore, nil
}
