package main

import (
	"cargo-tracker/internal/core/logger"
	"cargo-tracker/internal/core/server"
	trackinghandler "cargo-tracker/internal/features/tracking/handler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose tracking over HTTP",
	Long:  "Starts an HTTP server with GET /tracking/:reference. The browser\nalways runs headless in serve mode.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	svc, closeSvc, err := buildTrackingService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeSvc()

	handler := trackinghandler.NewTrackingHandler(svc)

	srv := server.New(cfg)
	srv.App.Get("/tracking/:reference", handler.GetTracking)

	return srv.Run()
}
