package main

import (
	"fmt"

	"cargo-tracker/internal/core/logger"
	routedomain "cargo-tracker/internal/features/routemap/domain"
	trackingservice "cargo-tracker/internal/features/tracking/service"

	"github.com/spf13/cobra"
)

var (
	trackHeadless bool
	trackMap      bool
	trackForce    bool
)

var trackCmd = &cobra.Command{
	Use:   "track <reference_id>",
	Short: "Track one shipment by booking, container or B/L number",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrack,
}

func init() {
	trackCmd.Flags().BoolVar(&trackHeadless, "headless", false, "run the browser without a visible UI")
	trackCmd.Flags().BoolVar(&trackMap, "map", false, "render an HTML route map when ports are known")
	trackCmd.Flags().BoolVar(&trackForce, "force", false, "ignore the stored record and re-extract")
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()

	svc, closeSvc, err := buildTrackingService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSvc()

	result, err := svc.Track(ctx, args[0], trackingservice.TrackOptions{
		Headless:  trackHeadless,
		Force:     trackForce,
		RenderMap: trackMap,
	})
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

// printResult mirrors the record to the console in a readable form.
func printResult(result *trackingservice.TrackResult) {
	rec := result.Record

	fmt.Println("\nTracking Results")
	fmt.Println("------------------------------")
	fmt.Printf("Reference ID: %s\n", rec.ReferenceID)
	fmt.Printf("Voyage:       %s\n", rec.VoyageNumber)
	fmt.Printf("Arrival:      %s\n", rec.ArrivalDate)
	if rec.VesselName != "" {
		fmt.Printf("Vessel:       %s\n", rec.VesselName)
	}
	if rec.HasRoute() {
		fmt.Printf("Route:        %s -> %s\n", rec.OriginPort, rec.DestinationPort)
	}
	if rec.Status != "" {
		fmt.Printf("Status:       %s\n", rec.Status)
	}
	if result.FromCache {
		fmt.Println("(served from history)")
	}

	switch result.Map.State {
	case routedomain.OutcomeRendered:
		fmt.Printf("\nRoute map generated: %s\n", result.Map.Path)
	case routedomain.OutcomeSkipped:
		fmt.Printf("\nRoute map skipped: %s\n", result.Map.Reason)
	}
}
