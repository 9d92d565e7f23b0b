// Package main is the lanewatch CLI: the monitor server plus a small set
// of client commands for talking to a running instance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "lanewatch",
	Short: "Heartbeat registry and stale-detection monitor",
	Long: `LaneWatch tracks the liveness and health of independently operated
services through periodic self-reported heartbeats, detects services that
stop reporting, and notifies on status transitions.

Quick start:
  lanewatch serve -c config.yaml                  # run the monitor
  lanewatch register --name my-service            # register a service
  lanewatch beat <service-id> --status healthy    # send a heartbeat
  lanewatch list                                  # show all services`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lanewatch %s (commit %s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
