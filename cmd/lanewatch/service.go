package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	sdk "github.com/lanewatch/lanewatch/sdk/go"
)

// client commands talk to a running lanewatch server over its HTTP API.

var serverAddr string

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "localhost:8080", "lanewatch server address")
	rootCmd.AddCommand(registerCmd, beatCmd, getCmd, listCmd)
}

func newClient(name string) (*sdk.Client, error) {
	if name == "" {
		// Commands other than register never send the name.
		name = "lanewatch-cli"
	}
	return sdk.NewClient(&sdk.Config{
		ServerAddr:  serverAddr,
		ServiceName: name,
		Timeout:     5 * time.Second,
	})
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a service for monitoring",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		id, _ := cmd.Flags().GetString("id")
		if name == "" {
			return fmt.Errorf("--name is required")
		}

		client, err := newClient(name)
		if err != nil {
			return err
		}
		client.SetServiceID(id)

		ctx, cancel := commandContext()
		defer cancel()
		if err := client.Register(ctx); err != nil {
			return err
		}

		fmt.Printf("registered %q with id %s\n", name, client.ServiceID())
		return nil
	},
}

var beatCmd = &cobra.Command{
	Use:   "beat <service-id>",
	Short: "Send a heartbeat for a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		message, _ := cmd.Flags().GetString("message")

		client, err := newClient("")
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		if err := client.SendHeartbeatFor(ctx, args[0], status, message, nil); err != nil {
			return err
		}

		fmt.Printf("heartbeat sent for %s (%s)\n", args[0], status)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <service-id>",
	Short: "Show one service record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient("")
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		status, err := client.GetService(ctx, args[0])
		if err != nil {
			return err
		}

		return printJSON(status)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all monitored services",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient("")
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		list, err := client.ListServices(ctx)
		if err != nil {
			return err
		}

		return printJSON(list)
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	registerCmd.Flags().String("name", "", "service name (required)")
	registerCmd.Flags().String("id", "", "explicit service id (optional)")
	beatCmd.Flags().String("status", "healthy", "status to report")
	beatCmd.Flags().String("message", "", "free-text note")
}
