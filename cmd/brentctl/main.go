// Command brentctl trains and queries the forecast pipeline without the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"BrentCast/internal/di"
	"BrentCast/pkg/config"
)

var (
	configPath string
	toolkit    *di.Toolkit
	cleanup    = func() {}
)

var rootCmd = &cobra.Command{
	Use:           "brentctl",
	Short:         "Brent price forecasting toolkit",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadWithEnv(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		toolkit, cleanup, err = di.InitializeToolkit(cfg)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) { cleanup() },
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")
	rootCmd.AddCommand(trainCmd, forecastCmd, exportCmd, analyticsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
