package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	pkgLog "github.com/vogiaan1904/eventhub-seatsync/pkg/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "seatwatch",
	Short:         "Watch an event's seat availability",
	Long:          "seatwatch runs a seat-sync watch session against a deployment, the same way an event page does, and prints every widget update.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(watchCmd, healthCmd)
}

func newLogger() pkgLog.Logger {
	return pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    logLevel,
		Mode:     "development",
		Encoding: "console",
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "seatwatch:", err)
		os.Exit(1)
	}
}
