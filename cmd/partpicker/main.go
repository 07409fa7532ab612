// Package main provides the entry point for the partpicker CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "partpicker",
	Short: "Resolve component specs into purchasable catalog parts",
	Long: `partpicker turns parametric component specs (resistors, capacitors, inductors, MOSFETs and
fixed manufacturer part numbers) into concrete supplier parts, preferring basic parts and then the
lowest unit price at the order quantity.

The catalog is read from PostgreSQL (--db-url) or from a JSON snapshot (--catalog).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
