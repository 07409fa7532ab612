package main

import (
	"fmt"

	"github.com/jonathan/partpicker/internal/catalog"
	"github.com/jonathan/partpicker/internal/db"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a JSON catalog snapshot into PostgreSQL",
	Long:  "Creates the catalog tables if needed and upserts every category and component of a snapshot file into the database given by --db-url.",
	RunE:  runSeed,
}

var seedFrom string

func init() {
	seedCmd.Flags().StringVarP(&seedFrom, "from", "f", "", "Path to the catalog snapshot JSON file (required)")

	if err := seedCmd.MarkFlagRequired("from"); err != nil {
		panic(fmt.Sprintf("failed to mark from flag as required: %v", err))
	}

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("seed needs a database: set --db-url or PARTPICKER_DATABASE_URL")
	}

	snap, err := catalog.ReadSnapshot(seedFrom)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := database.Seed(ctx, snap); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories and %d components\n", len(snap.Categories), len(snap.Components))
	return nil
}
