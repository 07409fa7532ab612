package main

import (
	"github.com/jonathan/partpicker/internal/observability"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <part-id>",
	Short: "Show one catalog part and the value read back from its description",
	Example: `  partpicker lookup C25744 --catalog parts.json
  partpicker lookup 25744`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

var lookupOutput string

func init() {
	lookupCmd.Flags().StringVarP(&lookupOutput, "out", "o", "", "Path to output JSON file (default stdout)")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	engine, cfg, _, cleanup, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	sel, err := engine.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if cfg.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintSelection(sel)
	}
	return writeJSON(cmd, sel, lookupOutput)
}
