package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/partpicker/internal/observability"
	"github.com/jonathan/partpicker/internal/picker"
	"github.com/jonathan/partpicker/internal/schemas"
	"github.com/jonathan/partpicker/internal/types"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve one component spec into a catalog part",
	Long: `Reads a single component spec JSON file, plans the catalog query and attribute filters for its
family, and prints the selected part as JSON. Exits non-zero when no part satisfies the spec.`,
	RunE: runResolve,
}

var (
	resolveSpec     string
	resolveQuantity int
	resolveOutput   string
	resolvePlanOnly bool
)

func init() {
	resolveCmd.Flags().StringVarP(&resolveSpec, "spec", "s", "", "Path to component spec JSON file (required)")
	resolveCmd.Flags().IntVarP(&resolveQuantity, "quantity", "q", 0, "Order quantity used to pick the price tier")
	resolveCmd.Flags().StringVarP(&resolveOutput, "out", "o", "", "Path to output selection JSON file (default stdout)")
	resolveCmd.Flags().BoolVar(&resolvePlanOnly, "plan", false, "Print the resolution plan without querying the catalog")

	if err := resolveCmd.MarkFlagRequired("spec"); err != nil {
		panic(fmt.Sprintf("failed to mark spec flag as required: %v", err))
	}

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	spec, err := readSpec(resolveSpec)
	if err != nil {
		return err
	}
	printer := observability.NewPrinter(cmd.ErrOrStderr())

	if resolvePlanOnly {
		plan, err := picker.New(nil).Plan(spec)
		if err != nil {
			return err
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintPlan(plan)
		return nil
	}

	engine, cfg, _, cleanup, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	quantity := cfg.Quantity
	if cmd.Flags().Changed("quantity") {
		quantity = resolveQuantity
	}

	if cfg.Verbose {
		if plan, err := engine.Plan(spec); err == nil {
			printer.PrintPlan(plan)
		}
	}

	sel, err := engine.Resolve(cmd.Context(), spec, quantity)
	if err != nil {
		var nf *picker.NotFoundError
		if cfg.Verbose && errors.As(err, &nf) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Candidates: %s\n", nf.Trace)
		}
		return err
	}

	if cfg.Verbose {
		printer.PrintSelection(sel)
	}
	return writeJSON(cmd, sel, resolveOutput)
}

// readSpec loads a component spec file, checking it against the JSON schema when the schema
// can be found.
func readSpec(path string) (types.ComponentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file %s: %w", path, err)
	}

	if schemaPath := schemas.ResolveSchemaPath(schemas.ComponentSpecSchema); schemaPath != "" {
		if err := schemas.ValidateDocument(schemaPath, data); err != nil {
			return nil, fmt.Errorf("spec file %s: %w", path, err)
		}
	}

	spec, err := types.DecodeSpec(data)
	if err != nil {
		return nil, fmt.Errorf("spec file %s: %w", path, err)
	}
	return spec, nil
}
