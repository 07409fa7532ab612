package main

import (
	"fmt"
	"strings"

	"github.com/jonathan/partpicker/internal/eseries"
	"github.com/jonathan/partpicker/internal/units"
	"github.com/spf13/cobra"
)

var eseriesCmd = &cobra.Command{
	Use:   "eseries <series>...",
	Short: "List standard E-series values in a range",
	Example: `  partpicker eseries E24 --min 1k --max 10k --unit Ω
  partpicker eseries E24 E96 --min 4.5k --max 5k`,
	Args: cobra.MinimumNArgs(1),
	RunE: runESeries,
}

var (
	eseriesMin  string
	eseriesMax  string
	eseriesUnit string
)

func init() {
	eseriesCmd.Flags().StringVar(&eseriesMin, "min", "", "Lower bound, e.g. 1k (required)")
	eseriesCmd.Flags().StringVar(&eseriesMax, "max", "", "Upper bound, e.g. 10k (required)")
	eseriesCmd.Flags().StringVar(&eseriesUnit, "unit", "", "Unit symbol appended to each value")

	if err := eseriesCmd.MarkFlagRequired("min"); err != nil {
		panic(fmt.Sprintf("failed to mark min flag as required: %v", err))
	}
	if err := eseriesCmd.MarkFlagRequired("max"); err != nil {
		panic(fmt.Sprintf("failed to mark max flag as required: %v", err))
	}

	rootCmd.AddCommand(eseriesCmd)
}

func runESeries(cmd *cobra.Command, args []string) error {
	series := make([]eseries.Series, 0, len(args))
	for _, name := range args {
		for _, part := range strings.Split(name, ",") {
			s, err := eseries.ByName(strings.TrimSpace(part))
			if err != nil {
				return err
			}
			series = append(series, s)
		}
	}

	lo, err := units.Parse(eseriesMin)
	if err != nil {
		return fmt.Errorf("invalid --min: %w", err)
	}
	hi, err := units.Parse(eseriesMax)
	if err != nil {
		return fmt.Errorf("invalid --max: %w", err)
	}

	values, err := eseries.InRange(lo, hi, series...)
	if err != nil {
		return err
	}
	for _, v := range values {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), units.Format(v)+eseriesUnit)
	}
	return nil
}
