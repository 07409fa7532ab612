package main

import (
	"fmt"
	"strconv"

	"github.com/jonathan/partpicker/internal/units"
	"github.com/spf13/cobra"
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Convert between numbers and metric-prefixed value tokens",
}

var unitsParseCmd = &cobra.Command{
	Use:     "parse <token>...",
	Short:   "Parse tokens like 4.7kΩ or 100nF into plain numbers",
	Example: "  partpicker units parse 4.7kΩ 100nF 1.5uH",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runUnitsParse,
}

var unitsFormatCmd = &cobra.Command{
	Use:     "format <number>...",
	Short:   "Format plain numbers as metric-prefixed tokens",
	Example: "  partpicker units format 4700 1e-7 --unit F",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runUnitsFormat,
}

var unitsSymbol string

func init() {
	unitsFormatCmd.Flags().StringVar(&unitsSymbol, "unit", "", "Unit symbol appended to each value")

	unitsCmd.AddCommand(unitsParseCmd, unitsFormatCmd)
	rootCmd.AddCommand(unitsCmd)
}

func runUnitsParse(cmd *cobra.Command, args []string) error {
	for _, token := range args {
		v, err := units.Parse(token)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(v, 'g', -1, 64))
	}
	return nil
}

func runUnitsFormat(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", arg, err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), units.Format(v)+unitsSymbol)
	}
	return nil
}
