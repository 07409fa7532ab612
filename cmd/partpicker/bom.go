package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jonathan/partpicker/internal/metrics"
	"github.com/jonathan/partpicker/internal/observability"
	"github.com/jonathan/partpicker/internal/pipeline"
	"github.com/jonathan/partpicker/internal/schemas"
	"github.com/jonathan/partpicker/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var bomCmd = &cobra.Command{
	Use:   "bom",
	Short: "Resolve a bill of materials in parallel",
	Long: `Reads a JSON array of component specs and resolves each one independently, several at a time.
A component that cannot be resolved is reported in its own result and does not stop the others.
The report is written as JSON; the command exits non-zero when any component is unresolved.`,
	RunE: runBOM,
}

var (
	bomPath        string
	bomQuantity    int
	bomWorkers     int
	bomOutput      string
	bomMetricsAddr string
)

func init() {
	bomCmd.Flags().StringVarP(&bomPath, "bom", "b", "", "Path to BOM JSON file: an array of component specs (required)")
	bomCmd.Flags().IntVarP(&bomQuantity, "quantity", "q", 0, "Order quantity used to pick price tiers")
	bomCmd.Flags().IntVarP(&bomWorkers, "workers", "w", 0, "Number of components resolved concurrently")
	bomCmd.Flags().StringVarP(&bomOutput, "out", "o", "", "Path to output report JSON file (default stdout)")
	bomCmd.Flags().StringVar(&bomMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run, e.g. :9102")

	if err := bomCmd.MarkFlagRequired("bom"); err != nil {
		panic(fmt.Sprintf("failed to mark bom flag as required: %v", err))
	}

	rootCmd.AddCommand(bomCmd)
}

func runBOM(cmd *cobra.Command, _ []string) error {
	specs, err := readBOM(bomPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewRecorder(reg)

	engine, cfg, logger, cleanup, err := setup(cmd, rec)
	if err != nil {
		return err
	}
	defer cleanup()

	if bomMetricsAddr != "" {
		stop := serveMetrics(bomMetricsAddr, reg, logger)
		defer stop()
	}

	opts := pipeline.RunOptions{
		Quantity: cfg.Quantity,
		Workers:  cfg.Workers,
		Logger:   logger,
		Metrics:  rec,
	}
	if cmd.Flags().Changed("quantity") {
		opts.Quantity = bomQuantity
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = bomWorkers
	}
	if cfg.Verbose {
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			name := e.Designator
			if name == "" {
				name = fmt.Sprintf("#%d", e.Index)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s %s %s\n", e.Index+1, len(specs), name, e.Status, e.PartID)
		}
	}

	report, runErr := pipeline.ResolveBOM(cmd.Context(), engine, specs, opts)
	if cfg.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintReport(report)
	}
	if err := writeJSON(cmd, report, bomOutput); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if !report.OK() {
		return fmt.Errorf("%d of %d components unresolved", report.Total-report.Selected, report.Total)
	}
	return nil
}

// readBOM loads a BOM file, checking every element against the component spec schema when the
// schema can be found.
func readBOM(path string) ([]types.ComponentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read BOM file %s: %w", path, err)
	}

	if schemaPath := schemas.ResolveSchemaPath(schemas.BOMSchema); schemaPath != "" {
		if err := schemas.ValidateDocument(schemaPath, data); err != nil {
			return nil, fmt.Errorf("BOM file %s: %w", path, err)
		}
	}
	if schemaPath := schemas.ResolveSchemaPath(schemas.ComponentSpecSchema); schemaPath != "" {
		if err := schemas.ValidateEach(schemaPath, data); err != nil {
			return nil, fmt.Errorf("BOM file %s: %w", path, err)
		}
	}

	specs, err := types.DecodeSpecs(data)
	if err != nil {
		return nil, fmt.Errorf("BOM file %s: %w", path, err)
	}
	return specs, nil
}

// serveMetrics exposes reg on addr/metrics and returns a function that shuts the server down.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("failed to stop metrics server", zap.Error(err))
		}
	}
}
