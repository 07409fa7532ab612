package main

import (
	"os"

	"github.com/jonathan/partpicker/internal/metrics"
	"github.com/jonathan/partpicker/internal/server"
	"github.com/jonathan/partpicker/internal/server/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolver over HTTP",
	Long: `Starts an HTTP API on --addr:

  POST /v1/resolve       {"spec": {...}, "quantity": n}
  POST /v1/bom           {"components": [...], "quantity": n, "workers": n}
  POST /v1/bom/stream    same body, answered with server-sent events
  GET  /v1/parts/{id}    one catalog part
  GET  /health
  GET  /metrics

Requests are rate limited per client; see the PARTPICKER_RATE_LIMIT_* variables.
The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

var (
	serveAddr        string
	serveQuantity    int
	serveWorkers     int
	serveNoRateLimit bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().IntVarP(&serveQuantity, "quantity", "q", 0, "Order quantity for requests that do not set one")
	serveCmd.Flags().IntVarP(&serveWorkers, "workers", "w", 0, "BOM workers for requests that do not set them")
	serveCmd.Flags().BoolVar(&serveNoRateLimit, "no-rate-limit", false, "Disable per-client rate limiting")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
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

	quantity, workers := cfg.Quantity, cfg.Workers
	if cmd.Flags().Changed("quantity") {
		quantity = serveQuantity
	}
	if cmd.Flags().Changed("workers") {
		workers = serveWorkers
	}

	rl := ratelimit.LoadConfig(os.LookupEnv)
	if serveNoRateLimit {
		rl.Enabled = false
	}

	srv := server.New(server.Config{
		Addr:      serveAddr,
		Quantity:  quantity,
		Workers:   workers,
		RateLimit: rl,
		Logger:    logger,
		Registry:  reg,
		Metrics:   rec,
	}, engine)

	logger.Info("starting API",
		zap.String("addr", serveAddr),
		zap.Int("quantity", quantity),
		zap.Int("workers", workers),
		zap.Bool("rate_limit", rl.Enabled))
	return srv.Start(cmd.Context())
}
