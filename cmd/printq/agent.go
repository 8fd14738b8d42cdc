package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/printq/pkg/discovery"
	"github.com/cuemby/printq/pkg/health"
	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/manifest"
	"github.com/cuemby/printq/pkg/metrics"
	"github.com/cuemby/printq/pkg/reconciler"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Re-apply a manifest periodically",
	Long: `Run printq as a long-lived agent.

The manifest is re-read and applied every interval, one pass at a time.
Metrics are served on /metrics and component health on /health.`,
	RunE: runAgent,
}

func init() {
	agentCmd.Flags().StringP("file", "f", "", "Manifest file to apply (required)")
	agentCmd.Flags().Duration("interval", 0, "Time between passes (default from config, 30m)")
	agentCmd.Flags().String("metrics-addr", "", "Address for /metrics and /health (default from config)")
	_ = agentCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	interval := cfg.Interval
	if cmd.Flags().Changed("interval") {
		interval, _ = cmd.Flags().GetDuration("interval")
	}
	addr := cfg.MetricsAddr
	if cmd.Flags().Changed("metrics-addr") {
		addr, _ = cmd.Flags().GetString("metrics-addr")
	}

	// Fail fast on a broken manifest; later passes report load errors
	// without stopping the agent.
	if _, err := loadItems(filename); err != nil {
		return err
	}

	e := newEngine()
	e.logEvents()
	defer e.close()

	logger := log.WithComponent("agent")

	collector := metrics.NewCollector(discovery.NewLenient(e.client), time.Minute)
	collector.Start()
	defer collector.Stop()

	probe := health.NewMonitor(health.NewHTTPChecker(cfg.Server), health.DefaultConfig())
	probe.Start()
	defer probe.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server error: %w", err)
		}
	}()
	logger.Info().Str("addr", addr).Dur("interval", interval).Msg("Agent started")

	agent := reconciler.NewAgent(e.pass, filename, func() ([]reconciler.Item, error) {
		return loadItems(filename)
	}, interval, &reportSink{dataDir: cfg.DataDir, keep: cfg.KeepReports})
	agent.Start()

	// Wait for interrupt signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigCh:
		logger.Info().Msg("Shutting down")
	case runErr = <-errCh:
	}

	agent.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
	return runErr
}

func loadItems(filename string) ([]reconciler.Item, error) {
	m, err := manifest.LoadFile(filename)
	if err != nil {
		return nil, err
	}
	return m.Order()
}
