package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/manifest"
	"github.com/cuemby/printq/pkg/metrics"
	"github.com/cuemby/printq/pkg/types"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a manifest once",
	Long: `Converge the print server towards a printq manifest.

Resources are reconciled members first. A failed resource does not stop the
run; resources depending on it are skipped.

Examples:
  # Apply a site manifest
  printq apply -f site.yaml

  # Apply and leave metrics for the node_exporter textfile collector
  printq apply -f site.yaml --metrics-file /var/lib/node_exporter/printq.prom`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "Manifest file to apply (required)")
	applyCmd.Flags().String("metrics-file", "", "Write metrics in Prometheus textfile format")
	applyCmd.Flags().Bool("no-report", false, "Do not store the run report")
	_ = applyCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	noReport, _ := cmd.Flags().GetBool("no-report")

	m, err := manifest.LoadFile(filename)
	if err != nil {
		return err
	}
	items, err := m.Order()
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := newEngine()
	e.logEvents()
	report, passErr := e.pass.Run(ctx, m.Source, items)
	e.close()

	printReport(cmd.OutOrStdout(), report)

	if !noReport {
		if err := (&reportSink{dataDir: cfg.DataDir, keep: cfg.KeepReports}).SaveReport(report); err != nil {
			log.Logger.Warn().Err(err).Msg("Failed to store run report")
		}
	}
	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if passErr != nil {
		return fmt.Errorf("%d of %d resources failed to converge", report.Failed(), len(report.Resources))
	}
	return nil
}

func printReport(w io.Writer, report *types.RunReport) {
	for _, res := range report.Resources {
		switch res.Outcome {
		case types.OutcomeChanged:
			fmt.Fprintf(w, "✓ %s %s: %s\n", res.Kind, res.Queue, strings.Join(res.Changes, ", "))
		case types.OutcomeFailed:
			fmt.Fprintf(w, "✗ %s %s: %s\n", res.Kind, res.Queue, res.Error)
		default:
			fmt.Fprintf(w, "  %s %s: unchanged\n", res.Kind, res.Queue)
		}
	}
	fmt.Fprintf(w, "\n%d changed, %d failed, %d total (run %s, %s)\n",
		report.Changed(), report.Failed(), len(report.Resources), report.ID, report.Duration().Round(time.Millisecond))
}
