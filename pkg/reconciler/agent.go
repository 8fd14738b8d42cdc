package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/printq/pkg/ipp"
	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/metrics"
	"github.com/cuemby/printq/pkg/process"
	"github.com/cuemby/printq/pkg/types"
	"github.com/rs/zerolog"
)

// LoadFunc produces the items of the next pass. It is called before every
// pass so that manifest edits are picked up.
type LoadFunc func() ([]Item, error)

// ReportSink receives the report of every pass
type ReportSink interface {
	SaveReport(report *types.RunReport) error
}

// Agent re-runs a pass at a fixed interval, one pass at a time
type Agent struct {
	pass     *Pass
	load     LoadFunc
	source   string
	interval time.Duration
	sink     ReportSink
	logger   zerolog.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewAgent creates an agent. sink may be nil.
func NewAgent(pass *Pass, source string, load LoadFunc, interval time.Duration, sink ReportSink) *Agent {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Agent{
		pass:     pass,
		load:     load,
		source:   source,
		interval: interval,
		sink:     sink,
		logger:   log.WithComponent("agent"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the reconciliation loop. The first pass runs immediately.
func (a *Agent) Start() {
	go a.run()
}

// Stop stops the loop and waits for a running pass to finish
func (a *Agent) Stop() {
	close(a.stopCh)
	<-a.doneCh
}

// run is the main reconciliation loop
func (a *Agent) run() {
	defer close(a.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-a.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.runOnce(ctx)
	for {
		select {
		case <-ticker.C:
			a.runOnce(ctx)
		case <-a.stopCh:
			return
		}
	}
}

// RunOnce performs one pass and records its outcome
func (a *Agent) RunOnce(ctx context.Context) (*types.RunReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.load()
	if err != nil {
		metrics.UpdateComponent(metrics.ComponentReconciler, false, err.Error())
		return nil, fmt.Errorf("failed to load %s: %w", a.source, err)
	}

	report, err := a.pass.Run(ctx, a.source, items)
	a.updateHealth(err)

	if a.sink != nil {
		if serr := a.sink.SaveReport(report); serr != nil {
			a.logger.Warn().Err(serr).Str("run_id", report.ID).Msg("Failed to save run report")
		}
	}
	return report, err
}

func (a *Agent) runOnce(ctx context.Context) {
	if _, err := a.RunOnce(ctx); err != nil {
		// Log error but continue
		a.logger.Error().Err(err).Msg("Reconciliation pass failed")
	}
}

// updateHealth marks the print server unhealthy when it could not be
// reached or queried, and the reconciler unhealthy on any failure
func (a *Agent) updateHealth(err error) {
	if err == nil {
		metrics.UpdateComponent(metrics.ComponentPrintServer, true, "reachable")
		metrics.UpdateComponent(metrics.ComponentReconciler, true, "converged")
		return
	}

	var qe *ipp.QueryError
	var se *process.SpawnError
	if errors.As(err, &qe) || errors.As(err, &se) {
		metrics.UpdateComponent(metrics.ComponentPrintServer, false, err.Error())
	} else {
		metrics.UpdateComponent(metrics.ComponentPrintServer, true, "reachable")
	}
	metrics.UpdateComponent(metrics.ComponentReconciler, false, err.Error())
}
