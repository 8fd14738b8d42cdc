package reconciler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/printq/pkg/events"
	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/metrics"
	"github.com/cuemby/printq/pkg/types"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Item is one declared queue in pass order, with the queues it depends on
type Item struct {
	Queue    *types.DeclaredQueue
	Requires []types.QueueName
}

// DependencyError reports a resource skipped because something it depends
// on failed in the same pass
type DependencyError struct {
	Queue      types.QueueName
	Dependency types.QueueName
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("queue %s: skipped because dependency %s failed", e.Queue, e.Dependency)
}

// Pass reconciles an ordered list of declared queues. A failed resource
// does not stop the pass; resources depending on it are skipped.
type Pass struct {
	reconciler *Reconciler
	publisher  events.Publisher
	logger     zerolog.Logger
}

// NewPass creates a pass runner. publisher may be nil.
func NewPass(r *Reconciler, publisher events.Publisher) *Pass {
	return &Pass{
		reconciler: r,
		publisher:  publisher,
		logger:     log.WithComponent("pass"),
	}
}

// Run reconciles every item in order and returns the run report. The error
// aggregates every resource failure.
func (p *Pass) Run(ctx context.Context, source string, items []Item) (*types.RunReport, error) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	report := &types.RunReport{
		ID:        uuid.New().String(),
		Source:    source,
		StartedAt: time.Now(),
	}
	logger := p.logger.With().Str("run_id", report.ID).Logger()
	logger.Info().Int("resources", len(items)).Str("source", source).Msg("Starting reconciliation pass")

	var result *multierror.Error
	failed := make(map[string]bool)

	for _, item := range items {
		decl := item.Queue
		res := types.ResourceReport{
			Queue:    decl.Name,
			Kind:     decl.Kind,
			Previous: types.KindAbsent,
			Outcome:  types.OutcomeUnchanged,
		}

		err := ctx.Err()
		if err == nil {
			err = p.blocked(item, failed)
		}
		if err == nil {
			var r *Result
			r, err = p.reconciler.Reconcile(ctx, decl)
			res.Previous = r.Previous
			for _, c := range r.Changes {
				res.Changes = append(res.Changes, c.String())
			}
			if len(r.Changes) > 0 {
				res.Outcome = types.OutcomeChanged
			}
			if err == nil {
				p.publishResult(report.ID, r)
			}
		}

		if err != nil {
			res.Outcome = types.OutcomeFailed
			res.Error = err.Error()
			failed[strings.ToLower(string(decl.Name))] = true
			result = multierror.Append(result, err)

			logger.Error().Err(err).Str("queue", string(decl.Name)).Msg("Queue failed to converge")
			p.publish(events.EventQueueFailed, fmt.Sprintf("queue %s failed", decl.Name), map[string]string{
				"queue":  string(decl.Name),
				"run_id": report.ID,
				"error":  err.Error(),
			})
		}

		metrics.ResourcesReconciledTotal.WithLabelValues(string(decl.Kind), string(res.Outcome)).Inc()
		report.Resources = append(report.Resources, res)
	}

	report.FinishedAt = time.Now()
	err := result.ErrorOrNil()

	if err == nil {
		metrics.LastPassSuccess.Set(1)
	} else {
		metrics.LastPassSuccess.Set(0)
	}
	metrics.LastPassTimestamp.Set(float64(report.FinishedAt.Unix()))

	logger.Info().
		Int("changed", report.Changed()).
		Int("failed", report.Failed()).
		Dur("duration", report.Duration()).
		Msg("Reconciliation pass completed")
	p.publish(events.EventPassCompleted, "reconciliation pass completed", map[string]string{
		"run_id":  report.ID,
		"changed": strconv.Itoa(report.Changed()),
		"failed":  strconv.Itoa(report.Failed()),
	})

	return report, err
}

func (p *Pass) blocked(item Item, failed map[string]bool) error {
	deps := append([]types.QueueName(nil), item.Requires...)
	if item.Queue.Kind == types.KindClass {
		deps = append(deps, item.Queue.Members...)
	}
	for _, dep := range deps {
		if failed[strings.ToLower(string(dep))] {
			return &DependencyError{Queue: item.Queue.Name, Dependency: dep}
		}
	}
	return nil
}

func (p *Pass) publishResult(runID string, r *Result) {
	if !r.Changed() {
		return
	}

	t := events.EventQueueChanged
	switch {
	case r.Deleted():
		t = events.EventQueueDeleted
	case r.Created():
		t = events.EventQueueCreated
	}

	changes := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		changes = append(changes, c.String())
	}
	p.publish(t, fmt.Sprintf("queue %s %s", r.Queue, strings.TrimPrefix(string(t), "queue.")), map[string]string{
		"queue":   string(r.Queue),
		"kind":    string(r.Kind),
		"run_id":  runID,
		"changes": strings.Join(changes, "; "),
	})
}

func (p *Pass) publish(t events.EventType, message string, metadata map[string]string) {
	if p.publisher == nil {
		return
	}
	p.publisher.Publish(events.NewEvent(t, message, metadata))
}
