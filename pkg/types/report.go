package types

import "time"

// Outcome summarizes what a pass did to one queue
type Outcome string

const (
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeChanged   Outcome = "changed"
	OutcomeFailed    Outcome = "failed"
)

// ResourceReport records the reconciliation of one declared queue
type ResourceReport struct {
	Queue    QueueName `json:"queue"`
	Kind     QueueKind `json:"kind"`
	Previous QueueKind `json:"previous"`
	Outcome  Outcome   `json:"outcome"`
	Changes  []string  `json:"changes,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// RunReport records one reconciliation pass
type RunReport struct {
	ID         string           `json:"id"`
	Source     string           `json:"source,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Resources  []ResourceReport `json:"resources"`
}

// Failed counts the resources that did not converge
func (r *RunReport) Failed() int {
	n := 0
	for _, res := range r.Resources {
		if res.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

// Changed counts the resources a command was issued for
func (r *RunReport) Changed() int {
	n := 0
	for _, res := range r.Resources {
		if res.Outcome == OutcomeChanged {
			n++
		}
	}
	return n
}

// Duration is how long the pass took
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
