package storage

import (
	"errors"

	"github.com/cuemby/printq/pkg/types"
)

var (
	// ErrNotFound is returned when a report does not exist
	ErrNotFound = errors.New("report not found")
	// ErrLocked is returned when another process holds the database
	ErrLocked = errors.New("report store is locked by another process")
)

// Store defines the interface for run report storage. The reconciler never
// reads it back; reports exist for operators.
type Store interface {
	SaveReport(report *types.RunReport) error
	GetReport(id string) (*types.RunReport, error)
	// ListReports returns the newest reports first; limit <= 0 means all
	ListReports(limit int) ([]*types.RunReport, error)
	// Prune keeps the newest keep reports and deletes the rest
	Prune(keep int) (int, error)
	Close() error
}
