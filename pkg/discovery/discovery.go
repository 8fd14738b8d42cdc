package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/printq/pkg/ipp"
	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/types"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Mode selects how discovery treats query failures
type Mode int

const (
	// Strict propagates query errors to the caller
	Strict Mode = iota
	// Lenient degrades any failure to an empty result
	Lenient
)

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

// Querier sends an IPP request against a resource path
type Querier interface {
	Query(ctx context.Context, path string, req *ipp.Request) ([]string, error)
}

// Discovery enumerates the queues known to the print server
type Discovery struct {
	querier Querier
	mode    Mode
	logger  zerolog.Logger
}

// New creates a discovery in the given mode
func New(q Querier, mode Mode) *Discovery {
	return &Discovery{
		querier: q,
		mode:    mode,
		logger:  log.WithComponent("discovery"),
	}
}

// NewStrict creates a discovery that propagates query errors
func NewStrict(q Querier) *Discovery {
	return New(q, Strict)
}

// NewLenient creates a discovery for fact reporting
func NewLenient(q Querier) *Discovery {
	return New(q, Lenient)
}

func classesRequest() *ipp.Request {
	return ipp.NewRequest(ipp.OpGetClasses).
		ExpectStatus(ipp.StatusOK).
		Show("printer-name", "member-names")
}

func queuesRequest() *ipp.Request {
	return ipp.NewRequest(ipp.OpGetPrinters).
		ExpectStatus(ipp.StatusOK).
		Show("printer-name")
}

// ClassMembers maps every class to its ordered member list
func (d *Discovery) ClassMembers(ctx context.Context) (map[types.QueueName]types.ClassMembership, error) {
	rows, err := d.querier.Query(ctx, "/", classesRequest())
	if err != nil {
		if d.mode == Lenient {
			d.logger.Warn().Err(err).Msg("Class discovery failed, reporting no classes")
			return map[types.QueueName]types.ClassMembership{}, nil
		}
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}

	classes := make(map[types.QueueName]types.ClassMembership, len(rows))
	for _, row := range rows {
		name, members := ParseClassRow(row)
		if name == "" {
			continue
		}
		classes[name] = members
	}
	return classes, nil
}

// ParseClassRow splits a `name,"m1,m2"` row. The member field is unquoted
// only when it lists more than one member, and is empty for a class without
// members.
func ParseClassRow(row string) (types.QueueName, types.ClassMembership) {
	name, field := ipp.SplitRow(row)
	field = ipp.Unquote(field)

	members := lo.FilterMap(strings.Split(field, ","), func(m string, _ int) (types.QueueName, bool) {
		m = strings.TrimSpace(m)
		return types.QueueName(m), m != ""
	})
	return types.QueueName(strings.TrimSpace(ipp.Unquote(name))), types.ClassMembership(members)
}

// QueueNames lists printers and classes together
func (d *Discovery) QueueNames(ctx context.Context) ([]types.QueueName, error) {
	rows, err := d.querier.Query(ctx, "/", queuesRequest())
	if err != nil {
		if d.mode == Lenient {
			d.logger.Warn().Err(err).Msg("Queue discovery failed, reporting no queues")
			return []types.QueueName{}, nil
		}
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}

	return lo.FilterMap(rows, func(row string, _ int) (types.QueueName, bool) {
		name := strings.TrimSpace(ipp.Unquote(row))
		return types.QueueName(name), name != ""
	}), nil
}

// ClassNames lists the classes, sorted
func (d *Discovery) ClassNames(ctx context.Context) ([]types.QueueName, error) {
	classes, err := d.ClassMembers(ctx)
	if err != nil {
		return nil, err
	}
	return sortNames(lo.Keys(classes)), nil
}

// PrinterNames lists every queue that is not a class
func (d *Discovery) PrinterNames(ctx context.Context) ([]types.QueueName, error) {
	queues, err := d.QueueNames(ctx)
	if err != nil {
		return nil, err
	}
	classes, err := d.ClassMembers(ctx)
	if err != nil {
		return nil, err
	}
	return excludeClasses(queues, classes), nil
}

// Snapshot takes both inventories in one go
func (d *Discovery) Snapshot(ctx context.Context) (*Snapshot, error) {
	classes, err := d.ClassMembers(ctx)
	if err != nil {
		return nil, err
	}
	queues, err := d.QueueNames(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Queues: queues, Classes: classes}, nil
}

// Count implements metrics.Inventory. It never fails, whatever the mode.
func (d *Discovery) Count(ctx context.Context) (printers, classes int) {
	s, err := New(d.querier, Lenient).Snapshot(ctx)
	if err != nil {
		return 0, 0
	}
	return len(s.Printers()), len(s.Classes)
}

func excludeClasses(queues []types.QueueName, classes map[types.QueueName]types.ClassMembership) []types.QueueName {
	classSet := lo.SliceToMap(lo.Keys(classes), func(n types.QueueName) (string, struct{}) {
		return strings.ToLower(string(n)), struct{}{}
	})
	return lo.Reject(queues, func(n types.QueueName, _ int) bool {
		_, isClass := classSet[strings.ToLower(string(n))]
		return isClass
	})
}

func sortNames(names []types.QueueName) []types.QueueName {
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(string(names[i])) < strings.ToLower(string(names[j]))
	})
	return names
}
