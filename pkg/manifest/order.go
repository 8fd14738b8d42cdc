package manifest

import (
	"fmt"
	"strings"

	"github.com/cuemby/printq/pkg/reconciler"
	"github.com/cuemby/printq/pkg/types"
	"github.com/samber/lo"
)

// CycleError reports resources that depend on each other
type CycleError struct {
	Queues []types.QueueName
}

func (e *CycleError) Error() string {
	names := lo.Map(e.Queues, func(q types.QueueName, _ int) string { return string(q) })
	return fmt.Sprintf("dependency cycle between %s", strings.Join(names, ", "))
}

// DuplicateError reports a queue name declared more than once. Names are
// compared case-insensitively.
type DuplicateError struct {
	Queue types.QueueName
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("queue %s is declared more than once", e.Queue)
}

func key(name types.QueueName) string {
	return strings.ToLower(string(name))
}

// Order sorts the resources so that every resource follows the resources
// it depends on. The sort is stable: among resources whose dependencies
// are satisfied, file order wins. Dependencies on queues the manifest does
// not declare are assumed to exist already.
func (m *Manifest) Order() ([]reconciler.Item, error) {
	index := make(map[string]int, len(m.Resources))
	for i, res := range m.Resources {
		k := key(res.Name())
		if _, dup := index[k]; dup {
			return nil, &DuplicateError{Queue: res.Name()}
		}
		index[k] = i
	}

	deps := make([][]int, len(m.Resources))
	for i, res := range m.Resources {
		for _, dep := range res.Dependencies() {
			if j, ok := index[key(dep)]; ok && j != i {
				deps[i] = append(deps[i], j)
			}
		}
	}

	placed := make([]bool, len(m.Resources))
	items := make([]reconciler.Item, 0, len(m.Resources))
	for len(items) < len(m.Resources) {
		next := -1
		for i := range m.Resources {
			if placed[i] {
				continue
			}
			if lo.EveryBy(deps[i], func(j int) bool { return placed[j] }) {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, m.cycle(placed)
		}

		placed[next] = true
		res := m.Resources[next]
		items = append(items, reconciler.Item{
			Queue:    res.ToDeclared(),
			Requires: lo.Map(res.Spec.Require, func(r string, _ int) types.QueueName { return types.QueueName(r) }),
		})
	}
	return items, nil
}

func (m *Manifest) cycle(placed []bool) error {
	var names []types.QueueName
	for i, res := range m.Resources {
		if !placed[i] {
			names = append(names, res.Name())
		}
	}
	return &CycleError{Queues: names}
}
