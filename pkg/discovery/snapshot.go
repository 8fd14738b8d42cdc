package discovery

import (
	"github.com/cuemby/printq/pkg/types"
)

// Snapshot is the inventory of the print server at one instant
type Snapshot struct {
	Queues  []types.QueueName
	Classes map[types.QueueName]types.ClassMembership
}

// Kind reports what name currently denotes
func (s *Snapshot) Kind(name types.QueueName) types.QueueKind {
	if _, ok := s.class(name); ok {
		return types.KindClass
	}
	for _, q := range s.Queues {
		if q.Equal(name) {
			return types.KindPrinter
		}
	}
	return types.KindAbsent
}

// Members returns the member list of a class, or nil
func (s *Snapshot) Members(name types.QueueName) types.ClassMembership {
	members, _ := s.class(name)
	return members
}

// Printers lists the queues that are not classes
func (s *Snapshot) Printers() []types.QueueName {
	return excludeClasses(s.Queues, s.Classes)
}

// ClassNames lists the classes, sorted
func (s *Snapshot) ClassNames() []types.QueueName {
	names := make([]types.QueueName, 0, len(s.Classes))
	for n := range s.Classes {
		names = append(names, n)
	}
	return sortNames(names)
}

func (s *Snapshot) class(name types.QueueName) (types.ClassMembership, bool) {
	for n, members := range s.Classes {
		if n.Equal(name) {
			return members, true
		}
	}
	return nil, false
}
