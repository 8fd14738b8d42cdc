package framework

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Assertions provides test assertion helpers against a FakeCUPS
type Assertions struct {
	t    TestingT
	cups *FakeCUPS
}

// NewAssertions creates a new Assertions instance
func NewAssertions(t TestingT, cups *FakeCUPS) *Assertions {
	return &Assertions{t: t, cups: cups}
}

// QueueExists asserts that a queue exists and returns it
func (a *Assertions) QueueExists(name string) Queue {
	a.t.Helper()

	q, ok := a.cups.Queue(name)
	if !ok {
		a.t.Fatalf("Queue %s does not exist (have %v)", name, a.cups.Names())
	}
	return q
}

// QueueAbsent asserts that a queue does not exist
func (a *Assertions) QueueAbsent(name string) {
	a.t.Helper()

	if _, ok := a.cups.Queue(name); ok {
		a.t.Fatalf("Queue %s still exists", name)
	}
}

// ClassMembers asserts the exact, ordered member list of a class
func (a *Assertions) ClassMembers(name string, members ...string) {
	a.t.Helper()

	q := a.QueueExists(name)
	if !q.Class {
		a.t.Fatalf("Queue %s is a printer, expected a class", name)
	}
	if strings.Join(q.Members, ",") != strings.Join(members, ",") {
		a.t.Fatalf("Class %s has members %v, expected %v", name, q.Members, members)
	}
}

// NoAdminCalls asserts that nothing but queries reached the server
func (a *Assertions) NoAdminCalls() {
	a.t.Helper()

	if calls := a.cups.AdminCalls(); len(calls) > 0 {
		a.t.Fatalf("Expected no administrative calls, got:\n%s", formatCalls(calls))
	}
}

// CountCalls returns how many calls to tool carried args
func (a *Assertions) CountCalls(tool string, args ...string) int {
	return lo.CountBy(a.cups.Calls(), func(c Call) bool {
		return c.Name == tool && c.Has(args...)
	})
}

// CallIndex returns the position of the first call to tool carrying args
// among the administrative calls, or -1
func (a *Assertions) CallIndex(tool string, args ...string) int {
	_, idx, ok := lo.FindIndexOf(a.cups.AdminCalls(), func(c Call) bool {
		return c.Name == tool && c.Has(args...)
	})
	if !ok {
		return -1
	}
	return idx
}

// CallBefore asserts that both calls happened and the first one came first
func (a *Assertions) CallBefore(first, second []string) {
	a.t.Helper()

	i := a.CallIndex(first[0], first[1:]...)
	j := a.CallIndex(second[0], second[1:]...)
	if i < 0 || j < 0 {
		a.t.Fatalf("Expected calls %v and %v, got:\n%s", first, second, formatCalls(a.cups.AdminCalls()))
	}
	if i >= j {
		a.t.Fatalf("Expected %v before %v, got:\n%s", first, second, formatCalls(a.cups.AdminCalls()))
	}
}

// NoCall asserts that tool was never invoked with args
func (a *Assertions) NoCall(tool string, args ...string) {
	a.t.Helper()

	if n := a.CountCalls(tool, args...); n > 0 {
		a.t.Fatalf("Expected no %s %v call, got %d:\n%s", tool, args, n, formatCalls(a.cups.Calls()))
	}
}

// Eventually repeatedly runs a condition until it returns true or timeout occurs
func (a *Assertions) Eventually(condition func() bool, timeout, interval time.Duration, msg string) {
	a.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := PollUntil(ctx, interval, condition); err != nil {
		a.t.Fatalf("Timeout waiting for condition: %s (timeout: %v)", msg, timeout)
	}
}

// Step logs a test step (for visibility in test output)
func (a *Assertions) Step(step string) {
	a.t.Helper()
	a.t.Logf("\n==> %s", step)
}

// DumpCalls logs every recorded call (non-failing)
func (a *Assertions) DumpCalls() {
	a.t.Helper()
	a.t.Logf("calls:\n%s", formatCalls(a.cups.Calls()))
}

func formatCalls(calls []Call) string {
	lines := lo.Map(calls, func(c Call, i int) string {
		return "  " + c.String()
	})
	return strings.Join(lines, "\n")
}
