package framework

import (
	"context"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cuemby/printq/pkg/process"
)

// FakeCUPS emulates a CUPS server behind ipptool, lpadmin, lpoptions and
// the cups{accept,reject,enable,disable} tools. It implements
// process.Runner and records every call.
type FakeCUPS struct {
	// Models, PPDs and Interfaces resolve lpadmin -m, -P and -i arguments
	Models     map[string]Driver
	PPDs       map[string]Driver
	Interfaces map[string]Driver

	// CompactBroken makes every ipptool -c invocation fail without output
	CompactBroken bool

	// EnforceACL makes cupsenable fail when the queue's ACL blocks Operator,
	// the way cupsd rejects an unprivileged bootstrap account
	EnforceACL bool
	Operator   string

	mu     sync.Mutex
	queues map[string]*Queue
	calls  []Call
	fail   map[string]int
}

// NewFakeCUPS creates an empty fake server
func NewFakeCUPS() *FakeCUPS {
	return &FakeCUPS{
		Models:     make(map[string]Driver),
		PPDs:       make(map[string]Driver),
		Interfaces: make(map[string]Driver),
		Operator:   "root",
		queues:     make(map[string]*Queue),
		fail:       make(map[string]int),
	}
}

// AddPrinter installs a printer as if it had been created earlier
func (f *FakeCUPS) AddPrinter(q Queue) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q.Class = false
	if q.Native == nil {
		q.Native = defaultNative(false)
	}
	if q.MakeAndModel == "" {
		q.MakeAndModel = "Local Raw Printer"
	}
	f.queues[lower(q.Name)] = q.clone()
}

// AddClass installs a class with the given members
func (f *FakeCUPS) AddClass(name string, members ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queues[lower(name)] = &Queue{
		Name:         name,
		Class:        true,
		Members:      members,
		MakeAndModel: "Local Printer Class",
		Accepting:    true,
		Enabled:      true,
		Native:       defaultNative(true),
	}
}

// Queue returns a copy of the named queue
func (f *FakeCUPS) Queue(name string) (Queue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q, ok := f.queues[lower(name)]
	if !ok {
		return Queue{}, false
	}
	return *q.clone(), true
}

// Names returns every queue name, sorted case-insensitively
func (f *FakeCUPS) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedNames(false)
}

func (f *FakeCUPS) sortedNames(classesOnly bool) []string {
	var names []string
	for _, q := range f.queues {
		if classesOnly && !q.Class {
			continue
		}
		names = append(names, q.Name)
	}
	sort.Slice(names, func(i, j int) bool {
		return lower(names[i]) < lower(names[j])
	})
	return names
}

// FailCommand makes every invocation of tool exit with code
func (f *FakeCUPS) FailCommand(tool string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[tool] = code
}

// Calls returns every recorded invocation
func (f *FakeCUPS) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// AdminCalls returns the invocations that may change server state, leaving
// out ipptool queries and lpoptions listings
func (f *FakeCUPS) AdminCalls() []Call {
	var out []Call
	for _, c := range f.Calls() {
		switch c.Name {
		case "ipptool":
			continue
		case "lpoptions":
			if c.Has("-l") {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// ResetCalls forgets recorded invocations
func (f *FakeCUPS) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Run dispatches a command line to the emulated tool
func (f *FakeCUPS) Run(ctx context.Context, name string, args []string, stdin string) (process.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tool := filepath.Base(name)
	f.calls = append(f.calls, Call{Name: tool, Args: append([]string(nil), args...), Stdin: stdin})

	if code, ok := f.fail[tool]; ok {
		return process.Result{ExitCode: code, Stderr: tool + ": simulated failure\n"}, nil
	}

	switch tool {
	case "ipptool":
		return f.ipptool(args, stdin), nil
	case "lpadmin":
		return f.lpadmin(args), nil
	case "lpoptions":
		return f.lpoptions(args), nil
	case "cupsaccept", "cupsreject", "cupsenable", "cupsdisable":
		return f.queueState(tool, args), nil
	}
	return process.Result{}, &process.SpawnError{Command: name, Err: exec.ErrNotFound}
}

func failure(code int, format string) process.Result {
	return process.Result{ExitCode: code, Stderr: format + "\n"}
}
