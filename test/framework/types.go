package framework

import (
	"strings"

	"github.com/cuemby/printq/pkg/process"
)

// TestingT is an interface matching testing.T
type TestingT interface {
	Logf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	FailNow()
	Helper()
}

// Call is one recorded invocation of an external tool
type Call struct {
	Name  string
	Args  []string
	Stdin string
}

func (c Call) String() string {
	return process.CommandLine(c.Name, c.Args)
}

// Has reports whether the call's arguments contain every given argument in
// that order, contiguously
func (c Call) Has(args ...string) bool {
	for i := 0; i+len(args) <= len(c.Args); i++ {
		match := true
		for j, a := range args {
			if c.Args[i+j] != a {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// VendorOption is a driver option as lpoptions -l lists it
type VendorOption struct {
	Key     string
	Label   string
	Choices []string
	Default string
}

// Driver is what a model, PPD or interface script installs
type Driver struct {
	MakeAndModel string
	Options      []VendorOption
}

// Queue is the fake server's view of one printer or class
type Queue struct {
	Name         string
	Class        bool
	Members      []string
	DeviceURI    string
	MakeAndModel string
	Info         string
	Location     string
	Shared       bool
	Accepting    bool
	Enabled      bool
	Held         bool
	Allowed      []string
	Denied       []string
	AuthInfo     string
	Native       map[string]string
	Vendor       []VendorOption
}

func (q *Queue) clone() *Queue {
	c := *q
	c.Members = append([]string(nil), q.Members...)
	c.Allowed = append([]string(nil), q.Allowed...)
	c.Denied = append([]string(nil), q.Denied...)
	c.Native = make(map[string]string, len(q.Native))
	for k, v := range q.Native {
		c.Native[k] = v
	}
	c.Vendor = append([]VendorOption(nil), q.Vendor...)
	return &c
}

func defaultNative(class bool) map[string]string {
	policy := "stop-printer"
	if class {
		policy = "retry-current-job"
	}
	return map[string]string{
		"job-k-limit":          "0",
		"job-page-limit":       "0",
		"job-quota-period":     "0",
		"job-sheets-default":   "none,none",
		"port-monitor":         "none",
		"printer-error-policy": policy,
		"printer-op-policy":    "default",
	}
}

func lower(s string) string {
	return strings.ToLower(s)
}
