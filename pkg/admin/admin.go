package admin

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/metrics"
	"github.com/cuemby/printq/pkg/process"
	"github.com/cuemby/printq/pkg/types"
	"github.com/rs/zerolog"
)

// NullDevice is the device URI a freshly created queue is bound to
const NullDevice = "file:///dev/null"

// Tools holds the administration executables
type Tools struct {
	LPAdmin     string
	LPOptions   string
	CupsAccept  string
	CupsReject  string
	CupsEnable  string
	CupsDisable string
}

// DefaultTools looks every tool up on PATH
func DefaultTools() Tools {
	return Tools{
		LPAdmin:     "lpadmin",
		LPOptions:   "lpoptions",
		CupsAccept:  "cupsaccept",
		CupsReject:  "cupsreject",
		CupsEnable:  "cupsenable",
		CupsDisable: "cupsdisable",
	}
}

// ConvergenceError reports an administration command that exited non-zero
type ConvergenceError struct {
	Queue    types.QueueName
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ConvergenceError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Stdout)
	}
	return fmt.Sprintf("queue %s: %s exited with code %d: %s", e.Queue, e.Command, e.ExitCode, msg)
}

// Admin issues administration commands, one external invocation each
type Admin struct {
	runner process.Runner
	tools  Tools
	logger zerolog.Logger
}

// New creates the administration surface. Empty tool paths fall back to
// DefaultTools.
func New(runner process.Runner, tools Tools) *Admin {
	def := DefaultTools()
	fill := func(v *string, d string) {
		if *v == "" {
			*v = d
		}
	}
	fill(&tools.LPAdmin, def.LPAdmin)
	fill(&tools.LPOptions, def.LPOptions)
	fill(&tools.CupsAccept, def.CupsAccept)
	fill(&tools.CupsReject, def.CupsReject)
	fill(&tools.CupsEnable, def.CupsEnable)
	fill(&tools.CupsDisable, def.CupsDisable)

	return &Admin{
		runner: runner,
		tools:  tools,
		logger: log.WithComponent("admin"),
	}
}

// CreateMinimal creates a printer bound to the null device
func (a *Admin) CreateMinimal(ctx context.Context, name types.QueueName) error {
	return a.lpadmin(ctx, name, "-p", string(name), "-v", NullDevice)
}

// Delete removes a printer or class
func (a *Admin) Delete(ctx context.Context, name types.QueueName) error {
	return a.lpadmin(ctx, name, "-x", string(name))
}

// AddMember appends a printer to a class, creating the class if needed
func (a *Admin) AddMember(ctx context.Context, member, class types.QueueName) error {
	return a.lpadmin(ctx, class, "-p", string(member), "-c", string(class))
}

// SetDeviceURI points a printer at a device
func (a *Admin) SetDeviceURI(ctx context.Context, name types.QueueName, uri string) error {
	return a.lpadmin(ctx, name, "-p", string(name), "-v", uri)
}

// SetModel installs a driver from the model catalog
func (a *Admin) SetModel(ctx context.Context, name types.QueueName, model string) error {
	return a.lpadmin(ctx, name, "-p", string(name), "-m", model)
}

// SetPPD installs a PPD file
func (a *Admin) SetPPD(ctx context.Context, name types.QueueName, path string) error {
	return a.lpadmin(ctx, name, "-p", string(name), "-P", path)
}

// SetInterface installs an interface script
func (a *Admin) SetInterface(ctx context.Context, name types.QueueName, path string) error {
	return a.lpadmin(ctx, name, "-p", string(name), "-i", path)
}

// Install applies an installation method
func (a *Admin) Install(ctx context.Context, name types.QueueName, method types.InstallMethod, arg string) error {
	switch method {
	case types.InstallModel:
		return a.SetModel(ctx, name, arg)
	case types.InstallPPD:
		return a.SetPPD(ctx, name, arg)
	case types.InstallInterface:
		return a.SetInterface(ctx, name, arg)
	}
	return nil
}

// SetDescription sets printer-info
func (a *Admin) SetDescription(ctx context.Context, name types.QueueName, text string) error {
	return a.lpadmin(ctx, name, "-p", string(name), "-D", text)
}

// SetLocation sets printer-location
func (a *Admin) SetLocation(ctx context.Context, name types.QueueName, text string) error {
	return a.lpadmin(ctx, name, "-p", string(name), "-L", text)
}

// SetShared publishes or hides the queue
func (a *Admin) SetShared(ctx context.Context, name types.QueueName, shared bool) error {
	return a.SetOption(ctx, name, "printer-is-shared", strconv.FormatBool(shared))
}

// SetOption sets one native or vendor option
func (a *Admin) SetOption(ctx context.Context, name types.QueueName, key, value string) error {
	return a.lpadmin(ctx, name, "-p", string(name), "-o", key+"="+value)
}

// SetACL replaces the access control of a queue
func (a *Admin) SetACL(ctx context.Context, name types.QueueName, acl types.AccessControl) error {
	return a.lpadmin(ctx, name, "-p", string(name), "-u", acl.Normalize().String())
}

// Accept makes the queue accept new jobs
func (a *Admin) Accept(ctx context.Context, name types.QueueName) error {
	return a.run(ctx, name, a.tools.CupsAccept, "-E", string(name))
}

// Reject makes the queue reject new jobs
func (a *Admin) Reject(ctx context.Context, name types.QueueName) error {
	return a.run(ctx, name, a.tools.CupsReject, "-E", string(name))
}

// Enable starts the queue
func (a *Admin) Enable(ctx context.Context, name types.QueueName) error {
	return a.run(ctx, name, a.tools.CupsEnable, "-E", string(name))
}

// Disable stops the queue
func (a *Admin) Disable(ctx context.Context, name types.QueueName) error {
	return a.run(ctx, name, a.tools.CupsDisable, "-E", string(name))
}

// Hold holds new jobs
func (a *Admin) Hold(ctx context.Context, name types.QueueName) error {
	return a.run(ctx, name, a.tools.CupsDisable, "-E", "--hold", string(name))
}

// Release releases held jobs
func (a *Admin) Release(ctx context.Context, name types.QueueName) error {
	return a.run(ctx, name, a.tools.CupsEnable, "-E", "--release", string(name))
}

// ListOptions returns the vendor options of a queue with their current
// values
func (a *Admin) ListOptions(ctx context.Context, name types.QueueName) (map[string]string, error) {
	res, err := a.exec(ctx, name, a.tools.LPOptions, "-E", "-p", string(name), "-l")
	if err != nil {
		return nil, err
	}
	return ParseOptionListing(res.Stdout), nil
}

// ParseOptionListing reads `Key/Label: choice *current choice` lines. Lines
// without a marked choice are skipped.
func ParseOptionListing(stdout string) map[string]string {
	options := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		head, choices, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key, _, _ := strings.Cut(head, "/")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		for _, choice := range strings.Fields(choices) {
			if strings.HasPrefix(choice, "*") {
				options[key] = strings.TrimPrefix(choice, "*")
				break
			}
		}
	}
	return options
}

func (a *Admin) lpadmin(ctx context.Context, queue types.QueueName, args ...string) error {
	return a.run(ctx, queue, a.tools.LPAdmin, append([]string{"-E"}, args...)...)
}

func (a *Admin) run(ctx context.Context, queue types.QueueName, tool string, args ...string) error {
	if _, err := a.exec(ctx, queue, tool, args...); err != nil {
		return err
	}
	a.logger.Info().
		Str("queue", string(queue)).
		Str("command", process.CommandLine(tool, args)).
		Msg("Applied change")
	return nil
}

func (a *Admin) exec(ctx context.Context, queue types.QueueName, tool string, args ...string) (process.Result, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.CommandDuration, toolLabel(tool))

	res, err := a.runner.Run(ctx, tool, args, "")
	if err != nil {
		metrics.CommandsTotal.WithLabelValues(toolLabel(tool), metrics.ResultFailed).Inc()
		return res, fmt.Errorf("queue %s: %w", queue, err)
	}
	if !res.Success() {
		metrics.CommandsTotal.WithLabelValues(toolLabel(tool), metrics.ResultFailed).Inc()
		return res, &ConvergenceError{
			Queue:    queue,
			Command:  process.CommandLine(tool, args),
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
		}
	}
	metrics.CommandsTotal.WithLabelValues(toolLabel(tool), metrics.ResultOK).Inc()
	return res, nil
}

// toolLabel keeps metric label values independent of configured paths
func toolLabel(tool string) string {
	if i := strings.LastIndexByte(tool, '/'); i >= 0 {
		return tool[i+1:]
	}
	return tool
}
