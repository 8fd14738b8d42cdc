package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cuemby/printq/pkg/log"
)

// Result is the captured outcome of one external command
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command exited with status 0
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes external commands. A non-zero exit status is reported in
// the Result, never as an error.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin string) (Result, error)
}

// SpawnError is returned when the executable could not be started at all
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands on the local host through os/exec
type ExecRunner struct {
	// Env is appended to the inherited environment when non-empty
	Env []string
}

// NewExecRunner creates a runner for the local host
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args, feeding stdin, and blocks until it exits
func (e *ExecRunner) Run(ctx context.Context, name string, args []string, stdin string) (Result, error) {
	start := time.Now()
	logger := log.WithComponent("process")

	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug().Str("command", name).Strs("args", args).Msg("Running command")

	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		// cancellation is the caller's error, not a failure to spawn
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, &SpawnError{Command: name, Err: err}
		}
		result.ExitCode = exitErr.ExitCode()
	}

	logger.Debug().
		Str("command", name).
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Msg("Command finished")

	return result, nil
}

// CommandLine renders name and args as a single shell-like string for
// diagnostics. Arguments containing whitespace are single-quoted.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\n'\"") {
			arg = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}
