package ipp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/metrics"
	"github.com/cuemby/printq/pkg/process"
	"github.com/cuemby/printq/pkg/types"
	"github.com/rs/zerolog"
)

// Mode is the ipptool output presentation
type Mode string

const (
	// ModeCompact asks ipptool for comma-separated rows (-c)
	ModeCompact Mode = "compact"
	// ModeVerbose asks ipptool for tagged "name (type) = value" lines (-v)
	ModeVerbose Mode = "verbose"
)

// DefaultTool is the ipptool executable looked up on PATH
const DefaultTool = "ipptool"

// DefaultServer is the print server queried when none is configured
const DefaultServer = "localhost"

// QueryError reports a request that failed in both presentation modes
type QueryError struct {
	Command  string
	Request  string
	Stdout   string
	Stderr   string
	ExitCode int
}

func (e *QueryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "IPP query failed with exit code %d\n", e.ExitCode)
	fmt.Fprintf(&b, "command: %s\n", e.Command)
	fmt.Fprintf(&b, "request:\n%s", e.Request)
	fmt.Fprintf(&b, "stdout: %s\n", strings.TrimSpace(e.Stdout))
	fmt.Fprintf(&b, "stderr: %s\n", strings.TrimSpace(e.Stderr))
	fmt.Fprintf(&b, "note: a bare %q on stderr means an empty result and is not reported as an error", StatusOK)
	return b.String()
}

// AttributeNotFoundError is returned when a verbose response cannot be
// parsed because the request names no attribute to display
type AttributeNotFoundError struct {
	Request string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("request has no DISPLAY directive, cannot extract values:\n%s", e.Request)
}

// Options configures a Client
type Options struct {
	// Tool is the ipptool executable
	Tool string
	// Server is host[:port] of the print server
	Server string
}

// Client sends IPP requests through ipptool
type Client struct {
	runner process.Runner
	tool   string
	server string
	logger zerolog.Logger
}

// NewClient creates a query client
func NewClient(runner process.Runner, opts Options) *Client {
	if opts.Tool == "" {
		opts.Tool = DefaultTool
	}
	if opts.Server == "" {
		opts.Server = DefaultServer
	}
	return &Client{
		runner: runner,
		tool:   opts.Tool,
		server: opts.Server,
		logger: log.WithComponent("ipp"),
	}
}

// URI returns the ipp:// URI of a resource path on the configured server
func (c *Client) URI(path string) string {
	return "ipp://" + c.server + path
}

// PrinterPath returns the resource path of a queue, percent-encoding the
// name so that reserved and non-ASCII characters survive
func PrinterPath(queue types.QueueName) string {
	return "/printers/" + url.PathEscape(string(queue))
}

// Query sends req against path and returns the result rows. Compact mode
// is tried first; when it fails the request is repeated in verbose mode,
// whose failure is final.
func (c *Client) Query(ctx context.Context, path string, req *Request) ([]string, error) {
	body := req.Render()

	res, args, err := c.run(ctx, ModeCompact, path, body)
	if err != nil {
		return nil, err
	}
	if res.Success() {
		metrics.QueriesTotal.WithLabelValues(string(ModeCompact), metrics.ResultOK).Inc()
		return parseCompact(res.Stdout), nil
	}

	metrics.QueriesTotal.WithLabelValues(string(ModeCompact), metrics.ResultFailed).Inc()
	metrics.QueryFallbacksTotal.Inc()
	c.logger.Debug().
		Str("operation", req.Operation).
		Str("path", path).
		Int("exit_code", res.ExitCode).
		Str("stdout", res.Stdout).
		Str("stderr", res.Stderr).
		Msg("Compact query failed, retrying in verbose mode")

	res, args, err = c.run(ctx, ModeVerbose, path, body)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		if emptySuccess(res) {
			metrics.QueriesTotal.WithLabelValues(string(ModeVerbose), metrics.ResultOK).Inc()
			return nil, nil
		}
		metrics.QueriesTotal.WithLabelValues(string(ModeVerbose), metrics.ResultFailed).Inc()
		return nil, &QueryError{
			Command:  process.CommandLine(c.tool, args),
			Request:  body,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			ExitCode: res.ExitCode,
		}
	}

	display := displayDirectives(body)
	if len(display) == 0 {
		metrics.QueriesTotal.WithLabelValues(string(ModeVerbose), metrics.ResultFailed).Inc()
		return nil, &AttributeNotFoundError{Request: body}
	}

	metrics.QueriesTotal.WithLabelValues(string(ModeVerbose), metrics.ResultOK).Inc()
	return parseVerbose(res.Stdout, display), nil
}

// AttributeValue reads one attribute of one queue. It returns "" when the
// server reports no value.
func (c *Client) AttributeValue(ctx context.Context, queue types.QueueName, attribute string) (string, error) {
	req := NewRequest(OpGetPrinterAttributes).
		WithPrinterURI().
		ExpectStatus(StatusOK).
		Show(attribute)

	rows, err := c.Query(ctx, PrinterPath(queue), req)
	if err != nil {
		return "", fmt.Errorf("failed to read %s of %s: %w", attribute, queue, err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return Unquote(rows[0]), nil
}

func (c *Client) run(ctx context.Context, mode Mode, path, body string) (process.Result, []string, error) {
	flag := "-c"
	if mode == ModeVerbose {
		flag = "-v"
	}
	args := []string{flag, c.URI(path), "/dev/stdin"}

	c.logger.Debug().Str("mode", string(mode)).Str("uri", c.URI(path)).Msg("Sending IPP request")
	res, err := c.runner.Run(ctx, c.tool, args, body)
	return res, args, err
}

// emptySuccess recognises a response that carried no data and whose only
// diagnostic is the success status itself
func emptySuccess(res process.Result) bool {
	return strings.TrimSpace(res.Stdout) == "" && strings.TrimSpace(res.Stderr) == StatusOK
}
