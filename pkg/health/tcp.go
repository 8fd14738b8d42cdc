package health

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPChecker checks that the print server accepts connections
type TCPChecker struct {
	// Address is host:port of cupsd
	Address string

	// Timeout is the connection timeout (default: 5 seconds)
	Timeout time.Duration
}

// NewTCPChecker creates a checker for a host[:port] server setting
func NewTCPChecker(server string) *TCPChecker {
	return &TCPChecker{
		Address: ServerAddress(server),
		Timeout: 5 * time.Second,
	}
}

// Check dials the server once
func (t *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{Timeout: t.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("connection failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	defer conn.Close()

	return Result{
		Healthy:   true,
		Message:   fmt.Sprintf("cupsd reachable at %s", t.Address),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the check type
func (t *TCPChecker) Type() CheckType {
	return CheckTypeTCP
}
