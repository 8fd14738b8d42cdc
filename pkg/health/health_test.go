package health

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cuemby/printq/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerAddress(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"localhost", "localhost:631"},
		{"cups.example.com:8631", "cups.example.com:8631"},
		{"::1", "[::1]:631"},
		{"[::1]:631", "[::1]:631"},
	}
	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			assert.Equal(t, tt.want, ServerAddress(tt.server))
		})
	}
}

func TestHTTPChecker(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		healthy bool
	}{
		{"ok", http.StatusOK, true},
		{"upgrade required", http.StatusUpgradeRequired, false},
		{"moved", http.StatusMovedPermanently, true},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status == http.StatusMovedPermanently {
					w.Header().Set("Location", "https://example.invalid/")
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			checker := NewHTTPChecker(strings.TrimPrefix(server.URL, "http://"))
			result := checker.Check(context.Background())
			assert.Equal(t, tt.healthy, result.Healthy, result.Message)
			assert.Equal(t, CheckTypeHTTP, checker.Type())
		})
	}
}

func TestTCPChecker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	checker := NewTCPChecker(addr)
	assert.True(t, checker.Check(context.Background()).Healthy)

	require.NoError(t, ln.Close())
	result := checker.Check(context.Background())
	assert.False(t, result.Healthy)
	assert.Contains(t, result.Message, "connection failed")
}

func TestStatus_Update(t *testing.T) {
	cfg := Config{Retries: 2}
	s := NewStatus()

	s.Update(Result{Healthy: false}, cfg)
	assert.True(t, s.Healthy, "one failure is tolerated")
	s.Update(Result{Healthy: false}, cfg)
	assert.False(t, s.Healthy)
	assert.Equal(t, 2, s.ConsecutiveFailures)

	s.Update(Result{Healthy: true}, cfg)
	assert.True(t, s.Healthy)
	assert.Equal(t, 0, s.ConsecutiveFailures)
	assert.Equal(t, 1, s.ConsecutiveSuccesses)
}

type stubChecker struct {
	healthy bool
}

func (s *stubChecker) Check(ctx context.Context) Result {
	return Result{Healthy: s.healthy, Message: "stub", CheckedAt: time.Now()}
}

func (s *stubChecker) Type() CheckType {
	return CheckTypeTCP
}

func TestMonitor_ReportsComponent(t *testing.T) {
	stub := &stubChecker{healthy: false}
	m := NewMonitor(stub, Config{Retries: 1, Interval: time.Hour})

	m.CheckNow(context.Background())
	assert.False(t, m.Status().Healthy)
	assert.Equal(t, "unhealthy: stub", metrics.GetHealth().Components[metrics.ComponentServerProbe])

	stub.healthy = true
	m.CheckNow(context.Background())
	assert.True(t, m.Status().Healthy)
}

func TestMonitor_StartStop(t *testing.T) {
	m := NewMonitor(&stubChecker{healthy: true}, Config{Interval: time.Hour})
	m.Start()
	m.Stop()
	assert.Equal(t, 1, m.Status().ConsecutiveSuccesses)
}
