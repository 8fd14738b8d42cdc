package health

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/printq/pkg/log"
	"github.com/cuemby/printq/pkg/metrics"
	"github.com/rs/zerolog"
)

// Monitor runs a checker at a fixed interval and reports the outcome as
// the server probe component of the /health endpoint
type Monitor struct {
	checker Checker
	config  Config
	logger  zerolog.Logger

	mu     sync.RWMutex
	status *Status

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMonitor creates a monitor; zero config fields take their defaults
func NewMonitor(checker Checker, config Config) *Monitor {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.Retries <= 0 {
		config.Retries = def.Retries
	}
	return &Monitor{
		checker: checker,
		config:  config,
		logger:  log.WithComponent("health"),
		status:  NewStatus(),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins probing. The first check runs immediately.
func (m *Monitor) Start() {
	go m.run()
}

// Stop stops probing and waits for a running check
func (m *Monitor) Stop() {
	close(m.stopCh)
	<-m.doneCh
}

// Status returns a copy of the current status
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.status
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.CheckNow(context.Background())
	for {
		select {
		case <-ticker.C:
			m.CheckNow(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// CheckNow performs one check and records it
func (m *Monitor) CheckNow(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	result := m.checker.Check(ctx)

	m.mu.Lock()
	wasHealthy := m.status.Healthy
	m.status.Update(result, m.config)
	healthy := m.status.Healthy
	m.mu.Unlock()

	if wasHealthy && !healthy {
		m.logger.Warn().Str("check", string(m.checker.Type())).Str("result", result.Message).Msg("Print server unreachable")
	} else if !wasHealthy && healthy {
		m.logger.Info().Str("check", string(m.checker.Type())).Msg("Print server reachable again")
	}
	metrics.UpdateComponent(metrics.ComponentServerProbe, healthy, result.Message)
	return result
}
