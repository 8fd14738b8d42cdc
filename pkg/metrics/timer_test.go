package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimer(t *testing.T) {
	timer := NewTimer()
	require.NotNil(t, timer)
	assert.False(t, timer.start.IsZero())
	assert.Less(t, time.Since(timer.start), time.Second)
}

func TestTimerDurationIncreases(t *testing.T) {
	timer := NewTimer()

	time.Sleep(10 * time.Millisecond)
	first := timer.Duration()
	time.Sleep(10 * time.Millisecond)
	second := timer.Duration()

	assert.GreaterOrEqual(t, first, 10*time.Millisecond)
	assert.Greater(t, second, first)
}

func TestTimerObserveDuration(t *testing.T) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "test_pass_duration_seconds",
		Help: "Test histogram",
	})

	NewTimer().ObserveDuration(histogram)

	m := &dto.Metric{}
	require.NoError(t, histogram.Write(m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}

func TestTimerObserveDurationVec(t *testing.T) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "test_query_duration_seconds",
		Help: "Test histogram vec",
	}, []string{"mode"})

	timer := NewTimer()
	timer.ObserveDurationVec(vec, "compact")
	timer.ObserveDurationVec(vec, "compact")

	m := &dto.Metric{}
	require.NoError(t, vec.WithLabelValues("compact").(prometheus.Histogram).Write(m))
	assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
}
