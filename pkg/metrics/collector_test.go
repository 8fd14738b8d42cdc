package metrics

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticInventory struct {
	printers, classes int
}

func (s staticInventory) Count(ctx context.Context) (int, int) {
	return s.printers, s.classes
}

func gaugeValue(t *testing.T, kind string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, QueuesTotal.WithLabelValues(kind).Write(m))
	return m.GetGauge().GetValue()
}

func TestCollectorCollect(t *testing.T) {
	c := NewCollector(staticInventory{printers: 3, classes: 2}, time.Hour)
	c.collect()

	assert.Equal(t, float64(3), gaugeValue(t, "printer"))
	assert.Equal(t, float64(2), gaugeValue(t, "class"))
}

func TestNewCollectorDefaultInterval(t *testing.T) {
	c := NewCollector(staticInventory{}, 0)
	assert.Equal(t, time.Minute, c.interval)
}
