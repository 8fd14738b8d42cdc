package metrics

import (
	"context"
	"time"
)

// Inventory reports how many printers and classes the print server knows.
// It must not fail; implementations degrade to zero counts.
type Inventory interface {
	Count(ctx context.Context) (printers, classes int)
}

// Collector periodically refreshes the queue inventory gauges
type Collector struct {
	inventory Inventory
	interval  time.Duration
	stopCh    chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(inv Inventory, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Collector{
		inventory: inv,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	printers, classes := c.inventory.Count(context.Background())
	QueuesTotal.WithLabelValues("printer").Set(float64(printers))
	QueuesTotal.WithLabelValues("class").Set(float64(classes))
}
