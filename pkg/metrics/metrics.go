package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Print server inventory
	QueuesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "printq_queues_total",
			Help: "Number of queues known to the print server by kind",
		},
		[]string{"kind"},
	)

	// External tool metrics
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printq_admin_commands_total",
			Help: "Administration commands issued by tool and result",
		},
		[]string{"tool", "result"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printq_admin_command_duration_seconds",
			Help:    "Administration command latency by tool",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"tool"},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printq_ipp_queries_total",
			Help: "Protocol queries by output mode and result",
		},
		[]string{"mode", "result"},
	)

	QueryFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "printq_ipp_query_fallbacks_total",
			Help: "Compact-mode queries retried in verbose mode",
		},
	)

	// Reconciler metrics
	ResourcesReconciledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printq_resources_reconciled_total",
			Help: "Queue resources reconciled by declared kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printq_reconciliation_duration_seconds",
			Help:    "Duration of a full reconciliation pass in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "printq_reconciliation_cycles_total",
			Help: "Total number of reconciliation passes",
		},
	)

	LastPassSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "printq_last_pass_success",
			Help: "Whether the last pass converged every resource (1) or not (0)",
		},
	)

	LastPassTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "printq_last_pass_timestamp_seconds",
			Help: "Unix time at which the last pass finished",
		},
	)
)

// Result labels for CommandsTotal and QueriesTotal
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

func init() {
	prometheus.MustRegister(QueuesTotal)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(CommandDuration)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryFallbacksTotal)
	prometheus.MustRegister(ResourcesReconciledTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(LastPassSuccess)
	prometheus.MustRegister(LastPassTimestamp)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile dumps the default registry in the text exposition format,
// suitable for the node_exporter textfile collector after a one-shot run.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
