/*
Package metrics provides Prometheus metrics and agent health reporting for printq.

All collectors are registered on the default Prometheus registry at package
init. They are exposed over HTTP by the agent (Handler, HealthHandler) or
written once to a textfile after a one-shot apply (WriteTextfile), for the
node_exporter textfile collector.

# Metrics

	printq_queues_total{kind}                      gauge, refreshed by Collector
	printq_admin_commands_total{tool,result}       counter
	printq_ipp_queries_total{mode,result}          counter
	printq_ipp_query_fallbacks_total               counter
	printq_resources_reconciled_total{kind,outcome} counter
	printq_reconciliation_duration_seconds         histogram
	printq_reconciliation_cycles_total             counter
	printq_last_pass_success                       gauge
	printq_last_pass_timestamp_seconds             gauge

# Timer Pattern

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconciliationDuration)

# Health

Components report their state with UpdateComponent; the agent serves the
aggregate on /health and answers 503 while any component is unhealthy.
*/
package metrics
