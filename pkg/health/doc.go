/*
Package health probes the print server independently of reconciliation
passes.

Passes may be half an hour apart; the agent still wants /health to turn red
soon after cupsd goes away. A Monitor runs one Checker at a fixed interval
and publishes the result as the "cups-probe" component:

	┌─────────┐   every Interval   ┌─────────────┐   UpdateComponent   ┌──────────┐
	│ Monitor │ ─────────────────▶ │   Checker   │ ──────────────────▶ │ /health  │
	└─────────┘                    │ TCP | HTTP  │                     └──────────┘
	                               └─────────────┘

TCPChecker only dials host:631. HTTPChecker requests the root page of the
cupsd web interface, which proves the scheduler answers requests; redirects
are not followed and count as alive.

A single failure is tolerated: the server is reported unreachable after
Retries consecutive failures and reachable again after the first success.

	probe := health.NewMonitor(health.NewHTTPChecker("cups.example.com"), health.DefaultConfig())
	probe.Start()
	defer probe.Stop()
*/
package health
