/*
Package metrics provides Prometheus metrics for the ingress controller.

Metrics are registered at package init and exposed over HTTP via Handler()
for scraping. The set is intentionally small: reconciliation cadence and
outcome, ACME order outcome and duration, DH-param rotation, and challenge
responder hit rate are the numbers that matter for operating this
controller — there is no per-request proxy telemetry because request
proxying itself is out of scope (see the root DESIGN.md).

# Usage

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconciliationDuration)
	metrics.ReconciliationCyclesTotal.Inc()

	metrics.ACMEOrdersTotal.WithLabelValues("issued").Inc()
*/
package metrics
