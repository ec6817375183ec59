/*
Package metrics defines and registers the scheduler's Prometheus metrics:
executor/slot/job/task gauges, RPC request counters and latency
histograms, and dispatch-loop counters. Metrics are exposed over HTTP via
Handler() for scraping.

Most metrics are updated inline by the RPC handlers in pkg/scheduler as
events happen. Collector supplements that with a 15s poll over pkg/state
for the aggregates no single RPC call naturally keeps current — executor
count, total free slots, and the task count broken down by state:

	collector := metrics.NewCollector(st)
	collector.Start()
	defer collector.Stop()

Timer is a small helper for observing a histogram's duration around a
block of code:

	timer := metrics.NewTimer()
	// ... work ...
	timer.ObserveDuration(metrics.PlanningDuration)
*/
package metrics
