// Package api exposes the scheduler's HTTP-facing operational surface:
// liveness/readiness probes and the Prometheus /metrics endpoint, served
// alongside (not instead of) the gRPC control plane in pkg/scheduler.
package api

// Version is stamped into /health responses.
const Version = "0.1.0"
