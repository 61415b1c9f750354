// Package http serves the operational endpoints of a running experiment:
// GET /healthz with run progress, GET /version with build information and,
// when the Prometheus exporter is enabled, GET /metrics.
package http
