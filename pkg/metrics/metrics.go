// Package metrics provides the central Prometheus registry reference for the
// CMDB inventory client. All metrics are defined in their respective packages
// (batch, client, cache) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the CMDB client.
// All metrics are automatically registered via promauto in their respective
// packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Batch Aggregation Metrics (pkg/batch):
//   - cmdb_batch_pages_total{api} (Counter): Page requests issued (probe included)
//   - cmdb_batch_failures_total{api, phase} (Counter): Aborted aggregations by phase (probe, page)
//   - cmdb_batch_duration_seconds{api} (Histogram): End-to-end aggregation duration
//
// Request Metrics (pkg/client):
//   - cmdb_requests_total{api, status} (Counter): Requests by API and HTTP status
//     (status "cache" marks responses served from cache)
//   - cmdb_request_duration_seconds{api} (Histogram): Request duration by API
//   - cmdb_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Cache Metrics (pkg/cache):
//   - cmdb_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - cmdb_cache_misses_total (Counter): Cache misses
//   - cmdb_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - cmdb_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(cmdb_cache_hits_total[5m])) /
//   (sum(rate(cmdb_cache_hits_total[5m])) + sum(rate(cmdb_cache_misses_total[5m])))
//
//   # Aggregation Failure Rate by API
//   rate(cmdb_batch_failures_total[5m])
//
//   # P95 Aggregation Latency
//   histogram_quantile(0.95, rate(cmdb_batch_duration_seconds_bucket[5m]))
