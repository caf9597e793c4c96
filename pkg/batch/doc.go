// Package batch aggregates large paginated CMDB result sets into a single
// in-memory collection.
//
// The fetcher issues a probe request for one record to learn the total count,
// partitions the remaining range into offset/limit windows, fetches all
// windows in parallel through a bounded worker pool, and concatenates the
// per-window item lists in window order. The merged output therefore matches
// the ordering a single unpaginated request would have produced, as long as
// the remote service returns records in a stable order per offset.
//
// Example usage:
//
//	cfg := batch.DefaultConfig()
//	fetcher := batch.NewFetcher("list_biz_hosts", call, extractors, cfg)
//	hosts := fetcher.FetchAll(ctx)
//
// The aggregation is all-or-nothing: a failed probe or a failed page window
// discards every record fetched for that call and yields an empty result. No
// window is retried and no in-flight window is cancelled when a sibling
// fails; the fetcher always drains the pool before inspecting results.
package batch
