package batch

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Prometheus metrics for batch aggregation.
var (
	batchPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmdb_batch_pages_total",
		Help: "Total page requests issued by the batch fetcher, by API",
	}, []string{"api"})

	batchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cmdb_batch_failures_total",
		Help: "Total aborted aggregations by API and phase",
	}, []string{"api", "phase"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cmdb_batch_duration_seconds",
		Help:    "Aggregation duration in seconds by API",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"api"})
)

// DefaultLimit is the page size used when Config.Limit is not set.
const DefaultLimit = 500

// Config holds batch fetcher configuration.
type Config struct {
	// Limit is the page size requested per window.
	Limit int

	// MaxConcurrency is the maximum number of parallel page requests.
	MaxConcurrency int

	// Logger receives probe and page failure events.
	Logger zerolog.Logger
}

// DefaultConfig returns a safe default configuration. Concurrency follows the
// CPU count since the CMDB list APIs impose no documented parallelism bound.
func DefaultConfig() Config {
	return Config{
		Limit:          DefaultLimit,
		MaxConcurrency: runtime.NumCPU(),
		Logger:         log.With().Str("component", "batch").Logger(),
	}
}

// PageFunc performs one paginated request for the given window. Fixed request
// parameters are bound by the caller; the fetcher only varies the window.
// Implementations must be safe to invoke concurrently with distinct windows.
type PageFunc[P any] func(ctx context.Context, window Window) (P, error)

// Extractors pull the success flag, total record count, and item list out of
// a response envelope. Count is consulted only on the probe response.
type Extractors[P, R any] struct {
	OK    func(P) bool
	Count func(P) int
	Items func(P) []R
}

// pageTask is one scheduled window with its resolved response. It is written
// exactly once by the worker that owns the window and read only after the
// pool has drained.
type pageTask[P any] struct {
	window Window
	resp   P
	err    error
}

// Fetcher aggregates one paginated result set into a single slice.
type Fetcher[P, R any] struct {
	api     string
	call    PageFunc[P]
	extract Extractors[P, R]
	config  Config
}

// NewFetcher creates a fetcher for one API call. api identifies the remote
// call in logs and metrics. Zero Limit and MaxConcurrency fall back to the
// defaults; use DefaultConfig for a ready-made logger.
func NewFetcher[P, R any](api string, call PageFunc[P], extract Extractors[P, R], config Config) *Fetcher[P, R] {
	if config.Limit <= 0 {
		config.Limit = DefaultLimit
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = runtime.NumCPU()
	}

	return &Fetcher[P, R]{
		api:     api,
		call:    call,
		extract: extract,
		config:  config,
	}
}

// FetchAll fetches every record of the paginated result set.
//
// It probes the API with a single-record window to learn the total count,
// fans out one request per page window through a bounded worker pool, waits
// for every window to finish, and merges the responses in window order.
//
// Failures are not returned: a failed probe or a failed page aborts the whole
// aggregation and yields an empty result, with the cause logged. Callers
// cannot distinguish "zero records" from "a request failed" by the return
// value alone.
func (f *Fetcher[P, R]) FetchAll(ctx context.Context) []R {
	start := time.Now()
	defer func() {
		batchDuration.WithLabelValues(f.api).Observe(time.Since(start).Seconds())
	}()

	// Probe for the total record count.
	probe, err := f.call(ctx, Window{Start: 0, Limit: 1})
	batchPagesTotal.WithLabelValues(f.api).Inc()
	if err != nil || !f.extract.OK(probe) {
		batchFailuresTotal.WithLabelValues(f.api, "probe").Inc()
		f.config.Logger.Error().
			Str("api", f.api).
			Err(err).
			Interface("response", probe).
			Msg("Count probe failed")
		return nil
	}

	count := f.extract.Count(probe)
	windows := Plan(count, f.config.Limit)

	f.config.Logger.Info().
		Str("api", f.api).
		Int("count", count).
		Int("pages", len(windows)).
		Msg("Starting batch fetch")

	records := make([]R, 0, count)
	if len(windows) == 0 {
		return records
	}

	// One task per window, resolved in place so completion order never
	// reorders the merge.
	tasks := make([]pageTask[P], len(windows))

	var g errgroup.Group
	g.SetLimit(f.config.MaxConcurrency)
	for i, w := range windows {
		g.Go(func() error {
			resp, err := f.call(ctx, w)
			batchPagesTotal.WithLabelValues(f.api).Inc()
			tasks[i] = pageTask[P]{window: w, resp: resp, err: err}
			return nil
		})
	}

	// Workers never report errors through the group; failed windows are
	// found during the ordered merge, after every window has completed.
	_ = g.Wait()

	for _, task := range tasks {
		if task.err != nil || !f.extract.OK(task.resp) {
			batchFailuresTotal.WithLabelValues(f.api, "page").Inc()
			f.config.Logger.Error().
				Str("api", f.api).
				Int("start", task.window.Start).
				Int("limit", task.window.Limit).
				Err(task.err).
				Interface("response", task.resp).
				Msg("Page fetch failed, discarding aggregation")
			return nil
		}
		records = append(records, f.extract.Items(task.resp)...)
	}

	f.config.Logger.Info().
		Str("api", f.api).
		Int("records", len(records)).
		Int("pages", len(windows)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return records
}
