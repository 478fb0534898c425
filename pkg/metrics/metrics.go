// Package metrics exposes the Prometheus metrics of the fetcher.
// All metrics are defined in their respective packages (client, ratelimit,
// batch, export, cache, ddragon) to maintain modularity and avoid circular
// dependencies.
//
// This package provides the /metrics endpoint and a reference for all
// available metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the fetcher.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// shutdownTimeout bounds how long Serve waits for scrapes in flight.
const shutdownTimeout = 5 * time.Second

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// Serve exposes Handler on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}
}

// Metrics Documentation
//
// Pacing Metrics (pkg/ratelimit):
//   - grid_pacer_wait_seconds (Histogram): Time spent waiting for the next call slot
//   - grid_pacer_interrupts_total (Counter): Waits cut short by cancellation
//
// Request Metrics (pkg/client):
//   - grid_requests_total{operation, status} (Counter): Requests by operation (version_probe, series_state) and status
//   - grid_request_duration_seconds{operation} (Histogram): Request duration by operation
//   - grid_errors_total{class} (Counter): Errors by class (network, timeout, graphql, shape, decode)
//
// Batch Metrics (pkg/batch):
//   - batch_units_total{outcome} (Counter): Work units processed by outcome (completed, failed)
//   - batch_remaining_units (Gauge): Work units left in the current run
//
// Export Metrics (pkg/export):
//   - export_documents_total{status} (Counter): Raw documents read, by status (exported, skipped)
//   - export_rows_total{format, table} (Counter): Rows written by format and table
//
// Data Dragon Metrics (pkg/ddragon, pkg/cache):
//   - ddragon_requests_total{status} (Counter): CDN requests by HTTP status
//   - ddragon_cache_hits_total{state} (Counter): Cache hits (fresh, stale)
//   - ddragon_cache_misses_total (Counter): Cache misses
//   - ddragon_cache_size_bytes (Gauge): Bytes written to the cache
//   - ddragon_304_responses_total (Counter): 304 Not Modified responses
//   - ddragon_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Failure Rate
//   sum(rate(batch_units_total{outcome="failed"}[5m])) / sum(rate(batch_units_total[5m]))
//
//   # Errors By Class
//   sum by (class) (rate(grid_errors_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(grid_request_duration_seconds_bucket[5m]))
//
//   # Pacer Share Of Wall Time
//   rate(grid_pacer_wait_seconds_sum[5m])
