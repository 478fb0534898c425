package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/pkg/client"
	"github.com/Sternrassler/lol-series-fetcher/pkg/progress"
	"github.com/Sternrassler/lol-series-fetcher/pkg/query"
	"github.com/Sternrassler/lol-series-fetcher/pkg/ratelimit"
	"github.com/Sternrassler/lol-series-fetcher/pkg/worklist"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for batch progress.
var (
	batchUnitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_units_total",
		Help: "Total work units processed by outcome",
	}, []string{"outcome"})

	batchRemainingUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "batch_remaining_units",
		Help: "Work units left in the current run",
	})
)

// Fetcher is the client surface the orchestrator needs.
type Fetcher interface {
	// ProbeVersion returns the series' schema version.
	ProbeVersion(ctx context.Context, seriesID string) (string, error)

	// FetchSeries pulls the series with the given query.
	FetchSeries(ctx context.Context, seriesID string, q query.Query) (*client.SeriesResponse, error)
}

// RawWriter persists raw payloads.
type RawWriter interface {
	Write(seriesID string, data []byte) (string, error)
}

// Config holds orchestrator configuration.
type Config struct {
	// BatchSize is the number of units between checkpoint log lines.
	BatchSize int

	// Interval is the pacing interval, used only for the duration estimate.
	Interval time.Duration

	// TeamNameWidth truncates team names in outcome lines.
	TeamNameWidth int
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:     50,
		Interval:      ratelimit.DelayFor(ratelimit.DefaultRequestsPerMinute),
		TeamNameWidth: 15,
	}
}

// Orchestrator processes a worklist sequentially.
type Orchestrator struct {
	fetcher Fetcher
	store   *progress.Store
	raw     RawWriter
	config  Config
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates an orchestrator.
func New(fetcher Fetcher, store *progress.Store, raw RawWriter, config Config, logger zerolog.Logger) *Orchestrator {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.TeamNameWidth <= 0 {
		config.TeamNameWidth = 15
	}
	return &Orchestrator{
		fetcher: fetcher,
		store:   store,
		raw:     raw,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Status is the terminal state of a unit.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Outcome is the result of processing one unit.
type Outcome struct {
	SeriesID string
	Status   Status

	// Version is the probed schema version, empty if the probe failed.
	Version string

	// Tier is the query tier used for the data pull.
	Tier query.Tier

	// Path is the raw payload path of a completed unit.
	Path string

	// Reason is the failure reason of a failed unit.
	Reason string

	// Teams are the series' team names of a completed unit.
	Teams []string
}

// Summary reports one orchestration.
type Summary struct {
	Total            int
	AlreadyCompleted int
	AlreadyFailed    int
	Remaining        int
	Succeeded        int
	Failed           int
	Elapsed          time.Duration
	Estimated        time.Duration
	Versions         []progress.VersionCount
	Interrupted      bool
}

// Processed returns the number of units resolved in this orchestration.
func (s *Summary) Processed() int {
	return s.Succeeded + s.Failed
}

// Run processes every id not yet resolved, in order. It returns ctx.Err()
// with a partial summary when cancelled; the interrupted unit stays pending.
// A malformed schema version or a persistence failure aborts the run. An id
// that cannot name a payload file is rejected before any request is made.
func (o *Orchestrator) Run(ctx context.Context, ids []string) (*Summary, error) {
	if err := worklist.Validate(ids); err != nil {
		return nil, fmt.Errorf("worklist: %w", err)
	}
	rec, err := o.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	rec.Start(o.now())

	remaining := rec.Remaining(ids)
	completed, failed := rec.Counts()
	summary := &Summary{
		Total:            len(ids),
		AlreadyCompleted: completed,
		AlreadyFailed:    failed,
		Remaining:        len(remaining),
		Estimated:        ratelimit.EstimateDuration(len(remaining), o.config.Interval),
	}

	o.logger.Info().Int("total", len(ids)).Msgf("Total series to process: %d", len(ids))
	o.logger.Info().Int("completed", completed).Msgf("Already completed: %d", completed)
	o.logger.Info().Int("failed", failed).Msgf("Already failed: %d", failed)
	o.logger.Info().Int("remaining", len(remaining)).Msgf("Remaining: %d", len(remaining))

	if len(remaining) == 0 {
		o.logger.Info().Msg("All series already processed!")
		summary.Versions = rec.VersionDistribution()
		return summary, nil
	}

	o.logger.Info().
		Str("eta", FormatDuration(summary.Estimated)).
		Msgf("Estimated time: %s", FormatDuration(summary.Estimated))

	start := o.now()
	batchRemainingUnits.Set(float64(len(remaining)))

	for i, id := range remaining {
		if err := ctx.Err(); err != nil {
			return o.stop(summary, rec, start, err)
		}

		outcome, err := o.process(ctx, id)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return o.stop(summary, rec, start, err)
			}
			summary.Elapsed = o.now().Sub(start)
			summary.Versions = rec.VersionDistribution()
			return summary, err
		}

		if err := o.apply(rec, outcome); err != nil {
			summary.Elapsed = o.now().Sub(start)
			return summary, err
		}

		o.logOutcome(i+1, len(remaining), outcome)
		switch outcome.Status {
		case StatusCompleted:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		}
		batchUnitsTotal.WithLabelValues(string(outcome.Status)).Inc()
		batchRemainingUnits.Set(float64(len(remaining) - (i + 1)))

		if (i+1)%o.config.BatchSize == 0 {
			o.checkpoint(summary.Processed(), len(remaining), o.now().Sub(start))
		}
	}

	summary.Elapsed = o.now().Sub(start)
	summary.Versions = rec.VersionDistribution()
	o.logSummary(summary)
	return summary, nil
}

// process runs the probe and data pull for one unit. Errors are returned
// only for conditions that stop the run.
func (o *Orchestrator) process(ctx context.Context, seriesID string) (*Outcome, error) {
	version, err := o.fetcher.ProbeVersion(ctx, seriesID)
	if err != nil {
		if interrupted(ctx, err) {
			return nil, ctx.Err()
		}
		o.logger.Warn().Err(err).Str("series_id", seriesID).Msgf("Version fetch error for %s", seriesID)
		return &Outcome{SeriesID: seriesID, Status: StatusFailed, Reason: client.ReasonVersionUnavailable}, nil
	}

	q, err := query.Select(version)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", seriesID, err)
	}

	o.logger.Debug().
		Str("series_id", seriesID).
		Str("version", version).
		Str("tier", q.Tier.String()).
		Msg("Selected query tier")

	resp, err := o.fetcher.FetchSeries(ctx, seriesID, q)
	if err != nil {
		if interrupted(ctx, err) {
			return nil, ctx.Err()
		}
		return &Outcome{
			SeriesID: seriesID,
			Status:   StatusFailed,
			Version:  version,
			Tier:     q.Tier,
			Reason:   client.ReasonOf(err),
		}, nil
	}

	path, err := o.raw.Write(seriesID, resp.Raw)
	if err != nil {
		return nil, fmt.Errorf("persist series %s: %w", seriesID, err)
	}

	var teams []string
	if resp.State != nil {
		teams = resp.State.TeamNames(o.config.TeamNameWidth)
	}

	return &Outcome{
		SeriesID: seriesID,
		Status:   StatusCompleted,
		Version:  version,
		Tier:     q.Tier,
		Path:     path,
		Teams:    teams,
	}, nil
}

// apply records an outcome and saves the record.
func (o *Orchestrator) apply(rec *progress.Record, outcome *Outcome) error {
	if outcome.Version != "" {
		rec.CountVersion(outcome.Version)
	}
	switch outcome.Status {
	case StatusCompleted:
		rec.MarkCompleted(outcome.SeriesID, outcome.Path)
	case StatusFailed:
		rec.MarkFailed(outcome.SeriesID, outcome.Reason)
	}
	if err := o.store.Save(rec); err != nil {
		o.logger.Error().Err(err).Str("series_id", outcome.SeriesID).Msg("Failed to save progress")
		return err
	}
	return nil
}

// interrupted reports whether err is the context's own cancellation rather
// than a classified fetch failure.
func interrupted(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	var fe *client.FetchError
	return !errors.As(err, &fe)
}

func (o *Orchestrator) stop(summary *Summary, rec *progress.Record, start time.Time, err error) (*Summary, error) {
	summary.Interrupted = true
	summary.Elapsed = o.now().Sub(start)
	summary.Versions = rec.VersionDistribution()
	o.logger.Warn().
		Int("processed", summary.Processed()).
		Int("pending", summary.Remaining-summary.Processed()).
		Msg("Interrupted. Progress has been saved.")
	return summary, err
}

func (o *Orchestrator) logOutcome(i, n int, outcome *Outcome) {
	prefix := fmt.Sprintf("[%d/%d] %s", i, n, outcome.SeriesID)
	switch outcome.Status {
	case StatusCompleted:
		o.logger.Info().
			Str("series_id", outcome.SeriesID).
			Str("version", outcome.Version).
			Str("tier", outcome.Tier.String()).
			Msgf("%s: OK - %s: %s", prefix, progress.VersionLabel(outcome.Version), strings.Join(outcome.Teams, " vs "))
	case StatusFailed:
		o.logger.Info().
			Str("series_id", outcome.SeriesID).
			Str("reason", outcome.Reason).
			Msgf("%s: FAILED - %s", prefix, outcome.Reason)
	}
}

func (o *Orchestrator) checkpoint(processed, total int, elapsed time.Duration) {
	if processed == 0 || elapsed <= 0 {
		return
	}
	rate := float64(processed) / elapsed.Minutes()
	left := total - processed
	var eta time.Duration
	if rate > 0 {
		eta = time.Duration(float64(left) / rate * float64(time.Minute))
	}
	o.logger.Info().
		Int("processed", processed).
		Float64("rate_per_min", rate).
		Str("eta", FormatDuration(eta)).
		Msgf("--- Checkpoint: %d/%d processed, Rate: %.1f/min, ETA: %s ---", processed, total, rate, FormatDuration(eta))
}

func (o *Orchestrator) logSummary(s *Summary) {
	o.logger.Info().Msg("=== Fetch Complete ===")
	o.logger.Info().Int("succeeded", s.Succeeded).Msgf("Total success: %d", s.Succeeded)
	o.logger.Info().Int("failed", s.Failed).Msgf("Total failed: %d", s.Failed)
	o.logger.Info().Str("elapsed", FormatDuration(s.Elapsed)).Msgf("Total time: %s", FormatDuration(s.Elapsed))
	if len(s.Versions) > 0 {
		o.logger.Info().Msg("Version distribution:")
		for _, v := range s.Versions {
			o.logger.Info().Str("version", v.Label).Int("count", v.Count).Msgf("  %s: %d", v.Label, v.Count)
		}
	}
}

// FormatDuration renders seconds below a minute as "42s", minutes below an
// hour as "3.5m" and longer spans as "1.2h".
func FormatDuration(d time.Duration) string {
	s := d.Seconds()
	switch {
	case s < 60:
		return fmt.Sprintf("%.0fs", s)
	case s < 3600:
		return fmt.Sprintf("%.1fm", s/60)
	default:
		return fmt.Sprintf("%.1fh", s/3600)
	}
}
