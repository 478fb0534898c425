// Package ratelimit spaces outbound GRID requests to stay under the
// upstream requests-per-minute quota.
//
// Requests are strictly serial. Every call is followed by a fixed delay: the
// Pacer holds the next call until the interval has passed since the previous
// call completed. It never bursts and never retries.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for request pacing.
var (
	pacerWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "grid_pacer_wait_seconds",
		Help:    "Time spent waiting for the rate limit interval before a GRID request",
		Buckets: []float64{0, .1, .5, 1, 2, 3, 4, 5},
	})

	pacerInterruptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grid_pacer_interrupts_total",
		Help: "Total number of pacer waits cut short by context cancellation",
	})
)

// SafetyMargin is added to the per-request interval derived from the quota.
const SafetyMargin = 100 * time.Millisecond

// DefaultRequestsPerMinute is the GRID series-state quota.
const DefaultRequestsPerMinute = 20

// DelayFor returns the minimum spacing between requests for a quota of rpm
// requests per minute. 20/min yields 3.1s. A non-positive rpm disables pacing.
func DelayFor(rpm int) time.Duration {
	if rpm <= 0 {
		return 0
	}
	return time.Minute/time.Duration(rpm) + SafetyMargin
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Pacer enforces a minimum interval between calls.
type Pacer struct {
	interval time.Duration
	logger   zerolog.Logger

	now   func() time.Time
	sleep SleepFunc

	mu    sync.Mutex
	last  time.Time
	stats Stats
}

// NewPacer creates a pacer with the given interval between calls.
func NewPacer(interval time.Duration, logger zerolog.Logger) *Pacer {
	return &Pacer{
		interval: interval,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// WithClock replaces the time source and sleep function. Used by tests.
func (p *Pacer) WithClock(now func() time.Time, sleep SleepFunc) *Pacer {
	p.now = now
	p.sleep = sleep
	return p
}

// Interval returns the configured spacing between calls.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the next call is allowed. The first call never waits.
// It returns ctx.Err() if the context is cancelled while waiting, in which
// case no slot is consumed. Callers report completion with Done; without it
// the interval counts from the start of the previous call.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var wait time.Duration
	if !p.last.IsZero() {
		wait = p.interval - p.now().Sub(p.last)
	}

	if wait > 0 {
		p.logger.Debug().Dur("wait", wait).Msg("Pacing GRID request")
		if err := p.sleep(ctx, wait); err != nil {
			pacerInterruptsTotal.Inc()
			return err
		}
		p.stats.TotalWait += wait
		pacerWaitSeconds.Observe(wait.Seconds())
	} else {
		pacerWaitSeconds.Observe(0)
	}

	p.last = p.now()
	p.stats.Calls++
	return nil
}

// Done marks the end of the call admitted by the last Wait. The next call is
// spaced from this moment.
func (p *Pacer) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = p.now()
}

// Stats returns a snapshot of the pacer's counters.
func (p *Pacer) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
