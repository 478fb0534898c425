// Package client provides the GRID series-state GraphQL client.
//
// Each series takes two calls, always in order: a version probe, then a data
// pull with the query tier the probed version supports. Calls are paced by a
// ratelimit.Pacer and never retried.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/pkg/query"
	"github.com/Sternrassler/lol-series-fetcher/pkg/ratelimit"
	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for GRID client operations.
var (
	gridRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grid_requests_total",
		Help: "Total GRID requests by operation and status",
	}, []string{"operation", "status"})

	gridRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grid_request_duration_seconds",
		Help:    "GRID request duration in seconds by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"operation"})

	gridErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grid_errors_total",
		Help: "Total GRID errors by class",
	}, []string{"class"})
)

const (
	operationProbe = "version_probe"
	operationFetch = "series_state"
)

// DefaultURL is the GRID live-data-feed series-state endpoint.
const DefaultURL = "https://api-op.grid.gg/live-data-feed/series-state/graphql"

// APIKeyHeader carries the GRID API key.
const APIKeyHeader = "x-api-key"

// Config holds the client configuration.
type Config struct {
	// URL of the GraphQL endpoint.
	URL string

	// APIKey sent in the x-api-key header (REQUIRED).
	APIKey string

	// Timeout per HTTP call. In-flight calls are never cancelled early.
	Timeout time.Duration

	// RequestsPerMinute is the upstream quota used to build the pacer.
	// Zero disables pacing.
	RequestsPerMinute int

	// Pacer overrides the pacer built from RequestsPerMinute.
	Pacer *ratelimit.Pacer

	// UserAgent header value.
	UserAgent string
}

// DefaultConfig returns the production configuration for apiKey.
func DefaultConfig(apiKey string) Config {
	return Config{
		URL:               DefaultURL,
		APIKey:            apiKey,
		Timeout:           30 * time.Second,
		RequestsPerMinute: ratelimit.DefaultRequestsPerMinute,
		UserAgent:         "lol-series-fetcher/1.0",
	}
}

// Client talks to the GRID series-state endpoint.
type Client struct {
	http   *resty.Client
	pacer  *ratelimit.Pacer
	config Config
	logger zerolog.Logger
}

// New creates a new GRID client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("api url is required")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.RequestsPerMinute < 0 {
		return nil, fmt.Errorf("requests_per_minute must be >= 0 (got %d)", cfg.RequestsPerMinute)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "grid-client").Logger()

	pacer := cfg.Pacer
	if pacer == nil {
		pacer = ratelimit.NewPacer(ratelimit.DelayFor(cfg.RequestsPerMinute), logger)
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader(APIKeyHeader, cfg.APIKey)
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		http:   httpClient,
		pacer:  pacer,
		config: cfg,
		logger: logger,
	}, nil
}

// Pacer returns the pacer gating this client's calls.
func (c *Client) Pacer() *ratelimit.Pacer {
	return c.pacer
}

// Endpoint returns the configured GraphQL URL.
func (c *Client) Endpoint() string {
	return c.config.URL
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// ProbeVersion returns the schema version reported for a series. A series
// without a version field reports query.DefaultVersion. Any failure,
// including a GraphQL errors array or a missing seriesState, is an error.
// Context cancellation during the pacer wait returns ctx.Err().
func (c *Client) ProbeVersion(ctx context.Context, seriesID string) (string, error) {
	body, err := c.post(ctx, operationProbe, seriesID, query.VersionQuery)
	if err != nil {
		return "", err
	}

	resp, err := Decode(body)
	if err != nil {
		return "", c.fail(operationProbe, seriesID, decodeError(err))
	}
	if resp.HasErrors() {
		return "", c.fail(operationProbe, seriesID, graphQLError(resp.Errors))
	}
	state := resp.SeriesState()
	if state == nil {
		return "", c.fail(operationProbe, seriesID, shapeError())
	}

	if state.Version == nil || *state.Version == "" {
		return query.DefaultVersion, nil
	}
	return *state.Version, nil
}

// SeriesResponse is a successful data pull.
type SeriesResponse struct {
	// Raw is the verbatim response body.
	Raw []byte

	// State is the decoded seriesState root.
	State *SeriesState
}

// FetchSeries pulls a series' state with the given query. Failures are
// returned as *FetchError, except context cancellation during the pacer
// wait, which returns ctx.Err().
func (c *Client) FetchSeries(ctx context.Context, seriesID string, q query.Query) (*SeriesResponse, error) {
	body, err := c.post(ctx, operationFetch, seriesID, q.Text)
	if err != nil {
		return nil, err
	}

	resp, err := Decode(body)
	if err != nil {
		return nil, c.fail(operationFetch, seriesID, decodeError(err))
	}
	if resp.HasErrors() {
		return nil, c.fail(operationFetch, seriesID, graphQLError(resp.Errors))
	}
	state := resp.SeriesState()
	if state == nil {
		return nil, c.fail(operationFetch, seriesID, shapeError())
	}

	c.logger.Debug().
		Str("series_id", seriesID).
		Str("tier", q.Tier.String()).
		Int("bytes", len(body)).
		Msg("Fetched series state")

	return &SeriesResponse{Raw: body, State: state}, nil
}

// post waits for the pacer, then sends one GraphQL request. The request
// runs detached from ctx cancellation and is bounded by the client timeout.
func (c *Client) post(ctx context.Context, operation, seriesID, queryText string) ([]byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	defer c.pacer.Done()

	startTime := time.Now()
	defer func() {
		gridRequestDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.http.R().
		SetContext(context.WithoutCancel(ctx)).
		SetBody(graphQLRequest{
			Query:     queryText,
			Variables: map[string]any{"seriesId": seriesID},
		}).
		Post(c.config.URL)
	if err != nil {
		gridRequestsTotal.WithLabelValues(operation, "network_error").Inc()
		return nil, c.fail(operation, seriesID, classifyTransport(err))
	}

	status := strconv.Itoa(resp.StatusCode())
	gridRequestsTotal.WithLabelValues(operation, status).Inc()

	if !resp.IsSuccess() {
		return nil, c.fail(operation, seriesID, networkError(resp.StatusCode(), resp.Status(), nil))
	}

	return resp.Body(), nil
}

// fail records and logs a classified failure.
func (c *Client) fail(operation, seriesID string, fe *FetchError) *FetchError {
	gridErrorsTotal.WithLabelValues(string(fe.Class)).Inc()
	c.logger.Debug().
		Str("operation", operation).
		Str("series_id", seriesID).
		Str("class", string(fe.Class)).
		Str("reason", fe.Reason).
		Msg("GRID request failed")
	return fe
}

// classifyTransport maps a transport error to a timeout or network failure.
func classifyTransport(err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeoutError(err)
	}
	return networkError(0, err.Error(), err)
}
