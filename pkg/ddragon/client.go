// Package ddragon fetches champion reference data from Riot's Data Dragon
// CDN and maps GRID champion names to Data Dragon keys.
package ddragon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/pkg/cache"
	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ddragonRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ddragon_requests_total",
	Help: "Total Data Dragon CDN requests by status",
}, []string{"status"})

// DefaultBaseURL is the public Data Dragon CDN.
const DefaultBaseURL = "https://ddragon.leagueoflegends.com"

// ErrNoVersions is returned when versions.json lists nothing.
var ErrNoVersions = errors.New("data dragon returned no versions")

// Config holds the client configuration.
type Config struct {
	// BaseURL of the CDN.
	BaseURL string

	// Timeout per HTTP call.
	Timeout time.Duration

	// Cache is optional. Without it every call goes to the CDN.
	Cache cache.Store

	// CacheTTL applies when the CDN sends no freshness headers.
	CacheTTL time.Duration
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Timeout:  30 * time.Second,
		CacheTTL: cache.DefaultTTL,
	}
}

// Client reads Data Dragon documents.
type Client struct {
	http    *resty.Client
	baseURL string
	cache   cache.Store
	ttl     time.Duration
	logger  zerolog.Logger
}

// New creates a Data Dragon client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		http:    resty.New().SetTimeout(cfg.Timeout),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		cache:   cfg.Cache,
		ttl:     cfg.CacheTTL,
		logger:  log.With().Str("component", "ddragon").Logger(),
	}, nil
}

// BaseURL returns the CDN base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LatestVersion returns the first entry of versions.json.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/api/versions.json")
	if err != nil {
		return "", err
	}
	var versions []string
	if err := json.Unmarshal(body, &versions); err != nil {
		return "", fmt.Errorf("decode versions: %w", err)
	}
	if len(versions) == 0 {
		return "", ErrNoVersions
	}
	return versions[0], nil
}

// Champions returns the champion document of a version.
func (c *Client) Champions(ctx context.Context, version string) (*ChampionData, error) {
	body, err := c.get(ctx, "/cdn/"+version+"/data/en_US/champion.json")
	if err != nil {
		return nil, err
	}
	var data ChampionData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode champions: %w", err)
	}
	return &data, nil
}

// get returns the body at path, serving fresh cache entries directly and
// revalidating stale ones. Cache failures fall back to a plain request.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	key := cache.Key{Path: path}

	var cached *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Lookup(ctx, key)
		switch {
		case err == nil && !entry.IsExpired():
			c.logger.Debug().Str("path", path).Msg("cache hit")
			return entry.Data, nil
		case err == nil:
			cached = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("path", path).Msg("cache lookup failed")
		}
	}

	req := c.http.R().SetContext(ctx)
	if h := cache.ConditionalHeaders(cached); h != nil {
		req.SetHeaders(h)
	}

	resp, err := req.Get(c.baseURL + path)
	if err != nil {
		ddragonRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	ddragonRequestsTotal.WithLabelValues(fmt.Sprint(resp.StatusCode())).Inc()

	if resp.StatusCode() == http.StatusNotModified && cached != nil {
		cache.ConditionalRequests.Inc()
		expires := cache.ExpiresAt(resp.Header(), time.Now(), c.ttl)
		if err := c.cache.Refresh(ctx, key, expires); err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("cache refresh failed")
		}
		return cached.Data, nil
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("GET %s: unexpected status %s", path, resp.Status())
	}

	body := resp.Body()
	if c.cache != nil {
		entry := cache.NewEntry(resp.StatusCode(), resp.Header(), body, c.ttl)
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("cache store failed")
		}
	}
	return body, nil
}
