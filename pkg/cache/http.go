package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is the fallback TTL when the response carries no freshness headers
	DefaultTTL = 24 * time.Hour
)

// NewEntry builds a cache entry from a response. Freshness comes from
// Cache-Control max-age, then Expires, then fallback (DefaultTTL if zero).
func NewEntry(status int, header http.Header, body []byte, fallback time.Duration) *Entry {
	now := time.Now()
	entry := &Entry{
		Data:        body,
		ETag:        header.Get("ETag"),
		StatusCode:  status,
		ContentType: header.Get("Content-Type"),
		CachedAt:    now,
		Expires:     ExpiresAt(header, now, fallback),
	}

	if lastModStr := header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry
}

// ExpiresAt derives when a response goes stale.
func ExpiresAt(header http.Header, now time.Time, fallback time.Duration) time.Time {
	if fallback <= 0 {
		fallback = DefaultTTL
	}

	if maxAge, ok := parseMaxAge(header.Get("Cache-Control")); ok {
		return now.Add(maxAge)
	}

	expiresStr := header.Get("Expires")
	if expiresStr == "" {
		return now.Add(fallback)
	}
	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return now.Add(fallback)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}

// parseMaxAge extracts max-age from a Cache-Control header.
func parseMaxAge(cc string) (time.Duration, bool) {
	for _, directive := range strings.Split(cc, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(directive), "=")
		if !found || !strings.EqualFold(name, "max-age") {
			continue
		}
		secs, err := strconv.Atoi(strings.Trim(value, `"`))
		if err != nil || secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

// ConditionalHeaders returns If-None-Match or If-Modified-Since for a
// revalidation request, or nil if the entry supports neither.
func ConditionalHeaders(entry *Entry) map[string]string {
	if entry == nil {
		return nil
	}

	// Prefer ETag over Last-Modified (more accurate)
	if entry.ETag != "" {
		return map[string]string{"If-None-Match": entry.ETag}
	}
	if !entry.LastModified.IsZero() {
		return map[string]string{"If-Modified-Since": entry.LastModified.UTC().Format(http.TimeFormat)}
	}
	return nil
}
