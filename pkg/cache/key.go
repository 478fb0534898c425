package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "ddragon"

// Key identifies a cached CDN document.
type Key struct {
	// Path is the URL path (e.g., "/cdn/14.10.1/data/en_US/champion.json")
	Path string

	// Query holds query parameters, if any
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: ddragon:path:query1=val1
//
// Example:
//
//	ddragon:cdn/14.10.1/data/en_US/champion.json
func (k Key) String() string {
	parts := []string{KeyPrefix}

	path := strings.Trim(k.Path, "/")
	if path != "" {
		parts = append(parts, path)
	}

	// Sorted for determinism
	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Query.Get(name)))
		}
	}

	return strings.Join(parts, ":")
}
