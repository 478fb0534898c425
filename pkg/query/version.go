// Package query selects the GRID series-state GraphQL query for a reported
// schema version.
//
// The upstream schema is additive: every tier requests a strict superset of
// the fields requested by the tier below it. Asking an older server for a
// field it does not know fails the whole request, so the client downgrades
// its query to the highest tier the series' version supports.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedVersion is returned when a schema version string cannot be parsed.
var ErrMalformedVersion = errors.New("malformed schema version")

// DefaultVersion is assumed when the version probe succeeds but the series
// carries no version field.
const DefaultVersion = "3.0"

// Version is a parsed "<major>.<minor>" schema version.
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses "3.31", "3" (minor defaults to 0) or "3.31.2" (extra
// components are ignored). Non-numeric components yield ErrMalformedVersion.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("%w: empty string", ErrMalformedVersion)
	}

	parts := strings.Split(s, ".")
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}

	minor := 0
	if len(parts) > 1 {
		minor, err = strconv.Atoi(parts[1])
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
		}
	}

	return Version{Major: major, Minor: minor}, nil
}

// Compare returns -1, 0 or 1 comparing v to o lexicographically by (major, minor).
func (v Version) Compare(o Version) int {
	switch {
	case v.Major < o.Major:
		return -1
	case v.Major > o.Major:
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool {
	return v.Compare(o) >= 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
