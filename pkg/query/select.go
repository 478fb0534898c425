package query

import "fmt"

// VersionQuery is the minimal probe used to learn a series' schema version
// before the data pull.
const VersionQuery = `query VersionCheck($seriesId: ID!) {
  seriesState(id: $seriesId) {
    id
    version
  }
}
`

// Query is a rendered series-state query and the tier it was built for.
type Query struct {
	Tier Tier
	Text string
}

// Select returns the query of the highest tier the reported version supports.
// An empty string selects the tier for DefaultVersion.
func Select(version string) (Query, error) {
	if version == "" {
		version = DefaultVersion
	}
	v, err := ParseVersion(version)
	if err != nil {
		return Query{}, fmt.Errorf("select query: %w", err)
	}
	return ForTier(TierFor(v)), nil
}

// ForTier renders the query for a known tier.
func ForTier(t Tier) Query {
	return Query{Tier: t, Text: t.Fields().Render()}
}
