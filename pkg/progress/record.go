// Package progress persists which series of a run are completed or failed.
//
// The record is rewritten in full after every unit. A crash between writes
// leaves the previous record intact, so a relaunch resumes at the first
// unresolved unit.
package progress

import (
	"sort"
	"time"
)

// Record is the persisted progress of one run.
type Record struct {
	// Completed maps series id to the raw payload path.
	Completed map[string]string `json:"completed"`

	// Failed maps series id to the failure reason.
	Failed map[string]string `json:"failed"`

	StartedAt   *time.Time `json:"started_at"`
	LastUpdated *time.Time `json:"last_updated"`

	// VersionStats counts probed series per "v<version>" label.
	VersionStats map[string]int `json:"version_stats"`
}

// New returns an empty record.
func New() *Record {
	return &Record{
		Completed:    make(map[string]string),
		Failed:       make(map[string]string),
		VersionStats: make(map[string]int),
	}
}

// normalize replaces nil maps left by decoding null or missing fields.
func (r *Record) normalize() {
	if r.Completed == nil {
		r.Completed = make(map[string]string)
	}
	if r.Failed == nil {
		r.Failed = make(map[string]string)
	}
	if r.VersionStats == nil {
		r.VersionStats = make(map[string]int)
	}
}

// MarkCompleted records a successful unit. Any earlier failure is cleared.
func (r *Record) MarkCompleted(seriesID, path string) {
	delete(r.Failed, seriesID)
	r.Completed[seriesID] = path
}

// MarkFailed records a failed unit. Any earlier completion is cleared.
func (r *Record) MarkFailed(seriesID, reason string) {
	delete(r.Completed, seriesID)
	r.Failed[seriesID] = reason
}

// IsDone reports whether a unit reached a terminal state.
func (r *Record) IsDone(seriesID string) bool {
	if _, ok := r.Completed[seriesID]; ok {
		return true
	}
	_, ok := r.Failed[seriesID]
	return ok
}

// VersionLabel returns the version_stats key for a schema version.
func VersionLabel(version string) string {
	return "v" + version
}

// CountVersion increments the counter for a probed schema version.
func (r *Record) CountVersion(version string) {
	r.VersionStats[VersionLabel(version)]++
}

// Start stamps StartedAt if the record has never been started.
func (r *Record) Start(now time.Time) {
	if r.StartedAt == nil {
		t := now
		r.StartedAt = &t
	}
}

// Counts returns the number of completed and failed units.
func (r *Record) Counts() (completed, failed int) {
	return len(r.Completed), len(r.Failed)
}

// Remaining returns the ids of ids that are not done, in the given order.
func (r *Record) Remaining(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !r.IsDone(id) {
			out = append(out, id)
		}
	}
	return out
}

// VersionCount is one entry of the version distribution.
type VersionCount struct {
	Label string
	Count int
}

// VersionDistribution returns version counts sorted by label.
func (r *Record) VersionDistribution() []VersionCount {
	out := make([]VersionCount, 0, len(r.VersionStats))
	for label, n := range r.VersionStats {
		out = append(out, VersionCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// FailedIDs returns failed series ids in sorted order.
func (r *Record) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
