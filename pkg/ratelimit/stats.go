package ratelimit

import "time"

// Stats summarizes pacing activity for one process.
type Stats struct {
	// Calls is the number of slots granted by Wait.
	Calls int `json:"calls"`

	// TotalWait is the cumulative time spent sleeping in Wait.
	TotalWait time.Duration `json:"total_wait"`
}

// AverageWait returns the mean wait per granted call.
func (s Stats) AverageWait() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalWait / time.Duration(s.Calls)
}

// EstimateDuration projects the wall-clock time for units work units at two
// calls per unit (version probe and data pull).
func EstimateDuration(units int, interval time.Duration) time.Duration {
	if units <= 0 {
		return 0
	}
	return time.Duration(units) * 2 * interval
}
