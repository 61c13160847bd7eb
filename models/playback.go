package models

import "time"

// AvailabilityResult is a point-in-time probe verdict. It is never treated as
// permanently authoritative: playback may proceed past a stale verdict.
type AvailabilityResult struct {
	TMDBID       int64        `json:"tmdbId"`
	Kind         Kind         `json:"kind"`
	Season       int          `json:"season,omitempty"`
	Episode      int          `json:"episode,omitempty"`
	Availability Availability `json:"availability"`
	CheckedAt    time.Time    `json:"checkedAt"`
}
