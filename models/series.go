package models

// Availability is the tri-state verdict of an embed-provider probe. Unknown
// means the probe failed; it is a policy decision at the call site whether
// unknown content is treated as playable.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
	AvailabilityUnknown     Availability = "unknown"
)

// Episode is one entry of a season's ordered episode list. Episode numbers
// are unique within a season and dense but not necessarily contiguous.
type Episode struct {
	SeasonNumber  int     `json:"seasonNumber"`
	EpisodeNumber int     `json:"episodeNumber"`
	Name          string  `json:"name,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	StillURL      string  `json:"stillUrl,omitempty"`
	AirDate       string  `json:"airDate,omitempty"`
	Runtime       int     `json:"runtime,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	// Availability is filled in by the batch filter; empty when never checked.
	Availability Availability `json:"availability,omitempty"`
}

// Season is a derived, on-demand aggregation of a show's episodes. It is
// never persisted.
type Season struct {
	ShowID       int64     `json:"showId"`
	SeasonNumber int       `json:"seasonNumber"`
	Name         string    `json:"name,omitempty"`
	Episodes     []Episode `json:"episodes"`
}
