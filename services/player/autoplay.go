package player

import (
	"sort"

	"vetrina/models"
)

// State is the outcome of an autoplay transition.
type State string

const (
	StatePlaying   State = "playing"
	StateCompleted State = "completed"
)

// Unit addresses one playable episode.
type Unit struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

// Index maps a season number to its ordered episode numbers.
type Index map[int][]int

// BuildIndex derives an Index from a loaded season list. Episode numbers are
// kept in ascending order regardless of input ordering.
func BuildIndex(seasons []models.Season) Index {
	idx := make(Index, len(seasons))
	for _, season := range seasons {
		numbers := make([]int, 0, len(season.Episodes))
		for _, ep := range season.Episodes {
			numbers = append(numbers, ep.EpisodeNumber)
		}
		sort.Ints(numbers)
		idx[season.SeasonNumber] = numbers
	}
	return idx
}

// Next computes the unit that follows current when an episode ends: the next
// episode number within the current season, else the first episode of the
// following season, else StateCompleted. ok is false when the index has no
// entry for the current season; callers treat that as a no-op.
func Next(current Unit, idx Index) (next Unit, state State, ok bool) {
	episodes, present := idx[current.Season]
	if !present {
		return Unit{}, "", false
	}

	for _, n := range episodes {
		if n == current.Episode+1 {
			return Unit{Season: current.Season, Episode: n}, StatePlaying, true
		}
	}

	if following, exists := idx[current.Season+1]; exists && len(following) > 0 {
		return Unit{Season: current.Season + 1, Episode: following[0]}, StatePlaying, true
	}

	return Unit{}, StateCompleted, true
}
