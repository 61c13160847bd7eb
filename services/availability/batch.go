package availability

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"vetrina/models"
)

const (
	batchSize  = 5
	batchDelay = 200 * time.Millisecond
)

type episodeRef struct {
	seasonIdx  int
	episodeIdx int
}

// FilterAvailable prunes seasons to the episodes the embed provider can play,
// checking availability in batches of concurrent probes with a fixed delay
// between batches. Original season and episode ordering is preserved; seasons
// left with zero episodes are dropped.
//
// The filter is advisory, not authoritative: if every probe fails, or the
// context is canceled mid-run, the original unfiltered input is returned.
func (c *Checker) FilterAvailable(ctx context.Context, showID int64, seasons []models.Season, policy Policy) []models.Season {
	var refs []episodeRef
	for si := range seasons {
		for ei := range seasons[si].Episodes {
			refs = append(refs, episodeRef{seasonIdx: si, episodeIdx: ei})
		}
	}
	if len(refs) == 0 {
		return seasons
	}

	verdicts := make([]models.Availability, len(refs))
	var failures int64

	for start := 0; start < len(refs); start += batchSize {
		if ctx.Err() != nil {
			log.Printf("[availability] filter canceled show=%d, returning unfiltered list", showID)
			return seasons
		}

		end := start + batchSize
		if end > len(refs) {
			end = len(refs)
		}

		var wg conc.WaitGroup
		for i := start; i < end; i++ {
			i := i
			wg.Go(func() {
				ref := refs[i]
				ep := seasons[ref.seasonIdx].Episodes[ref.episodeIdx]
				result := c.Check(ctx, models.KindTV, showID, ep.SeasonNumber, ep.EpisodeNumber)
				verdicts[i] = result.Availability
				if result.Availability == models.AvailabilityUnknown {
					atomic.AddInt64(&failures, 1)
				}
			})
		}
		wg.Wait()

		if end < len(refs) {
			select {
			case <-ctx.Done():
				log.Printf("[availability] filter canceled show=%d, returning unfiltered list", showID)
				return seasons
			case <-time.After(batchDelay):
			}
		}
	}

	if int(failures) == len(refs) {
		log.Printf("[availability] all %d probes failed for show=%d, returning unfiltered list", len(refs), showID)
		return seasons
	}

	available := 0
	for _, v := range verdicts {
		if v == models.AvailabilityAvailable {
			available++
		}
	}
	log.Printf("[availability] show=%d episodes %d/%d available", showID, available, len(refs))

	return rebuildSeasons(seasons, refs, verdicts, policy)
}

// rebuildSeasons reassembles the season list in original order, keeping the
// episodes the policy deems playable and annotating them with their verdict.
func rebuildSeasons(seasons []models.Season, refs []episodeRef, verdicts []models.Availability, policy Policy) []models.Season {
	verdictAt := make(map[[2]int]models.Availability, len(refs))
	for i, ref := range refs {
		verdictAt[[2]int{ref.seasonIdx, ref.episodeIdx}] = verdicts[i]
	}

	filtered := make([]models.Season, 0, len(seasons))
	for si := range seasons {
		season := models.Season{
			ShowID:       seasons[si].ShowID,
			SeasonNumber: seasons[si].SeasonNumber,
			Name:         seasons[si].Name,
		}
		for ei := range seasons[si].Episodes {
			verdict := verdictAt[[2]int{si, ei}]
			if !policy.Playable(verdict) {
				continue
			}
			ep := seasons[si].Episodes[ei]
			ep.Availability = verdict
			season.Episodes = append(season.Episodes, ep)
		}
		if len(season.Episodes) > 0 {
			filtered = append(filtered, season)
		}
	}
	return filtered
}
