package availability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"vetrina/models"
)

func season(showID int64, number int, episodes ...int) models.Season {
	s := models.Season{ShowID: showID, SeasonNumber: number}
	for _, n := range episodes {
		s.Episodes = append(s.Episodes, models.Episode{
			SeasonNumber:  number,
			EpisodeNumber: n,
			Name:          fmt.Sprintf("Episode %d", n),
		})
	}
	return s
}

// availabilityByPath probes against a fixed map of served paths; anything
// absent gets a 404.
func availabilityByPath(served map[string]bool) roundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		if served[req.URL.Path] {
			return htmlResponse(http.StatusOK, playerHTML), nil
		}
		return htmlResponse(http.StatusNotFound, "not found"), nil
	}
}

func TestFilterAvailableDropsUnavailableSeasons(t *testing.T) {
	// Season 1 fully served, season 2 not served at all.
	served := map[string]bool{
		"/tv/1399/1/1": true,
		"/tv/1399/1/2": true,
		"/tv/1399/1/3": true,
	}
	c := newTestChecker(t, availabilityByPath(served))

	input := []models.Season{
		season(1399, 1, 1, 2, 3),
		season(1399, 2, 1, 2),
	}
	got := c.FilterAvailable(context.Background(), 1399, input, PolicyConservative)

	require.Len(t, got, 1)
	require.Equal(t, 1, got[0].SeasonNumber)
	require.Len(t, got[0].Episodes, 3)
	for _, ep := range got[0].Episodes {
		require.Equal(t, models.AvailabilityAvailable, ep.Availability)
	}
}

func TestFilterAvailablePreservesOrder(t *testing.T) {
	// Twelve episodes across three batches; only odd episodes are served.
	served := map[string]bool{}
	var episodes []int
	for n := 1; n <= 12; n++ {
		episodes = append(episodes, n)
		if n%2 == 1 {
			served[fmt.Sprintf("/tv/42/1/%d", n)] = true
		}
	}
	c := newTestChecker(t, availabilityByPath(served))

	got := c.FilterAvailable(context.Background(), 42, []models.Season{season(42, 1, episodes...)}, PolicyConservative)

	require.Len(t, got, 1)
	want := []int{1, 3, 5, 7, 9, 11}
	require.Len(t, got[0].Episodes, len(want))
	for i, ep := range got[0].Episodes {
		require.Equal(t, want[i], ep.EpisodeNumber, "episode order must be preserved")
	}
}

func TestFilterAvailableFailOpenWhenAllProbesFail(t *testing.T) {
	c := newTestChecker(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("network down")
	}))

	input := []models.Season{
		season(42, 1, 1, 2, 3),
		season(42, 2, 1, 2),
	}
	got := c.FilterAvailable(context.Background(), 42, input, PolicyConservative)

	require.Equal(t, input, got, "total probe failure must return the original input unchanged")
}

func TestFilterAvailableCanceledContextFailsOpen(t *testing.T) {
	c := newTestChecker(t, availabilityByPath(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := []models.Season{season(42, 1, 1, 2, 3)}
	got := c.FilterAvailable(ctx, 42, input, PolicyConservative)
	require.Equal(t, input, got)
}

func TestFilterAvailablePolicyDecidesUnknown(t *testing.T) {
	// Episode 1 served, episode 2 probe fails (unknown).
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/tv/7/1/1":
			return htmlResponse(http.StatusOK, playerHTML), nil
		default:
			return nil, errors.New("probe failure")
		}
	})

	input := []models.Season{season(7, 1, 1, 2)}

	conservative := newTestChecker(t, transport).FilterAvailable(context.Background(), 7, input, PolicyConservative)
	require.Len(t, conservative, 1)
	require.Len(t, conservative[0].Episodes, 1, "conservative hides unknown episodes")
	require.Equal(t, 1, conservative[0].Episodes[0].EpisodeNumber)

	optimistic := newTestChecker(t, transport).FilterAvailable(context.Background(), 7, input, PolicyOptimistic)
	require.Len(t, optimistic, 1)
	require.Len(t, optimistic[0].Episodes, 2, "optimistic keeps unknown episodes")
	require.Equal(t, models.AvailabilityUnknown, optimistic[0].Episodes[1].Availability)
}

func TestFilterAvailableEmptyInput(t *testing.T) {
	c := newTestChecker(t, availabilityByPath(nil))
	require.Empty(t, c.FilterAvailable(context.Background(), 1, nil, PolicyConservative))
}
