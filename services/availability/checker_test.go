package availability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vetrina/internal/cache"
	"vetrina/models"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

const playerHTML = `<!DOCTYPE html><html><head><title>player</title></head><body><video src="stream.m3u8"></video></body></html>`

func htmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// countingTransport tracks how many requests went over the wire.
type countingTransport struct {
	mu    sync.Mutex
	calls int
	fn    roundTripFunc
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.fn(req)
}

func (c *countingTransport) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestChecker(t *testing.T, transport http.RoundTripper) *Checker {
	t.Helper()
	store := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	httpc := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return NewChecker("https://vixsrc.example", httpc, store, 5*time.Minute)
}

func TestCheckAvailable(t *testing.T) {
	c := newTestChecker(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "https://vixsrc.example/movie/550", req.URL.String())
		return htmlResponse(http.StatusOK, playerHTML), nil
	}))

	result := c.Check(context.Background(), models.KindMovie, 550, 0, 0)
	require.Equal(t, models.AvailabilityAvailable, result.Availability)
	require.Equal(t, int64(550), result.TMDBID)
	require.False(t, result.CheckedAt.IsZero())
}

func TestCheckNotFoundIsUnavailable(t *testing.T) {
	c := newTestChecker(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return htmlResponse(http.StatusNotFound, "not found"), nil
	}))

	result := c.Check(context.Background(), models.KindTV, 1399, 9, 1)
	require.Equal(t, models.AvailabilityUnavailable, result.Availability)
}

func TestCheckTransportErrorIsUnknown(t *testing.T) {
	c := newTestChecker(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))

	result := c.Check(context.Background(), models.KindMovie, 550, 0, 0)
	require.Equal(t, models.AvailabilityUnknown, result.Availability)
}

func TestCheckRetriesServerError(t *testing.T) {
	transport := &countingTransport{}
	transport.fn = func(req *http.Request) (*http.Response, error) {
		if transport.count() == 1 {
			return htmlResponse(http.StatusBadGateway, "upstream sad"), nil
		}
		return htmlResponse(http.StatusOK, playerHTML), nil
	}
	c := newTestChecker(t, transport)

	result := c.Check(context.Background(), models.KindMovie, 550, 0, 0)
	require.Equal(t, models.AvailabilityAvailable, result.Availability)
	require.Equal(t, 2, transport.count())
}

func TestCheckCachesDefiniteVerdicts(t *testing.T) {
	transport := &countingTransport{fn: func(req *http.Request) (*http.Response, error) {
		return htmlResponse(http.StatusOK, playerHTML), nil
	}}
	c := newTestChecker(t, transport)
	ctx := context.Background()

	first := c.Check(ctx, models.KindMovie, 550, 0, 0)
	second := c.Check(ctx, models.KindMovie, 550, 0, 0)
	require.Equal(t, first.Availability, second.Availability)
	require.Equal(t, first.CheckedAt.Unix(), second.CheckedAt.Unix(), "second check should be served from cache")
	require.Equal(t, 1, transport.count())
}

func TestCheckDoesNotCacheUnknown(t *testing.T) {
	transport := &countingTransport{fn: func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("timeout")
	}}
	c := newTestChecker(t, transport)
	ctx := context.Background()

	c.Check(ctx, models.KindMovie, 550, 0, 0)
	c.Check(ctx, models.KindMovie, 550, 0, 0)
	// Two checks, each retried once: four wire calls proves no caching.
	require.Equal(t, 4, transport.count())
}

func TestCheckEmptyBodyIsUnavailable(t *testing.T) {
	c := newTestChecker(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return htmlResponse(http.StatusOK, ""), nil
	}))

	result := c.Check(context.Background(), models.KindMovie, 550, 0, 0)
	require.Equal(t, models.AvailabilityUnavailable, result.Availability)
}

func TestCheckJSONErrorBodyIsUnavailable(t *testing.T) {
	c := newTestChecker(t, roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return htmlResponse(http.StatusOK, `{"error":"no sources"}`), nil
	}))

	result := c.Check(context.Background(), models.KindMovie, 550, 0, 0)
	require.Equal(t, models.AvailabilityUnavailable, result.Availability)
}

func TestPolicyPlayable(t *testing.T) {
	cases := []struct {
		policy  Policy
		verdict models.Availability
		want    bool
	}{
		{PolicyOptimistic, models.AvailabilityAvailable, true},
		{PolicyOptimistic, models.AvailabilityUnavailable, false},
		{PolicyOptimistic, models.AvailabilityUnknown, true},
		{PolicyConservative, models.AvailabilityAvailable, true},
		{PolicyConservative, models.AvailabilityUnavailable, false},
		{PolicyConservative, models.AvailabilityUnknown, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.policy.Playable(tc.verdict),
			"policy=%s verdict=%s", tc.policy, tc.verdict)
	}
}
