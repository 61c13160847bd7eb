// Package availability probes the embed provider for playable content and
// prunes episode lists down to what can actually be played. Verdicts are
// advisory, point-in-time judgments: a failed probe never blocks playback.
package availability

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gabriel-vasile/mimetype"

	"vetrina/internal/cache"
	"vetrina/models"
	"vetrina/services/player"
)

// Policy decides what an unknown verdict means to a caller. Direct playback
// uses PolicyOptimistic (try anyway); list pre-filtering uses
// PolicyConservative (hide it).
type Policy string

const (
	PolicyOptimistic   Policy = "optimistic"
	PolicyConservative Policy = "conservative"
)

// Playable maps a verdict through the policy.
func (p Policy) Playable(v models.Availability) bool {
	switch v {
	case models.AvailabilityAvailable:
		return true
	case models.AvailabilityUnavailable:
		return false
	default:
		return p == PolicyOptimistic
	}
}

const (
	probeAttempts   = 2
	probeRetryDelay = 300 * time.Millisecond
	defaultTimeout  = 10 * time.Second
	// sniffLimit bounds how much of a 2xx body is read for content sniffing.
	sniffLimit = 512
)

// Checker issues existence probes against the embed provider and caches the
// verdicts for a short TTL.
type Checker struct {
	baseURL string
	httpc   *http.Client
	store   cache.Store
	ttl     time.Duration
}

// NewChecker creates a Checker. A nil client gets the uniform 10s timeout
// applied to every outbound probe.
func NewChecker(baseURL string, httpc *http.Client, store cache.Store, ttl time.Duration) *Checker {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Checker{baseURL: baseURL, httpc: httpc, store: store, ttl: ttl}
}

// Check probes whether the embed provider serves playable content for the
// given title. Definite verdicts are cached; unknown (probe failure) is not,
// so the next attempt re-probes.
func (c *Checker) Check(ctx context.Context, kind models.Kind, id int64, season, episode int) models.AvailabilityResult {
	key := cache.Key("availability", string(kind), strconv.FormatInt(id, 10),
		strconv.Itoa(season), strconv.Itoa(episode))

	var cached models.AvailabilityResult
	if ok, err := c.store.Get(ctx, key, &cached); err != nil {
		log.Printf("[availability] cache read failed key=%s err=%v", key, err)
	} else if ok {
		return cached
	}

	result := models.AvailabilityResult{
		TMDBID:       id,
		Kind:         kind,
		Season:       season,
		Episode:      episode,
		Availability: c.probe(ctx, player.BuildURL(c.baseURL, kind, id, season, episode, player.Options{})),
		CheckedAt:    time.Now().UTC(),
	}

	if result.Availability != models.AvailabilityUnknown {
		if err := c.store.Set(ctx, key, result, c.ttl); err != nil {
			log.Printf("[availability] cache write failed key=%s err=%v", key, err)
		}
	}
	return result
}

// probe issues the existence check with one bounded retry. Transport errors,
// timeouts, 429 and 5xx responses are retried once; if the retry also fails
// the verdict is unknown.
func (c *Checker) probe(ctx context.Context, target string) models.Availability {
	verdict := models.AvailabilityUnknown

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; vetrina/1.0)")

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("embed probe failed: %s", resp.Status)
			case resp.StatusCode >= 400:
				verdict = models.AvailabilityUnavailable
				return nil
			}

			verdict = sniffBody(resp.Body)
			return nil
		},
		retry.Attempts(probeAttempts),
		retry.Delay(probeRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[availability] probe failed url=%s err=%v", target, err)
		return models.AvailabilityUnknown
	}
	return verdict
}

// sniffBody classifies a 2xx response. The embed provider answers with an
// HTML player page when content exists; an empty body or an unrecognized
// payload means there is nothing to play behind the 200.
func sniffBody(body io.Reader) models.Availability {
	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return models.AvailabilityUnavailable
		}
		return models.AvailabilityUnknown
	}

	mt := mimetype.Detect(head[:n])
	if mt.Is("text/html") || isStreamType(mt) {
		return models.AvailabilityAvailable
	}
	return models.AvailabilityUnavailable
}

func isStreamType(mt *mimetype.MIME) bool {
	for _, candidate := range []string{"video/mp4", "video/webm", "application/x-mpegurl", "audio/x-mpegurl"} {
		if mt.Is(candidate) {
			return true
		}
	}
	return false
}
