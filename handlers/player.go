package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"vetrina/models"
	availabilitypkg "vetrina/services/availability"
	catalogpkg "vetrina/services/catalog"
	"vetrina/services/player"
)

type availabilityService interface {
	Check(ctx context.Context, kind models.Kind, id int64, season, episode int) models.AvailabilityResult
	FilterAvailable(ctx context.Context, showID int64, seasons []models.Season, policy availabilitypkg.Policy) []models.Season
}

var _ availabilityService = (*availabilitypkg.Checker)(nil)

type seriesIndexer interface {
	SeriesIndex(ctx context.Context, id int64) ([]models.Season, error)
}

var _ seriesIndexer = (*catalogpkg.Service)(nil)

// PlayerHandler builds embed player URLs, answers availability queries and
// resolves autoplay transitions from player events.
type PlayerHandler struct {
	Availability availabilityService
	Series       seriesIndexer
	EmbedBaseURL string
}

func NewPlayerHandler(availability availabilityService, series seriesIndexer, embedBaseURL string) *PlayerHandler {
	return &PlayerHandler{Availability: availability, Series: series, EmbedBaseURL: embedBaseURL}
}

// playerResponse is the payload of GET /api/player/{kind}/{id}.
type playerResponse struct {
	URL          string              `json:"url"`
	Availability models.Availability `json:"availability"`
	Playable     bool                `json:"playable"`
}

// Player builds the iframe URL for a title and attaches a point-in-time
// availability verdict. Unknown verdicts are treated optimistically: the
// client gets the URL and tries playback anyway.
func (h *PlayerHandler) Player(w http.ResponseWriter, r *http.Request) {
	kind, id, fields := parseKindAndID(r)
	season, episode := 0, 0

	if kind == models.KindTV {
		var err error
		if season, err = parseEpisodeNumber(r.URL.Query().Get("season")); err != nil {
			fields["season"] = err.Error()
		}
		if episode, err = parseEpisodeNumber(r.URL.Query().Get("episode")); err != nil {
			fields["episode"] = err.Error()
		}
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	opts, fields := parsePlayerOptions(r)
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	result := h.Availability.Check(r.Context(), kind, id, season, episode)
	writeData(w, http.StatusOK, playerResponse{
		URL:          player.BuildURL(h.EmbedBaseURL, kind, id, season, episode, opts),
		Availability: result.Availability,
		Playable:     availabilitypkg.PolicyOptimistic.Playable(result.Availability),
	})
}

// CheckAvailability answers a single availability probe.
func (h *PlayerHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fields := map[string]string{}

	kind, ok := models.ParseKind(q.Get("type"))
	if !ok {
		fields["type"] = "must be movie or tv"
	}
	id, err := strconv.ParseInt(strings.TrimSpace(q.Get("tmdbId")), 10, 64)
	if err != nil || id <= 0 {
		fields["tmdbId"] = "must be a positive integer"
	}

	season, episode := 0, 0
	if kind == models.KindTV {
		if season, err = parseEpisodeNumber(q.Get("season")); err != nil {
			fields["season"] = err.Error()
		}
		if episode, err = parseEpisodeNumber(q.Get("episode")); err != nil {
			fields["episode"] = err.Error()
		}
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	writeData(w, http.StatusOK, h.Availability.Check(r.Context(), kind, id, season, episode))
}

// seasonsResponse is the payload of GET /api/tv/{id}/seasons.
type seasonsResponse struct {
	ShowID   int64           `json:"showId"`
	Filtered bool            `json:"filtered"`
	Seasons  []models.Season `json:"seasons"`
}

// Seasons lists the seasons of a show. With ?filter=available the list is
// pruned to episodes the embed provider can play, erring on the side of
// hiding episodes whose verdict is unknown.
func (h *PlayerHandler) Seasons(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeValidationError(w, map[string]string{"id": "must be a positive integer"})
		return
	}

	filter := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("filter")))
	if filter != "" && filter != "available" {
		writeValidationError(w, map[string]string{"filter": "must be available"})
		return
	}

	seasons, err := h.Series.SeriesIndex(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalogpkg.ErrNotFound) {
			writeError(w, http.StatusNotFound, "show not found")
			return
		}
		writeError(w, http.StatusBadGateway, "catalog provider unavailable")
		return
	}

	if filter == "available" {
		seasons = h.Availability.FilterAvailable(r.Context(), id, seasons, availabilitypkg.PolicyConservative)
	}

	writeData(w, http.StatusOK, seasonsResponse{ShowID: id, Filtered: filter == "available", Seasons: seasons})
}

// playerEventRequest carries a raw player event plus the playback context it
// happened in.
type playerEventRequest struct {
	Kind    string `json:"kind"`
	ID      int64  `json:"id"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

type eventResponse struct {
	Action           string       `json:"action"`
	Next             *player.Unit `json:"next,omitempty"`
	URL              string       `json:"url,omitempty"`
	RedirectDelaySec int          `json:"redirectDelaySec,omitempty"`
}

const autoplayRedirectDelaySec = 3

// Events ingests postMessage events relayed by the client. An "ended" event
// on an episode resolves the next unit to autoplay; everything else is
// acknowledged with no action.
func (h *PlayerHandler) Events(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	ev, err := player.ParseEvent(body)
	if err != nil {
		if errors.Is(err, player.ErrUnknownEvent) {
			writeValidationError(w, map[string]string{"type": "unknown event type"})
			return
		}
		writeError(w, http.StatusBadRequest, "malformed event payload")
		return
	}

	var req playerEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed event payload")
		return
	}

	if ev.Type != player.EventEnded {
		writeData(w, http.StatusOK, eventResponse{Action: "none"})
		return
	}

	kind, ok := models.ParseKind(req.Kind)
	if !ok || req.ID <= 0 {
		writeValidationError(w, map[string]string{"kind": "must be movie or tv", "id": "must be a positive integer"})
		return
	}

	if kind == models.KindMovie {
		writeData(w, http.StatusOK, eventResponse{Action: "complete"})
		return
	}

	seasons, err := h.Series.SeriesIndex(r.Context(), req.ID)
	if err != nil {
		log.Printf("[player] series index failed show=%d err=%v", req.ID, err)
		writeData(w, http.StatusOK, eventResponse{Action: "complete"})
		return
	}

	next, state, ok := player.Next(player.Unit{Season: req.Season, Episode: req.Episode}, player.BuildIndex(seasons))
	if !ok || state != player.StatePlaying {
		writeData(w, http.StatusOK, eventResponse{Action: "complete"})
		return
	}

	autoplay := true
	url := player.BuildURL(h.EmbedBaseURL, models.KindTV, req.ID, next.Season, next.Episode, player.Options{Autoplay: &autoplay})
	writeData(w, http.StatusOK, eventResponse{
		Action:           "play",
		Next:             &next,
		URL:              url,
		RedirectDelaySec: autoplayRedirectDelaySec,
	})
}

func parseEpisodeNumber(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return n, nil
}

func parsePlayerOptions(r *http.Request) (player.Options, map[string]string) {
	q := r.URL.Query()
	fields := map[string]string{}
	opts := player.Options{
		Lang:           strings.TrimSpace(q.Get("lang")),
		PrimaryColor:   strings.TrimSpace(q.Get("primaryColor")),
		SecondaryColor: strings.TrimSpace(q.Get("secondaryColor")),
	}

	if raw := strings.TrimSpace(q.Get("autoplay")); raw != "" {
		autoplay, err := strconv.ParseBool(raw)
		if err != nil {
			fields["autoplay"] = "must be true or false"
		} else {
			opts.Autoplay = &autoplay
		}
	}

	if raw := strings.TrimSpace(q.Get("startAt")); raw != "" {
		startAt, err := strconv.Atoi(raw)
		if err != nil || startAt < 0 {
			fields["startAt"] = "must be a non-negative integer"
		} else {
			opts.StartAt = startAt
		}
	}

	return opts, fields
}
