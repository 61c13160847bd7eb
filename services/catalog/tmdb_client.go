package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"vetrina/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// Optimized image sizes instead of "original":
	// posters render at ~200-300px in cards, backdrops at 1080p backgrounds.
	tmdbPosterSize   = "w500"
	tmdbBackdropSize = "w1280"
)

// ErrNotFound marks a title id the provider does not know.
var ErrNotFound = errors.New("title not found")

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client
	limiter  *rate.Limiter
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:   strings.TrimSpace(apiKey),
		language: language,
		httpc:    httpc,
		// TMDB has generous rate limits; 50 req/s stays well inside them.
		limiter: rate.NewLimiter(rate.Every(20*time.Millisecond), 1),
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

func (c *tmdbClient) endpoint(parts ...string) (string, error) {
	return url.JoinPath(tmdbBaseURL, parts...)
}

// doGET performs an HTTP GET with client-side throttling and retry with
// exponential backoff. 404 maps to ErrNotFound; other 4xx responses fail
// without retry.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	if !c.isConfigured() {
		return errors.New("tmdb api key not configured")
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if query.Get("language") == "" {
		query.Set("language", normalizeLanguage(c.language))
	}

	var lastErr error
	backoff := 300 * time.Millisecond

	for attempt := 0; attempt < 3; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.URL.RawQuery = query.Encode()

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			log.Printf("[tmdb] http error (attempt %d/3): %v", attempt+1, err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			log.Printf("[tmdb] rate limited or server error (attempt %d/3): status %d", attempt+1, resp.StatusCode)
			lastErr = fmt.Errorf("tmdb request failed: %s", resp.Status)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return ErrNotFound
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return fmt.Errorf("tmdb request failed: %s", resp.Status)
		}

		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		if err != nil {
			return err
		}
		return nil
	}

	return lastErr
}

type tmdbListResponse struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []tmdbTitle `json:"results"`
}

type tmdbTitle struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int64 `json:"genre_ids"`
	Genres       []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Seasons []struct {
		SeasonNumber int    `json:"season_number"`
		EpisodeCount int    `json:"episode_count"`
		Name         string `json:"name"`
	} `json:"seasons"`
}

type tmdbGenresResponse struct {
	Genres []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type tmdbVideosResponse struct {
	Results []struct {
		Name        string `json:"name"`
		Key         string `json:"key"`
		Site        string `json:"site"`
		Type        string `json:"type"`
		Official    bool   `json:"official"`
		PublishedAt string `json:"published_at"`
	} `json:"results"`
}

type tmdbSeasonResponse struct {
	SeasonNumber int    `json:"season_number"`
	Name         string `json:"name"`
	Episodes     []struct {
		SeasonNumber  int     `json:"season_number"`
		EpisodeNumber int     `json:"episode_number"`
		Name          string  `json:"name"`
		Overview      string  `json:"overview"`
		StillPath     string  `json:"still_path"`
		AirDate       string  `json:"air_date"`
		Runtime       int     `json:"runtime"`
		VoteAverage   float64 `json:"vote_average"`
	} `json:"episodes"`
}

func apiPath(kind models.Kind) string {
	if kind == models.KindMovie {
		return "movie"
	}
	return "tv"
}

// discover lists titles through TMDB's /discover endpoint with the given
// genre, year, language and sort filters applied.
func (c *tmdbClient) discover(ctx context.Context, kind models.Kind, filters models.ListFilters) (models.Page, error) {
	endpoint, err := c.endpoint("discover", apiPath(kind))
	if err != nil {
		return models.Page{}, err
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(pageOrFirst(filters.Page)))
	q.Set("sort_by", sortParam(kind, filters.SortBy, filters.SortOrder))
	if filters.GenreID != 0 {
		q.Set("with_genres", strconv.FormatInt(filters.GenreID, 10))
	}
	if filters.Year != 0 {
		if kind == models.KindMovie {
			q.Set("primary_release_year", strconv.Itoa(filters.Year))
		} else {
			q.Set("first_air_date_year", strconv.Itoa(filters.Year))
		}
	}
	if lang := strings.TrimSpace(filters.Language); lang != "" {
		q.Set("language", normalizeLanguage(lang))
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, q, &payload); err != nil {
		return models.Page{}, err
	}
	return toPage(kind, payload), nil
}

// collection fetches one of TMDB's curated lists (popular, top_rated, ...).
func (c *tmdbClient) collection(ctx context.Context, kind models.Kind, name string, page int) (models.Page, error) {
	endpoint, err := c.endpoint(apiPath(kind), name)
	if err != nil {
		return models.Page{}, err
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(pageOrFirst(page)))

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, q, &payload); err != nil {
		return models.Page{}, err
	}
	return toPage(kind, payload), nil
}

func (c *tmdbClient) search(ctx context.Context, kind models.Kind, query string, page int) (models.Page, error) {
	endpoint, err := c.endpoint("search", apiPath(kind))
	if err != nil {
		return models.Page{}, err
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(pageOrFirst(page)))
	q.Set("include_adult", "false")

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, q, &payload); err != nil {
		return models.Page{}, err
	}
	return toPage(kind, payload), nil
}

func (c *tmdbClient) details(ctx context.Context, kind models.Kind, id int64) (models.Title, error) {
	endpoint, err := c.endpoint(apiPath(kind), strconv.FormatInt(id, 10))
	if err != nil {
		return models.Title{}, err
	}

	var payload tmdbTitle
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return models.Title{}, err
	}
	return toTitle(kind, payload), nil
}

// seasonNumbers lists the regular seasons of a show, skipping specials
// (season 0) and seasons with no episodes.
func (c *tmdbClient) seasonNumbers(ctx context.Context, id int64) ([]int, error) {
	endpoint, err := c.endpoint("tv", strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}

	var payload tmdbTitle
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	numbers := make([]int, 0, len(payload.Seasons))
	for _, s := range payload.Seasons {
		if s.SeasonNumber > 0 && s.EpisodeCount > 0 {
			numbers = append(numbers, s.SeasonNumber)
		}
	}
	return numbers, nil
}

func (c *tmdbClient) season(ctx context.Context, showID int64, number int) (models.Season, error) {
	endpoint, err := c.endpoint("tv", strconv.FormatInt(showID, 10), "season", strconv.Itoa(number))
	if err != nil {
		return models.Season{}, err
	}

	var payload tmdbSeasonResponse
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return models.Season{}, err
	}

	season := models.Season{
		ShowID:       showID,
		SeasonNumber: payload.SeasonNumber,
		Name:         payload.Name,
	}
	for _, ep := range payload.Episodes {
		season.Episodes = append(season.Episodes, models.Episode{
			SeasonNumber:  ep.SeasonNumber,
			EpisodeNumber: ep.EpisodeNumber,
			Name:          ep.Name,
			Overview:      ep.Overview,
			StillURL:      buildImage(ep.StillPath, tmdbPosterSize),
			AirDate:       ep.AirDate,
			Runtime:       ep.Runtime,
			Rating:        ep.VoteAverage,
			Availability:  models.AvailabilityUnknown,
		})
	}
	return season, nil
}

func (c *tmdbClient) genres(ctx context.Context, kind models.Kind) ([]models.Genre, error) {
	endpoint, err := c.endpoint("genre", apiPath(kind), "list")
	if err != nil {
		return nil, err
	}

	var payload tmdbGenresResponse
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	genres := make([]models.Genre, 0, len(payload.Genres))
	for _, g := range payload.Genres {
		genres = append(genres, models.Genre{ID: g.ID, Name: g.Name})
	}
	return genres, nil
}

// trailers fetches the YouTube trailers of a title, official ones first.
func (c *tmdbClient) trailers(ctx context.Context, kind models.Kind, id int64) ([]models.Trailer, error) {
	endpoint, err := c.endpoint(apiPath(kind), strconv.FormatInt(id, 10), "videos")
	if err != nil {
		return nil, err
	}

	var payload tmdbVideosResponse
	if err := c.doGET(ctx, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	trailers := make([]models.Trailer, 0, len(payload.Results))
	for _, video := range payload.Results {
		key := strings.TrimSpace(video.Key)
		if key == "" || !strings.EqualFold(video.Site, "youtube") {
			continue
		}
		if !strings.EqualFold(video.Type, "trailer") && !strings.EqualFold(video.Type, "teaser") {
			continue
		}
		trailers = append(trailers, models.Trailer{
			Name:         strings.TrimSpace(video.Name),
			Site:         "YouTube",
			Type:         video.Type,
			Key:          key,
			Official:     video.Official,
			PublishedAt:  strings.TrimSpace(video.PublishedAt),
			URL:          fmt.Sprintf("https://www.youtube.com/watch?v=%s", key),
			EmbedURL:     fmt.Sprintf("https://www.youtube.com/embed/%s", key),
			ThumbnailURL: fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", key),
		})
	}

	// Official trailers first, keeping provider order within each group.
	ordered := make([]models.Trailer, 0, len(trailers))
	for _, tr := range trailers {
		if tr.Official {
			ordered = append(ordered, tr)
		}
	}
	for _, tr := range trailers {
		if !tr.Official {
			ordered = append(ordered, tr)
		}
	}
	return ordered, nil
}

func toPage(kind models.Kind, payload tmdbListResponse) models.Page {
	page := models.Page{
		Page:         payload.Page,
		TotalPages:   payload.TotalPages,
		TotalResults: payload.TotalResults,
		Results:      make([]models.Title, 0, len(payload.Results)),
	}
	for _, r := range payload.Results {
		page.Results = append(page.Results, toTitle(kind, r))
	}
	return page
}

func toTitle(kind models.Kind, r tmdbTitle) models.Title {
	title := models.Title{
		ID:          r.ID,
		Kind:        kind,
		Name:        pickName(kind, r.Name, r.Title),
		Overview:    r.Overview,
		PosterURL:   buildImage(r.PosterPath, tmdbPosterSize),
		BackdropURL: buildImage(r.BackdropPath, tmdbBackdropSize),
		ReleaseDate: pickDate(kind, r.ReleaseDate, r.FirstAirDate),
		Rating:      r.VoteAverage,
		VoteCount:   r.VoteCount,
		Popularity:  r.Popularity,
		GenreIDs:    r.GenreIDs,
	}
	// Details responses carry expanded genres instead of genre_ids.
	if len(title.GenreIDs) == 0 && len(r.Genres) > 0 {
		for _, g := range r.Genres {
			title.GenreIDs = append(title.GenreIDs, g.ID)
		}
	}
	return title
}

func pickName(kind models.Kind, seriesName, movieTitle string) string {
	if kind == models.KindMovie && movieTitle != "" {
		return movieTitle
	}
	if seriesName != "" {
		return seriesName
	}
	return movieTitle
}

func pickDate(kind models.Kind, movieDate, seriesDate string) string {
	if kind == models.KindMovie {
		return movieDate
	}
	return seriesDate
}

func buildImage(imagePath, size string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, path.Join(size, strings.TrimPrefix(trimmed, "/")))
}

func sortParam(kind models.Kind, by models.SortBy, order models.SortOrder) string {
	field := "popularity"
	switch by {
	case models.SortByRating:
		field = "vote_average"
	case models.SortByReleaseDate:
		if kind == models.KindMovie {
			field = "primary_release_date"
		} else {
			field = "first_air_date"
		}
	case models.SortByTitle:
		if kind == models.KindMovie {
			field = "original_title"
		} else {
			field = "name"
		}
	}
	dir := "desc"
	if order == models.SortAsc {
		dir = "asc"
	}
	return field + "." + dir
}

func pageOrFirst(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizeLanguage(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if len(lang) == 2 {
		return strings.ToLower(lang) + "-US"
	}
	if len(lang) >= 5 {
		return strings.ToLower(lang[:2]) + "-" + strings.ToUpper(lang[3:])
	}
	return "en-US"
}
