// Package catalog serves movie and TV metadata from TMDB with a short-TTL
// cache in front and a built-in sample catalog as the degraded-mode fallback.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mozillazg/go-unidecode"

	"vetrina/internal/cache"
	"vetrina/models"
)

// ErrUnknownCollection marks a curated list name the provider does not have.
var ErrUnknownCollection = errors.New("unknown collection")

var movieCollections = map[string]bool{
	"popular":     true,
	"top_rated":   true,
	"now_playing": true,
	"upcoming":    true,
}

var tvCollections = map[string]bool{
	"popular":      true,
	"top_rated":    true,
	"on_the_air":   true,
	"airing_today": true,
}

// Service is the catalog layer: TMDB client + cache + sample fallback.
// Listing and search never fail outright; they degrade to the sample catalog
// when the provider is unreachable.
type Service struct {
	client     *tmdbClient
	store      cache.Store
	catalogTTL time.Duration
	genreTTL   time.Duration
}

func NewService(apiKey, language string, httpc *http.Client, store cache.Store, catalogTTL, genreTTL time.Duration) *Service {
	if catalogTTL <= 0 {
		catalogTTL = time.Hour
	}
	if genreTTL <= 0 {
		genreTTL = 24 * time.Hour
	}
	return &Service{
		client:     newTMDBClient(apiKey, language, httpc),
		store:      store,
		catalogTTL: catalogTTL,
		genreTTL:   genreTTL,
	}
}

// List returns a filtered catalog page. Provider failures degrade to the
// sample catalog instead of erroring.
func (s *Service) List(ctx context.Context, kind models.Kind, filters models.ListFilters) models.Page {
	key := cache.Key("catalog", "list", string(kind),
		strconv.FormatInt(filters.GenreID, 10), strconv.Itoa(filters.Year),
		strings.ToLower(filters.Language), string(filters.SortBy), string(filters.SortOrder),
		strconv.Itoa(pageOrFirst(filters.Page)))

	var cached models.Page
	if ok, _ := s.store.Get(ctx, key, &cached); ok {
		return cached
	}

	page, err := s.client.discover(ctx, kind, filters)
	if err != nil {
		log.Printf("[catalog] discover %s failed, serving samples: %v", kind, err)
		return samplePage(kind)
	}

	if err := s.store.Set(ctx, key, page, s.catalogTTL); err != nil {
		log.Printf("[catalog] cache write failed key=%s err=%v", key, err)
	}
	return page
}

// Collection returns one of the provider's curated lists. The name must be a
// known list for the kind; unknown names return ErrUnknownCollection.
func (s *Service) Collection(ctx context.Context, kind models.Kind, name string, page int) (models.Page, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	valid := tvCollections
	if kind == models.KindMovie {
		valid = movieCollections
	}
	if !valid[name] {
		return models.Page{}, fmt.Errorf("%w: %q for %s", ErrUnknownCollection, name, kind)
	}

	key := cache.Key("catalog", "collection", string(kind), name, strconv.Itoa(pageOrFirst(page)))

	var cached models.Page
	if ok, _ := s.store.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	result, err := s.client.collection(ctx, kind, name, page)
	if err != nil {
		log.Printf("[catalog] collection %s/%s failed, serving samples: %v", kind, name, err)
		return samplePage(kind), nil
	}

	if err := s.store.Set(ctx, key, result, s.catalogTTL); err != nil {
		log.Printf("[catalog] cache write failed key=%s err=%v", key, err)
	}
	return result, nil
}

// Search finds titles by name. Cache keys normalize the query through ASCII
// transliteration so "Amélie" and "Amelie" share an entry. Provider failures
// degrade to a substring match over the sample catalog.
func (s *Service) Search(ctx context.Context, kind models.Kind, query string, page int) models.Page {
	key := cache.Key("catalog", "search", string(kind), normalizeQuery(query), strconv.Itoa(pageOrFirst(page)))

	var cached models.Page
	if ok, _ := s.store.Get(ctx, key, &cached); ok {
		return cached
	}

	result, err := s.client.search(ctx, kind, query, page)
	if err != nil {
		log.Printf("[catalog] search %s %q failed, serving samples: %v", kind, query, err)
		return sampleSearch(kind, query)
	}

	if err := s.store.Set(ctx, key, result, s.catalogTTL); err != nil {
		log.Printf("[catalog] cache write failed key=%s err=%v", key, err)
	}
	return result
}

// Details returns a single title. Unlike listing there is no sample fallback:
// an unknown id is ErrNotFound and provider failures surface as errors.
func (s *Service) Details(ctx context.Context, kind models.Kind, id int64) (models.Title, error) {
	key := cache.Key("catalog", "details", string(kind), strconv.FormatInt(id, 10))

	var cached models.Title
	if ok, _ := s.store.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	title, err := s.client.details(ctx, kind, id)
	if err != nil {
		return models.Title{}, err
	}

	if err := s.store.Set(ctx, key, title, s.catalogTTL); err != nil {
		log.Printf("[catalog] cache write failed key=%s err=%v", key, err)
	}
	return title, nil
}

// Genres returns the provider's genre taxonomy for the kind, cached for a
// long TTL since it practically never changes.
func (s *Service) Genres(ctx context.Context, kind models.Kind) []models.Genre {
	key := cache.Key("catalog", "genres", string(kind))

	var cached []models.Genre
	if ok, _ := s.store.Get(ctx, key, &cached); ok {
		return cached
	}

	genres, err := s.client.genres(ctx, kind)
	if err != nil {
		log.Printf("[catalog] genres %s failed, serving samples: %v", kind, err)
		return sampleGenres(kind)
	}

	if err := s.store.Set(ctx, key, genres, s.genreTTL); err != nil {
		log.Printf("[catalog] cache write failed key=%s err=%v", key, err)
	}
	return genres
}

// Trailers returns the YouTube trailers of a title.
func (s *Service) Trailers(ctx context.Context, kind models.Kind, id int64) ([]models.Trailer, error) {
	key := cache.Key("catalog", "trailers", string(kind), strconv.FormatInt(id, 10))

	var cached []models.Trailer
	if ok, _ := s.store.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	trailers, err := s.client.trailers(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, key, trailers, s.catalogTTL); err != nil {
		log.Printf("[catalog] cache write failed key=%s err=%v", key, err)
	}
	return trailers, nil
}

// SeriesIndex returns every regular season of a show with its episodes,
// ordered by season number. Season pages are fetched concurrently with a
// semaphore to avoid hammering the provider.
func (s *Service) SeriesIndex(ctx context.Context, id int64) ([]models.Season, error) {
	key := cache.Key("catalog", "seasons", strconv.FormatInt(id, 10))

	var cached []models.Season
	if ok, _ := s.store.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	numbers, err := s.client.seasonNumbers(ctx, id)
	if err != nil {
		return nil, err
	}

	const maxConcurrent = 5
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex

	seasons := make([]models.Season, 0, len(numbers))
	var firstErr error

	for _, number := range numbers {
		wg.Add(1)
		go func(number int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			season, err := s.client.season(ctx, id, number)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if len(season.Episodes) > 0 {
				seasons = append(seasons, season)
			}
		}(number)
	}
	wg.Wait()

	if firstErr != nil && len(seasons) == 0 {
		return nil, firstErr
	}

	sort.Slice(seasons, func(i, j int) bool {
		return seasons[i].SeasonNumber < seasons[j].SeasonNumber
	})

	if err := s.store.Set(ctx, key, seasons, s.catalogTTL); err != nil {
		log.Printf("[catalog] cache write failed key=%s err=%v", key, err)
	}
	return seasons, nil
}

// normalizeQuery folds a search query to a stable cache key form: ASCII
// transliterated, lowercased, whitespace collapsed.
func normalizeQuery(query string) string {
	folded := strings.ToLower(unidecode.Unidecode(strings.TrimSpace(query)))
	return strings.Join(strings.Fields(folded), " ")
}
