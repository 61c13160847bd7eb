package models

import "strings"

// Kind identifies the two media types served by the catalog.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

// ParseKind normalizes a path/query value into a Kind. It accepts the common
// aliases clients send ("movies", "series", "show").
func ParseKind(value string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "movies":
		return KindMovie, true
	case "tv", "series", "show", "shows":
		return KindTV, true
	default:
		return "", false
	}
}

// Title is a movie or show record sourced from the metadata provider.
// Immutable once fetched; re-fetched on cache expiry.
type Title struct {
	ID          int64   `json:"id"`
	Kind        Kind    `json:"kind"`
	Name        string  `json:"name"`
	Overview    string  `json:"overview,omitempty"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	BackdropURL string  `json:"backdropUrl,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Rating      float64 `json:"rating"`
	VoteCount   int     `json:"voteCount"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int64 `json:"genreIds,omitempty"`
	// Fallback marks titles served from the built-in sample catalog when the
	// metadata provider is unreachable.
	Fallback bool `json:"fallback,omitempty"`
}

// Page is one provider page of titles.
type Page struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"totalPages"`
	TotalResults int     `json:"totalResults"`
	Results      []Title `json:"results"`
}

// Genre is one entry of the provider's genre taxonomy.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type SortBy string

const (
	SortByPopularity  SortBy = "popularity"
	SortByRating      SortBy = "rating"
	SortByReleaseDate SortBy = "releaseDate"
	SortByTitle       SortBy = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListFilters are the optional query filters for catalog listing. The zero
// value means "no filter" for every field; Page is 1-based.
type ListFilters struct {
	GenreID   int64
	Year      int
	Language  string
	SortBy    SortBy
	SortOrder SortOrder
	Page      int
}

// Trailer is a provider video entry mapped to a playable URL.
type Trailer struct {
	Name         string `json:"name"`
	Site         string `json:"site"`
	Type         string `json:"type"`
	Key          string `json:"key"`
	Official     bool   `json:"official"`
	PublishedAt  string `json:"publishedAt,omitempty"`
	URL          string `json:"url"`
	EmbedURL     string `json:"embedUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}
