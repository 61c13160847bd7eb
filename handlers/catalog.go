package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"vetrina/models"
	catalogpkg "vetrina/services/catalog"
)

type catalogService interface {
	List(ctx context.Context, kind models.Kind, filters models.ListFilters) models.Page
	Collection(ctx context.Context, kind models.Kind, name string, page int) (models.Page, error)
	Search(ctx context.Context, kind models.Kind, query string, page int) models.Page
	Details(ctx context.Context, kind models.Kind, id int64) (models.Title, error)
	Genres(ctx context.Context, kind models.Kind) []models.Genre
	Trailers(ctx context.Context, kind models.Kind, id int64) ([]models.Trailer, error)
}

var _ catalogService = (*catalogpkg.Service)(nil)

type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(s catalogService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := models.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		writeValidationError(w, map[string]string{"kind": "must be movie or tv"})
		return
	}

	filters, fields := parseListFilters(r)
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	writeData(w, http.StatusOK, h.Service.List(r.Context(), kind, filters))
}

func (h *CatalogHandler) Collection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, ok := models.ParseKind(vars["kind"])
	if !ok {
		writeValidationError(w, map[string]string{"kind": "must be movie or tv"})
		return
	}

	page, err := parsePage(r.URL.Query().Get("page"))
	if err != nil {
		writeValidationError(w, map[string]string{"page": err.Error()})
		return
	}

	result, err := h.Service.Collection(r.Context(), kind, vars["name"], page)
	if err != nil {
		if errors.Is(err, catalogpkg.ErrUnknownCollection) {
			writeValidationError(w, map[string]string{"name": "unknown collection"})
			return
		}
		writeError(w, http.StatusBadGateway, "catalog provider unavailable")
		return
	}
	writeData(w, http.StatusOK, result)
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	kind, ok := models.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		writeValidationError(w, map[string]string{"kind": "must be movie or tv"})
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeValidationError(w, map[string]string{"query": "query is required"})
		return
	}

	page, err := parsePage(r.URL.Query().Get("page"))
	if err != nil {
		writeValidationError(w, map[string]string{"page": err.Error()})
		return
	}

	writeData(w, http.StatusOK, h.Service.Search(r.Context(), kind, query, page))
}

func (h *CatalogHandler) Details(w http.ResponseWriter, r *http.Request) {
	kind, id, fields := parseKindAndID(r)
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	title, err := h.Service.Details(r.Context(), kind, id)
	if err != nil {
		if errors.Is(err, catalogpkg.ErrNotFound) {
			writeError(w, http.StatusNotFound, "title not found")
			return
		}
		writeError(w, http.StatusBadGateway, "catalog provider unavailable")
		return
	}
	writeData(w, http.StatusOK, title)
}

func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	kind, ok := models.ParseKind(mux.Vars(r)["kind"])
	if !ok {
		writeValidationError(w, map[string]string{"kind": "must be movie or tv"})
		return
	}
	writeData(w, http.StatusOK, h.Service.Genres(r.Context(), kind))
}

func (h *CatalogHandler) Trailers(w http.ResponseWriter, r *http.Request) {
	kind, id, fields := parseKindAndID(r)
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	trailers, err := h.Service.Trailers(r.Context(), kind, id)
	if err != nil {
		if errors.Is(err, catalogpkg.ErrNotFound) {
			writeError(w, http.StatusNotFound, "title not found")
			return
		}
		writeError(w, http.StatusBadGateway, "catalog provider unavailable")
		return
	}
	writeData(w, http.StatusOK, trailers)
}

func parseKindAndID(r *http.Request) (models.Kind, int64, map[string]string) {
	vars := mux.Vars(r)
	fields := map[string]string{}

	kind, ok := models.ParseKind(vars["kind"])
	if !ok {
		fields["kind"] = "must be movie or tv"
	}
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		fields["id"] = "must be a positive integer"
	}
	return kind, id, fields
}

func parseListFilters(r *http.Request) (models.ListFilters, map[string]string) {
	q := r.URL.Query()
	fields := map[string]string{}
	var filters models.ListFilters

	if raw := strings.TrimSpace(q.Get("genre")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			fields["genre"] = "must be a positive integer"
		} else {
			filters.GenreID = id
		}
	}

	if raw := strings.TrimSpace(q.Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 1870 || year > 2100 {
			fields["year"] = "must be a four-digit year"
		} else {
			filters.Year = year
		}
	}

	filters.Language = strings.TrimSpace(q.Get("language"))

	if raw := strings.TrimSpace(q.Get("sortBy")); raw != "" {
		switch models.SortBy(raw) {
		case models.SortByPopularity, models.SortByRating, models.SortByReleaseDate, models.SortByTitle:
			filters.SortBy = models.SortBy(raw)
		default:
			fields["sortBy"] = "must be one of popularity, rating, releaseDate, title"
		}
	}

	raw := strings.TrimSpace(q.Get("sortOrder"))
	if raw == "" {
		// Legacy alias.
		raw = strings.TrimSpace(q.Get("order"))
	}
	if raw != "" {
		switch models.SortOrder(raw) {
		case models.SortAsc, models.SortDesc:
			filters.SortOrder = models.SortOrder(raw)
		default:
			fields["sortOrder"] = "must be asc or desc"
		}
	}

	page, err := parsePage(q.Get("page"))
	if err != nil {
		fields["page"] = err.Error()
	} else {
		filters.Page = page
	}

	return filters, fields
}

func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return page, nil
}
