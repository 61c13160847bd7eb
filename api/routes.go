package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"vetrina/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	catalogHandler *handlers.CatalogHandler,
	playerHandler *handlers.PlayerHandler,
	healthHandler *handlers.HealthHandler,
	limiter *FixedWindowLimiter,
) {
	api := r.PathPrefix("/api").Subrouter()

	api.Use(corsMiddleware)
	api.Use(requestIDMiddleware)
	api.Use(loggingMiddleware)
	api.Use(RateLimitMiddleware(limiter))

	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/health", handleOptions).Methods(http.MethodOptions)

	// Catalog browsing. Literal segments (genres, search) are registered
	// before the {kind}/{id} patterns so they never shadow each other.
	api.HandleFunc("/catalog/genres/{kind}", catalogHandler.Genres).Methods(http.MethodGet)
	api.HandleFunc("/catalog/genres/{kind}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/search/{kind}", catalogHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/catalog/search/{kind}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/{kind}/collection/{name}", catalogHandler.Collection).Methods(http.MethodGet)
	api.HandleFunc("/catalog/{kind}/collection/{name}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/{kind}/{id:[0-9]+}/trailers", catalogHandler.Trailers).Methods(http.MethodGet)
	api.HandleFunc("/catalog/{kind}/{id:[0-9]+}/trailers", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/{kind}/{id:[0-9]+}", catalogHandler.Details).Methods(http.MethodGet)
	api.HandleFunc("/catalog/{kind}/{id:[0-9]+}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/{kind}", catalogHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/catalog/{kind}", handleOptions).Methods(http.MethodOptions)

	// Series structure, optionally pruned to playable episodes.
	api.HandleFunc("/tv/{id:[0-9]+}/seasons", playerHandler.Seasons).Methods(http.MethodGet)
	api.HandleFunc("/tv/{id:[0-9]+}/seasons", handleOptions).Methods(http.MethodOptions)

	// Player URL building, availability probes and playback events.
	api.HandleFunc("/player/check-availability", playerHandler.CheckAvailability).Methods(http.MethodGet)
	api.HandleFunc("/player/check-availability", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/player/events", playerHandler.Events).Methods(http.MethodPost)
	api.HandleFunc("/player/events", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/player/{kind}/{id:[0-9]+}", playerHandler.Player).Methods(http.MethodGet)
	api.HandleFunc("/player/{kind}/{id:[0-9]+}", handleOptions).Methods(http.MethodOptions)
}
