package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"vetrina/api"
	"vetrina/config"
	"vetrina/handlers"
	"vetrina/internal/cache"
	"vetrina/services/availability"
	"vetrina/services/catalog"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 vetrina Backend Starting...")

	configPath := os.Getenv("VETRINA_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if settings.TMDB.APIKey == "" {
		log.Println("⚠️  No TMDB API key configured; the catalog serves built-in samples only")
	}

	// Cache backend: redis when configured, with a memory fallback so a
	// missing redis never blocks startup.
	var store cache.Store
	if settings.Cache.Backend == "redis" && settings.Cache.RedisAddr != "" {
		redisStore, err := cache.NewRedis(settings.Cache.RedisAddr, settings.Cache.RedisPassword, settings.Cache.RedisDB)
		if err != nil {
			log.Printf("⚠️  redis unavailable at %s, falling back to memory cache: %v", settings.Cache.RedisAddr, err)
			store = cache.NewMemory(time.Minute)
		} else {
			log.Printf("✅ redis cache connected: %s", settings.Cache.RedisAddr)
			store = redisStore
		}
	} else {
		store = cache.NewMemory(time.Minute)
	}

	catalogSvc := catalog.NewService(settings.TMDB.APIKey, settings.TMDB.Language, nil, store,
		settings.Cache.CatalogTTL(), settings.Cache.GenreTTL())
	checker := availability.NewChecker(settings.Embed.BaseURL,
		&http.Client{Timeout: settings.Embed.ProbeTimeout()}, store,
		settings.Cache.AvailabilityTTL())

	limiter := api.NewFixedWindowLimiter(settings.RateLimit.MaxRequests, settings.RateLimit.Window())

	r := mux.NewRouter()
	api.Register(r,
		handlers.NewCatalogHandler(catalogSvc),
		handlers.NewPlayerHandler(checker, catalogSvc, settings.Embed.BaseURL),
		handlers.NewHealthHandler(),
		limiter,
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	limiter.Stop()
	if err := store.Close(); err != nil {
		log.Printf("Cache close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
