// Package config owns the settings.json lifecycle: defaults, load with
// backfill for configs written by older versions, and atomic save.
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Settings struct {
	Server    ServerSettings    `json:"server"`
	TMDB      TMDBSettings      `json:"tmdb"`
	Embed     EmbedSettings     `json:"embed"`
	Cache     CacheSettings     `json:"cache"`
	RateLimit RateLimitSettings `json:"rateLimit"`
	Log       LogConfig         `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type TMDBSettings struct {
	APIKey   string `json:"apiKey"`
	Language string `json:"language"`
}

type EmbedSettings struct {
	BaseURL         string `json:"baseUrl"`
	ProbeTimeoutSec int    `json:"probeTimeoutSec"`
}

// CacheSettings selects the cache backend. "memory" needs no extra fields;
// "redis" uses the redis* ones.
type CacheSettings struct {
	Backend                string `json:"backend"`
	RedisAddr              string `json:"redisAddr,omitempty"`
	RedisPassword          string `json:"redisPassword,omitempty"`
	RedisDB                int    `json:"redisDb,omitempty"`
	CatalogTTLSeconds      int    `json:"catalogTtlSeconds"`
	GenreTTLSeconds        int    `json:"genreTtlSeconds"`
	AvailabilityTTLSeconds int    `json:"availabilityTtlSeconds"`
}

type RateLimitSettings struct {
	MaxRequests   int `json:"maxRequests"`
	WindowMinutes int `json:"windowMinutes"`
}

type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
	MaxAge     int    `json:"maxAgeDays"`
	Compress   bool   `json:"compress"`
}

func (c CacheSettings) CatalogTTL() time.Duration {
	return time.Duration(c.CatalogTTLSeconds) * time.Second
}

func (c CacheSettings) GenreTTL() time.Duration {
	return time.Duration(c.GenreTTLSeconds) * time.Second
}

func (c CacheSettings) AvailabilityTTL() time.Duration {
	return time.Duration(c.AvailabilityTTLSeconds) * time.Second
}

func (r RateLimitSettings) Window() time.Duration {
	return time.Duration(r.WindowMinutes) * time.Minute
}

func (e EmbedSettings) ProbeTimeout() time.Duration {
	return time.Duration(e.ProbeTimeoutSec) * time.Second
}

func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 8585},
		TMDB:   TMDBSettings{APIKey: "", Language: "en"},
		Embed:  EmbedSettings{BaseURL: "https://vixsrc.to", ProbeTimeoutSec: 10},
		Cache: CacheSettings{
			Backend:                "memory",
			RedisAddr:              "",
			CatalogTTLSeconds:      3600,
			GenreTTLSeconds:        86400,
			AvailabilityTTLSeconds: 300,
		},
		RateLimit: RateLimitSettings{MaxRequests: 100, WindowMinutes: 15},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults for settings a pre-existing config does not carry.
	defaults := DefaultSettings()
	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = defaults.Server.Host
	}
	if s.Server.Port <= 0 {
		s.Server.Port = defaults.Server.Port
	}
	if strings.TrimSpace(s.TMDB.Language) == "" {
		s.TMDB.Language = defaults.TMDB.Language
	}
	if strings.TrimSpace(s.Embed.BaseURL) == "" {
		s.Embed.BaseURL = defaults.Embed.BaseURL
	}
	if s.Embed.ProbeTimeoutSec <= 0 {
		s.Embed.ProbeTimeoutSec = defaults.Embed.ProbeTimeoutSec
	}
	if strings.TrimSpace(s.Cache.Backend) == "" {
		s.Cache.Backend = defaults.Cache.Backend
	}
	if s.Cache.CatalogTTLSeconds <= 0 {
		s.Cache.CatalogTTLSeconds = defaults.Cache.CatalogTTLSeconds
	}
	if s.Cache.GenreTTLSeconds <= 0 {
		s.Cache.GenreTTLSeconds = defaults.Cache.GenreTTLSeconds
	}
	if s.Cache.AvailabilityTTLSeconds <= 0 {
		s.Cache.AvailabilityTTLSeconds = defaults.Cache.AvailabilityTTLSeconds
	}
	if s.RateLimit.MaxRequests <= 0 {
		s.RateLimit.MaxRequests = defaults.RateLimit.MaxRequests
	}
	if s.RateLimit.WindowMinutes <= 0 {
		s.RateLimit.WindowMinutes = defaults.RateLimit.WindowMinutes
	}

	return s, nil
}

func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
