package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/meteotray/meteotray/internal/weather"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
)

type AppConfig struct {
	// OpenWeatherAPIKey authenticates every call to the weather service.
	OpenWeatherAPIKey string `validate:"required"`

	// Units is the unit system requested from the server.
	Units string `validate:"oneof=metric imperial"`

	// FetchInterval controls how often we refresh each location.
	FetchInterval time.Duration `validate:"min=1m"`

	// HTTPTimeout bounds each individual network call.
	HTTPTimeout time.Duration `validate:"min=1s"`

	// RatePerSec caps outbound calls against the service quota.
	RatePerSec float64 `validate:"gt=0"`

	// Locations to track.
	Locations []weather.Location `validate:"min=1,dive"`

	// Proxy settings; empty host means direct connections.
	ProxyHost     string
	ProxyPort     string
	ProxyUser     string
	ProxyPassword string

	// Store backend selection and retention.
	StoreBackend    string `validate:"oneof=memory bolt"`
	StorePath       string
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.Units = getenvDefault("WEATHER_UNITS", "metric")

	// Scheduler interval: default 15 minutes.
	interval, err := getenvDuration("FETCH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	cfg.FetchInterval = interval

	timeout, err := getenvDuration("HTTP_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	cfg.RatePerSec = getenvFloat("RATE_PER_SEC", 10)

	cfg.ProxyHost = os.Getenv("PROXY_HOST")
	cfg.ProxyPort = getenvDefault("PROXY_PORT", "8080")
	cfg.ProxyUser = os.Getenv("PROXY_USER")
	cfg.ProxyPassword = os.Getenv("PROXY_PASSWORD")

	// Store backend and retention.
	cfg.StoreBackend = getenvDefault("STORE_BACKEND", StoreMemory)
	cfg.StorePath = getenvDefault("STORE_PATH", "data/weather.db")
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals

	maxAge, err := getenvDuration("STORE_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}
	cfg.StoreMaxAge = maxAge
	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := parseLocations(os.Getenv("WEATHER_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ProxyURL assembles the proxy URL from the host/port/credential parts.
// Returns nil when no proxy host is configured.
func (c *AppConfig) ProxyURL() (*url.URL, error) {
	if c.ProxyHost == "" {
		return nil, nil
	}

	u := &url.URL{
		Scheme: "http",
		Host:   c.ProxyHost + ":" + c.ProxyPort,
	}
	if c.ProxyUser != "" {
		u.User = url.UserPassword(c.ProxyUser, c.ProxyPassword)
	}
	return u, nil
}

// parseLocations parses the WEATHER_LOCATIONS value, a comma-separated
// list of id:city:countryCode entries, e.g.
// "2643743:London:GB,524901:Moscow:RU".
func parseLocations(raw string) ([]weather.Location, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("WEATHER_LOCATIONS must list at least one id:city:countryCode entry")
	}

	var locs []weather.Location
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid location entry %q, want id:city:countryCode", entry)
		}
		loc := weather.Location{
			ID:      strings.TrimSpace(parts[0]),
			City:    strings.TrimSpace(parts[1]),
			Country: strings.TrimSpace(parts[2]),
		}
		if loc.ID == "" || loc.City == "" {
			return nil, fmt.Errorf("invalid location entry %q, id and city are required", entry)
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
