package config

import (
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("WEATHER_LOCATIONS", "2643743:London:GB, 524901:Moscow:RU")
	t.Setenv("FETCH_INTERVAL", "30m")
	t.Setenv("STORE_BACKEND", "bolt")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OpenWeatherAPIKey != "test-key" {
		t.Errorf("unexpected api key: %q", cfg.OpenWeatherAPIKey)
	}
	if cfg.Units != "metric" {
		t.Errorf("unexpected default units: %q", cfg.Units)
	}
	if cfg.FetchInterval.Minutes() != 30 {
		t.Errorf("unexpected interval: %v", cfg.FetchInterval)
	}
	if cfg.StoreBackend != StoreBolt {
		t.Errorf("unexpected store backend: %q", cfg.StoreBackend)
	}

	if len(cfg.Locations) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(cfg.Locations))
	}
	if cfg.Locations[0].ID != "2643743" || cfg.Locations[0].City != "London" || cfg.Locations[0].Country != "GB" {
		t.Errorf("unexpected first location: %+v", cfg.Locations[0])
	}
	if cfg.Locations[1].ID != "524901" {
		t.Errorf("unexpected second location: %+v", cfg.Locations[1])
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")
	t.Setenv("WEATHER_LOCATIONS", "2643743:London:GB")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without an api key")
	}
}

func TestLoadRejectsBadLocations(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")

	for _, raw := range []string{"", "London", "2643743:London", ":London:GB"} {
		t.Setenv("WEATHER_LOCATIONS", raw)
		if _, err := Load(); err == nil {
			t.Errorf("expected an error for %q", raw)
		}
	}
}

func TestLoadRejectsBadUnits(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("WEATHER_LOCATIONS", "2643743:London:GB")
	t.Setenv("WEATHER_UNITS", "kelvin")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown unit system")
	}
}

func TestProxyURL(t *testing.T) {
	cfg := &AppConfig{}
	u, err := cfg.ProxyURL()
	if err != nil || u != nil {
		t.Fatalf("no proxy configured must yield nil, got %v, %v", u, err)
	}

	cfg = &AppConfig{
		ProxyHost:     "proxy.example.com",
		ProxyPort:     "3128",
		ProxyUser:     "alice",
		ProxyPassword: "secret",
	}
	u, err = cfg.ProxyURL()
	if err != nil {
		t.Fatalf("ProxyURL: %v", err)
	}
	if u.Host != "proxy.example.com:3128" {
		t.Errorf("unexpected host: %q", u.Host)
	}
	if u.User.Username() != "alice" {
		t.Errorf("unexpected user: %q", u.User.Username())
	}
	if pw, _ := u.User.Password(); pw != "secret" {
		t.Errorf("unexpected password: %q", pw)
	}
}
