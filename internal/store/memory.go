package store

import (
	"errors"
	"sync"
	"time"

	"github.com/meteotray/meteotray/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a location.
	ErrNotFound = errors.New("no weather data for location")
)

// snapshotHistory holds a time-ordered list of snapshots for a location.
type snapshotHistory struct {
	Snapshots []weather.WeatherSnapshot
}

// MemoryStore is a concurrency-safe in-memory implementation of
// weather.Store. It is the default backend; the bbolt backend is used
// when persistence across restarts is wanted.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data        map[string]*snapshotHistory
	forecasts   map[string]weather.ForecastBundle
	enrichments map[string]weather.Enrichment

	// retention configuration
	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:        make(map[string]*snapshotHistory),
		forecasts:   make(map[string]weather.ForecastBundle),
		enrichments: make(map[string]weather.Enrichment),
		maxHistory:  maxHistory,
		maxAge:      maxAge,
	}
}

// SaveSnapshot appends a new snapshot for a location and enforces retention.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.WeatherSnapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &snapshotHistory{}
		s.data[key] = history
	}

	history.Snapshots = append(history.Snapshots, snapshot)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots); i++ {
			if !history.Snapshots[i].ObservedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.Snapshots) {
			history.Snapshots = history.Snapshots[i:]
		}
	}
}

// SaveForecast replaces the forecast bundle for a location.
func (s *MemoryStore) SaveForecast(loc weather.Location, bundle weather.ForecastBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecasts[loc.Key()] = bundle
}

// SaveEnrichment replaces the UV/ozone enrichment for a location.
func (s *MemoryStore) SaveEnrichment(loc weather.Location, e weather.Enrichment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrichments[loc.Key()] = e
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[loc.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetForecast returns the stored forecast bundle for a location.
func (s *MemoryStore) GetForecast(loc weather.Location) (weather.ForecastBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundle, ok := s.forecasts[loc.Key()]
	if !ok {
		return weather.ForecastBundle{}, ErrNotFound
	}
	return bundle, nil
}

// GetEnrichment returns the stored enrichment for a location.
func (s *MemoryStore) GetEnrichment(loc weather.Location) (weather.Enrichment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.enrichments[loc.Key()]
	if !ok {
		return weather.Enrichment{}, ErrNotFound
	}
	return e, nil
}

// GetRange returns all snapshots for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[loc.Key()]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.WeatherSnapshot
	for _, snap := range history.Snapshots {
		if !snap.ObservedAt.Before(from) && !snap.ObservedAt.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
