package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/meteotray/meteotray/internal/weather"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketSnapshots   = []byte("snapshots")
	bucketForecasts   = []byte("forecasts")
	bucketEnrichments = []byte("enrichments")
	bucketInternal    = []byte("_meta")
)

// BoltStore is a bbolt-backed implementation of weather.Store. Unlike
// MemoryStore it survives restarts, which keeps trend history and the
// last-known snapshot available immediately after startup.
//
// Buckets:
//
//	snapshots   — snapshots keyed by <location>|<RFC3339 observed-at>
//	forecasts   — latest forecast bundle per location
//	enrichments — latest UV/ozone values per location
//	_meta       — internal: schema version, created_at
type BoltStore struct {
	db *bolt.DB

	maxHistory int
}

// OpenBolt opens (or creates) the bbolt database at path. Parent
// directories are created automatically and schema migrations run on
// every open. maxHistory bounds the snapshots kept per location;
// <= 0 means unlimited.
func OpenBolt(path string, maxHistory int) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &BoltStore{db: db, maxHistory: maxHistory}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// migrate ensures all buckets exist and the schema is current.
func (s *BoltStore) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSnapshots, bucketForecasts, bucketEnrichments, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// snapshotKey builds the canonical snapshot key. The RFC3339 timestamp
// sorts lexicographically, so a cursor scan over the location prefix
// walks snapshots in time order.
func snapshotKey(loc weather.Location, observedAt time.Time) []byte {
	return []byte(loc.Key() + "|" + observedAt.UTC().Format(time.RFC3339))
}

func locationPrefix(loc weather.Location) []byte {
	return []byte(loc.Key() + "|")
}

// SaveSnapshot stores a snapshot and trims the location's history to the
// configured bound. Write failures are logged, not surfaced; the store
// is a best-effort mirror of the event stream.
func (s *BoltStore) SaveSnapshot(loc weather.Location, snapshot weather.WeatherSnapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("ERROR: encoding snapshot for %s: %v", loc.Key(), err)
		return
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		if err := b.Put(snapshotKey(loc, snapshot.ObservedAt), data); err != nil {
			return err
		}
		if s.maxHistory <= 0 {
			return nil
		}

		prefix := locationPrefix(loc)
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for len(keys) > s.maxHistory {
			if err := b.Delete(keys[0]); err != nil {
				return err
			}
			keys = keys[1:]
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR: saving snapshot for %s: %v", loc.Key(), err)
	}
}

// SaveForecast replaces the forecast bundle for a location.
func (s *BoltStore) SaveForecast(loc weather.Location, bundle weather.ForecastBundle) {
	s.putJSON(bucketForecasts, loc, bundle, "forecast")
}

// SaveEnrichment replaces the UV/ozone enrichment for a location.
func (s *BoltStore) SaveEnrichment(loc weather.Location, e weather.Enrichment) {
	s.putJSON(bucketEnrichments, loc, e, "enrichment")
}

func (s *BoltStore) putJSON(bucket []byte, loc weather.Location, v interface{}, what string) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: encoding %s for %s: %v", what, loc.Key(), err)
		return
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(loc.Key()), data)
	})
	if err != nil {
		log.Printf("ERROR: saving %s for %s: %v", what, loc.Key(), err)
	}
}

// GetLatest returns the most recent snapshot for a location.
func (s *BoltStore) GetLatest(loc weather.Location) (weather.WeatherSnapshot, error) {
	var snapshot weather.WeatherSnapshot
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := locationPrefix(loc)
		c := tx.Bucket(bucketSnapshots).Cursor()

		var last []byte
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			last = v
		}
		if last == nil {
			return nil
		}
		found = true
		return json.Unmarshal(last, &snapshot)
	})
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	if !found {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return snapshot, nil
}

// GetForecast returns the stored forecast bundle for a location.
func (s *BoltStore) GetForecast(loc weather.Location) (weather.ForecastBundle, error) {
	var bundle weather.ForecastBundle
	found, err := s.getJSON(bucketForecasts, loc, &bundle)
	if err != nil {
		return weather.ForecastBundle{}, err
	}
	if !found {
		return weather.ForecastBundle{}, ErrNotFound
	}
	return bundle, nil
}

// GetEnrichment returns the stored enrichment for a location.
func (s *BoltStore) GetEnrichment(loc weather.Location) (weather.Enrichment, error) {
	var e weather.Enrichment
	found, err := s.getJSON(bucketEnrichments, loc, &e)
	if err != nil {
		return weather.Enrichment{}, err
	}
	if !found {
		return weather.Enrichment{}, ErrNotFound
	}
	return e, nil
}

func (s *BoltStore) getJSON(bucket []byte, loc weather.Location, out interface{}) (bool, error) {
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(loc.Key()))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, out)
	})
	return found, err
}

// GetRange returns all snapshots for a location between from and to
// (inclusive).
func (s *BoltStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	var result []weather.WeatherSnapshot

	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := locationPrefix(loc)
		c := tx.Bucket(bucketSnapshots).Cursor()

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var snap weather.WeatherSnapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}
			if !snap.ObservedAt.Before(from) && !snap.ObservedAt.After(to) {
				result = append(result, snap)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
