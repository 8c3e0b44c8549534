package weather

import (
	"sync"
	"time"
)

// StoreMirror consumes the event stream and keeps a Store up to date
// with the latest normalized results. It is one of possibly several
// event consumers; the fetch core itself never writes to the store.
type StoreMirror struct {
	store Store

	mu      sync.Mutex
	bundles map[string]ForecastBundle
	enrich  map[string]Enrichment
}

func NewStoreMirror(store Store) *StoreMirror {
	return &StoreMirror{
		store:   store,
		bundles: make(map[string]ForecastBundle),
		enrich:  make(map[string]Enrichment),
	}
}

// Run applies every event until the channel closes.
func (m *StoreMirror) Run(events <-chan Event) {
	for ev := range events {
		m.Apply(ev)
	}
}

// Apply folds one event into the store. Events that carry no storable
// payload (icon bytes, progress, errors) are ignored.
func (m *StoreMirror) Apply(ev Event) {
	switch ev.Kind {
	case EventCurrentWeather:
		if ev.Snapshot != nil {
			m.store.SaveSnapshot(ev.Location, *ev.Snapshot)
		}

	case EventDayForecast:
		m.mu.Lock()
		// A day forecast opens a new cycle's bundle; the 6-day part is
		// cleared until (and unless) this cycle delivers one.
		bundle := ForecastBundle{
			Day:       ev.Periods,
			UpdatedAt: time.Now(),
		}
		m.bundles[ev.Location.Key()] = bundle
		m.mu.Unlock()
		m.store.SaveForecast(ev.Location, bundle)

	case EventSixDayForecast:
		m.mu.Lock()
		bundle := m.bundles[ev.Location.Key()]
		bundle.SixDay = ev.Periods
		bundle.SixDayAvailable = true
		bundle.UpdatedAt = time.Now()
		m.bundles[ev.Location.Key()] = bundle
		m.mu.Unlock()
		m.store.SaveForecast(ev.Location, bundle)

	case EventUVIndex:
		m.mu.Lock()
		e := m.enrich[ev.Location.Key()]
		e.UVIndex = ev.Index
		e.UVRisk = ev.Risk
		e.UpdatedAt = time.Now()
		m.enrich[ev.Location.Key()] = e
		m.mu.Unlock()
		m.store.SaveEnrichment(ev.Location, e)

	case EventOzoneIndex:
		m.mu.Lock()
		e := m.enrich[ev.Location.Key()]
		e.OzoneIndex = ev.Index
		e.UpdatedAt = time.Now()
		m.enrich[ev.Location.Key()] = e
		m.mu.Unlock()
		m.store.SaveEnrichment(ev.Location, e)
	}
}
