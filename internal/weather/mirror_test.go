package weather

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeStore records what the mirror writes.
type fakeStore struct {
	mu          sync.Mutex
	snapshots   []WeatherSnapshot
	forecasts   []ForecastBundle
	enrichments []Enrichment
}

func (f *fakeStore) SaveSnapshot(_ Location, s WeatherSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, s)
}

func (f *fakeStore) SaveForecast(_ Location, b ForecastBundle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecasts = append(f.forecasts, b)
}

func (f *fakeStore) SaveEnrichment(_ Location, e Enrichment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrichments = append(f.enrichments, e)
}

func (f *fakeStore) GetLatest(Location) (WeatherSnapshot, error) {
	return WeatherSnapshot{}, errors.New("not implemented")
}
func (f *fakeStore) GetForecast(Location) (ForecastBundle, error) {
	return ForecastBundle{}, errors.New("not implemented")
}
func (f *fakeStore) GetEnrichment(Location) (Enrichment, error) {
	return Enrichment{}, errors.New("not implemented")
}
func (f *fakeStore) GetRange(Location, time.Time, time.Time) ([]WeatherSnapshot, error) {
	return nil, errors.New("not implemented")
}

var mirrorLoc = Location{ID: "2643743", City: "London", Country: "GB"}

func TestMirrorSnapshot(t *testing.T) {
	fs := &fakeStore{}
	m := NewStoreMirror(fs)

	m.Apply(Event{
		Kind:     EventCurrentWeather,
		Location: mirrorLoc,
		Snapshot: &WeatherSnapshot{Temperature: Measurement{Value: 12.0, Unit: "°C"}},
	})

	if len(fs.snapshots) != 1 || fs.snapshots[0].Temperature.Value != 12.0 {
		t.Fatalf("unexpected snapshots: %+v", fs.snapshots)
	}
}

func TestMirrorForecastBundle(t *testing.T) {
	fs := &fakeStore{}
	m := NewStoreMirror(fs)

	m.Apply(Event{Kind: EventDayForecast, Location: mirrorLoc, Periods: []ForecastPeriod{{Temperature: 11.0}}})
	m.Apply(Event{Kind: EventSixDayForecast, Location: mirrorLoc, Periods: []ForecastPeriod{{TempMin: 6.1, TempMax: 11.4}}})

	if len(fs.forecasts) != 2 {
		t.Fatalf("expected 2 forecast writes, got %d", len(fs.forecasts))
	}
	last := fs.forecasts[1]
	if !last.SixDayAvailable || len(last.SixDay) != 1 || len(last.Day) != 1 {
		t.Errorf("unexpected final bundle: %+v", last)
	}

	// A new cycle without a 6-day event downgrades the bundle.
	m.Apply(Event{Kind: EventDayForecast, Location: mirrorLoc, Periods: []ForecastPeriod{{Temperature: 9.0}}})
	downgraded := fs.forecasts[2]
	if downgraded.SixDayAvailable || downgraded.SixDay != nil {
		t.Errorf("new cycle must clear the 6-day part: %+v", downgraded)
	}
}

func TestMirrorEnrichment(t *testing.T) {
	fs := &fakeStore{}
	m := NewStoreMirror(fs)

	uv := 3.4
	m.Apply(Event{Kind: EventUVIndex, Location: mirrorLoc, Index: &uv, Risk: "Moderate"})
	ozone := 297.5
	m.Apply(Event{Kind: EventOzoneIndex, Location: mirrorLoc, Index: &ozone})

	if len(fs.enrichments) != 2 {
		t.Fatalf("expected 2 enrichment writes, got %d", len(fs.enrichments))
	}
	last := fs.enrichments[1]
	if last.UVIndex == nil || *last.UVIndex != 3.4 || last.UVRisk != "Moderate" {
		t.Errorf("uv part lost on ozone update: %+v", last)
	}
	if last.OzoneIndex == nil || *last.OzoneIndex != 297.5 {
		t.Errorf("unexpected ozone: %+v", last)
	}

	// An unavailable value overwrites with nil rather than going stale.
	m.Apply(Event{Kind: EventUVIndex, Location: mirrorLoc, Index: nil})
	if got := fs.enrichments[2]; got.UVIndex != nil {
		t.Errorf("nil index must clear the stored value: %+v", got)
	}
}

func TestMirrorIgnoresNonStorable(t *testing.T) {
	fs := &fakeStore{}
	m := NewStoreMirror(fs)

	m.Apply(Event{Kind: EventIconBytes, Location: mirrorLoc, Icon: []byte("png")})
	m.Apply(Event{Kind: EventError, Location: mirrorLoc, Message: "boom"})
	m.Apply(Event{Kind: EventDone, Location: mirrorLoc, Status: DoneOK})

	if len(fs.snapshots)+len(fs.forecasts)+len(fs.enrichments) != 0 {
		t.Error("non-storable events must not touch the store")
	}
}
