package weather

import (
	"time"
)

// Location represents a logical place for which we track weather.
// It is supplied by the consumer (selected in settings) and never
// created by the fetch core itself.
type Location struct {
	ID      string `json:"id"`
	City    string `json:"city"`
	Country string `json:"countryCode"`
}

// Key returns the canonical string key for indexing this location in stores.
// The server-side city id is unique, so it is the key on its own.
func (l Location) Key() string {
	return l.ID
}

// Coordinates is a latitude/longitude pair extracted from the current
// weather response and reused by the UV/ozone enrichment calls.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Measurement is a scalar value together with its display unit
// ("°C", "hPa", "%", ...), as reported by the server.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Wind bundles speed and direction. Direction may be absent in some
// payloads; HasDirection is false in that case and Compass is empty.
type Wind struct {
	Speed        float64 `json:"speed"`
	SpeedName    string  `json:"speedName,omitempty"`
	DirectionDeg float64 `json:"directionDegrees"`
	HasDirection bool    `json:"hasDirection"`
	Compass      string  `json:"compassCode,omitempty"`
	Name         string  `json:"descriptiveName,omitempty"`
}

// CloudCover is the cloud description plus coverage percentage.
type CloudCover struct {
	Description string `json:"description"`
	Percent     int    `json:"percent"`
}

// Precipitation modes as reported by the server.
const (
	PrecipNone = "none"
	PrecipRain = "rain"
	PrecipSnow = "snow"
)

// Precipitation is the precipitation mode plus the measured value in mm.
// When neither rain nor snow is reported, Mode is "none" and HasValue is
// false; that is a regular reading, not an error.
type Precipitation struct {
	Mode     string  `json:"mode"`
	Value    float64 `json:"value"`
	HasValue bool    `json:"hasValue"`
}

// WeatherSnapshot is the complete normalized weather state for one
// location at one point in time. A snapshot is only built when every
// mandatory field of the primary response parsed successfully; partial
// data is never surfaced.
type WeatherSnapshot struct {
	Location      Location      `json:"location"`
	ObservedAt    time.Time     `json:"observedAt"`
	Temperature   Measurement   `json:"temperature"`
	FeelsLike     Measurement   `json:"feelsLike"`
	Humidity      Measurement   `json:"humidity"`
	Pressure      Measurement   `json:"pressure"`
	Wind          Wind          `json:"wind"`
	CloudCover    CloudCover    `json:"cloudCover"`
	Precipitation Precipitation `json:"precipitation"`
	Sunrise       time.Time     `json:"sunrise"`
	Sunset        time.Time     `json:"sunset"`
	ConditionCode int           `json:"conditionCode"`
	Condition     string        `json:"condition"`
	Icon          string        `json:"icon"`
	Coord         Coordinates   `json:"coord"`

	// Trend is filled in by the orchestrator after consulting the
	// TrendTracker for this location.
	Trend *TrendReport `json:"trend,omitempty"`
}

// ForecastPeriod is one discrete future time slot's predicted values.
// Three-hourly periods carry Temperature; daily periods additionally
// carry TempMin/TempMax.
type ForecastPeriod struct {
	Timestamp     time.Time     `json:"timestamp"`
	Temperature   float64       `json:"temperature"`
	TempMin       float64       `json:"tempMin,omitempty"`
	TempMax       float64       `json:"tempMax,omitempty"`
	FeelsLike     float64       `json:"feelsLike"`
	Precipitation Precipitation `json:"precipitation"`
	Wind          Wind          `json:"wind"`
	Pressure      float64       `json:"pressureHpa"`
	Humidity      float64       `json:"humidityPercent"`
	CloudCover    CloudCover    `json:"cloudCover"`
	ConditionCode int           `json:"conditionCode"`
	Icon          string        `json:"icon"`
}

// Enrichment holds the best-effort UV/ozone values for a location.
// A nil index means the value was unavailable this cycle.
type Enrichment struct {
	UVIndex    *float64  `json:"uvIndex"`
	UVRisk     string    `json:"uvRisk,omitempty"`
	OzoneIndex *float64  `json:"ozoneIndexDU"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ForecastBundle is what the read API serves for a location: the day
// forecast plus, when the server provided it, the 6-day forecast.
// SixDayAvailable false means the cycle silently downgraded to the
// 4-day display mode.
type ForecastBundle struct {
	Day             []ForecastPeriod `json:"day"`
	SixDay          []ForecastPeriod `json:"sixDay,omitempty"`
	SixDayAvailable bool             `json:"sixDayAvailable"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Store is the contract the in-memory store (and the bbolt-backed store)
// must satisfy for consumers of normalized results.
type Store interface {
	SaveSnapshot(loc Location, snapshot WeatherSnapshot)
	SaveForecast(loc Location, bundle ForecastBundle)
	SaveEnrichment(loc Location, e Enrichment)
	GetLatest(loc Location) (WeatherSnapshot, error)
	GetForecast(loc Location) (ForecastBundle, error)
	GetEnrichment(loc Location) (Enrichment, error)
	GetRange(loc Location, from, to time.Time) ([]WeatherSnapshot, error)
}
