// Package fetcher coordinates the per-cycle network calls against the
// weather service: the mandatory current-weather and day-forecast
// fetches with bounded retry and format fallback, the best-effort 6-day
// forecast, icon downloads, and the asynchronous UV/ozone enrichment.
// Results go out as normalized events; the package never mutates
// consumer-visible state directly.
package fetcher

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/meteotray/meteotray/internal/openweather"
	"github.com/meteotray/meteotray/internal/weather"
)

// Config bundles everything a refresh cycle needs.
type Config struct {
	API *openweather.Client

	// Timeout bounds each individual network call.
	Timeout time.Duration

	Backoff BackoffConfig

	// ProxyURL, when non-nil, routes every call through an HTTP proxy.
	// Basic-auth credentials travel in the URL's userinfo.
	ProxyURL *url.URL

	// RatePerSec caps outbound calls to stay inside the service quota.
	RatePerSec float64

	// EventBuffer is the capacity of the event channel.
	EventBuffer int

	// MaxForecastIcons bounds the icon list one icon worker downloads.
	MaxForecastIcons int
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Backoff.InitialInterval <= 0 {
		c.Backoff.InitialInterval = 500 * time.Millisecond
	}
	if c.Backoff.MaxInterval <= 0 {
		c.Backoff.MaxInterval = 5 * time.Second
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 10
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
	if c.MaxForecastIcons <= 0 {
		c.MaxForecastIcons = 6
	}
}

// Orchestrator runs refresh cycles and emits normalized events.
type Orchestrator struct {
	cfg     Config
	trends  *weather.TrendTracker
	events  chan weather.Event
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter

	// Per-channel "is running" guards: a request for a channel whose
	// worker is active is dropped, not queued.
	refreshActive atomic.Bool
	iconActive    atomic.Bool

	// Monotonic cycle ids enforce start-order precedence on snapshot
	// publication: a slower, older cycle never overwrites a newer one.
	cycleSeq      atomic.Uint64
	pubMu         sync.Mutex
	lastPublished uint64
}

// New creates an Orchestrator. The trend tracker is injected so its
// process-wide lifecycle is owned by the caller.
func New(cfg Config, trends *weather.TrendTracker) *Orchestrator {
	cfg.applyDefaults()

	burst := int(cfg.RatePerSec)
	if burst < 1 {
		burst = 1
	}

	return &Orchestrator{
		cfg:    cfg,
		trends: trends,
		events: make(chan weather.Event, cfg.EventBuffer),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openweather",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst),
	}
}

// Events is the core-to-consumer stream. Consumers must drain it.
func (o *Orchestrator) Events() <-chan weather.Event {
	return o.events
}

// Refresh starts a refresh cycle for the location on the background
// worker and returns immediately. It reports false when the request was
// dropped because a primary-fetch worker is already active. Every cycle
// starts with a fresh retry counter, so a manual refresh implicitly
// resets the retry state.
func (o *Orchestrator) Refresh(ctx context.Context, loc weather.Location) bool {
	if !o.refreshActive.CompareAndSwap(false, true) {
		log.Printf("DEBUG: refresh for %s dropped, worker already active", loc.Key())
		return false
	}

	cycleID := o.cycleSeq.Add(1)
	go func() {
		defer o.refreshActive.Store(false)
		o.runCycle(ctx, cycleID, loc)
	}()
	return true
}

func (o *Orchestrator) runCycle(ctx context.Context, cycleID uint64, loc weather.Location) {
	tag := uuid.NewString()[:8]
	tr := o.newTransport(tag)
	state := &RetryState{}

	log.Printf("DEBUG: [%s] cycle %d: refreshing %s (%s)", tag, cycleID, loc.City, loc.ID)

	// The 6-day forecast is best effort with its own retry budget; any
	// failure silently downgrades the cycle to the 4-day display mode.
	var sixDay []weather.ForecastPeriod
	sixDayAvailable := false
	if body, err := tr.fetch(ctx, o.cfg.API.DailyForecastURL(loc.ID), &RetryState{}); err != nil {
		log.Printf("INFO: [%s] 6-day forecast not available: %v", tag, err)
	} else if periods, perr := openweather.ParseDailyForecast(body); perr != nil {
		log.Printf("INFO: [%s] 6-day forecast not usable: %v", tag, perr)
	} else {
		sixDay = periods
		sixDayAvailable = true
	}

	snapshot, err := o.fetchCurrent(ctx, tr, state, loc)
	if err != nil {
		o.fail(tag, loc, err)
		return
	}

	dayForecast, err := o.fetchDayForecast(ctx, tr, state, loc)
	if err != nil {
		o.fail(tag, loc, err)
		return
	}

	o.emit(weather.Event{Kind: weather.EventIconName, Location: loc, Name: snapshot.Icon})
	o.emit(weather.Event{Kind: weather.EventUVCoordinates, Location: loc, Coord: snapshot.Coord})

	iconBytes, err := o.fetchIcon(ctx, tr, state, snapshot.Icon)
	if err != nil {
		o.fail(tag, loc, err)
		return
	}

	// Enrichment runs decoupled so its latency or failure never delays
	// snapshot delivery.
	go o.enrich(loc, snapshot.Coord)

	if !o.tryPublish(cycleID) {
		log.Printf("INFO: [%s] cycle %d finished after a newer cycle, result dropped", tag, cycleID)
		o.emit(weather.Event{Kind: weather.EventDone, Location: loc, Status: weather.DoneOK})
		return
	}

	trend := o.trends.Update(loc.ID, snapshot.Pressure.Value, snapshot.Temperature.Value)
	snapshot.Trend = &trend

	o.emit(weather.Event{Kind: weather.EventCurrentWeather, Location: loc, Snapshot: snapshot})
	o.emit(weather.Event{Kind: weather.EventDayForecast, Location: loc, Periods: dayForecast})
	if sixDayAvailable {
		o.emit(weather.Event{Kind: weather.EventSixDayForecast, Location: loc, Periods: sixDay})
	}
	o.emit(weather.Event{Kind: weather.EventIconBytes, Location: loc, Icon: iconBytes})
	o.emit(weather.Event{Kind: weather.EventDone, Location: loc, Status: weather.DoneOK})

	o.FetchIcons(ctx, loc, forecastIconCodes(dayForecast, sixDay))
}

// fetchCurrent retrieves and parses the current-weather endpoint.
// Structural failures in the primary format get exactly one alternate-
// format attempt before escalating to FatalParseError; server error
// envelopes get one alternate attempt and then transient semantics.
func (o *Orchestrator) fetchCurrent(ctx context.Context, tr *transport, state *RetryState, loc weather.Location) (*weather.WeatherSnapshot, error) {
	unitSystem := o.cfg.API.Units

	for {
		body, err := tr.fetch(ctx, o.cfg.API.CurrentURL(loc.ID, openweather.FormatXML), state)
		if err != nil {
			return nil, err
		}

		snapshot, perr := openweather.ParseCurrent(body, openweather.FormatXML, unitSystem)
		if perr == nil {
			return snapshot, nil
		}

		var malformed *openweather.MalformedError
		var serverErr *openweather.ServerError
		switch {
		case errors.As(perr, &malformed):
			log.Printf("DEBUG: [%s] current weather primary format incomplete (%v), trying alternate", tr.tag, perr)
			body, err := tr.fetch(ctx, o.cfg.API.CurrentURL(loc.ID, openweather.FormatJSON), state)
			if err != nil {
				return nil, err
			}
			snapshot, perr := openweather.ParseCurrent(body, openweather.FormatJSON, unitSystem)
			if perr != nil {
				return nil, &FatalParseError{Endpoint: "current weather", Err: perr}
			}
			return snapshot, nil

		case errors.As(perr, &serverErr):
			log.Printf("DEBUG: [%s] current weather envelope (%v), trying alternate", tr.tag, perr)
			body, err := tr.fetch(ctx, o.cfg.API.CurrentURL(loc.ID, openweather.FormatJSON), state)
			if err != nil {
				return nil, err
			}
			if snapshot, perr := openweather.ParseCurrent(body, openweather.FormatJSON, unitSystem); perr == nil {
				return snapshot, nil
			}
			if !state.Record() {
				return nil, &retryExhaustedError{cause: serverErr, attempts: state.Attempts()}
			}
			if err := sleepCtx(ctx, o.cfg.Backoff.delay(state.Attempts())); err != nil {
				return nil, err
			}

		default:
			return nil, &FatalParseError{Endpoint: "current weather", Err: perr}
		}
	}
}

// fetchDayForecast retrieves and parses the day-forecast endpoint with
// the same fallback ladder as fetchCurrent.
func (o *Orchestrator) fetchDayForecast(ctx context.Context, tr *transport, state *RetryState, loc weather.Location) ([]weather.ForecastPeriod, error) {
	for {
		body, err := tr.fetch(ctx, o.cfg.API.DayForecastURL(loc.ID, openweather.FormatXML), state)
		if err != nil {
			return nil, err
		}

		periods, perr := openweather.ParseDayForecast(body, openweather.FormatXML)
		if perr == nil {
			return periods, nil
		}

		var malformed *openweather.MalformedError
		var serverErr *openweather.ServerError
		switch {
		case errors.As(perr, &malformed):
			log.Printf("DEBUG: [%s] day forecast primary format incomplete (%v), trying alternate", tr.tag, perr)
			body, err := tr.fetch(ctx, o.cfg.API.DayForecastURL(loc.ID, openweather.FormatJSON), state)
			if err != nil {
				return nil, err
			}
			periods, perr := openweather.ParseDayForecast(body, openweather.FormatJSON)
			if perr != nil {
				return nil, &FatalParseError{Endpoint: "day forecast", Err: perr}
			}
			return periods, nil

		case errors.As(perr, &serverErr):
			log.Printf("DEBUG: [%s] day forecast envelope (%v), trying alternate", tr.tag, perr)
			body, err := tr.fetch(ctx, o.cfg.API.DayForecastURL(loc.ID, openweather.FormatJSON), state)
			if err != nil {
				return nil, err
			}
			if periods, perr := openweather.ParseDayForecast(body, openweather.FormatJSON); perr == nil {
				return periods, nil
			}
			if !state.Record() {
				return nil, &retryExhaustedError{cause: serverErr, attempts: state.Attempts()}
			}
			if err := sleepCtx(ctx, o.cfg.Backoff.delay(state.Attempts())); err != nil {
				return nil, err
			}

		default:
			return nil, &FatalParseError{Endpoint: "day forecast", Err: perr}
		}
	}
}

// fetchIcon downloads one icon image. The icon endpoint answers missing
// icons with an error envelope body, which counts against the transient
// retry budget.
func (o *Orchestrator) fetchIcon(ctx context.Context, tr *transport, state *RetryState, code string) ([]byte, error) {
	for {
		body, err := tr.fetch(ctx, o.cfg.API.IconURL(code), state)
		if err != nil {
			return nil, err
		}
		env, ok := openweather.DetectEnvelope(body)
		if !ok {
			return body, nil
		}
		if !state.Record() {
			return nil, &retryExhaustedError{cause: env, attempts: state.Attempts()}
		}
		if err := sleepCtx(ctx, o.cfg.Backoff.delay(state.Attempts())); err != nil {
			return nil, err
		}
	}
}

func (o *Orchestrator) fail(tag string, loc weather.Location, err error) {
	log.Printf("ERROR: [%s] refresh failed for %s: %v", tag, loc.Key(), err)
	o.emit(weather.Event{Kind: weather.EventError, Location: loc, Message: err.Error()})
	o.emit(weather.Event{Kind: weather.EventDone, Location: loc, Status: weather.DoneFailed})
}

func (o *Orchestrator) emit(ev weather.Event) {
	o.events <- ev
}

// tryPublish claims publication for a cycle. Cycles publish in start
// order: once a newer cycle has published, older ones are discarded.
func (o *Orchestrator) tryPublish(cycleID uint64) bool {
	o.pubMu.Lock()
	defer o.pubMu.Unlock()
	if cycleID < o.lastPublished {
		return false
	}
	o.lastPublished = cycleID
	return true
}

// newTransport builds the per-worker transport. The proxy configuration
// is read here, at worker start, and applied to this worker only.
func (o *Orchestrator) newTransport(tag string) *transport {
	return &transport{
		client:  o.newHTTPClient(),
		breaker: o.breaker,
		limiter: o.limiter,
		backoff: o.cfg.Backoff,
		tag:     tag,
	}
}

func (o *Orchestrator) newHTTPClient() *http.Client {
	rt := &http.Transport{}
	if o.cfg.ProxyURL != nil {
		rt.Proxy = http.ProxyURL(o.cfg.ProxyURL)
	}
	return &http.Client{
		Timeout:   o.cfg.Timeout,
		Transport: rt,
	}
}

// forecastIconCodes collects the distinct icon codes of the upcoming
// periods, day forecast first.
func forecastIconCodes(day, sixDay []weather.ForecastPeriod) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, p := range append(append([]weather.ForecastPeriod{}, day...), sixDay...) {
		if p.Icon == "" || seen[p.Icon] {
			continue
		}
		seen[p.Icon] = true
		codes = append(codes, p.Icon)
	}
	return codes
}

type retryExhaustedError struct {
	cause    error
	attempts int
}

func (e *retryExhaustedError) Error() string {
	return ErrRetriesExhausted.Error() + ": " + e.cause.Error()
}

func (e *retryExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

func (e *retryExhaustedError) Unwrap() error {
	return e.cause
}
