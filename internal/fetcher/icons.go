package fetcher

import (
	"context"
	"log"

	"github.com/meteotray/meteotray/internal/openweather"
	"github.com/meteotray/meteotray/internal/weather"
)

// FetchIcons downloads the icon images for the given codes on the icon
// worker, one at a time. Like Refresh it drops the request when the
// icon worker is already active, and it reports whether the work was
// accepted. The list is clipped to the configured maximum so a long
// forecast cannot turn into an unbounded download burst.
func (o *Orchestrator) FetchIcons(ctx context.Context, loc weather.Location, codes []string) bool {
	if len(codes) == 0 {
		return false
	}
	if !o.iconActive.CompareAndSwap(false, true) {
		log.Printf("DEBUG: icon fetch for %s dropped, worker already active", loc.Key())
		return false
	}

	if len(codes) > o.cfg.MaxForecastIcons {
		codes = codes[:o.cfg.MaxForecastIcons]
	}

	go func() {
		defer o.iconActive.Store(false)
		o.runIconFetch(ctx, loc, codes)
	}()
	return true
}

func (o *Orchestrator) runIconFetch(ctx context.Context, loc weather.Location, codes []string) {
	client := o.newHTTPClient()

	for _, code := range codes {
		if ctx.Err() != nil {
			return
		}

		body, err := o.fetchOnce(ctx, client, o.cfg.API.IconURL(code))
		if err != nil {
			log.Printf("WARN: icon %s not available: %v", code, err)
			o.emit(weather.Event{Kind: weather.EventError, Location: loc, Name: code, Message: err.Error()})
			continue
		}
		if env, ok := openweather.DetectEnvelope(body); ok {
			log.Printf("WARN: icon %s answered with an envelope: %v", code, env)
			o.emit(weather.Event{Kind: weather.EventError, Location: loc, Name: code, Message: env.Error()})
			continue
		}

		o.emit(weather.Event{Kind: weather.EventIconBytes, Location: loc, Name: code, Icon: body})
	}
}
