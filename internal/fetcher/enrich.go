package fetcher

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/meteotray/meteotray/internal/openweather"
	"github.com/meteotray/meteotray/internal/units"
	"github.com/meteotray/meteotray/internal/weather"
)

// enrich fetches the UV index and ozone column for the cycle's
// coordinates. Both calls are single-attempt: enrichment data is
// decorative and a failed call emits an event with a nil index instead
// of consuming the retry budget.
func (o *Orchestrator) enrich(loc weather.Location, coord weather.Coordinates) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*o.cfg.Timeout)
	defer cancel()

	client := o.newHTTPClient()

	uv := weather.Event{Kind: weather.EventUVIndex, Location: loc, Coord: coord}
	if body, err := o.fetchOnce(ctx, client, o.cfg.API.UVIndexURL(coord.Lat, coord.Lon)); err != nil {
		log.Printf("INFO: uv index not available for %s: %v", loc.Key(), err)
	} else if value, perr := openweather.ParseUVIndex(body); perr != nil {
		log.Printf("INFO: uv index not usable for %s: %v", loc.Key(), perr)
	} else {
		uv.Index = &value
		uv.Risk = units.UVRisk(value)
	}
	o.emit(uv)

	ozone := weather.Event{Kind: weather.EventOzoneIndex, Location: loc, Coord: coord}
	if body, err := o.fetchOnce(ctx, client, o.cfg.API.OzoneURL(coord.Lat, coord.Lon)); err != nil {
		log.Printf("INFO: ozone not available for %s: %v", loc.Key(), err)
	} else if value, perr := openweather.ParseOzone(body); perr != nil {
		log.Printf("INFO: ozone not usable for %s: %v", loc.Key(), perr)
	} else {
		ozone.Index = &value
	}
	o.emit(ozone)
}

// fetchOnce GETs rawURL with no retries, still paced by the shared rate
// limiter.
func (o *Orchestrator) fetchOnce(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &openweather.ServerError{
			Code:    http.StatusText(resp.StatusCode),
			Message: "unexpected status",
		}
	}
	return io.ReadAll(resp.Body)
}
