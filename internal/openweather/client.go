// Package openweather knows the wire side of the weather service: the
// five logical endpoints, the two incompatible body formats (XML primary,
// JSON alternate), server error envelopes, and the normalization of both
// formats into the internal schema.
package openweather

import (
	"fmt"
	"net/url"
	"strconv"
)

// Format selects the wire format requested from (and expected of) an
// endpoint.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

const (
	defaultBaseURL          = "http://api.openweathermap.org/data/2.5"
	defaultPollutionBaseURL = "http://api.openweathermap.org/pollution/v1"
	defaultIconBaseURL      = "http://openweathermap.org/img/w"

	// The 6-day endpoint is asked for 7 periods; the server may send
	// fewer and that is fine.
	dailyForecastCount = 7
)

// Client builds request URLs for the weather service. It carries no
// HTTP state; the orchestrator owns transports and retries.
type Client struct {
	BaseURL          string
	PollutionBaseURL string
	IconBaseURL      string
	APIKey           string

	// Units is the unit system sent to the server ("metric", "imperial").
	Units string
}

// NewClient creates a Client for the given API key and unit system,
// using the public service URLs.
func NewClient(apiKey, units string) *Client {
	return &Client{
		BaseURL:          defaultBaseURL,
		PollutionBaseURL: defaultPollutionBaseURL,
		IconBaseURL:      defaultIconBaseURL,
		APIKey:           apiKey,
		Units:            units,
	}
}

func (c *Client) query(id string, format Format) url.Values {
	values := url.Values{}
	values.Set("id", id)
	values.Set("mode", string(format))
	values.Set("units", c.Units)
	values.Set("appid", c.APIKey)
	return values
}

// CurrentURL is the current-weather endpoint for a city id.
func (c *Client) CurrentURL(id string, format Format) string {
	return fmt.Sprintf("%s/weather?%s", c.BaseURL, c.query(id, format).Encode())
}

// DayForecastURL is the 3-hourly forecast endpoint for a city id.
func (c *Client) DayForecastURL(id string, format Format) string {
	return fmt.Sprintf("%s/forecast?%s", c.BaseURL, c.query(id, format).Encode())
}

// DailyForecastURL is the 6-day forecast endpoint for a city id.
// Only the primary format is served here.
func (c *Client) DailyForecastURL(id string) string {
	values := c.query(id, FormatXML)
	values.Set("cnt", strconv.Itoa(dailyForecastCount))
	return fmt.Sprintf("%s/forecast/daily?%s", c.BaseURL, values.Encode())
}

// UVIndexURL is the UV index endpoint for a coordinate pair. JSON only.
func (c *Client) UVIndexURL(lat, lon float64) string {
	values := url.Values{}
	values.Set("lat", formatCoord(lat))
	values.Set("lon", formatCoord(lon))
	values.Set("appid", c.APIKey)
	return fmt.Sprintf("%s/uvi?%s", c.BaseURL, values.Encode())
}

// OzoneURL is the ozone column density endpoint for a coordinate pair.
// JSON only; the value is reported in Dobson units.
func (c *Client) OzoneURL(lat, lon float64) string {
	return fmt.Sprintf(
		"%s/o3/%s,%s/current.json?appid=%s",
		c.PollutionBaseURL, formatCoord(lat), formatCoord(lon), url.QueryEscape(c.APIKey),
	)
}

// IconURL is the binary weather-icon image for an icon code.
func (c *Client) IconURL(code string) string {
	return fmt.Sprintf("%s/%s.png", c.IconBaseURL, code)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
