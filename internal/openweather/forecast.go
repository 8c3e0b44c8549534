package openweather

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/meteotray/meteotray/internal/units"
	"github.com/meteotray/meteotray/internal/weather"
)

// xmlForecast mirrors both forecast documents of the primary format: the
// 3-hourly day forecast (time elements keyed by "from") and the daily
// 6-day forecast (time elements keyed by "day"). Shared tag names, so
// one shape covers both; unused attributes decode to their zero value.
type xmlForecast struct {
	XMLName xml.Name          `xml:"weatherdata"`
	Times   []xmlForecastTime `xml:"forecast>time"`
}

type xmlForecastTime struct {
	From string `xml:"from,attr"`
	Day  string `xml:"day,attr"`

	Symbol struct {
		Number int    `xml:"number,attr"`
		Var    string `xml:"var,attr"`
		Name   string `xml:"name,attr"`
	} `xml:"symbol"`
	Precipitation struct {
		Mode  string `xml:"mode,attr"`
		Type  string `xml:"type,attr"`
		Value string `xml:"value,attr"`
	} `xml:"precipitation"`
	WindDirection struct {
		Deg  string `xml:"deg,attr"`
		Code string `xml:"code,attr"`
		Name string `xml:"name,attr"`
	} `xml:"windDirection"`
	WindSpeed struct {
		Mps  float64 `xml:"mps,attr"`
		Name string  `xml:"name,attr"`
	} `xml:"windSpeed"`
	Temperature struct {
		Value string `xml:"value,attr"`
		Day   string `xml:"day,attr"`
		Min   string `xml:"min,attr"`
		Max   string `xml:"max,attr"`
		Unit  string `xml:"unit,attr"`
	} `xml:"temperature"`
	FeelsLike struct {
		Value string `xml:"value,attr"`
		Day   string `xml:"day,attr"`
		Unit  string `xml:"unit,attr"`
	} `xml:"feels_like"`
	Pressure struct {
		Value float64 `xml:"value,attr"`
	} `xml:"pressure"`
	Humidity struct {
		Value float64 `xml:"value,attr"`
	} `xml:"humidity"`
	Clouds struct {
		Value string `xml:"value,attr"`
		All   int    `xml:"all,attr"`
	} `xml:"clouds"`
}

// jsonForecast mirrors the alternate-format day forecast document.
type jsonForecast struct {
	List []jsonForecastItem `json:"list"`
}

type jsonForecastItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Wind struct {
		Speed float64  `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Rain map[string]float64 `json:"rain"`
	Snow map[string]float64 `json:"snow"`
}

// ParseDayForecast decodes a 3-hourly forecast body in the given format
// and normalizes it into an ordered period sequence, earliest first.
// The sequence is as long as the server made it; fewer periods than
// requested is not an error.
func ParseDayForecast(body []byte, format Format) ([]weather.ForecastPeriod, error) {
	if env, ok := DetectEnvelope(body); ok {
		return nil, env
	}
	if format == FormatJSON {
		return parseDayForecastJSON(body)
	}
	return parseDayForecastXML(body)
}

// ParseDailyForecast decodes the 6-day forecast body. This endpoint only
// serves the primary format.
func ParseDailyForecast(body []byte) ([]weather.ForecastPeriod, error) {
	if env, ok := DetectEnvelope(body); ok {
		return nil, env
	}

	var doc xmlForecast
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding daily forecast xml: %w", err)
	}

	periods := make([]weather.ForecastPeriod, 0, len(doc.Times))
	for _, t := range doc.Times {
		day, err := time.ParseInLocation("2006-01-02", t.Day, time.UTC)
		if err != nil {
			return nil, &MalformedError{Field: "forecast day"}
		}
		period := weather.ForecastPeriod{
			Timestamp:     day,
			Temperature:   atof(t.Temperature.Day),
			TempMin:       atof(t.Temperature.Min),
			TempMax:       atof(t.Temperature.Max),
			FeelsLike:     atof(t.FeelsLike.Day),
			Precipitation: normalizePrecipXML(precipMode(t.Precipitation.Mode, t.Precipitation.Type), t.Precipitation.Value),
			Wind:          normalizeWindXML(t),
			Pressure:      t.Pressure.Value,
			Humidity:      t.Humidity.Value,
			CloudCover: weather.CloudCover{
				Description: t.Clouds.Value,
				Percent:     t.Clouds.All,
			},
			ConditionCode: t.Symbol.Number,
			Icon:          t.Symbol.Var,
		}
		periods = append(periods, period)
	}
	return periods, nil
}

func parseDayForecastXML(body []byte) ([]weather.ForecastPeriod, error) {
	var doc xmlForecast
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding day forecast xml: %w", err)
	}

	periods := make([]weather.ForecastPeriod, 0, len(doc.Times))
	for _, t := range doc.Times {
		from, err := time.ParseInLocation(sunTimeLayout, t.From, time.UTC)
		if err != nil {
			return nil, &MalformedError{Field: "forecast timestamp"}
		}
		period := weather.ForecastPeriod{
			Timestamp:     from.Local(),
			Temperature:   atof(t.Temperature.Value),
			FeelsLike:     atof(t.FeelsLike.Value),
			Precipitation: normalizePrecipXML(precipMode(t.Precipitation.Mode, t.Precipitation.Type), t.Precipitation.Value),
			Wind:          normalizeWindXML(t),
			Pressure:      t.Pressure.Value,
			Humidity:      t.Humidity.Value,
			CloudCover: weather.CloudCover{
				Description: t.Clouds.Value,
				Percent:     t.Clouds.All,
			},
			ConditionCode: t.Symbol.Number,
			Icon:          t.Symbol.Var,
		}
		periods = append(periods, period)
	}
	return periods, nil
}

func parseDayForecastJSON(body []byte) ([]weather.ForecastPeriod, error) {
	var doc jsonForecast
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding day forecast json: %w", err)
	}

	periods := make([]weather.ForecastPeriod, 0, len(doc.List))
	for _, item := range doc.List {
		period := weather.ForecastPeriod{
			Timestamp:     time.Unix(item.Dt, 0),
			Temperature:   item.Main.Temp,
			FeelsLike:     item.Main.FeelsLike,
			Precipitation: normalizePrecipJSON(item.Rain, item.Snow),
			Wind: weather.Wind{
				Speed: item.Wind.Speed,
			},
			Pressure: item.Main.Pressure,
			Humidity: item.Main.Humidity,
			CloudCover: weather.CloudCover{
				Percent: item.Clouds.All,
			},
		}
		if item.Wind.Deg != nil {
			period.Wind.DirectionDeg = *item.Wind.Deg
			period.Wind.HasDirection = true
			period.Wind.Compass = units.Compass(*item.Wind.Deg)
		}
		if len(item.Weather) > 0 {
			period.ConditionCode = item.Weather[0].ID
			period.Icon = item.Weather[0].Icon
			period.CloudCover.Description = item.Weather[0].Description
		}
		periods = append(periods, period)
	}
	return periods, nil
}

func normalizeWindXML(t xmlForecastTime) weather.Wind {
	wind := weather.Wind{
		Speed:     t.WindSpeed.Mps,
		SpeedName: t.WindSpeed.Name,
		Compass:   t.WindDirection.Code,
		Name:      t.WindDirection.Name,
	}
	if deg, err := strconv.ParseFloat(t.WindDirection.Deg, 64); err == nil {
		wind.DirectionDeg = deg
		wind.HasDirection = true
		if wind.Compass == "" {
			wind.Compass = units.Compass(deg)
		}
	}
	return wind
}

// precipMode resolves the mode of a forecast precipitation element: the
// day forecast carries a type attribute, the daily forecast a mode.
func precipMode(mode, typ string) string {
	if typ != "" {
		return typ
	}
	return mode
}

// atof tolerates absent numeric attributes: missing or unparsable text
// becomes zero.
func atof(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
