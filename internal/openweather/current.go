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

// sunTimeLayout is the timestamp layout of the XML format; values are UTC.
const sunTimeLayout = "2006-01-02T15:04:05"

// xmlCurrent mirrors the primary-format current weather document.
// Attributes that the schema allows to be absent are kept as strings so
// absence is distinguishable from a zero value.
type xmlCurrent struct {
	XMLName xml.Name `xml:"current"`
	City    struct {
		ID    string `xml:"id,attr"`
		Name  string `xml:"name,attr"`
		Coord struct {
			Lat string `xml:"lat,attr"`
			Lon string `xml:"lon,attr"`
		} `xml:"coord"`
		Country string `xml:"country"`
		Sun     struct {
			Rise string `xml:"rise,attr"`
			Set  string `xml:"set,attr"`
		} `xml:"sun"`
	} `xml:"city"`
	Temperature xmlMeasurement `xml:"temperature"`
	FeelsLike   xmlMeasurement `xml:"feels_like"`
	Humidity    xmlMeasurement `xml:"humidity"`
	Pressure    xmlMeasurement `xml:"pressure"`
	Wind        struct {
		Speed struct {
			Value float64 `xml:"value,attr"`
			Name  string  `xml:"name,attr"`
		} `xml:"speed"`
		Direction struct {
			Value string `xml:"value,attr"`
			Code  string `xml:"code,attr"`
			Name  string `xml:"name,attr"`
		} `xml:"direction"`
	} `xml:"wind"`
	Clouds struct {
		Value int    `xml:"value,attr"`
		Name  string `xml:"name,attr"`
	} `xml:"clouds"`
	Precipitation struct {
		Mode  string `xml:"mode,attr"`
		Value string `xml:"value,attr"`
	} `xml:"precipitation"`
	Weather struct {
		Number int    `xml:"number,attr"`
		Value  string `xml:"value,attr"`
		Icon   string `xml:"icon,attr"`
	} `xml:"weather"`
	LastUpdate struct {
		Value string `xml:"value,attr"`
	} `xml:"lastupdate"`
}

type xmlMeasurement struct {
	Value float64 `xml:"value,attr"`
	Unit  string  `xml:"unit,attr"`
}

// jsonCurrent mirrors the alternate-format current weather document.
type jsonCurrent struct {
	Coord *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64  `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Rain map[string]float64 `json:"rain"`
	Snow map[string]float64 `json:"snow"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Dt   int64  `json:"dt"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ParseCurrent decodes a current-weather body in the given format and
// normalizes it into a WeatherSnapshot. A server error envelope comes
// back as *ServerError, a missing required field as *MalformedError.
func ParseCurrent(body []byte, format Format, unitSystem string) (*weather.WeatherSnapshot, error) {
	if env, ok := DetectEnvelope(body); ok {
		return nil, env
	}
	if format == FormatJSON {
		return parseCurrentJSON(body, unitSystem)
	}
	return parseCurrentXML(body)
}

func parseCurrentXML(body []byte) (*weather.WeatherSnapshot, error) {
	var doc xmlCurrent
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding current weather xml: %w", err)
	}

	// The coordinate pair and icon code are mandatory: the enrichment
	// and icon fetches hang off them.
	switch {
	case doc.City.Coord.Lat == "" || doc.City.Coord.Lon == "":
		return nil, &MalformedError{Field: "city coordinates"}
	case doc.Weather.Icon == "":
		return nil, &MalformedError{Field: "condition icon code"}
	}

	lat, err := strconv.ParseFloat(doc.City.Coord.Lat, 64)
	if err != nil {
		return nil, &MalformedError{Field: "city coordinates"}
	}
	lon, err := strconv.ParseFloat(doc.City.Coord.Lon, 64)
	if err != nil {
		return nil, &MalformedError{Field: "city coordinates"}
	}

	snapshot := &weather.WeatherSnapshot{
		Location: weather.Location{
			ID:      doc.City.ID,
			City:    doc.City.Name,
			Country: doc.City.Country,
		},
		ObservedAt:  parseXMLTime(doc.LastUpdate.Value),
		Temperature: normalizeMeasurement(doc.Temperature),
		FeelsLike:   normalizeMeasurement(doc.FeelsLike),
		Humidity:    normalizeMeasurement(doc.Humidity),
		Pressure:    normalizeMeasurement(doc.Pressure),
		Wind: weather.Wind{
			Speed:     doc.Wind.Speed.Value,
			SpeedName: doc.Wind.Speed.Name,
			Compass:   doc.Wind.Direction.Code,
			Name:      doc.Wind.Direction.Name,
		},
		CloudCover: weather.CloudCover{
			Description: doc.Clouds.Name,
			Percent:     doc.Clouds.Value,
		},
		Precipitation: normalizePrecipXML(doc.Precipitation.Mode, doc.Precipitation.Value),
		Sunrise:       parseXMLTime(doc.City.Sun.Rise),
		Sunset:        parseXMLTime(doc.City.Sun.Set),
		ConditionCode: doc.Weather.Number,
		Condition:     doc.Weather.Value,
		Icon:          doc.Weather.Icon,
		Coord:         weather.Coordinates{Lat: lat, Lon: lon},
	}

	if deg, err := strconv.ParseFloat(doc.Wind.Direction.Value, 64); err == nil {
		snapshot.Wind.DirectionDeg = deg
		snapshot.Wind.HasDirection = true
		if snapshot.Wind.Compass == "" {
			snapshot.Wind.Compass = units.Compass(deg)
		}
	}

	return snapshot, nil
}

func parseCurrentJSON(body []byte, unitSystem string) (*weather.WeatherSnapshot, error) {
	var doc jsonCurrent
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding current weather json: %w", err)
	}

	switch {
	case doc.Coord == nil:
		return nil, &MalformedError{Field: "coord"}
	case len(doc.Weather) == 0 || doc.Weather[0].Icon == "":
		return nil, &MalformedError{Field: "weather icon"}
	}

	tempUnit := temperatureUnit(unitSystem)
	cond := doc.Weather[0]

	snapshot := &weather.WeatherSnapshot{
		Location: weather.Location{
			ID:   strconv.FormatInt(doc.ID, 10),
			City: doc.Name,
		},
		ObservedAt:  time.Unix(doc.Dt, 0),
		Temperature: weather.Measurement{Value: doc.Main.Temp, Unit: tempUnit},
		FeelsLike:   weather.Measurement{Value: doc.Main.FeelsLike, Unit: tempUnit},
		Humidity:    weather.Measurement{Value: doc.Main.Humidity, Unit: "%"},
		Pressure:    weather.Measurement{Value: doc.Main.Pressure, Unit: "hPa"},
		Wind: weather.Wind{
			Speed: doc.Wind.Speed,
		},
		CloudCover: weather.CloudCover{
			Description: cond.Description,
			Percent:     doc.Clouds.All,
		},
		Precipitation: normalizePrecipJSON(doc.Rain, doc.Snow),
		Sunrise:       time.Unix(doc.Sys.Sunrise, 0),
		Sunset:        time.Unix(doc.Sys.Sunset, 0),
		ConditionCode: cond.ID,
		Condition:     cond.Main,
		Icon:          cond.Icon,
		Coord:         weather.Coordinates{Lat: doc.Coord.Lat, Lon: doc.Coord.Lon},
	}
	snapshot.Location.Country = doc.Sys.Country

	if doc.Wind.Deg != nil {
		snapshot.Wind.DirectionDeg = *doc.Wind.Deg
		snapshot.Wind.HasDirection = true
		snapshot.Wind.Compass = units.Compass(*doc.Wind.Deg)
	}

	return snapshot, nil
}

// temperature unit attribute values of the primary format mapped to
// display units; the alternate format implies the unit from the request.
var temperatureUnits = map[string]string{
	"celsius":    "°C",
	"fahrenheit": "°F",
	"kelvin":     "K",
}

func temperatureUnit(unitSystem string) string {
	switch unitSystem {
	case "metric":
		return "°C"
	case "imperial":
		return "°F"
	}
	return "K"
}

func normalizeMeasurement(m xmlMeasurement) weather.Measurement {
	unit := m.Unit
	if mapped, ok := temperatureUnits[unit]; ok {
		unit = mapped
	}
	return weather.Measurement{Value: m.Value, Unit: unit}
}

// parseXMLTime parses the primary format's UTC timestamps and converts
// them to local time. A missing or malformed value yields the zero time;
// sunrise/sunset are display-only and must not fail the snapshot.
func parseXMLTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(sunTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t.Local()
}

func normalizePrecipXML(mode, value string) weather.Precipitation {
	if mode == "" || mode == "no" || mode == "none" {
		return weather.Precipitation{Mode: weather.PrecipNone}
	}
	p := weather.Precipitation{Mode: mode}
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		p.Value = v
		p.HasValue = true
	}
	return p
}

// normalizePrecipJSON picks rain over snow, preferring the 3h bucket and
// falling back to 1h. Neither present means "none", not an error.
func normalizePrecipJSON(rain, snow map[string]float64) weather.Precipitation {
	if v, ok := bucketValue(rain); ok {
		return weather.Precipitation{Mode: weather.PrecipRain, Value: v, HasValue: true}
	}
	if v, ok := bucketValue(snow); ok {
		return weather.Precipitation{Mode: weather.PrecipSnow, Value: v, HasValue: true}
	}
	return weather.Precipitation{Mode: weather.PrecipNone}
}

func bucketValue(m map[string]float64) (float64, bool) {
	if len(m) == 0 {
		return 0, false
	}
	if v, ok := m["3h"]; ok {
		return v, true
	}
	if v, ok := m["1h"]; ok {
		return v, true
	}
	for _, v := range m {
		return v, true
	}
	return 0, false
}
