package openweather

import (
	"errors"
	"testing"

	"github.com/meteotray/meteotray/internal/weather"
)

const sampleCurrentXML = `<?xml version="1.0" encoding="UTF-8"?>
<current>
  <city id="2643743" name="London">
    <coord lon="-0.13" lat="51.51"/>
    <country>GB</country>
    <sun rise="2024-01-30T07:40:36" set="2024-01-30T16:47:56"/>
  </city>
  <temperature value="12.0" min="10.1" max="13.2" unit="celsius"/>
  <feels_like value="10.4" unit="celsius"/>
  <humidity value="81" unit="%"/>
  <pressure value="1013" unit="hPa"/>
  <wind>
    <speed value="4.1" unit="m/s" name="Gentle Breeze"/>
    <direction value="80" code="E" name="East"/>
  </wind>
  <clouds value="90" name="overcast clouds"/>
  <precipitation mode="no"/>
  <weather number="701" value="mist" icon="50d"/>
  <lastupdate value="2024-01-30T15:50:00"/>
</current>`

const sampleCurrentJSON = `{
  "coord": {"lon": -0.13, "lat": 51.51},
  "weather": [{"id": 701, "main": "Mist", "description": "mist", "icon": "50d"}],
  "main": {"temp": 12.0, "feels_like": 10.4, "pressure": 1013, "humidity": 81},
  "wind": {"speed": 4.1, "deg": 80},
  "clouds": {"all": 90},
  "sys": {"country": "GB", "sunrise": 1706600436, "sunset": 1706633276},
  "dt": 1706629800,
  "id": 2643743,
  "name": "London"
}`

func TestParseCurrentXML(t *testing.T) {
	snap, err := ParseCurrent([]byte(sampleCurrentXML), FormatXML, "metric")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Location.ID != "2643743" || snap.Location.City != "London" || snap.Location.Country != "GB" {
		t.Errorf("unexpected location: %+v", snap.Location)
	}
	if snap.Temperature.Value != 12.0 || snap.Temperature.Unit != "°C" {
		t.Errorf("unexpected temperature: %+v", snap.Temperature)
	}
	if snap.Pressure.Value != 1013 || snap.Pressure.Unit != "hPa" {
		t.Errorf("unexpected pressure: %+v", snap.Pressure)
	}
	if snap.Wind.Speed != 4.1 || snap.Wind.Compass != "E" || !snap.Wind.HasDirection {
		t.Errorf("unexpected wind: %+v", snap.Wind)
	}
	if snap.Precipitation.Mode != weather.PrecipNone || snap.Precipitation.HasValue {
		t.Errorf("expected empty precipitation, got %+v", snap.Precipitation)
	}
	if snap.Coord.Lat != 51.51 || snap.Coord.Lon != -0.13 {
		t.Errorf("unexpected coordinates: %+v", snap.Coord)
	}
	if snap.Icon != "50d" {
		t.Errorf("unexpected icon: %q", snap.Icon)
	}
	if snap.Sunrise.IsZero() || snap.Sunset.IsZero() {
		t.Error("sunrise/sunset must be set")
	}
}

// Both wire formats must normalize into the same shape.
func TestParseCurrentFormatsAgree(t *testing.T) {
	fromXML, err := ParseCurrent([]byte(sampleCurrentXML), FormatXML, "metric")
	if err != nil {
		t.Fatalf("xml: %v", err)
	}
	fromJSON, err := ParseCurrent([]byte(sampleCurrentJSON), FormatJSON, "metric")
	if err != nil {
		t.Fatalf("json: %v", err)
	}

	if fromXML.Temperature != fromJSON.Temperature {
		t.Errorf("temperature differs: %+v vs %+v", fromXML.Temperature, fromJSON.Temperature)
	}
	if fromXML.Pressure != fromJSON.Pressure {
		t.Errorf("pressure differs: %+v vs %+v", fromXML.Pressure, fromJSON.Pressure)
	}
	if fromXML.Coord != fromJSON.Coord {
		t.Errorf("coordinates differ: %+v vs %+v", fromXML.Coord, fromJSON.Coord)
	}
	if fromXML.Icon != fromJSON.Icon {
		t.Errorf("icon differs: %q vs %q", fromXML.Icon, fromJSON.Icon)
	}
	if fromXML.ConditionCode != fromJSON.ConditionCode {
		t.Errorf("condition code differs: %d vs %d", fromXML.ConditionCode, fromJSON.ConditionCode)
	}
	if fromXML.Wind.Compass != fromJSON.Wind.Compass {
		t.Errorf("compass differs: %q vs %q", fromXML.Wind.Compass, fromJSON.Wind.Compass)
	}
	if fromXML.Location != fromJSON.Location {
		t.Errorf("location differs: %+v vs %+v", fromXML.Location, fromJSON.Location)
	}
}

func TestParseCurrentMissingCoordinates(t *testing.T) {
	const body = `<current>
  <city id="1" name="Nowhere"><coord/></city>
  <weather number="800" value="clear" icon="01d"/>
</current>`

	_, err := ParseCurrent([]byte(body), FormatXML, "metric")
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
}

func TestParseCurrentMissingIcon(t *testing.T) {
	const body = `<current>
  <city id="1" name="Nowhere"><coord lat="1.0" lon="2.0"/></city>
  <weather number="800" value="clear"/>
</current>`

	_, err := ParseCurrent([]byte(body), FormatXML, "metric")
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
}

func TestParseCurrentEnvelope(t *testing.T) {
	const body = `{"cod": "404", "message": "city not found"}`

	_, err := ParseCurrent([]byte(body), FormatXML, "metric")
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serverErr.Code != "404" || serverErr.Message != "city not found" {
		t.Errorf("unexpected envelope: %+v", serverErr)
	}
}

func TestParseCurrentSyntaxError(t *testing.T) {
	_, err := ParseCurrent([]byte("<current><city"), FormatXML, "metric")
	if err == nil {
		t.Fatal("expected an error for a truncated document")
	}
	var malformed *MalformedError
	if errors.As(err, &malformed) {
		t.Fatalf("syntax errors must not be reported as missing fields: %v", err)
	}
}

func TestDetectEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"numeric code", `{"cod": 401, "message": "Invalid API key"}`, true},
		{"string code", `{"cod": "404", "message": "city not found"}`, true},
		{"success code", `{"cod": "200", "message": 0.0036, "list": []}`, false},
		{"xml body", `<current></current>`, false},
		{"plain payload", `{"value": 3.4}`, false},
		{"empty", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := DetectEnvelope([]byte(tt.body))
			if got != tt.want {
				t.Errorf("DetectEnvelope(%s) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}
