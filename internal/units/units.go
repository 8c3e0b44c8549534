// Package units holds the pure conversion tables used when normalizing
// weather payloads: wind-speed conversion, the Beaufort scale, and the
// 16-sector compass mapping. Nothing here touches the network.
package units

import (
	"math"
)

// SpeedUnit is the unit the server reports wind speed in. The unit
// follows the configured unit system: metric payloads carry m/s,
// imperial payloads carry mph.
type SpeedUnit string

const (
	MetersPerSecond SpeedUnit = "m/s"
	MilesPerHour    SpeedUnit = "mph"
)

// SpeedUnitForSystem maps a unit system ("metric", "imperial") to the
// wind speed unit its payloads use.
func SpeedUnitForSystem(system string) SpeedUnit {
	if system == "imperial" {
		return MilesPerHour
	}
	return MetersPerSecond
}

const msPerMph = 0.44704

// MSToMph converts meters per second to miles per hour.
func MSToMph(ms float64) float64 {
	return ms / msPerMph
}

// MphToMS converts miles per hour to meters per second.
func MphToMS(mph float64) float64 {
	return mph * msPerMph
}

// ToKmH converts meters per second to kilometers per hour. Offered as a
// further display conversion on top of the metric system.
func ToKmH(ms float64) float64 {
	return ms * 3.6
}

// MMToInches converts a precipitation amount from millimeters to inches.
func MMToInches(mm float64) float64 {
	return mm / 25.4
}

// Beaufort thresholds. A speed at or below beaufortMS[i] (strictly below
// beaufortMph[i]) maps to force i; anything beyond the last threshold is
// force 12.
var (
	beaufortMS  = []float64{0.2, 1.5, 3.3, 5.4, 7.9, 10.7, 13.8, 17.1, 20.7, 24.4, 28.4, 32.4, 36.9}
	beaufortMph = []float64{1, 4, 8, 13, 18, 25, 32, 39, 47, 55, 64, 73}
)

// Beaufort maps a wind speed to the 0-12 Beaufort force number using the
// threshold table for the given unit.
func Beaufort(speed float64, unit SpeedUnit) int {
	if unit == MilesPerHour {
		for i, limit := range beaufortMph {
			if speed < limit {
				return i
			}
		}
		return 12
	}
	for i, limit := range beaufortMS {
		if speed <= limit {
			return i
		}
	}
	return 12
}

// Compass codes in sector order, starting just east of north. North
// itself wraps and is handled separately.
var compassSectors = []string{
	"NNE", "NE", "ENE", "E", "ESE", "SE", "SSE", "S",
	"SSW", "SW", "WSW", "W", "WNW", "NNW",
}

// Compass maps a bearing in degrees to one of the 16 compass codes.
// Sectors are 22.5° wide and centred on the cardinal and intercardinal
// points, so north wraps around: anything below 22.5 or at or above
// 337.5 is "N".
func Compass(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg < 22.5 || deg >= 337.5 {
		return "N"
	}
	return compassSectors[int((deg-22.5)/22.5)]
}

// UVRisk maps a UV index to its standard risk band.
func UVRisk(index float64) string {
	switch {
	case index <= 2.99:
		return "Low"
	case index <= 5.99:
		return "Moderate"
	case index <= 7.99:
		return "High"
	case index <= 10.99:
		return "Very high"
	}
	return "Extreme"
}
