package weather

import (
	"sync"
)

// TrendDirection is the direction of change of a scalar measurement
// across consecutive refresh cycles for one location.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// TrendReport is the result of one TrendTracker update.
type TrendReport struct {
	Pressure    TrendDirection `json:"pressureTrend"`
	Temperature TrendDirection `json:"temperatureTrend"`

	// Changed is true when the temperature differs from the prior
	// cycle's value. The notification consumer uses it to suppress
	// duplicate alerts.
	Changed bool `json:"changed"`
}

type trendState struct {
	pressure    float64
	temperature float64
	tempTrend   TrendDirection
}

// TrendTracker computes pressure and temperature trend direction across
// refresh cycles, keyed by location id. State lives for the process
// lifetime; entries for abandoned locations are simply left behind.
//
// The two trends deliberately behave differently on ties: pressure is
// strictly recomputed from the last two observations, while temperature
// keeps its previous direction when two consecutive readings are equal.
type TrendTracker struct {
	mu         sync.Mutex
	byLocation map[string]*trendState
}

func NewTrendTracker() *TrendTracker {
	return &TrendTracker{
		byLocation: make(map[string]*trendState),
	}
}

// Update records the pressure and temperature observed for a location
// this cycle and returns the resulting trend directions.
func (t *TrendTracker) Update(locationID string, pressure, temperature float64) TrendReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.byLocation[locationID]
	if !ok {
		t.byLocation[locationID] = &trendState{
			pressure:    pressure,
			temperature: temperature,
			tempTrend:   TrendFlat,
		}
		return TrendReport{Pressure: TrendFlat, Temperature: TrendFlat}
	}

	report := TrendReport{Pressure: sign(pressure, prev.pressure)}

	switch {
	case temperature > prev.temperature:
		report.Temperature = TrendUp
	case temperature < prev.temperature:
		report.Temperature = TrendDown
	default:
		// Tie: keep the previous direction rather than resetting.
		report.Temperature = prev.tempTrend
	}
	report.Changed = temperature != prev.temperature

	prev.pressure = pressure
	prev.temperature = temperature
	prev.tempTrend = report.Temperature

	return report
}

func sign(current, previous float64) TrendDirection {
	switch {
	case current > previous:
		return TrendUp
	case current < previous:
		return TrendDown
	}
	return TrendFlat
}
