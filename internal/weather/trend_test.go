package weather

import (
	"testing"
)

func TestTrendFirstObservationIsFlat(t *testing.T) {
	tr := NewTrendTracker()

	report := tr.Update("2643743", 1013, 12.0)
	if report.Pressure != TrendFlat {
		t.Errorf("expected flat pressure trend, got %s", report.Pressure)
	}
	if report.Temperature != TrendFlat {
		t.Errorf("expected flat temperature trend, got %s", report.Temperature)
	}
	if report.Changed {
		t.Error("first observation must not mark the temperature as changed")
	}
}

func TestPressureTrendIsNeverSticky(t *testing.T) {
	tr := NewTrendTracker()

	pressures := []float64{1013, 1009, 1009, 1015, 1015}
	want := []TrendDirection{TrendFlat, TrendDown, TrendFlat, TrendUp, TrendFlat}

	for i, p := range pressures {
		report := tr.Update("id", p, 10)
		if report.Pressure != want[i] {
			t.Errorf("cycle %d: pressure %v: expected %s, got %s", i, p, want[i], report.Pressure)
		}
	}
}

func TestTemperatureTrendIsStickyOnTies(t *testing.T) {
	tr := NewTrendTracker()

	temps := []float64{10, 12, 12, 11, 11}
	want := []TrendDirection{TrendFlat, TrendUp, TrendUp, TrendDown, TrendDown}

	for i, temp := range temps {
		report := tr.Update("id", 1000, temp)
		if report.Temperature != want[i] {
			t.Errorf("cycle %d: temp %v: expected %s, got %s", i, temp, want[i], report.Temperature)
		}
	}
}

func TestTrendChangedFlag(t *testing.T) {
	tr := NewTrendTracker()

	tr.Update("id", 1000, 10)

	if report := tr.Update("id", 1000, 10); report.Changed {
		t.Error("equal temperature must not set the changed flag")
	}
	if report := tr.Update("id", 1000, 10.5); !report.Changed {
		t.Error("different temperature must set the changed flag")
	}
}

// The London scenario: metric units, three consecutive cycles.
func TestTrendLondonScenario(t *testing.T) {
	tr := NewTrendTracker()
	const london = "2643743"

	report := tr.Update(london, 1013, 12.0)
	if report.Pressure != TrendFlat || report.Temperature != TrendFlat {
		t.Fatalf("cycle 1: expected flat/flat, got %s/%s", report.Pressure, report.Temperature)
	}

	report = tr.Update(london, 1009, 12.0)
	if report.Pressure != TrendDown {
		t.Errorf("cycle 2: expected pressure down, got %s", report.Pressure)
	}
	if report.Temperature != TrendFlat {
		t.Errorf("cycle 2: tie must keep flat from cycle 1, got %s", report.Temperature)
	}

	report = tr.Update(london, 1009, 13.5)
	if report.Temperature != TrendUp {
		t.Errorf("cycle 3: expected temperature up, got %s", report.Temperature)
	}
}

func TestTrendStatePerLocation(t *testing.T) {
	tr := NewTrendTracker()

	tr.Update("a", 1000, 10)
	tr.Update("b", 900, 20)

	if report := tr.Update("a", 1001, 10); report.Pressure != TrendUp {
		t.Errorf("location a: expected pressure up, got %s", report.Pressure)
	}
	if report := tr.Update("b", 899, 20); report.Pressure != TrendDown {
		t.Errorf("location b: expected pressure down, got %s", report.Pressure)
	}
}
