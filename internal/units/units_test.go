package units

import (
	"math"
	"testing"
)

func TestBeaufortFixedPoints(t *testing.T) {
	tests := []struct {
		speed float64
		unit  SpeedUnit
		want  int
	}{
		{0, MetersPerSecond, 0},
		{0.2, MetersPerSecond, 0},
		{1.5, MetersPerSecond, 1},
		{5.0, MetersPerSecond, 3},
		{36.9, MetersPerSecond, 12},
		{50, MetersPerSecond, 12},
		{0.5, MilesPerHour, 0},
		{1, MilesPerHour, 1},
		{12.9, MilesPerHour, 3},
		{73, MilesPerHour, 12},
		{82, MilesPerHour, 12},
		{100, MilesPerHour, 12},
	}

	for _, tt := range tests {
		if got := Beaufort(tt.speed, tt.unit); got != tt.want {
			t.Errorf("Beaufort(%v, %s) = %d, want %d", tt.speed, tt.unit, got, tt.want)
		}
	}
}

func TestBeaufortIsMonotonic(t *testing.T) {
	for _, unit := range []SpeedUnit{MetersPerSecond, MilesPerHour} {
		prev := 0
		for speed := 0.0; speed <= 110; speed += 0.1 {
			got := Beaufort(speed, unit)
			if got < prev {
				t.Fatalf("Beaufort(%v, %s) = %d dropped below %d", speed, unit, got, prev)
			}
			if got < 0 || got > 12 {
				t.Fatalf("Beaufort(%v, %s) = %d out of range", speed, unit, got)
			}
			prev = got
		}
		if prev != 12 {
			t.Errorf("%s table never reached force 12", unit)
		}
	}
}

func TestCompass(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{10, "N"},
		{22.5, "NNE"},
		{45, "NE"},
		{90, "E"},
		{180, "S"},
		{202.5, "SSW"},
		{270, "W"},
		{315, "NNW"},
		{337.5, "N"},
		{350, "N"},
		{360, "N"},
		{-45, "NNW"},
	}

	for _, tt := range tests {
		if got := Compass(tt.deg); got != tt.want {
			t.Errorf("Compass(%v) = %q, want %q", tt.deg, got, tt.want)
		}
	}
}

func TestSpeedConversions(t *testing.T) {
	if got := ToKmH(10); math.Abs(got-36) > 1e-9 {
		t.Errorf("ToKmH(10) = %v, want 36", got)
	}
	if got := MSToMph(MphToMS(30)); math.Abs(got-30) > 1e-9 {
		t.Errorf("mph round trip = %v, want 30", got)
	}
	if got := MMToInches(25.4); math.Abs(got-1) > 1e-9 {
		t.Errorf("MMToInches(25.4) = %v, want 1", got)
	}
}

func TestSpeedUnitForSystem(t *testing.T) {
	if got := SpeedUnitForSystem("imperial"); got != MilesPerHour {
		t.Errorf("imperial: got %s", got)
	}
	if got := SpeedUnitForSystem("metric"); got != MetersPerSecond {
		t.Errorf("metric: got %s", got)
	}
}

func TestUVRisk(t *testing.T) {
	tests := []struct {
		index float64
		want  string
	}{
		{0, "Low"},
		{2.99, "Low"},
		{3, "Moderate"},
		{6.5, "High"},
		{9, "Very high"},
		{11, "Extreme"},
	}
	for _, tt := range tests {
		if got := UVRisk(tt.index); got != tt.want {
			t.Errorf("UVRisk(%v) = %q, want %q", tt.index, got, tt.want)
		}
	}
}
