package shape

import (
	"strings"
	"testing"
)

func TestLineLinear(t *testing.T) {
	points := []Point{{0, 10}, {5, 20}, {10.5, 0}}
	got := Line(points, CurveLinear)
	expected := "M0,10L5,20L10.5,0"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestLineEmpty(t *testing.T) {
	if got := Line(nil, CurveMonotoneX); got != "" {
		t.Errorf("Expected empty path, got %q", got)
	}
}

func TestLineMonotoneXTwoPoints(t *testing.T) {
	got := Line([]Point{{0, 0}, {10, 10}}, CurveMonotoneX)
	if got != "M0,0L10,10" {
		t.Errorf("Expected straight segment for two points, got %q", got)
	}
}

func TestLineMonotoneXCurves(t *testing.T) {
	points := []Point{{0, 0}, {10, 5}, {20, 5}, {30, 20}}
	got := Line(points, CurveMonotoneX)

	if !strings.HasPrefix(got, "M0,0C") {
		t.Errorf("Expected curve to start with a move and a cubic, got %q", got)
	}
	if n := strings.Count(got, "C"); n != 3 {
		t.Errorf("Expected 3 cubic segments, got %d in %q", n, got)
	}
	if !strings.HasSuffix(got, ",30,20") {
		t.Errorf("Expected curve to end on the last point, got %q", got)
	}
}

func TestLineMonotoneXSkipsCoincidentPoints(t *testing.T) {
	a := Line([]Point{{0, 0}, {0, 0}, {10, 10}}, CurveMonotoneX)
	b := Line([]Point{{0, 0}, {10, 10}}, CurveMonotoneX)
	if a != b {
		t.Errorf("Expected duplicate point to be ignored: %q vs %q", a, b)
	}
}

func TestAreaLinear(t *testing.T) {
	points := []AreaPoint{
		{X: 0, Y0: 100, Y1: 50},
		{X: 10, Y0: 100, Y1: 40},
	}
	got := Area(points, CurveLinear)
	expected := "M0,50L10,40L10,100L0,100Z"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestAreaSinglePoint(t *testing.T) {
	got := Area([]AreaPoint{{X: 360, Y0: 10, Y1: 5}}, CurveLinear)
	if got != "M360,5L360,10Z" {
		t.Errorf("Unexpected single point area %q", got)
	}
}

func TestFormatCoord(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{1, "1"},
		{1.23456, "1.235"},
		{-0.0001, "0"},
		{250.5, "250.5"},
	}
	for _, tt := range tests {
		if got := formatCoord(tt.value); got != tt.expected {
			t.Errorf("formatCoord(%v) = %q, expected %q", tt.value, got, tt.expected)
		}
	}
}

func TestCircle(t *testing.T) {
	got := Circle(10, 10, 5)
	if !strings.HasPrefix(got, "M5,10A5,5,0,1,0,15,10") || !strings.HasSuffix(got, "Z") {
		t.Errorf("Unexpected circle path %q", got)
	}
}
