package wave

import (
	"math"
	"testing"

	"tmc-tools/pkg/errors"
)

func TestLinearPoints(t *testing.T) {
	points := LinearPoints()
	if len(points) != PointCount {
		t.Fatalf("expected %d points, got %d", PointCount, len(points))
	}
	for i, p := range points {
		if p != float64(i) {
			t.Fatalf("point %d is %f, want %d", i, p, i)
		}
	}
}

func TestHardcodedPointsMatchLinear(t *testing.T) {
	linear := LinearPoints()
	hardcoded := HardcodedPoints()
	if len(hardcoded) != len(linear) {
		t.Fatalf("expected %d points, got %d", len(linear), len(hardcoded))
	}
	for i := range linear {
		if hardcoded[i] != linear[i] {
			t.Errorf("point %d differs: %f != %f", i, hardcoded[i], linear[i])
		}
	}
}

func TestModulatedPoints(t *testing.T) {
	// Zero amplitude leaves the grid untouched.
	flat := ModulatedPoints(0)
	for i, p := range flat {
		if p != float64(i) {
			t.Fatalf("point %d is %f with zero modulation", i, p)
		}
	}

	points := ModulatedPoints(-27)
	if len(points) != PointCount {
		t.Fatalf("expected %d points, got %d", PointCount, len(points))
	}

	// One modulation period: extremes at the quarter marks.
	checks := []struct {
		index int
		want  float64
	}{
		{0, 0},
		{64, 37},   // 64 - 27*sin(pi/2)
		{128, 128}, // sin(pi) = 0
		{192, 219}, // 192 - 27*sin(3*pi/2)
	}
	for _, c := range checks {
		if math.Abs(points[c.index]-c.want) > 1e-9 {
			t.Errorf("point %d is %f, want %f", c.index, points[c.index], c.want)
		}
	}
}

func TestSine(t *testing.T) {
	values, err := Sine(248, -1, LinearPoints())
	if err != nil {
		t.Fatalf("Sine failed: %v", err)
	}
	if len(values) != PointCount {
		t.Fatalf("expected %d values, got %d", PointCount, len(values))
	}

	expected := map[int]int{0: 0, 1: 1, 2: 3, 255: 247}
	for i, want := range expected {
		if values[i] != want {
			t.Errorf("value %d is %d, want %d", i, values[i], want)
		}
	}

	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Fatalf("values decrease at %d: %d < %d", i, values[i], values[i-1])
		}
	}
}

func TestSineAmplitudeError(t *testing.T) {
	_, err := Sine(260, 0, LinearPoints())
	if err == nil {
		t.Fatal("expected error for amplitude 260")
	}
	if !errors.Is(err, errors.ErrWaveShape) {
		t.Errorf("expected wave shape error, got %v", err)
	}

	// 247 with a positive offset can still stay below 256.
	values, err := Sine(247, 8, LinearPoints())
	if err != nil {
		t.Fatalf("Sine failed: %v", err)
	}
	if peak := values[255]; peak != 255 {
		t.Errorf("expected peak 255, got %d", peak)
	}
}

func TestSinePointCountError(t *testing.T) {
	_, err := Sine(248, -1, []float64{0, 1, 2})
	if err == nil {
		t.Fatal("expected error for three points")
	}
	if !errors.Is(err, errors.ErrWaveShape) {
		t.Errorf("expected wave shape error, got %v", err)
	}
}

func TestSineNegativeValuesPass(t *testing.T) {
	// Generation only limits the peak; negative values are rejected later
	// by table encoding.
	values, err := Sine(248, -10, LinearPoints())
	if err != nil {
		t.Fatalf("Sine failed: %v", err)
	}
	if values[0] >= 0 {
		t.Errorf("expected negative first value, got %d", values[0])
	}
}

func TestSineModulated(t *testing.T) {
	values, err := Sine(248, -1, ModulatedPoints(-27))
	if err != nil {
		t.Fatalf("Sine failed: %v", err)
	}

	if values[0] < 0 || values[0] > 1 {
		t.Errorf("unexpected first value %d", values[0])
	}
	max := values[0]
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Fatalf("values decrease at %d: %d < %d", i, values[i], values[i-1])
		}
		if values[i] > max {
			max = values[i]
		}
	}
	if max != 247 {
		t.Errorf("expected peak 247, got %d", max)
	}
}
