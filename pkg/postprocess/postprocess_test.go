package postprocess

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-progressive-sampler/pkg/core"
)

func TestZeroRadiance(t *testing.T) {
	for _, m := range Modes() {
		t.Run(m.String(), func(t *testing.T) {
			got := Clamp01(m.Map(0))
			if math.Abs(got) > 1e-6 {
				t.Errorf("Expected 0 radiance to map to 0, got %g", got)
			}
		})
	}
}

func TestTonemap1Threshold(t *testing.T) {
	// Everything at or below the 0.004 toe clamps to exactly 0.
	for _, x := range []float64{0, 0.001, 0.004} {
		if got := Tonemap1.Map(x); got != 0 {
			t.Errorf("Tonemap1(%g): expected 0, got %g", x, got)
		}
	}
	if got := Tonemap1.Map(0.01); got <= 0 {
		t.Errorf("Tonemap1(0.01): expected positive output, got %g", got)
	}
}

func TestLargeRadianceSaturates(t *testing.T) {
	for _, m := range Modes() {
		t.Run(m.String(), func(t *testing.T) {
			prev := 0.0
			for _, x := range []float64{1, 10, 100, 1e4, 1e8} {
				got := Clamp01(m.Map(x))
				if got > 1 {
					t.Errorf("Map(%g) = %g exceeds 1", x, got)
				}
				if got < prev-1e-12 {
					t.Errorf("Map(%g) = %g decreased from %g", x, got, prev)
				}
				prev = got
			}
			if prev < 0.9 {
				t.Errorf("Expected saturation near 1 for huge input, got %g", prev)
			}
		})
	}
}

func TestKnownValues(t *testing.T) {
	tests := []struct {
		mode     Mode
		input    float64
		expected float64
	}{
		{None, 0.25, 0.25},
		{None, 3, 3},
		{Gamma, 1, 1},
		{Gamma, 0.5, math.Pow(0.5, 1/2.2)},
		{Tonemap2, 1, (2.51 + 0.03) / (2.43 + 0.59 + 0.14)},
		{Tonemap1, 1, (0.996 * (6.2*0.996 + .5)) / (0.996*(6.2*0.996+1.7) + 0.06)},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got := tt.mode.Map(tt.input)
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("Map(%g): expected %g, got %g", tt.input, tt.expected, got)
			}
		})
	}
}

func TestTonemap3WhitePoint(t *testing.T) {
	// Exposed radiance equal to the white point maps to 1.
	got := Tonemap3.Map(float64(hableW) / hableExposure)
	if math.Abs(got-1) > 1e-5 {
		t.Errorf("Expected white point to map to 1, got %g", got)
	}
}

func TestApplyUsesExposure(t *testing.T) {
	got := Apply(core.NewRGB(0.25, 0.5, 1), 2, None)
	if got != core.NewRGB(0.5, 1, 2) {
		t.Errorf("Expected exposure to scale every channel, got %v", got)
	}
}

func TestChannelsIndependent(t *testing.T) {
	for _, m := range Modes() {
		c := Apply(core.NewRGB(0.3, 0.3, 0.3), 1.5, m)
		if c.R != c.G || c.G != c.B {
			t.Errorf("%v: equal channels should map identically, got %v", m, c)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expected Mode
		wantErr  bool
	}{
		{"NONE", None, false},
		{"tonemap1", Tonemap1, false},
		{"Tonemap2", Tonemap2, false},
		{"TONEMAP3", Tonemap3, false},
		{"gamma", Gamma, false},
		{"filmic", None, true},
		{"", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMode) {
					t.Errorf("Expected ErrUnknownMode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, out float64
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{2, 1},
		{math.NaN(), 0},
		{math.Inf(1), 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.out {
			t.Errorf("Clamp01(%g): expected %g, got %g", tt.in, tt.out, got)
		}
	}
}

func TestModeString(t *testing.T) {
	if Tonemap2.String() != "TONEMAP2" {
		t.Errorf("Unexpected name %q", Tonemap2.String())
	}
	if Mode(42).Valid() {
		t.Error("Mode(42) should not be valid")
	}
	if Mode(42).String() != "Mode(42)" {
		t.Errorf("Unexpected name %q", Mode(42).String())
	}
}
