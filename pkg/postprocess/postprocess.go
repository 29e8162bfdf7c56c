// Package postprocess converts exposed linear radiance to display range.
//
// Every operator is evaluated per channel with identical constants. The
// order of operations is fixed: multiply by exposure, apply the operator,
// then clamp to [0, 1].
package postprocess

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/df07/go-progressive-sampler/pkg/core"
)

// Mode selects a tone-mapping operator
type Mode int

const (
	None     Mode = iota // exposure only
	Tonemap1             // Hejl/Burgess-Dawson filmic curve
	Tonemap2             // ACES filmic approximation
	Tonemap3             // Uncharted 2 filmic curve
	Gamma                // plain gamma correction
)

// Default is the operator used when none is configured
const Default = Gamma

// DefaultGamma is the gamma used by the Gamma operator
const DefaultGamma = 2.2

var ErrUnknownMode = errors.New("postprocess: unknown mode")

var modeNames = [...]string{
	None:     "NONE",
	Tonemap1: "TONEMAP1",
	Tonemap2: "TONEMAP2",
	Tonemap3: "TONEMAP3",
	Gamma:    "GAMMA",
}

// Modes returns every supported operator in declaration order
func Modes() []Mode {
	return []Mode{None, Tonemap1, Tonemap2, Tonemap3, Gamma}
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m names a supported operator
func (m Mode) Valid() bool {
	return m >= None && m <= Gamma
}

// Parse looks up an operator by name, ignoring case
func Parse(name string) (Mode, error) {
	for _, m := range Modes() {
		if strings.EqualFold(name, modeNames[m]) {
			return m, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// The filmic constants are single precision, widened where they meet the
// double precision radiance.
const (
	acesA float32 = 2.51
	acesB float32 = 0.03
	acesC float32 = 2.43
	acesD float32 = 0.59
	acesE float32 = 0.14

	hableA float32 = 0.15
	hableB float32 = 0.50
	hableC float32 = 0.10
	hableD float32 = 0.20
	hableE float32 = 0.02
	hableF float32 = 0.30
	hableW float32 = 11.2

	// Brings the Uncharted 2 curve to roughly the brightness of the others.
	hableExposure = 16
)

var hableWhiteScale = 1 / hableCurve32(hableW)

func hableCurve32(x float32) float32 {
	return ((x*(hableA*x+hableC*hableB) + hableD*hableE) / (x*(hableA*x+hableB) + hableD*hableF)) - hableE/hableF
}

func hableCurve(x float64) float64 {
	a, b, c := float64(hableA), float64(hableB), float64(hableC)
	de, df, ef := float64(hableD*hableE), float64(hableD*hableF), float64(hableE/hableF)
	return ((x*(a*x+c*b) + de) / (x*(a*x+b) + df)) - ef
}

// Map applies the operator to one exposed channel value. The result is not
// clamped.
func (m Mode) Map(x float64) float64 {
	switch m {
	case Tonemap1:
		x = math.Max(0, x-0.004)
		return (x * (6.2*x + .5)) / (x*(6.2*x+1.7) + 0.06)
	case Tonemap2:
		a, b, c, d, e := float64(acesA), float64(acesB), float64(acesC), float64(acesD), float64(acesE)
		return math.Max(math.Min((x*(a*x+b))/(x*(c*x+d)+e), 1), 0)
	case Tonemap3:
		return hableCurve(x*hableExposure) * float64(hableWhiteScale)
	case Gamma:
		return math.Pow(x, 1/DefaultGamma)
	default:
		return x
	}
}

// Apply exposes a radiance value and runs it through the operator
func Apply(c core.RGB, exposure float64, m Mode) core.RGB {
	return core.RGB{
		R: m.Map(c.R * exposure),
		G: m.Map(c.G * exposure),
		B: m.Map(c.B * exposure),
	}
}

// Clamp01 limits a channel to the displayable range. NaN maps to 0.
func Clamp01(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
