package quantum

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used for every probability and normalization comparison
const Epsilon = 1e-9

// Amplitude is the complex coefficient of a basis state.
// It is a value type: every operation returns a new Amplitude.
type Amplitude struct {
	Real float64 `json:"re"`
	Imag float64 `json:"im"`
}

// Common amplitudes used by the gate catalogue
var (
	ZeroAmplitude = Amplitude{}
	OneAmplitude  = Amplitude{Real: 1}
	IAmplitude    = Amplitude{Imag: 1}
)

// NewAmplitude builds an amplitude from its real and imaginary parts
func NewAmplitude(re, im float64) Amplitude {
	return Amplitude{Real: re, Imag: im}
}

// Polar builds the amplitude r·e^(iφ)
func Polar(r, phi float64) Amplitude {
	return Amplitude{Real: r * math.Cos(phi), Imag: r * math.Sin(phi)}
}

// Multiply returns the complex product a·b
func Multiply(a, b Amplitude) Amplitude {
	return Amplitude{
		Real: a.Real*b.Real - a.Imag*b.Imag,
		Imag: a.Real*b.Imag + a.Imag*b.Real,
	}
}

// Add returns the componentwise sum a+b
func Add(a, b Amplitude) Amplitude {
	return Amplitude{Real: a.Real + b.Real, Imag: a.Imag + b.Imag}
}

// Mul is the method form of Multiply
func (a Amplitude) Mul(b Amplitude) Amplitude {
	return Multiply(a, b)
}

// Add is the method form of Add
func (a Amplitude) Add(b Amplitude) Amplitude {
	return Add(a, b)
}

// Scale multiplies both parts by a real factor
func (a Amplitude) Scale(f float64) Amplitude {
	return Amplitude{Real: a.Real * f, Imag: a.Imag * f}
}

// Conj returns the complex conjugate
func (a Amplitude) Conj() Amplitude {
	return Amplitude{Real: a.Real, Imag: -a.Imag}
}

// Abs2 returns |a|², the probability weight of the amplitude
func (a Amplitude) Abs2() float64 {
	return a.Real*a.Real + a.Imag*a.Imag
}

// Phase returns the argument of the amplitude in radians
func (a Amplitude) Phase() float64 {
	return math.Atan2(a.Imag, a.Real)
}

// ApproxEqual compares two amplitudes componentwise within eps
func (a Amplitude) ApproxEqual(b Amplitude, eps float64) bool {
	return math.Abs(a.Real-b.Real) <= eps && math.Abs(a.Imag-b.Imag) <= eps
}

func (a Amplitude) String() string {
	if a.Imag < 0 {
		return fmt.Sprintf("%.6g-%.6gi", a.Real, -a.Imag)
	}
	return fmt.Sprintf("%.6g+%.6gi", a.Real, a.Imag)
}
