package quantum

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Gate is a named unitary operator. The set of implementations is closed:
// SingleQubitGate, TwoQubitGate and ThreeQubitGate.
type Gate interface {
	// Name returns the canonical catalogue name
	Name() string
	// NumQubits returns how many qubits the operator acts on
	NumQubits() int
	// Matrix returns a copy of the operator in generic form
	Matrix() Matrix

	sealed()
}

// SingleQubitGate is a 2x2 operator applied with State.ApplyGate or State.ApplyControlledGate
type SingleQubitGate struct {
	name string
	u    Matrix2
}

// TwoQubitGate is a 4x4 operator
type TwoQubitGate struct {
	name string
	u    Matrix4
}

// ThreeQubitGate is an 8x8 operator
type ThreeQubitGate struct {
	name string
	u    Matrix8
}

func (g SingleQubitGate) Name() string     { return g.name }
func (g SingleQubitGate) NumQubits() int   { return 1 }
func (g SingleQubitGate) Matrix() Matrix   { return g.u.Matrix() }
func (g SingleQubitGate) Matrix2() Matrix2 { return g.u }
func (SingleQubitGate) sealed()            {}

func (g TwoQubitGate) Name() string     { return g.name }
func (g TwoQubitGate) NumQubits() int   { return 2 }
func (g TwoQubitGate) Matrix() Matrix   { return g.u.Matrix() }
func (g TwoQubitGate) Matrix4() Matrix4 { return g.u }
func (TwoQubitGate) sealed()            {}

func (g ThreeQubitGate) Name() string     { return g.name }
func (g ThreeQubitGate) NumQubits() int   { return 3 }
func (g ThreeQubitGate) Matrix() Matrix   { return g.u.Matrix() }
func (g ThreeQubitGate) Matrix8() Matrix8 { return g.u }
func (ThreeQubitGate) sealed()            {}

var (
	zero       = ZeroAmplitude
	one        = OneAmplitude
	minusOne   = Amplitude{Real: -1}
	iUnit      = IAmplitude
	minusI     = Amplitude{Imag: -1}
	invSqrt2   = Amplitude{Real: 1 / math.Sqrt2}
	mInvSqrt2  = Amplitude{Real: -1 / math.Sqrt2}
	eighthTurn = Polar(1, math.Pi/4)
)

// Fixed single-qubit gates
var (
	Identity = SingleQubitGate{"I", Matrix2{{one, zero}, {zero, one}}}
	PauliX   = SingleQubitGate{"X", Matrix2{{zero, one}, {one, zero}}}
	PauliY   = SingleQubitGate{"Y", Matrix2{{zero, minusI}, {iUnit, zero}}}
	PauliZ   = SingleQubitGate{"Z", Matrix2{{one, zero}, {zero, minusOne}}}
	Hadamard = SingleQubitGate{"H", Matrix2{{invSqrt2, invSqrt2}, {invSqrt2, mInvSqrt2}}}
	PhaseS   = SingleQubitGate{"S", Matrix2{{one, zero}, {zero, iUnit}}}
	SDagger  = SingleQubitGate{"SDG", Matrix2{{one, zero}, {zero, minusI}}}
	PiOver8  = SingleQubitGate{"T", Matrix2{{one, zero}, {zero, eighthTurn}}}
	TDagger  = SingleQubitGate{"TDG", Matrix2{{one, zero}, {zero, eighthTurn.Conj()}}}
)

// Swap exchanges two qubits
var Swap = TwoQubitGate{"SWAP", Matrix4{
	{one, zero, zero, zero},
	{zero, zero, one, zero},
	{zero, one, zero, zero},
	{zero, zero, zero, one},
}}

// Toffoli flips the last qubit when the first two are both 1
var Toffoli = ThreeQubitGate{"TOFFOLI", func() Matrix8 {
	var m Matrix8
	for i := 0; i < 6; i++ {
		m[i][i] = one
	}
	m[6][7] = one
	m[7][6] = one
	return m
}()}

// PhaseShift returns P(φ) = diag(1, e^(iφ))
func PhaseShift(phi float64) SingleQubitGate {
	return SingleQubitGate{"P", Matrix2{{one, zero}, {zero, Polar(1, phi)}}}
}

// RotationX returns RX(θ) = exp(-iθX/2)
func RotationX(theta float64) SingleQubitGate {
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	return SingleQubitGate{"RX", Matrix2{
		{{Real: c}, {Imag: -s}},
		{{Imag: -s}, {Real: c}},
	}}
}

// RotationY returns RY(θ) = exp(-iθY/2)
func RotationY(theta float64) SingleQubitGate {
	c, s := math.Cos(theta/2), math.Sin(theta/2)
	return SingleQubitGate{"RY", Matrix2{
		{{Real: c}, {Real: -s}},
		{{Real: s}, {Real: c}},
	}}
}

// RotationZ returns RZ(θ) = exp(-iθZ/2)
func RotationZ(theta float64) SingleQubitGate {
	return SingleQubitGate{"RZ", Matrix2{
		{Polar(1, -theta/2), zero},
		{zero, Polar(1, theta/2)},
	}}
}

var fixedGates = map[string]Gate{
	"I":       Identity,
	"X":       PauliX,
	"Y":       PauliY,
	"Z":       PauliZ,
	"H":       Hadamard,
	"S":       PhaseS,
	"SDG":     SDagger,
	"T":       PiOver8,
	"TDG":     TDagger,
	"SWAP":    Swap,
	"TOFFOLI": Toffoli,
}

var parameterizedGates = map[string]func(float64) SingleQubitGate{
	"P":  PhaseShift,
	"RX": RotationX,
	"RY": RotationY,
	"RZ": RotationZ,
}

// controlledGates maps a controlled-gate name to the single-qubit gate it
// applies to the target when the control bit is 1
var controlledGates = map[string]string{
	"CNOT": "X",
	"CY":   "Y",
	"CZ":   "Z",
	"CH":   "H",
	"CS":   "S",
	"CT":   "T",
	"CP":   "P",
	"CRX":  "RX",
	"CRY":  "RY",
	"CRZ":  "RZ",
}

var aliases = map[string]string{
	"ID":    "I",
	"U1":    "P",
	"PHASE": "P",
	"CCX":   "TOFFOLI",
	"CCNOT": "TOFFOLI",
	"CX":    "CNOT",
	"CU1":   "CP",
}

// CanonicalName upper-cases name and resolves aliases
func CanonicalName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}

// Lookup returns the catalogue gate for name. Parameterized gates take exactly
// one finite angle; fixed gates take none.
func Lookup(name string, params ...float64) (Gate, error) {
	n := CanonicalName(name)

	if g, ok := fixedGates[n]; ok {
		if len(params) != 0 {
			return nil, fmt.Errorf("%w: %s takes no parameters, got %d", ErrInvalidParameters, n, len(params))
		}
		return g, nil
	}

	if build, ok := parameterizedGates[n]; ok {
		if len(params) != 1 {
			return nil, fmt.Errorf("%w: %s takes one angle, got %d", ErrInvalidParameters, n, len(params))
		}
		if math.IsNaN(params[0]) || math.IsInf(params[0], 0) {
			return nil, fmt.Errorf("%w: %s angle must be finite, got %v", ErrInvalidParameters, n, params[0])
		}
		return build(params[0]), nil
	}

	if _, ok := controlledGates[n]; ok {
		return nil, fmt.Errorf("%w: %s is a controlled variant, resolve it with ControlledBase", ErrUnknownGate, n)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownGate, name)
}

// ControlledBase returns the single-qubit gate name a controlled variant applies to its target
func ControlledBase(name string) (string, bool) {
	base, ok := controlledGates[CanonicalName(name)]
	return base, ok
}

// IsParameterized reports whether the named gate (or the base of a controlled
// variant) needs an angle
func IsParameterized(name string) bool {
	n := CanonicalName(name)
	if base, ok := controlledGates[n]; ok {
		n = base
	}
	_, ok := parameterizedGates[n]
	return ok
}

// GateInfo describes a catalogue entry
type GateInfo struct {
	Name       string   `json:"name"`
	Qubits     int      `json:"qubits"`
	Params     int      `json:"params"`
	Controlled bool     `json:"controlled"`
	Base       string   `json:"base,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
}

// Catalogue lists every gate name the simulator understands, sorted by name
func Catalogue() []GateInfo {
	aliasesOf := make(map[string][]string)
	for alias, canonical := range aliases {
		aliasesOf[canonical] = append(aliasesOf[canonical], alias)
	}

	infos := make([]GateInfo, 0, len(fixedGates)+len(parameterizedGates)+len(controlledGates))
	for name, g := range fixedGates {
		infos = append(infos, GateInfo{Name: name, Qubits: g.NumQubits()})
	}
	for name := range parameterizedGates {
		infos = append(infos, GateInfo{Name: name, Qubits: 1, Params: 1})
	}
	for name, base := range controlledGates {
		info := GateInfo{Name: name, Qubits: 2, Controlled: true, Base: base}
		if IsParameterized(name) {
			info.Params = 1
		}
		infos = append(infos, info)
	}

	for i := range infos {
		a := aliasesOf[infos[i].Name]
		sort.Strings(a)
		infos[i].Aliases = a
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
