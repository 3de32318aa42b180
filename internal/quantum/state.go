package quantum

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// MaxQubits bounds the register size; the amplitude vector holds 2^n entries
const MaxQubits = 24

// unitaryTolerance is looser than Epsilon so caller-supplied matrices written
// with truncated decimals are still accepted
const unitaryTolerance = 1e-6

// State is a state-vector simulator for a fixed number of qubits.
//
// Basis index i encodes qubit q in bit position q. Every operation validates
// its arguments before touching the amplitudes and writes its result into a
// fresh buffer that replaces the old one, so a failed call leaves the state
// unchanged.
//
// A State is not safe for concurrent use; hosts serialize access per session.
type State struct {
	numQubits  int
	amplitudes []Amplitude
	rng        RandomSource
}

// Option configures a State at construction time
type Option func(*State)

// WithRandomSource injects the random source used by Measure and Sample
func WithRandomSource(rng RandomSource) Option {
	return func(s *State) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New creates a numQubits register initialised to |0...0>
func New(numQubits int, opts ...Option) (*State, error) {
	if numQubits < 1 || numQubits > MaxQubits {
		return nil, fmt.Errorf("%w: qubit count must be between 1 and %d, got %d",
			ErrInvalidConfiguration, MaxQubits, numQubits)
	}

	s := &State{
		numQubits:  numQubits,
		amplitudes: basisVector(numQubits),
		rng:        globalSource{},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func basisVector(numQubits int) []Amplitude {
	amps := make([]Amplitude, 1<<numQubits)
	amps[0] = OneAmplitude
	return amps
}

// NumQubits returns the register size
func (s *State) NumQubits() int {
	return s.numQubits
}

// ApplyGate applies a single-qubit operator to target
func (s *State) ApplyGate(u Matrix2, target int) error {
	if err := s.checkQubit(target); err != nil {
		return err
	}

	s.amplitudes = s.transform(u, target, 0)
	return nil
}

// ApplyControlledGate applies u to target within the subspace where control is 1
func (s *State) ApplyControlledGate(u Matrix2, control, target int) error {
	if err := s.checkQubit(control); err != nil {
		return err
	}
	if err := s.checkQubit(target); err != nil {
		return err
	}
	if control == target {
		return fmt.Errorf("%w: both are qubit %d", ErrControlEqualsTarget, target)
	}

	s.amplitudes = s.transform(u, target, 1<<control)
	return nil
}

// transform returns a new vector with u applied to every (i0, i1) pair that
// differs only in the target bit and has all controlMask bits set
func (s *State) transform(u Matrix2, target, controlMask int) []Amplitude {
	old := s.amplitudes
	out := make([]Amplitude, len(old))
	copy(out, old)

	bit := 1 << target
	for i0 := range old {
		if i0&bit != 0 || i0&controlMask != controlMask {
			continue
		}
		i1 := i0 | bit
		a0, a1 := old[i0], old[i1]
		out[i0] = u[0][0].Mul(a0).Add(u[0][1].Mul(a1))
		out[i1] = u[1][0].Mul(a0).Add(u[1][1].Mul(a1))
	}

	return out
}

// ApplyMultiQubitGate applies a 2^k x 2^k unitary to the listed qubits.
// qubits[0] is the most significant bit of the matrix row index, so
// Toffoli on (c1, c2, t) flips t when c1 and c2 are both 1.
func (s *State) ApplyMultiQubitGate(m Matrix, qubits []int) error {
	k := m.NumQubits()
	if k < 1 {
		return fmt.Errorf("%w: matrix must be square with a power-of-two dimension", ErrInvalidParameters)
	}
	if !m.IsUnitary(unitaryTolerance) {
		return ErrNonUnitaryGate
	}
	return s.applyMatrix(m, qubits)
}

func (s *State) applyMatrix(m Matrix, qubits []int) error {
	k := m.NumQubits()
	if k < 1 || len(qubits) != k {
		return fmt.Errorf("%w: %d-qubit matrix applied to %d qubits", ErrInvalidParameters, k, len(qubits))
	}

	seen := make(map[int]bool, k)
	targetMask := 0
	for _, q := range qubits {
		if err := s.checkQubit(q); err != nil {
			return err
		}
		if seen[q] {
			return fmt.Errorf("%w: qubit %d", ErrDuplicateQubit, q)
		}
		seen[q] = true
		targetMask |= 1 << q
	}

	dim := 1 << k
	offsets := make([]int, dim)
	for sub := 0; sub < dim; sub++ {
		for j, q := range qubits {
			if sub&(1<<(k-1-j)) != 0 {
				offsets[sub] |= 1 << q
			}
		}
	}

	old := s.amplitudes
	out := make([]Amplitude, len(old))
	in := make([]Amplitude, dim)
	for base := range old {
		if base&targetMask != 0 {
			continue
		}
		for sub, off := range offsets {
			in[sub] = old[base|off]
		}
		for r := 0; r < dim; r++ {
			var acc Amplitude
			for c := 0; c < dim; c++ {
				acc = acc.Add(m[r][c].Mul(in[c]))
			}
			out[base|offsets[r]] = acc
		}
	}

	s.amplitudes = out
	return nil
}

// Apply dispatches a catalogue gate to the matching application routine
func (s *State) Apply(g Gate, qubits ...int) error {
	if g == nil {
		return ErrUnknownGate
	}
	if len(qubits) != g.NumQubits() {
		return fmt.Errorf("%w: %s acts on %d qubits, got %d",
			ErrInvalidParameters, g.Name(), g.NumQubits(), len(qubits))
	}

	switch g := g.(type) {
	case SingleQubitGate:
		return s.ApplyGate(g.u, qubits[0])
	case TwoQubitGate:
		return s.applyMatrix(g.u.Matrix(), qubits)
	case ThreeQubitGate:
		return s.applyMatrix(g.u.Matrix(), qubits)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownGate, g)
	}
}

// marginal returns the probability weight of qubit q being 0 and being 1
func (s *State) marginal(q int) (prob0, prob1 float64) {
	bit := 1 << q
	for i, a := range s.amplitudes {
		if i&bit == 0 {
			prob0 += a.Abs2()
		} else {
			prob1 += a.Abs2()
		}
	}
	return prob0, prob1
}

// Measure samples qubit q, collapses the state onto the outcome and
// renormalises. An outcome whose weight is below Epsilon is never selected.
func (s *State) Measure(q int) (Measurement, error) {
	if err := s.checkQubit(q); err != nil {
		return Measurement{}, err
	}

	prob0, prob1 := s.marginal(q)

	var result Bit
	switch {
	case prob1 < Epsilon:
		result = Zero
	case prob0 < Epsilon:
		result = One
	case s.rng.Float64() < prob0:
		result = Zero
	default:
		result = One
	}

	probability := prob0
	if result == One {
		probability = prob1
	}
	if probability < Epsilon {
		return Measurement{}, fmt.Errorf("%w: qubit %d", ErrZeroProbability, q)
	}

	scale := 1 / math.Sqrt(probability)
	bit := 1 << q
	out := make([]Amplitude, len(s.amplitudes))
	for i, a := range s.amplitudes {
		if Bit((i&bit)>>q) == result {
			out[i] = a.Scale(scale)
		}
	}
	s.amplitudes = out

	return Measurement{Qubit: q, Result: result, Probability: probability}, nil
}

// MeasureAll measures every qubit from 0 to n-1
func (s *State) MeasureAll() ([]Measurement, error) {
	results := make([]Measurement, 0, s.numQubits)
	for q := 0; q < s.numQubits; q++ {
		m, err := s.Measure(q)
		if err != nil {
			return results, err
		}
		results = append(results, m)
	}
	return results, nil
}

// Probabilities returns |amplitude|² for every basis state
func (s *State) Probabilities() []float64 {
	probs := make([]float64, len(s.amplitudes))
	for i, a := range s.amplitudes {
		probs[i] = a.Abs2()
	}
	return probs
}

// Norm returns the total probability, 1 for a valid state
func (s *State) Norm() float64 {
	return floats.Sum(s.Probabilities())
}

// QubitProbabilities returns the marginal distribution of every qubit
func (s *State) QubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.numQubits)
	for q := range probs {
		probs[q].Prob0, probs[q].Prob1 = s.marginal(q)
	}
	return probs
}

// State returns a copy of the amplitude vector
func (s *State) State() []Amplitude {
	out := make([]Amplitude, len(s.amplitudes))
	copy(out, s.amplitudes)
	return out
}

// Clone returns an independent copy sharing the random source
func (s *State) Clone() *State {
	return &State{
		numQubits:  s.numQubits,
		amplitudes: s.State(),
		rng:        s.rng,
	}
}

// Reset returns the register to |0...0>
func (s *State) Reset() {
	s.amplitudes = basisVector(s.numQubits)
}

// ResetQubit measures q and flips it back to 0 when the outcome was 1
func (s *State) ResetQubit(q int) (Measurement, error) {
	m, err := s.Measure(q)
	if err != nil {
		return m, err
	}
	if m.Result == One {
		s.amplitudes = s.transform(PauliX.u, q, 0)
	}
	return m, nil
}

// Sample draws shots basis states from the current distribution without
// collapsing it and returns counts keyed by BasisLabel
func (s *State) Sample(shots int) (map[string]int, error) {
	if shots < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidShots, shots)
	}

	probs := s.Probabilities()
	cumulative := make([]float64, len(probs))
	floats.CumSum(cumulative, probs)

	last := len(probs) - 1
	for last > 0 && probs[last] < Epsilon {
		last--
	}

	counts := make(map[string]int)
	total := cumulative[len(cumulative)-1]
	for i := 0; i < shots; i++ {
		r := s.rng.Float64() * total
		idx := sort.Search(len(cumulative), func(j int) bool { return r < cumulative[j] })
		if idx > last {
			idx = last
		}
		counts[BasisLabel(idx, s.numQubits)]++
	}

	return counts, nil
}

func (s *State) checkQubit(q int) error {
	if q < 0 || q >= s.numQubits {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidQubitIndex, q, s.numQubits)
	}
	return nil
}
