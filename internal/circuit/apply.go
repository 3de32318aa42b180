package circuit

import (
	"fmt"

	"github.com/iprasannamb/qosc/internal/quantum"
)

type opKind int

const (
	kindGate opKind = iota
	kindControlled
	kindMeasure
	kindReset
	kindBarrier
)

// resolved is an operation mapped onto the engine: the catalogue gate and the
// qubits in the order the engine expects them
type resolved struct {
	kind   opKind
	gate   quantum.Gate
	single quantum.Matrix2
	qubits []int
}

func resolve(op Operation) (resolved, error) {
	name := quantum.CanonicalName(op.Gate)

	switch name {
	case "":
		return resolved{}, fmt.Errorf("%w: empty gate name", quantum.ErrUnknownGate)
	case OpMeasure, OpReset, OpBarrier:
		if op.Control != nil || len(op.Controls) > 0 {
			return resolved{}, fmt.Errorf("%w: %s takes no control qubits", quantum.ErrInvalidParameters, name)
		}
		switch name {
		case OpMeasure:
			return resolved{kind: kindMeasure, qubits: []int{op.Target}}, nil
		case OpReset:
			return resolved{kind: kindReset, qubits: []int{op.Target}}, nil
		}
		return resolved{kind: kindBarrier}, nil
	}

	controlled := op.Control != nil
	if base, ok := quantum.ControlledBase(name); ok {
		if !controlled {
			return resolved{}, fmt.Errorf("%w: %s needs a control qubit", quantum.ErrInvalidParameters, name)
		}
		name = base
	}

	g, err := quantum.Lookup(name, op.Params...)
	if err != nil {
		return resolved{}, err
	}

	if _, three := g.(quantum.ThreeQubitGate); !three && len(op.Controls) > 0 {
		return resolved{}, fmt.Errorf("%w: %s does not take a control list", quantum.ErrInvalidParameters, g.Name())
	}

	switch g := g.(type) {
	case quantum.SingleQubitGate:
		if controlled {
			return resolved{kind: kindControlled, gate: g, single: g.Matrix2(), qubits: []int{*op.Control, op.Target}}, nil
		}
		return resolved{kind: kindGate, gate: g, qubits: []int{op.Target}}, nil
	case quantum.TwoQubitGate:
		if !controlled {
			return resolved{}, fmt.Errorf("%w: %s needs a second qubit", quantum.ErrInvalidParameters, g.Name())
		}
		return resolved{kind: kindGate, gate: g, qubits: []int{*op.Control, op.Target}}, nil
	case quantum.ThreeQubitGate:
		if controlled {
			return resolved{}, fmt.Errorf("%w: %s takes its controls from the control list", quantum.ErrInvalidParameters, g.Name())
		}
		if len(op.Controls) != 2 {
			return resolved{}, fmt.Errorf("%w: %s needs two control qubits, got %d",
				quantum.ErrInvalidParameters, g.Name(), len(op.Controls))
		}
		return resolved{kind: kindGate, gate: g, qubits: []int{op.Controls[0], op.Controls[1], op.Target}}, nil
	default:
		return resolved{}, fmt.Errorf("%w: %s", quantum.ErrUnknownGate, name)
	}
}

// Check validates op against an n-qubit register without touching any state
func Check(op Operation, numQubits int) error {
	r, err := resolve(op)
	if err != nil {
		return err
	}

	seen := make(map[int]bool, len(r.qubits))
	for _, q := range r.qubits {
		if q < 0 || q >= numQubits {
			return fmt.Errorf("%w: %d not in [0, %d)", quantum.ErrInvalidQubitIndex, q, numQubits)
		}
		if seen[q] {
			if r.kind == kindControlled {
				return fmt.Errorf("%w: both are qubit %d", quantum.ErrControlEqualsTarget, q)
			}
			return fmt.Errorf("%w: qubit %d", quantum.ErrDuplicateQubit, q)
		}
		seen[q] = true
	}

	return nil
}

// Apply runs one history entry on s. Measurements and resets return the
// observed outcome; gates return nil.
func Apply(s *quantum.State, op Operation) (*quantum.Measurement, error) {
	r, err := resolve(op)
	if err != nil {
		return nil, err
	}

	switch r.kind {
	case kindMeasure:
		m, err := s.Measure(op.Target)
		if err != nil {
			return nil, err
		}
		return &m, nil
	case kindReset:
		m, err := s.ResetQubit(op.Target)
		if err != nil {
			return nil, err
		}
		return &m, nil
	case kindBarrier:
		return nil, nil
	case kindControlled:
		return nil, s.ApplyControlledGate(r.single, r.qubits[0], r.qubits[1])
	default:
		return nil, s.Apply(r.gate, r.qubits...)
	}
}

// Replay builds a fresh register for c and applies every operation in order.
// It returns the final state together with the outcome of every MEASURE.
func Replay(c *Circuit, opts ...quantum.Option) (*quantum.State, []quantum.Measurement, error) {
	s, err := quantum.New(c.NumQubits, opts...)
	if err != nil {
		return nil, nil, err
	}

	measurements := make([]quantum.Measurement, 0)
	for i, op := range c.Operations {
		m, err := Apply(s, op)
		if err != nil {
			return nil, nil, fmt.Errorf("operation %d (%s): %w", i, op.Gate, err)
		}
		if m != nil && quantum.CanonicalName(op.Gate) == OpMeasure {
			measurements = append(measurements, *m)
		}
	}

	return s, measurements, nil
}
