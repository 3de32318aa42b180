package circuit

import (
	"fmt"

	"github.com/iprasannamb/qosc/internal/quantum"
)

// Pseudo-gates recorded in the history next to catalogue gates
const (
	OpMeasure = "MEASURE"
	OpReset   = "RESET"
	OpBarrier = "BARRIER"
)

// Operation is one entry of the applied-operation history.
//
// Single-qubit gates use Target and, when controlled, Control. SWAP uses
// Control as its second qubit. TOFFOLI uses Controls for its two control qubits.
type Operation struct {
	Gate     string       `json:"gate"`
	Target   int          `json:"target"`
	Control  *int         `json:"control,omitempty"`
	Controls []int        `json:"controls,omitempty"`
	Time     int          `json:"time"`
	Params   []float64    `json:"params,omitempty"`
	Result   *quantum.Bit `json:"result,omitempty"`
}

// Gate builds an uncontrolled single-qubit operation
func Gate(name string, target int, params ...float64) Operation {
	return Operation{Gate: name, Target: target, Params: params}
}

// Controlled builds a controlled operation, either a named variant (CNOT, CZ, ...)
// or a plain single-qubit gate with a control attached
func Controlled(name string, control, target int, params ...float64) Operation {
	return Operation{Gate: name, Target: target, Control: &control, Params: params}
}

// SwapOf builds a SWAP of a and b
func SwapOf(a, b int) Operation {
	return Operation{Gate: "SWAP", Target: b, Control: &a}
}

// ToffoliOf builds a doubly controlled X
func ToffoliOf(c1, c2, target int) Operation {
	return Operation{Gate: "TOFFOLI", Target: target, Controls: []int{c1, c2}}
}

// MeasureOf builds a measurement of q
func MeasureOf(q int) Operation {
	return Operation{Gate: OpMeasure, Target: q}
}

// ResetOf builds a reset of q
func ResetOf(q int) Operation {
	return Operation{Gate: OpReset, Target: q}
}

// BarrierOp builds a barrier spanning every qubit
func BarrierOp() Operation {
	return Operation{Gate: OpBarrier, Target: -1}
}

// Qubits returns every qubit index the operation references
func (op Operation) Qubits() []int {
	if quantum.CanonicalName(op.Gate) == OpBarrier {
		return nil
	}
	qubits := append([]int(nil), op.Controls...)
	if op.Control != nil {
		qubits = append(qubits, *op.Control)
	}
	return append(qubits, op.Target)
}

func (op Operation) String() string {
	name := quantum.CanonicalName(op.Gate)
	switch {
	case name == OpBarrier:
		return name
	case len(op.Controls) > 0:
		return fmt.Sprintf("%s%v q%v->q%d", name, op.Params, op.Controls, op.Target)
	case op.Control != nil:
		return fmt.Sprintf("%s%v q%d->q%d", name, op.Params, *op.Control, op.Target)
	default:
		return fmt.Sprintf("%s%v q%d", name, op.Params, op.Target)
	}
}

// Circuit is an ordered operation history over a fixed register
type Circuit struct {
	NumQubits  int         `json:"num_qubits"`
	Operations []Operation `json:"operations"`
}

// New creates an empty circuit
func New(numQubits int) *Circuit {
	return &Circuit{NumQubits: numQubits, Operations: make([]Operation, 0)}
}

// Append records op with a canonical gate name and the next time step
func (c *Circuit) Append(op Operation) Operation {
	op.Gate = quantum.CanonicalName(op.Gate)
	op.Time = len(c.Operations)
	c.Operations = append(c.Operations, op)
	return op
}

// Len returns the number of recorded operations
func (c *Circuit) Len() int {
	return len(c.Operations)
}

// Clone returns a deep copy
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{NumQubits: c.NumQubits, Operations: make([]Operation, len(c.Operations))}
	for i, op := range c.Operations {
		cp := op
		if op.Control != nil {
			v := *op.Control
			cp.Control = &v
		}
		if op.Result != nil {
			v := *op.Result
			cp.Result = &v
		}
		cp.Controls = append([]int(nil), op.Controls...)
		cp.Params = append([]float64(nil), op.Params...)
		out.Operations[i] = cp
	}
	return out
}

// Validate checks every operation against the catalogue and the register
// size without running the simulation
func (c *Circuit) Validate() error {
	if c.NumQubits < 1 || c.NumQubits > quantum.MaxQubits {
		return fmt.Errorf("%w: qubit count must be between 1 and %d, got %d",
			quantum.ErrInvalidConfiguration, quantum.MaxQubits, c.NumQubits)
	}

	for i, op := range c.Operations {
		if err := Check(op, c.NumQubits); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i, op.Gate, err)
		}
	}

	return nil
}
