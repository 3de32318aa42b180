package quantum

import (
	"fmt"
	"math/rand"
)

// Bit represents a classical measurement outcome (0 or 1)
type Bit int

const (
	Zero Bit = 0
	One  Bit = 1
)

// RandomSource supplies uniform draws in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// globalSource draws from the auto-seeded, goroutine-safe math/rand top-level generator
type globalSource struct{}

func (globalSource) Float64() float64 {
	return rand.Float64()
}

// Measurement is the outcome of measuring one qubit
type Measurement struct {
	// Qubit is the measured qubit index
	Qubit int `json:"qubit"`
	// Result is the classical bit obtained
	Result Bit `json:"result"`
	// Probability is the weight the outcome had before collapse
	Probability float64 `json:"probability"`
}

// QubitProbability holds the marginal probabilities of a single qubit
type QubitProbability struct {
	Prob0 float64 `json:"p0"`
	Prob1 float64 `json:"p1"`
}

// BasisLabel renders basis index i of an n-qubit register as a bitstring,
// qubit n-1 leftmost and qubit 0 rightmost
func BasisLabel(i, numQubits int) string {
	return fmt.Sprintf("%0*b", numQubits, i)
}
