package algorithms

import (
	"fmt"
	"strings"

	"github.com/iprasannamb/qosc/internal/quantum"
)

// basis is the preparation or measurement basis of a bb84 qubit
type basis int

const (
	rectilinear basis = iota
	diagonal
)

func parseBasis(b byte) (basis, error) {
	switch b {
	case '+', 'z', 'Z':
		return rectilinear, nil
	case 'x', 'X':
		return diagonal, nil
	default:
		return 0, fmt.Errorf("%w: basis %q is neither '+' nor 'x'", ErrInvalidArguments, b)
	}
}

func parseBit(b byte) (quantum.Bit, error) {
	switch b {
	case '0':
		return quantum.Zero, nil
	case '1':
		return quantum.One, nil
	default:
		return 0, fmt.Errorf("%w: bit %q is neither '0' nor '1'", ErrInvalidArguments, b)
	}
}

// SiftedKey holds the bits of a bb84 round where Alice and Bob chose the same basis
type SiftedKey struct {
	AliceKey []quantum.Bit `json:"alice_key"`
	BobKey   []quantum.Bit `json:"bob_key"`
	Indices  []int         `json:"indices"`
}

// Sift compares the bases of a bb84 round and keeps the positions where they
// match. measurements are the outcomes of replaying the bb84 circuit.
func Sift(args Args, measurements []quantum.Measurement) (*SiftedKey, error) {
	bobBases := args.BobBases
	if bobBases == "" {
		bobBases = args.Bases
	}
	if len(args.Bases) != len(bobBases) || len(args.Bits) != len(args.Bases) {
		return nil, fmt.Errorf("%w: alice and bob must have the same number of bases", ErrInvalidArguments)
	}

	observed := make(map[int]quantum.Bit, len(measurements))
	for _, m := range measurements {
		observed[m.Qubit] = m.Result
	}

	sifted := &SiftedKey{
		AliceKey: make([]quantum.Bit, 0),
		BobKey:   make([]quantum.Bit, 0),
		Indices:  make([]int, 0),
	}

	for i := 0; i < len(args.Bases); i++ {
		alice, err := parseBasis(args.Bases[i])
		if err != nil {
			return nil, err
		}
		bob, err := parseBasis(bobBases[i])
		if err != nil {
			return nil, err
		}
		if alice != bob {
			continue
		}

		bit, err := parseBit(args.Bits[i])
		if err != nil {
			return nil, err
		}
		result, ok := observed[i]
		if !ok {
			return nil, fmt.Errorf("%w: no measurement for qubit %d", ErrInvalidArguments, i)
		}

		sifted.AliceKey = append(sifted.AliceKey, bit)
		sifted.BobKey = append(sifted.BobKey, result)
		sifted.Indices = append(sifted.Indices, i)
	}

	return sifted, nil
}

// ErrorRate is the fraction of sifted positions where the keys disagree
func (k *SiftedKey) ErrorRate() float64 {
	if len(k.AliceKey) == 0 {
		return 0
	}
	errors := 0
	for i := range k.AliceKey {
		if k.AliceKey[i] != k.BobKey[i] {
			errors++
		}
	}
	return float64(errors) / float64(len(k.AliceKey))
}

// BitString renders bits as a string of '0' and '1'
func BitString(bits []quantum.Bit) string {
	var sb strings.Builder
	for _, b := range bits {
		sb.WriteByte('0' + byte(b))
	}
	return sb.String()
}
