package quantum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestComplexArithmetic tests the amplitude helpers
func TestComplexArithmetic(t *testing.T) {
	a := NewAmplitude(1.5, -2)
	b := NewAmplitude(-0.25, 3)
	c := NewAmplitude(0.5, 0.5)

	t.Run("Multiply matches definition", func(t *testing.T) {
		got := Multiply(a, b)
		assert.InDelta(t, 1.5*-0.25-(-2*3), got.Real, Epsilon)
		assert.InDelta(t, 1.5*3+(-2*-0.25), got.Imag, Epsilon)
	})

	t.Run("Commutativity", func(t *testing.T) {
		assert.True(t, Multiply(a, b).ApproxEqual(Multiply(b, a), Epsilon))
		assert.True(t, Add(a, b).ApproxEqual(Add(b, a), Epsilon))
	})

	t.Run("Associativity", func(t *testing.T) {
		assert.True(t, a.Mul(b).Mul(c).ApproxEqual(a.Mul(b.Mul(c)), Epsilon))
		assert.True(t, a.Add(b).Add(c).ApproxEqual(a.Add(b.Add(c)), Epsilon))
	})

	t.Run("Distributivity", func(t *testing.T) {
		assert.True(t, a.Mul(b.Add(c)).ApproxEqual(a.Mul(b).Add(a.Mul(c)), Epsilon))
	})

	t.Run("i squared is minus one", func(t *testing.T) {
		assert.Equal(t, Amplitude{Real: -1}, IAmplitude.Mul(IAmplitude))
	})

	t.Run("Abs2 and conjugate", func(t *testing.T) {
		assert.InDelta(t, 6.25, a.Abs2(), Epsilon)
		assert.InDelta(t, a.Abs2(), a.Mul(a.Conj()).Real, Epsilon)
	})

	t.Run("Polar", func(t *testing.T) {
		p := Polar(2, math.Pi/2)
		assert.True(t, p.ApproxEqual(Amplitude{Imag: 2}, Epsilon))
		assert.InDelta(t, math.Pi/2, p.Phase(), Epsilon)
	})
}

// TestCatalogueGatesAreUnitary tests that every catalogue gate is unitary
func TestCatalogueGatesAreUnitary(t *testing.T) {
	for _, info := range Catalogue() {
		if info.Controlled {
			continue
		}
		t.Run(info.Name, func(t *testing.T) {
			params := make([]float64, info.Params)
			for i := range params {
				params[i] = 0.731
			}
			g, err := Lookup(info.Name, params...)
			require.NoError(t, err)

			m := g.Matrix()
			assert.Equal(t, 1<<g.NumQubits(), m.Dim())
			assert.True(t, m.IsUnitary(Epsilon))
		})
	}
}

// TestLookup tests gate lookup by name and alias
func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		gate     string
		params   []float64
		wantName string
		wantErr  error
	}{
		{"Hadamard", "H", nil, "H", nil},
		{"Lower case", "x", nil, "X", nil},
		{"Identity alias", "id", nil, "I", nil},
		{"Toffoli alias", "ccx", nil, "TOFFOLI", nil},
		{"Phase alias", "u1", []float64{0.2}, "P", nil},
		{"Rotation", "RY", []float64{math.Pi}, "RY", nil},
		{"Unknown gate", "FOO", nil, "", ErrUnknownGate},
		{"Controlled name", "CNOT", nil, "", ErrUnknownGate},
		{"Missing angle", "RX", nil, "", ErrInvalidParameters},
		{"Unexpected angle", "H", []float64{1}, "", ErrInvalidParameters},
		{"Infinite angle", "RX", []float64{math.Inf(1)}, "", ErrInvalidParameters},
		{"NaN angle", "P", []float64{math.NaN()}, "", ErrInvalidParameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Lookup(tt.gate, tt.params...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, g.Name())
		})
	}
}

// TestControlledBase tests the base gate of controlled names
func TestControlledBase(t *testing.T) {
	tests := []struct {
		name string
		base string
		ok   bool
	}{
		{"CNOT", "X", true},
		{"cx", "X", true},
		{"CZ", "Z", true},
		{"CS", "S", true},
		{"CT", "T", true},
		{"cu1", "P", true},
		{"H", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, ok := ControlledBase(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.base, base)
		})
	}

	assert.True(t, IsParameterized("CRZ"))
	assert.True(t, IsParameterized("rx"))
	assert.False(t, IsParameterized("CNOT"))
}

// TestGateShapes tests gate arity
func TestGateShapes(t *testing.T) {
	var gates = []Gate{Hadamard, Swap, Toffoli}
	want := []int{1, 2, 3}

	for i, g := range gates {
		assert.Equal(t, want[i], g.NumQubits(), g.Name())
		assert.Equal(t, 1<<want[i], g.Matrix().Dim(), g.Name())
		assert.Equal(t, want[i], g.Matrix().NumQubits(), g.Name())
	}
}

// TestMatrixDagger tests the conjugate transpose
func TestMatrixDagger(t *testing.T) {
	s := PhaseS.Matrix().Dagger()
	sdg := SDagger.Matrix()
	for r := range s {
		for c := range s[r] {
			assert.True(t, s[r][c].ApproxEqual(sdg[r][c], Epsilon))
		}
	}
}

// TestCatalogueListing tests the catalogue entries
func TestCatalogueListing(t *testing.T) {
	infos := Catalogue()
	byName := make(map[string]GateInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}

	require.Contains(t, byName, "CNOT")
	assert.Equal(t, "X", byName["CNOT"].Base)
	assert.Equal(t, []string{"CX"}, byName["CNOT"].Aliases)
	assert.Equal(t, 3, byName["TOFFOLI"].Qubits)
	assert.Equal(t, 1, byName["CRZ"].Params)
	assert.Equal(t, 1, byName["RX"].Params)

	for i := 1; i < len(infos); i++ {
		assert.Less(t, infos[i-1].Name, infos[i].Name)
	}
}
