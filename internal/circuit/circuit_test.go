package circuit

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/iprasannamb/qosc/internal/quantum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bell() *Circuit {
	c := New(2)
	c.Append(Gate("h", 0))
	c.Append(Controlled("cnot", 0, 1))
	return c
}

func intPtr(v int) *int { return &v }

// TestAppendStampsTime tests that Append records a timestamp
func TestAppendStampsTime(t *testing.T) {
	c := bell()
	require.Equal(t, 2, c.Len())

	assert.Equal(t, "H", c.Operations[0].Gate)
	assert.Equal(t, 0, c.Operations[0].Time)
	assert.Equal(t, "CNOT", c.Operations[1].Gate)
	assert.Equal(t, 1, c.Operations[1].Time)
	assert.Equal(t, []int{0, 1}, c.Operations[1].Qubits())
}

// TestCloneIsDeep tests Clone
func TestCloneIsDeep(t *testing.T) {
	c := bell()
	cp := c.Clone()

	*cp.Operations[1].Control = 1
	cp.Append(MeasureOf(0))

	assert.Equal(t, 0, *c.Operations[1].Control)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, cp.Len())
}

// TestValidate tests operation validation
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		qubits  int
		ops     []Operation
		wantErr error
	}{
		{"Bell", 2, bell().Operations, nil},
		{"Zero qubits", 0, nil, quantum.ErrInvalidConfiguration},
		{"Unknown gate", 1, []Operation{Gate("FOO", 0)}, quantum.ErrUnknownGate},
		{"Out of range", 2, []Operation{Gate("X", 2)}, quantum.ErrInvalidQubitIndex},
		{"Control equals target", 2, []Operation{Controlled("CNOT", 1, 1)}, quantum.ErrControlEqualsTarget},
		{"Controlled name without control", 2, []Operation{Gate("CNOT", 0)}, quantum.ErrInvalidParameters},
		{"Swap without partner", 2, []Operation{Gate("SWAP", 0)}, quantum.ErrInvalidParameters},
		{"Swap onto itself", 2, []Operation{SwapOf(1, 1)}, quantum.ErrDuplicateQubit},
		{"Toffoli duplicate control", 3, []Operation{ToffoliOf(0, 0, 2)}, quantum.ErrDuplicateQubit},
		{"Missing angle", 1, []Operation{Gate("RZ", 0)}, quantum.ErrInvalidParameters},
		{"Infinite angle", 1, []Operation{Gate("RX", 0, math.Inf(1))}, quantum.ErrInvalidParameters},
		{"NaN angle", 1, []Operation{Gate("P", 0, math.NaN())}, quantum.ErrInvalidParameters},
		{"Single gate with control list", 3, []Operation{{Gate: "X", Target: 2, Controls: []int{0, 1}}}, quantum.ErrInvalidParameters},
		{"Controlled gate with control list", 3, []Operation{{Gate: "CNOT", Target: 2, Control: intPtr(0), Controls: []int{1}}}, quantum.ErrInvalidParameters},
		{"Swap with control list", 3, []Operation{{Gate: "SWAP", Target: 2, Control: intPtr(0), Controls: []int{1}}}, quantum.ErrInvalidParameters},
		{"Toffoli with single control", 3, []Operation{{Gate: "TOFFOLI", Target: 2, Control: intPtr(0), Controls: []int{0, 1}}}, quantum.ErrInvalidParameters},
		{"Measure with control", 2, []Operation{{Gate: "MEASURE", Target: 1, Control: intPtr(0)}}, quantum.ErrInvalidParameters},
		{"Barrier", 1, []Operation{BarrierOp()}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Circuit{NumQubits: tt.qubits, Operations: tt.ops}
			err := c.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

// TestReplay tests replaying circuits onto a fresh state
func TestReplay(t *testing.T) {
	t.Run("Bell state", func(t *testing.T) {
		s, ms, err := Replay(bell())
		require.NoError(t, err)
		assert.Empty(t, ms)

		probs := s.Probabilities()
		assert.InDelta(t, 0.5, probs[0], quantum.Epsilon)
		assert.InDelta(t, 0, probs[1], quantum.Epsilon)
		assert.InDelta(t, 0, probs[2], quantum.Epsilon)
		assert.InDelta(t, 0.5, probs[3], quantum.Epsilon)
	})

	t.Run("Measurements are returned in order", func(t *testing.T) {
		c := New(2)
		c.Append(Gate("X", 0))
		c.Append(MeasureOf(0))
		c.Append(MeasureOf(1))

		_, ms, err := Replay(c, quantum.WithRandomSource(rand.New(rand.NewSource(7))))
		require.NoError(t, err)
		require.Len(t, ms, 2)
		assert.Equal(t, quantum.One, ms[0].Result)
		assert.Equal(t, quantum.Zero, ms[1].Result)
	})

	t.Run("Reset is not reported as a measurement", func(t *testing.T) {
		c := New(1)
		c.Append(Gate("X", 0))
		c.Append(ResetOf(0))

		s, ms, err := Replay(c)
		require.NoError(t, err)
		assert.Empty(t, ms)
		assert.InDelta(t, 1, s.Probabilities()[0], quantum.Epsilon)
	})

	t.Run("Parameterized controlled gate", func(t *testing.T) {
		c := New(2)
		c.Append(Gate("X", 0))
		c.Append(Controlled("CRY", 0, 1, math.Pi))

		s, _, err := Replay(c)
		require.NoError(t, err)
		assert.InDelta(t, 1, s.Probabilities()[3], quantum.Epsilon)
	})

	t.Run("Failing operation reports its index", func(t *testing.T) {
		c := bell()
		c.Operations = append(c.Operations, Gate("H", 5))

		_, _, err := Replay(c)
		require.ErrorIs(t, err, quantum.ErrInvalidQubitIndex)
		assert.Contains(t, err.Error(), "operation 2")
	})
}

// TestApplyBarrierIsNoop tests that a barrier changes nothing
func TestApplyBarrierIsNoop(t *testing.T) {
	s, err := quantum.New(1)
	require.NoError(t, err)

	m, err := Apply(s, BarrierOp())
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.InDelta(t, 1, s.Probabilities()[0], quantum.Epsilon)
}

// TestToQASM tests QASM export
func TestToQASM(t *testing.T) {
	c := bell()
	c.Append(MeasureOf(0))

	got, err := ToQASM(c)
	require.NoError(t, err)

	want := strings.Join([]string{
		"OPENQASM 2.0;",
		`include "qelib1.inc";`,
		"",
		"qreg q[2];",
		"creg c[2];",
		"",
		"h q[0];",
		"cx q[0],q[1];",
		"measure q[0] -> c[0];",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

// TestToQASMTranslation tests gate name translation on export
func TestToQASMTranslation(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"Phase", Gate("P", 0, math.Pi/4), "u1(pi/4) q[0];"},
		{"Rotation", Gate("RX", 1, 0.25), "rx(0.25) q[1];"},
		{"Dagger", Gate("TDG", 0), "tdg q[0];"},
		{"Swap", SwapOf(0, 2), "swap q[0],q[2];"},
		{"Toffoli", ToffoliOf(0, 1, 2), "ccx q[0],q[1],q[2];"},
		{"Controlled S", Controlled("CS", 2, 0), "cu1(pi/2) q[2],q[0];"},
		{"Controlled SDG", Controlled("SDG", 2, 0), "cu1(-pi/2) q[2],q[0];"},
		{"Controlled RZ", Controlled("CRZ", 0, 1, math.Pi), "crz(pi) q[0],q[1];"},
		{"Controlled RX", Controlled("CRX", 0, 1, math.Pi/2), "cu3(pi/2,-pi/2,pi/2) q[0],q[1];"},
		{"Controlled RY", Controlled("RY", 0, 1, math.Pi/3), "cu3(pi/3,0,0) q[0],q[1];"},
		{"Reset", ResetOf(1), "reset q[1];"},
		{"Barrier", BarrierOp(), "barrier q;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(3)
			c.Append(tt.op)
			got, err := ToQASM(c)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(got, tt.want+"\n"), got)
		})
	}
}

// TestToQASMRejectsInvalidCircuit tests export of an invalid circuit
func TestToQASMRejectsInvalidCircuit(t *testing.T) {
	c := New(1)
	c.Append(Gate("X", 3))

	_, err := ToQASM(c)
	require.ErrorIs(t, err, quantum.ErrInvalidQubitIndex)
}

// TestQASMRoundTrip tests that export then parse preserves the circuit
func TestQASMRoundTrip(t *testing.T) {
	c := New(3)
	c.Append(Gate("H", 0))
	c.Append(Gate("RX", 1, 0.3))
	c.Append(Gate("P", 2, -math.Pi/8))
	c.Append(Controlled("CRY", 0, 1, 1.1))
	c.Append(Controlled("RX", 1, 2, 0.7))
	c.Append(Controlled("T", 2, 0))
	c.Append(SwapOf(0, 2))
	c.Append(ToffoliOf(0, 1, 2))
	c.Append(BarrierOp())
	c.Append(Controlled("CZ", 1, 0))

	program, err := ToQASM(c)
	require.NoError(t, err)

	parsed, err := ParseQASM(program)
	require.NoError(t, err)
	require.Equal(t, c.NumQubits, parsed.NumQubits)
	require.Equal(t, c.Len(), parsed.Len())

	again, err := ToQASM(parsed)
	require.NoError(t, err)
	assert.Equal(t, program, again)

	want, _, err := Replay(c)
	require.NoError(t, err)
	got, _, err := Replay(parsed)
	require.NoError(t, err)

	wantAmps, gotAmps := want.State(), got.State()
	for i := range wantAmps {
		assert.True(t, wantAmps[i].ApproxEqual(gotAmps[i], quantum.Epsilon), "amplitude %d", i)
	}
}

// TestParseQASM tests QASM parsing
func TestParseQASM(t *testing.T) {
	src := `OPENQASM 2.0;
include "qelib1.inc";
// prepare a GHZ state
qreg q[3];
creg c[3];
h q[0];
CX q[0],q[1]; cx q[1],q[2];
rz(-pi/2) q[2];  // trailing comment
measure q[2] -> c[2];
`
	c, err := ParseQASM(src)
	require.NoError(t, err)
	require.Equal(t, 3, c.NumQubits)
	require.Equal(t, 5, c.Len())

	assert.Equal(t, "H", c.Operations[0].Gate)
	assert.Equal(t, "CNOT", c.Operations[2].Gate)
	assert.Equal(t, 1, *c.Operations[2].Control)
	assert.Equal(t, 2, c.Operations[2].Target)
	assert.Equal(t, "RZ", c.Operations[3].Gate)
	assert.InDelta(t, -math.Pi/2, c.Operations[3].Params[0], 1e-12)
	assert.Equal(t, OpMeasure, c.Operations[4].Gate)
	assert.Equal(t, 4, c.Operations[4].Time)
}

// TestParseQASMErrors tests parse errors and their line numbers
func TestParseQASMErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantErr  error
		wantLine int
	}{
		{"Empty program", "", ErrMalformedQASM, 0},
		{"Gate before qreg", "h q[0];", ErrMalformedQASM, 1},
		{"Unknown opcode", "qreg q[2];\nfoo q[0];", quantum.ErrUnknownGate, 2},
		{"Qubit out of range", "qreg q[2];\nh q[5];", quantum.ErrInvalidQubitIndex, 2},
		{"Control equals target", "qreg q[2];\n\ncx q[1],q[1];", quantum.ErrControlEqualsTarget, 3},
		{"Missing angle", "qreg q[1];\nrx q[0];", quantum.ErrInvalidParameters, 2},
		{"Bad angle", "qreg q[1];\nrx(tau) q[0];", quantum.ErrInvalidParameters, 2},
		{"Wrong arity", "qreg q[2];\ncx q[0];", quantum.ErrInvalidParameters, 2},
		{"Second qreg", "qreg q[2];\nqreg r[1];", ErrMalformedQASM, 2},
		{"Unknown register", "qreg q[2];\nh r[0];", ErrMalformedQASM, 2},
		{"Measure without creg", "qreg q[2];\nmeasure q[0] -> c[0];", ErrMalformedQASM, 2},
		{"Classical bit out of range", "qreg q[2];\ncreg c[1];\nmeasure q[1] -> c[1];", ErrMalformedQASM, 3},
		{"Unsupported cu3", "qreg q[2];\ncu3(1,2,3) q[0],q[1];", quantum.ErrUnknownGate, 2},
		{"Register too large", "qreg q[99];", quantum.ErrInvalidConfiguration, 1},
		{"Wrong version", "OPENQASM 3.0;", ErrMalformedQASM, 1},
		{"Infinite angle", "qreg q[1];\nrx(inf) q[0];", quantum.ErrInvalidParameters, 2},
		{"NaN angle", "qreg q[1];\nu1(nan) q[0];", quantum.ErrInvalidParameters, 2},
		{"Measure into another bit", "qreg q[2];\ncreg c[2];\nmeasure q[0] -> c[1];", ErrMalformedQASM, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQASM(tt.src)
			require.ErrorIs(t, err, tt.wantErr)

			var perr *ParseError
			if tt.wantLine == 0 {
				assert.False(t, errors.As(err, &perr))
				return
			}
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantLine, perr.Line)
		})
	}
}

// TestParseParam tests angle expressions
func TestParseParam(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0.5", 0.5, false},
		{"-1e-3", -1e-3, false},
		{"pi", math.Pi, false},
		{"PI/2", math.Pi / 2, false},
		{"-pi/4", -math.Pi / 4, false},
		{"2pi", 2 * math.Pi, false},
		{"3*pi/4", 3 * math.Pi / 4, false},
		{"0.5*pi", math.Pi / 2, false},
		{"", 0, true},
		{"pi/0", 0, true},
		{"tau", 0, true},
		{"inf", 0, true},
		{"-Inf", 0, true},
		{"NaN", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseParam(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

// TestFormatParam tests angle formatting
func TestFormatParam(t *testing.T) {
	assert.Equal(t, "0", FormatParam(0))
	assert.Equal(t, "pi", FormatParam(math.Pi))
	assert.Equal(t, "-pi/2", FormatParam(-math.Pi/2))
	assert.Equal(t, "3*pi/4", FormatParam(3*math.Pi/4))
	assert.Equal(t, "0.25", FormatParam(0.25))

	for _, v := range []float64{0.1, 1.1, -2.5e-7, math.Pi / 16} {
		back, err := ParseParam(FormatParam(v))
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

// TestDigest tests circuit digests
func TestDigest(t *testing.T) {
	c := bell()

	d1, err := Digest(c)
	require.NoError(t, err)
	assert.Len(t, d1, 64)

	d2, err := Digest(c.Clone())
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	c.Append(MeasureOf(1))
	d3, err := Digest(c)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}
