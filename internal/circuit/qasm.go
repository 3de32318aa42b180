package circuit

import (
	"fmt"
	"strings"

	"github.com/iprasannamb/qosc/internal/quantum"
)

// QASMBuilder builds OpenQASM 2.0 programs against qelib1.inc
type QASMBuilder struct {
	version     string
	includeStmt string
	registers   []string
	body        []string
}

// NewQASMBuilder creates a builder with one quantum and one classical register
func NewQASMBuilder(numQubits int, numClassical int) *QASMBuilder {
	builder := &QASMBuilder{
		version:     "OPENQASM 2.0;",
		includeStmt: "include \"qelib1.inc\";",
		registers:   make([]string, 0, 2),
		body:        make([]string, 0),
	}

	builder.registers = append(builder.registers,
		fmt.Sprintf("qreg q[%d];", numQubits),
		fmt.Sprintf("creg c[%d];", numClassical),
	)

	return builder
}

// AddGate appends a gate statement. params may be empty.
func (b *QASMBuilder) AddGate(opcode string, params []string, qubits ...int) {
	var stmt strings.Builder
	stmt.WriteString(opcode)
	if len(params) > 0 {
		stmt.WriteString("(" + strings.Join(params, ",") + ")")
	}

	args := make([]string, len(qubits))
	for i, q := range qubits {
		args[i] = fmt.Sprintf("q[%d]", q)
	}
	stmt.WriteString(" " + strings.Join(args, ",") + ";")

	b.body = append(b.body, stmt.String())
}

// AddMeasurement appends a measurement of qubit into classical bit
func (b *QASMBuilder) AddMeasurement(qubit int, classical int) {
	b.body = append(b.body, fmt.Sprintf("measure q[%d] -> c[%d];", qubit, classical))
}

// AddReset appends a reset of qubit
func (b *QASMBuilder) AddReset(qubit int) {
	b.body = append(b.body, fmt.Sprintf("reset q[%d];", qubit))
}

// AddBarrier appends a barrier over the whole register
func (b *QASMBuilder) AddBarrier() {
	b.body = append(b.body, "barrier q;")
}

// Build generates the complete program text
func (b *QASMBuilder) Build() string {
	var program strings.Builder

	program.WriteString(b.version + "\n")
	program.WriteString(b.includeStmt + "\n")
	program.WriteString("\n")

	for _, reg := range b.registers {
		program.WriteString(reg + "\n")
	}
	program.WriteString("\n")

	for _, stmt := range b.body {
		program.WriteString(stmt + "\n")
	}

	return program.String()
}

// opcodes translates catalogue names to qelib1 opcodes
var opcodes = map[string]string{
	"I":       "id",
	"X":       "x",
	"Y":       "y",
	"Z":       "z",
	"H":       "h",
	"S":       "s",
	"SDG":     "sdg",
	"T":       "t",
	"TDG":     "tdg",
	"P":       "u1",
	"RX":      "rx",
	"RY":      "ry",
	"RZ":      "rz",
	"SWAP":    "swap",
	"TOFFOLI": "ccx",
}

// controlledOpcodes translates the base gate of a controlled operation.
// Variants qelib1 lacks are expressed through cu1 and cu3.
var controlledOpcodes = map[string]func(params []float64) (string, []string){
	"X":   fixedOpcode("cx"),
	"Y":   fixedOpcode("cy"),
	"Z":   fixedOpcode("cz"),
	"H":   fixedOpcode("ch"),
	"S":   fixedOpcode("cu1", "pi/2"),
	"SDG": fixedOpcode("cu1", "-pi/2"),
	"T":   fixedOpcode("cu1", "pi/4"),
	"TDG": fixedOpcode("cu1", "-pi/4"),
	"P": func(p []float64) (string, []string) {
		return "cu1", []string{FormatParam(p[0])}
	},
	"RZ": func(p []float64) (string, []string) {
		return "crz", []string{FormatParam(p[0])}
	},
	"RX": func(p []float64) (string, []string) {
		return "cu3", []string{FormatParam(p[0]), "-pi/2", "pi/2"}
	},
	"RY": func(p []float64) (string, []string) {
		return "cu3", []string{FormatParam(p[0]), "0", "0"}
	},
}

func fixedOpcode(opcode string, params ...string) func([]float64) (string, []string) {
	return func([]float64) (string, []string) {
		return opcode, params
	}
}

func formatParams(params []float64) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = FormatParam(p)
	}
	return out
}

// ToQASM exports the circuit as OpenQASM 2.0. Each MEASURE of qubit q
// writes classical bit c[q].
func ToQASM(c *Circuit) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	builder := NewQASMBuilder(c.NumQubits, c.NumQubits)

	for i, op := range c.Operations {
		r, err := resolve(op)
		if err != nil {
			return "", fmt.Errorf("operation %d: %w", i, err)
		}

		switch r.kind {
		case kindMeasure:
			builder.AddMeasurement(op.Target, op.Target)
		case kindReset:
			builder.AddReset(op.Target)
		case kindBarrier:
			builder.AddBarrier()
		case kindControlled:
			base := r.gate.Name()
			if base == "I" {
				builder.AddGate("id", nil, op.Target)
				continue
			}
			translate, ok := controlledOpcodes[base]
			if !ok {
				return "", fmt.Errorf("operation %d: %w: no OpenQASM form for controlled %s",
					i, quantum.ErrUnknownGate, base)
			}
			opcode, params := translate(op.Params)
			builder.AddGate(opcode, params, r.qubits...)
		default:
			opcode, ok := opcodes[r.gate.Name()]
			if !ok {
				return "", fmt.Errorf("operation %d: %w: no OpenQASM form for %s",
					i, quantum.ErrUnknownGate, r.gate.Name())
			}
			builder.AddGate(opcode, formatParams(op.Params), r.qubits...)
		}
	}

	return builder.Build(), nil
}
