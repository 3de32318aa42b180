package circuit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/iprasannamb/qosc/internal/quantum"
)

// ErrMalformedQASM is returned for programs outside the supported OpenQASM 2.0 subset
var ErrMalformedQASM = &quantum.SimulationError{Message: "malformed OpenQASM program"}

// ParseError locates a failure inside an OpenQASM source
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	headerRegex   = regexp.MustCompile(`^OPENQASM\s+(\d+(?:\.\d+)?)$`)
	includeRegex  = regexp.MustCompile(`^include\s+"([^"]+)"$`)
	registerRegex = regexp.MustCompile(`^(qreg|creg)\s+([a-zA-Z_]\w*)\s*\[\s*(\d+)\s*\]$`)
	measureRegex  = regexp.MustCompile(`^measure\s+(.+?)\s*->\s*(.+)$`)
	resetRegex    = regexp.MustCompile(`^reset\s+(.+)$`)
	barrierRegex  = regexp.MustCompile(`^barrier(?:\s+.*)?$`)
	gateRegex     = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9_]*)\s*(?:\(([^)]*)\))?\s+(.+)$`)
	qubitRegex    = regexp.MustCompile(`^([a-zA-Z_]\w*)\s*\[\s*(\d+)\s*\]$`)
)

// gateForms maps qelib1 opcodes onto catalogue names with their qubit arity
var gateForms = map[string]struct {
	name   string
	qubits int
	params int
}{
	"id":   {"I", 1, 0},
	"x":    {"X", 1, 0},
	"y":    {"Y", 1, 0},
	"z":    {"Z", 1, 0},
	"h":    {"H", 1, 0},
	"s":    {"S", 1, 0},
	"sdg":  {"SDG", 1, 0},
	"t":    {"T", 1, 0},
	"tdg":  {"TDG", 1, 0},
	"u1":   {"P", 1, 1},
	"p":    {"P", 1, 1},
	"rx":   {"RX", 1, 1},
	"ry":   {"RY", 1, 1},
	"rz":   {"RZ", 1, 1},
	"swap": {"SWAP", 2, 0},
	"ccx":  {"TOFFOLI", 3, 0},
	"cx":   {"CNOT", 2, 0},
	"cy":   {"CY", 2, 0},
	"cz":   {"CZ", 2, 0},
	"ch":   {"CH", 2, 0},
	"cu1":  {"CP", 2, 1},
	"cp":   {"CP", 2, 1},
	"crx":  {"CRX", 2, 1},
	"cry":  {"CRY", 2, 1},
	"crz":  {"CRZ", 2, 1},
	"cu3":  {"", 2, 3},
}

type qasmParser struct {
	circuit *Circuit
	qreg    string
	cregs   map[string]int
}

// ParseQASM reads the OpenQASM 2.0 subset that ToQASM emits: one quantum
// register, classical registers, qelib1 gates, measure, reset and barrier.
// measure q[i] must write c[i].
func ParseQASM(src string) (*Circuit, error) {
	p := &qasmParser{cregs: make(map[string]int)}

	for n, raw := range strings.Split(src, "\n") {
		line := raw
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}

		for _, stmt := range strings.Split(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.statement(stmt); err != nil {
				return nil, &ParseError{Line: n + 1, Text: stmt, Err: err}
			}
		}
	}

	if p.circuit == nil {
		return nil, fmt.Errorf("%w: no qreg declaration", ErrMalformedQASM)
	}
	if err := p.circuit.Validate(); err != nil {
		return nil, err
	}

	return p.circuit, nil
}

func (p *qasmParser) statement(stmt string) error {
	if m := headerRegex.FindStringSubmatch(stmt); m != nil {
		if m[1] != "2.0" && m[1] != "2" {
			return fmt.Errorf("%w: unsupported version %s", ErrMalformedQASM, m[1])
		}
		return nil
	}
	if includeRegex.MatchString(stmt) {
		return nil
	}
	if m := registerRegex.FindStringSubmatch(stmt); m != nil {
		return p.register(m[1], m[2], m[3])
	}

	if p.circuit == nil {
		return fmt.Errorf("%w: statement before qreg declaration", ErrMalformedQASM)
	}

	if m := measureRegex.FindStringSubmatch(stmt); m != nil {
		q, err := p.qubit(m[1])
		if err != nil {
			return err
		}
		c, err := p.classical(m[2])
		if err != nil {
			return err
		}
		if c != q {
			return fmt.Errorf("%w: qubit %d must be measured into classical bit %d, got %d", ErrMalformedQASM, q, q, c)
		}
		return p.append(MeasureOf(q))
	}
	if m := resetRegex.FindStringSubmatch(stmt); m != nil {
		q, err := p.qubit(m[1])
		if err != nil {
			return err
		}
		return p.append(ResetOf(q))
	}
	if barrierRegex.MatchString(stmt) {
		return p.append(BarrierOp())
	}

	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return fmt.Errorf("%w: unrecognised statement", ErrMalformedQASM)
	}
	return p.gate(strings.ToLower(m[1]), m[2], m[3])
}

func (p *qasmParser) register(kind, name, size string) error {
	n, err := strconv.Atoi(size)
	if err != nil {
		return fmt.Errorf("%w: register size %q", ErrMalformedQASM, size)
	}

	if kind == "creg" {
		p.cregs[name] = n
		return nil
	}

	if p.circuit != nil {
		return fmt.Errorf("%w: only one qreg is supported", ErrMalformedQASM)
	}
	if n < 1 || n > quantum.MaxQubits {
		return fmt.Errorf("%w: qubit count must be between 1 and %d, got %d",
			quantum.ErrInvalidConfiguration, quantum.MaxQubits, n)
	}
	p.qreg = name
	p.circuit = New(n)
	return nil
}

func (p *qasmParser) qubit(arg string) (int, error) {
	m := qubitRegex.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return 0, fmt.Errorf("%w: expected an indexed qubit, got %q", ErrMalformedQASM, arg)
	}
	if m[1] != p.qreg {
		return 0, fmt.Errorf("%w: unknown register %q", ErrMalformedQASM, m[1])
	}
	idx, _ := strconv.Atoi(m[2])
	return idx, nil
}

func (p *qasmParser) classical(arg string) (int, error) {
	m := qubitRegex.FindStringSubmatch(strings.TrimSpace(arg))
	if m == nil {
		return 0, fmt.Errorf("%w: expected an indexed classical bit, got %q", ErrMalformedQASM, arg)
	}
	size, ok := p.cregs[m[1]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown classical register %q", ErrMalformedQASM, m[1])
	}
	idx, _ := strconv.Atoi(m[2])
	if idx >= size {
		return 0, fmt.Errorf("%w: classical bit %d out of range for %s[%d]", ErrMalformedQASM, idx, m[1], size)
	}
	return idx, nil
}

func (p *qasmParser) gate(opcode, paramList, args string) error {
	form, ok := gateForms[opcode]
	if !ok {
		return fmt.Errorf("%w: %s", quantum.ErrUnknownGate, opcode)
	}

	params, err := ParseParams(paramList)
	if err != nil {
		return fmt.Errorf("%w: %v", quantum.ErrInvalidParameters, err)
	}
	if len(params) != form.params {
		return fmt.Errorf("%w: %s takes %d parameters, got %d",
			quantum.ErrInvalidParameters, opcode, form.params, len(params))
	}

	parts := strings.Split(args, ",")
	if len(parts) != form.qubits {
		return fmt.Errorf("%w: %s acts on %d qubits, got %d",
			quantum.ErrInvalidParameters, opcode, form.qubits, len(parts))
	}
	qubits := make([]int, len(parts))
	for i, part := range parts {
		if qubits[i], err = p.qubit(part); err != nil {
			return err
		}
	}

	name := form.name
	if opcode == "cu3" {
		if name, params, err = controlledU3(params); err != nil {
			return err
		}
	}

	switch form.qubits {
	case 1:
		return p.append(Gate(name, qubits[0], params...))
	case 2:
		if name == "SWAP" {
			return p.append(SwapOf(qubits[0], qubits[1]))
		}
		return p.append(Controlled(name, qubits[0], qubits[1], params...))
	default:
		return p.append(ToffoliOf(qubits[0], qubits[1], qubits[2]))
	}
}

// controlledU3 recognises the cu3 forms of controlled RX and RY
func controlledU3(params []float64) (string, []float64, error) {
	theta, phi, lambda := params[0], params[1], params[2]
	switch {
	case near(phi, -math.Pi/2) && near(lambda, math.Pi/2):
		return "CRX", []float64{theta}, nil
	case near(phi, 0) && near(lambda, 0):
		return "CRY", []float64{theta}, nil
	default:
		return "", nil, fmt.Errorf("%w: cu3 with phi=%g lambda=%g", quantum.ErrUnknownGate, phi, lambda)
	}
}

func (p *qasmParser) append(op Operation) error {
	if err := Check(op, p.circuit.NumQubits); err != nil {
		return err
	}
	p.circuit.Append(op)
	return nil
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
