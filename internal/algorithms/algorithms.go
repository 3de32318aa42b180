package algorithms

import (
	"fmt"
	"math"
	"sort"

	"github.com/iprasannamb/qosc/internal/circuit"
	"github.com/iprasannamb/qosc/internal/quantum"
)

var (
	ErrUnknownAlgorithm = &quantum.SimulationError{Message: "unknown algorithm"}
	ErrInvalidArguments = &quantum.SimulationError{Message: "invalid algorithm arguments"}
)

// Args carries the preset specific inputs. Fields a preset does not use are ignored.
type Args struct {
	// Marked is the basis state grover2 amplifies (0-3)
	Marked int `json:"marked,omitempty"`
	// Input is the basis state qft transforms
	Input int `json:"input,omitempty"`
	// Bits, Bases and BobBases drive a bb84 round. Bases use '+' for the
	// rectilinear basis and 'x' for the diagonal one. BobBases defaults to Bases.
	Bits     string `json:"bits,omitempty"`
	Bases    string `json:"bases,omitempty"`
	BobBases string `json:"bob_bases,omitempty"`
	// MeasureAll appends a measurement of every qubit
	MeasureAll bool `json:"measure_all,omitempty"`
}

// Info describes a preset
type Info struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	MinQubits     int      `json:"min_qubits"`
	MaxQubits     int      `json:"max_qubits"`
	DefaultQubits int      `json:"default_qubits"`
	Args          []string `json:"args,omitempty"`
}

type preset struct {
	info  Info
	build func(n int, args Args) (*circuit.Circuit, error)
}

var presets = map[string]preset{
	"bell": {
		Info{Name: "bell", Description: "Bell pair (|00> + |11>)/sqrt(2)", MinQubits: 2, MaxQubits: 2, DefaultQubits: 2},
		buildBell,
	},
	"ghz": {
		Info{Name: "ghz", Description: "n-qubit GHZ state (|0...0> + |1...1>)/sqrt(2)", MinQubits: 2, MaxQubits: quantum.MaxQubits, DefaultQubits: 3},
		buildGHZ,
	},
	"superposition": {
		Info{Name: "superposition", Description: "uniform superposition over every basis state", MinQubits: 1, MaxQubits: quantum.MaxQubits, DefaultQubits: 2},
		buildSuperposition,
	},
	"deutsch-constant": {
		Info{Name: "deutsch-constant", Description: "Deutsch's algorithm with the constant oracle f(x)=1; qubit 0 reads 0", MinQubits: 2, MaxQubits: 2, DefaultQubits: 2},
		func(n int, args Args) (*circuit.Circuit, error) { return buildDeutsch(false, args), nil },
	},
	"deutsch-balanced": {
		Info{Name: "deutsch-balanced", Description: "Deutsch's algorithm with the balanced oracle f(x)=x; qubit 0 reads 1", MinQubits: 2, MaxQubits: 2, DefaultQubits: 2},
		func(n int, args Args) (*circuit.Circuit, error) { return buildDeutsch(true, args), nil },
	},
	"grover2": {
		Info{Name: "grover2", Description: "two-qubit Grover search, one iteration finds the marked state", MinQubits: 2, MaxQubits: 2, DefaultQubits: 2, Args: []string{"marked"}},
		buildGrover2,
	},
	"qft": {
		Info{Name: "qft", Description: "quantum Fourier transform of a basis state", MinQubits: 1, MaxQubits: quantum.MaxQubits, DefaultQubits: 3, Args: []string{"input"}},
		buildQFT,
	},
	"bb84": {
		Info{Name: "bb84", Description: "BB84 prepare-and-measure round, one qubit per key bit", MinQubits: 1, MaxQubits: quantum.MaxQubits, Args: []string{"bits", "bases", "bob_bases"}},
		buildBB84,
	},
}

// List returns every preset sorted by name
func List() []Info {
	infos := make([]Info, 0, len(presets))
	for _, p := range presets {
		infos = append(infos, p.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Lookup returns the description of a preset
func Lookup(name string) (Info, error) {
	p, ok := presets[name]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
	return p.info, nil
}

// Build creates the circuit of a preset. numQubits 0 selects the preset default.
func Build(name string, numQubits int, args Args) (*circuit.Circuit, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}

	if name == "bb84" && numQubits == 0 {
		numQubits = len(args.Bits)
	}
	if numQubits == 0 {
		numQubits = p.info.DefaultQubits
	}
	if numQubits < p.info.MinQubits || numQubits > p.info.MaxQubits {
		return nil, fmt.Errorf("%w: %s needs between %d and %d qubits, got %d",
			quantum.ErrInvalidConfiguration, name, p.info.MinQubits, p.info.MaxQubits, numQubits)
	}

	c, err := p.build(numQubits, args)
	if err != nil {
		return nil, err
	}

	if args.MeasureAll && name != "bb84" {
		for q := 0; q < c.NumQubits; q++ {
			c.Append(circuit.MeasureOf(q))
		}
	}

	return c, c.Validate()
}

// buildBell creates (|00> + |11>)/sqrt(2)
func buildBell(_ int, _ Args) (*circuit.Circuit, error) {
	c := circuit.New(2)
	c.Append(circuit.Gate("H", 0))
	c.Append(circuit.Controlled("CNOT", 0, 1))
	return c, nil
}

// buildGHZ entangles every qubit with qubit 0 through a CNOT chain
func buildGHZ(n int, _ Args) (*circuit.Circuit, error) {
	c := circuit.New(n)
	c.Append(circuit.Gate("H", 0))
	for i := 0; i < n-1; i++ {
		c.Append(circuit.Controlled("CNOT", i, i+1))
	}
	return c, nil
}

func buildSuperposition(n int, _ Args) (*circuit.Circuit, error) {
	c := circuit.New(n)
	for i := 0; i < n; i++ {
		c.Append(circuit.Gate("H", i))
	}
	return c, nil
}

// buildDeutsch uses qubit 0 as the query register and qubit 1 as the oracle target
func buildDeutsch(balanced bool, _ Args) *circuit.Circuit {
	c := circuit.New(2)
	c.Append(circuit.Gate("X", 1))
	c.Append(circuit.Gate("H", 0))
	c.Append(circuit.Gate("H", 1))
	c.Append(circuit.BarrierOp())

	if balanced {
		c.Append(circuit.Controlled("CNOT", 0, 1))
	} else {
		c.Append(circuit.Gate("X", 1))
	}

	c.Append(circuit.BarrierOp())
	c.Append(circuit.Gate("H", 0))
	return c
}

func buildGrover2(_ int, args Args) (*circuit.Circuit, error) {
	if args.Marked < 0 || args.Marked > 3 {
		return nil, fmt.Errorf("%w: marked state must be between 0 and 3, got %d", ErrInvalidArguments, args.Marked)
	}

	c := circuit.New(2)
	c.Append(circuit.Gate("H", 0))
	c.Append(circuit.Gate("H", 1))

	// Oracle: phase flip on the marked state
	flipZeros := func() {
		for q := 0; q < 2; q++ {
			if args.Marked>>q&1 == 0 {
				c.Append(circuit.Gate("X", q))
			}
		}
	}
	flipZeros()
	c.Append(circuit.Controlled("CZ", 0, 1))
	flipZeros()

	// Diffusion about the uniform superposition
	for _, g := range []string{"H", "X"} {
		c.Append(circuit.Gate(g, 0))
		c.Append(circuit.Gate(g, 1))
	}
	c.Append(circuit.Controlled("CZ", 0, 1))
	for _, g := range []string{"X", "H"} {
		c.Append(circuit.Gate(g, 0))
		c.Append(circuit.Gate(g, 1))
	}

	return c, nil
}

// buildQFT maps |x> to sum_y exp(2*pi*i*x*y/2^n)|y>/sqrt(2^n). Qubit n-1 is
// the most significant bit.
func buildQFT(n int, args Args) (*circuit.Circuit, error) {
	if args.Input < 0 || args.Input >= 1<<n {
		return nil, fmt.Errorf("%w: input must be between 0 and %d, got %d", ErrInvalidArguments, 1<<n-1, args.Input)
	}

	c := circuit.New(n)
	for q := 0; q < n; q++ {
		if args.Input>>q&1 == 1 {
			c.Append(circuit.Gate("X", q))
		}
	}
	if args.Input != 0 {
		c.Append(circuit.BarrierOp())
	}

	for j := n - 1; j >= 0; j-- {
		c.Append(circuit.Gate("H", j))
		for k := j - 1; k >= 0; k-- {
			c.Append(circuit.Controlled("CP", k, j, math.Pi/float64(int(1)<<(j-k))))
		}
	}
	for q := 0; q < n/2; q++ {
		c.Append(circuit.SwapOf(q, n-1-q))
	}

	return c, nil
}

// buildBB84 prepares each key bit in Alice's basis and measures it in Bob's
func buildBB84(n int, args Args) (*circuit.Circuit, error) {
	bobBases := args.BobBases
	if bobBases == "" {
		bobBases = args.Bases
	}
	if len(args.Bits) != n || len(args.Bases) != n || len(bobBases) != n {
		return nil, fmt.Errorf("%w: bits, bases and bob_bases must all have length %d", ErrInvalidArguments, n)
	}

	c := circuit.New(n)
	for i := 0; i < n; i++ {
		bit, err := parseBit(args.Bits[i])
		if err != nil {
			return nil, err
		}
		alice, err := parseBasis(args.Bases[i])
		if err != nil {
			return nil, err
		}
		bob, err := parseBasis(bobBases[i])
		if err != nil {
			return nil, err
		}

		if bit == quantum.One {
			c.Append(circuit.Gate("X", i))
		}
		if alice == diagonal {
			c.Append(circuit.Gate("H", i))
		}
		if bob == diagonal {
			c.Append(circuit.Gate("H", i))
		}
		c.Append(circuit.MeasureOf(i))
	}

	return c, nil
}
