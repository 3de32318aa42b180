package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/iprasannamb/qosc/internal/algorithms"
	"github.com/iprasannamb/qosc/internal/circuit"
	"github.com/iprasannamb/qosc/internal/quantum"
)

// presetFlags select and parameterise an algorithm preset
var presetFlags = []cli.Flag{
	&cli.IntFlag{Name: "qubits", Aliases: []string{"n"}, Usage: "register width, 0 for the preset default"},
	&cli.IntFlag{Name: "marked", Usage: "grover2: basis state to amplify"},
	&cli.IntFlag{Name: "input", Usage: "qft: basis state to transform"},
	&cli.StringFlag{Name: "bits", Usage: "bb84: Alice's key bits, e.g. 0110"},
	&cli.StringFlag{Name: "bases", Usage: "bb84: Alice's bases, '+' or 'x' per bit"},
	&cli.StringFlag{Name: "bob-bases", Usage: "bb84: Bob's bases, defaults to --bases"},
	&cli.BoolFlag{Name: "measure-all", Usage: "measure every qubit at the end"},
}

func presetArgs(c *cli.Context) algorithms.Args {
	return algorithms.Args{
		Marked:     c.Int("marked"),
		Input:      c.Int("input"),
		Bits:       c.String("bits"),
		Bases:      c.String("bases"),
		BobBases:   c.String("bob-bases"),
		MeasureAll: c.Bool("measure-all"),
	}
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "simulate an OpenQASM 2.0 file or an algorithm preset",
	ArgsUsage: "[file.qasm | -]",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "algorithm", Aliases: []string{"a"}, Usage: "run a preset instead of a file"},
		&cli.IntFlag{Name: "shots", Usage: "sample the final state this many times"},
		&cli.Int64Flag{Name: "seed", Usage: "seed measurement outcomes"},
		&cli.BoolFlag{Name: "amplitudes", Usage: "print amplitudes next to probabilities"},
	}, presetFlags...),
	Action: runProgram,
}

var exportCommand = &cli.Command{
	Name:      "export",
	Usage:     "print the OpenQASM 2.0 program of an algorithm preset",
	ArgsUsage: "<algorithm>",
	Flags:     presetFlags,
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("export needs exactly one algorithm name", 2)
		}
		prog, err := algorithms.Build(c.Args().First(), c.Int("qubits"), presetArgs(c))
		if err != nil {
			return err
		}
		program, err := circuit.ToQASM(prog)
		if err != nil {
			return err
		}
		_, err = io.WriteString(c.App.Writer, program)
		return err
	},
}

var algorithmsCommand = &cli.Command{
	Name:  "algorithms",
	Usage: "list the algorithm presets",
	Action: func(c *cli.Context) error {
		table := newTable(c.App.Writer, "Name", "Qubits", "Args", "Description")
		for _, info := range algorithms.List() {
			qubits := strconv.Itoa(info.MinQubits)
			if info.MaxQubits != info.MinQubits {
				qubits += "-" + strconv.Itoa(info.MaxQubits)
			}
			table.Append([]string{info.Name, qubits, strings.Join(info.Args, ", "), info.Description})
		}
		table.Render()
		return nil
	},
}

var gatesCommand = &cli.Command{
	Name:  "gates",
	Usage: "list the gate catalogue",
	Action: func(c *cli.Context) error {
		table := newTable(c.App.Writer, "Gate", "Qubits", "Params", "Aliases")
		for _, g := range quantum.Catalogue() {
			table.Append([]string{g.Name, strconv.Itoa(g.Qubits), strconv.Itoa(g.Params), strings.Join(g.Aliases, ", ")})
		}
		table.Render()
		return nil
	},
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func loadProgram(c *cli.Context) (*circuit.Circuit, error) {
	if name := c.String("algorithm"); name != "" {
		if c.NArg() > 0 {
			return nil, cli.Exit("give either a file or --algorithm, not both", 2)
		}
		return algorithms.Build(name, c.Int("qubits"), presetArgs(c))
	}

	if c.NArg() != 1 {
		return nil, cli.Exit("run needs a QASM file, '-' for stdin, or --algorithm", 2)
	}

	var src []byte
	var err error
	if path := c.Args().First(); path == "-" {
		src, err = io.ReadAll(c.App.Reader)
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return circuit.ParseQASM(string(src))
}

func runProgram(c *cli.Context) error {
	prog, err := loadProgram(c)
	if err != nil {
		return err
	}

	var opts []quantum.Option
	if c.IsSet("seed") {
		opts = append(opts, quantum.WithRandomSource(rand.New(rand.NewSource(c.Int64("seed")))))
	}

	state, measurements, err := circuit.Replay(prog, opts...)
	if err != nil {
		return err
	}

	out := c.App.Writer
	digest, err := circuit.Digest(prog)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d qubits, %d operations, digest %s\n", prog.NumQubits, prog.Len(), digest[:12])

	header := []string{"Basis", "Probability"}
	if c.Bool("amplitudes") {
		header = append(header, "Amplitude", "Phase")
	}
	table := newTable(out, header...)
	amplitudes := state.State()
	for i, p := range state.Probabilities() {
		if p < quantum.Epsilon {
			continue
		}
		row := []string{"|" + quantum.BasisLabel(i, prog.NumQubits) + ">", strconv.FormatFloat(p, 'f', 6, 64)}
		if c.Bool("amplitudes") {
			row = append(row, amplitudes[i].String(), strconv.FormatFloat(amplitudes[i].Phase(), 'f', 4, 64))
		}
		table.Append(row)
	}
	table.Render()

	if len(measurements) > 0 {
		table = newTable(out, "Qubit", "Result", "Probability")
		for _, m := range measurements {
			table.Append([]string{strconv.Itoa(m.Qubit), strconv.Itoa(int(m.Result)), strconv.FormatFloat(m.Probability, 'f', 6, 64)})
		}
		table.Render()
	}

	if c.String("algorithm") == "bb84" {
		key, err := algorithms.Sift(presetArgs(c), measurements)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "sifted key: alice %s bob %s (error rate %.2f%%)\n",
			algorithms.BitString(key.AliceKey), algorithms.BitString(key.BobKey), key.ErrorRate()*100)
	}

	if shots := c.Int("shots"); shots > 0 {
		counts, err := state.Sample(shots)
		if err != nil {
			return err
		}
		labels := make([]string, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		table = newTable(out, "Outcome", "Count")
		for _, label := range labels {
			table.Append([]string{label, strconv.Itoa(counts[label])})
		}
		table.Render()
	}

	return nil
}
