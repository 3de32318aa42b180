package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"qosc"}, args...))
	return out.String(), err
}

// TestExport tests printing a preset as OpenQASM
func TestExport(t *testing.T) {
	out, err := runApp(t, "", "export", "bell")
	require.NoError(t, err)
	assert.Equal(t, "OPENQASM 2.0;\ninclude \"qelib1.inc\";\n\nqreg q[2];\ncreg c[2];\n\nh q[0];\ncx q[0],q[1];\n", out)

	_, err = runApp(t, "", "export", "shor")
	assert.ErrorContains(t, err, "shor")

	_, err = runApp(t, "", "export")
	assert.Error(t, err)
}

// TestRunFile tests simulating a QASM file from disk
func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bell.qasm")
	require.NoError(t, os.WriteFile(path, []byte("OPENQASM 2.0;\nqreg q[2];\nh q[0];\ncx q[0],q[1];\n"), 0o600))

	out, err := runApp(t, "", "run", "--shots", "8", "--seed", "5", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 qubits, 2 operations")
	assert.Contains(t, out, "|00>")
	assert.Contains(t, out, "|11>")
	assert.NotContains(t, out, "|01>")
	assert.Contains(t, out, "0.500000")
}

// TestRunStdin tests reading a program from stdin with amplitudes shown
func TestRunStdin(t *testing.T) {
	out, err := runApp(t, "qreg q[1];\nx q[0];\n", "run", "--amplitudes", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "|1>")
	assert.Contains(t, out, "1.000000")
	assert.Contains(t, out, "PHASE")

	_, err = runApp(t, "qreg q[1];\nfoo q[0];\n", "run", "-")
	assert.ErrorContains(t, err, "line 2")
}

// TestRunAlgorithm tests running a preset through the run command
func TestRunAlgorithm(t *testing.T) {
	out, err := runApp(t, "", "run", "--algorithm", "bb84", "--bits", "0110", "--bases", "+x+x")
	require.NoError(t, err)
	assert.Contains(t, out, "sifted key: alice 0110 bob 0110 (error rate 0.00%)")

	_, err = runApp(t, "", "run", "--algorithm", "bell", "extra.qasm")
	assert.Error(t, err)
}

// TestListings tests the algorithms and gates tables
func TestListings(t *testing.T) {
	out, err := runApp(t, "", "algorithms")
	require.NoError(t, err)
	for _, name := range []string{"bell", "ghz", "grover2", "qft", "bb84"} {
		assert.Contains(t, out, name)
	}

	out, err = runApp(t, "", "gates")
	require.NoError(t, err)
	assert.Contains(t, out, "TOFFOLI")
	assert.Contains(t, out, "CNOT")
}
