package playground

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iprasannamb/qosc/internal/algorithms"
	"github.com/iprasannamb/qosc/internal/circuit"
	"github.com/iprasannamb/qosc/internal/quantum"
)

const (
	DefaultTTLMinutes = 60
	MaxTTLMinutes     = 1440 // 24 hours
	MaxShots          = 100000
)

// SessionSnapshot is the observable state of a playground session
type SessionSnapshot struct {
	SessionID          uuid.UUID                  `json:"session_id"`
	Label              string                     `json:"label,omitempty"`
	NumQubits          int                        `json:"num_qubits"`
	Amplitudes         []quantum.Amplitude        `json:"amplitudes"`
	Probabilities      []float64                  `json:"probabilities"`
	QubitProbabilities []quantum.QubitProbability `json:"qubit_probabilities"`
	History            []circuit.Operation        `json:"history"`
	Digest             string                     `json:"digest"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
	ExpiresAt          time.Time                  `json:"expires_at"`
}

// SessionCreateRequest represents a request to open a new playground session
type SessionCreateRequest struct {
	NumQubits  int    `json:"num_qubits"`
	Label      string `json:"label,omitempty"`
	TTLMinutes int    `json:"ttl_minutes,omitempty"`
	// Seed makes the measurement outcomes of the session reproducible
	Seed *int64 `json:"seed,omitempty"`
}

// OperationRequest applies one gate to a session
type OperationRequest struct {
	Gate     string    `json:"gate"`
	Target   int       `json:"target"`
	Control  *int      `json:"control,omitempty"`
	Controls []int     `json:"controls,omitempty"`
	Params   []float64 `json:"params,omitempty"`
}

// MeasureRequest measures one qubit of a session
type MeasureRequest struct {
	Qubit int `json:"qubit"`
}

// MeasureResponse carries the observed outcome and the collapsed state
type MeasureResponse struct {
	Measurement quantum.Measurement `json:"measurement"`
	Session     *SessionSnapshot    `json:"session"`
}

// AlgorithmRequest loads a preset into a session, replacing its history
type AlgorithmRequest struct {
	NumQubits int             `json:"num_qubits,omitempty"`
	Args      algorithms.Args `json:"args"`
}

// QASMImportRequest replaces a session with an OpenQASM program
type QASMImportRequest struct {
	QASM string `json:"qasm"`
}

// RunRequest describes a stateless one-shot simulation. Exactly one of
// Operations, QASM or Algorithm selects the program.
type RunRequest struct {
	NumQubits  int                `json:"num_qubits,omitempty"`
	Operations []OperationRequest `json:"operations,omitempty"`
	QASM       string             `json:"qasm,omitempty"`
	Algorithm  string             `json:"algorithm,omitempty"`
	Args       algorithms.Args    `json:"args"`
	Shots      int                `json:"shots,omitempty"`
	Seed       *int64             `json:"seed,omitempty"`
}

// RunResponse holds the final state of a stateless run
type RunResponse struct {
	NumQubits          int                        `json:"num_qubits"`
	Probabilities      []float64                  `json:"probabilities"`
	QubitProbabilities []quantum.QubitProbability `json:"qubit_probabilities"`
	Measurements       []quantum.Measurement      `json:"measurements"`
	Shots              int                        `json:"shots,omitempty"`
	Counts             map[string]int             `json:"counts,omitempty"`
	QASM               string                     `json:"qasm"`
	Digest             string                     `json:"digest"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

// Validate validates a session create request
func (r *SessionCreateRequest) Validate() error {
	if r.NumQubits < 1 || r.NumQubits > quantum.MaxQubits {
		return ErrInvalidNumQubits
	}

	// Set default TTL if not specified
	if r.TTLMinutes == 0 {
		r.TTLMinutes = DefaultTTLMinutes
	}

	if r.TTLMinutes < 1 || r.TTLMinutes > MaxTTLMinutes {
		return ErrInvalidTTL
	}

	return nil
}

// Validate validates an operation request
func (r *OperationRequest) Validate() error {
	if strings.TrimSpace(r.Gate) == "" {
		return ErrMissingGate
	}
	return nil
}

// Operation converts the request into a history entry
func (r *OperationRequest) Operation() circuit.Operation {
	op := circuit.Operation{
		Gate:     r.Gate,
		Target:   r.Target,
		Controls: r.Controls,
		Params:   r.Params,
	}
	if r.Control != nil {
		control := *r.Control
		op.Control = &control
	}
	return op
}

// Validate validates a QASM import request
func (r *QASMImportRequest) Validate() error {
	if strings.TrimSpace(r.QASM) == "" {
		return ErrMissingProgram
	}
	return nil
}

// Validate validates a run request
func (r *RunRequest) Validate() error {
	programs := 0
	if len(r.Operations) > 0 {
		programs++
	}
	if strings.TrimSpace(r.QASM) != "" {
		programs++
	}
	if r.Algorithm != "" {
		programs++
	}
	if programs > 1 {
		return ErrConflictingProgram
	}

	if programs == 0 || len(r.Operations) > 0 {
		if r.NumQubits < 1 || r.NumQubits > quantum.MaxQubits {
			return ErrInvalidNumQubits
		}
	}

	for i := range r.Operations {
		if err := r.Operations[i].Validate(); err != nil {
			return err
		}
	}

	if r.Shots < 0 || r.Shots > MaxShots {
		return ErrInvalidShots
	}

	return nil
}

// Custom errors
type PlaygroundError struct {
	Message string
}

func (e *PlaygroundError) Error() string {
	return e.Message
}

var (
	ErrInvalidNumQubits   = &PlaygroundError{"number of qubits out of range"}
	ErrInvalidTTL         = &PlaygroundError{"TTL must be between 1 and 1440 minutes"}
	ErrInvalidShots       = &PlaygroundError{"shots must be between 0 and 100000"}
	ErrMissingGate        = &PlaygroundError{"gate name is required"}
	ErrMissingProgram     = &PlaygroundError{"OpenQASM program is required"}
	ErrConflictingProgram = &PlaygroundError{"give only one of operations, qasm or algorithm"}
	ErrSessionNotFound    = &PlaygroundError{"session not found"}
	ErrSessionExpired     = &PlaygroundError{"session has expired"}
	ErrTooManySessions    = &PlaygroundError{"session limit reached"}
)
