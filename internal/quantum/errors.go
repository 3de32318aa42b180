package quantum

// SimulationError is a synchronous usage error raised by the simulator.
// All values below are sentinels; call sites wrap them with context and
// callers match them with errors.Is.
type SimulationError struct {
	Message string
}

func (e *SimulationError) Error() string {
	return e.Message
}

var (
	ErrInvalidConfiguration = &SimulationError{"invalid configuration"}
	ErrInvalidQubitIndex    = &SimulationError{"invalid qubit index"}
	ErrControlEqualsTarget  = &SimulationError{"control qubit equals target qubit"}
	ErrDuplicateQubit       = &SimulationError{"qubit listed more than once"}
	ErrUnknownGate          = &SimulationError{"unknown gate"}
	ErrInvalidParameters    = &SimulationError{"invalid gate parameters"}
	ErrNonUnitaryGate       = &SimulationError{"gate matrix is not unitary"}
	ErrZeroProbability      = &SimulationError{"measurement of zero probability state"}
	ErrInvalidShots         = &SimulationError{"shot count must be positive"}
)
