package playground

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iprasannamb/qosc/internal/algorithms"
	"github.com/iprasannamb/qosc/internal/circuit"
	"github.com/iprasannamb/qosc/internal/models/playground"
	"github.com/iprasannamb/qosc/internal/quantum"
)

const (
	DefaultMaxSessions = 1000
	DefaultMaxQubits   = 16
)

// Session owns one simulator register and the history that produced it.
// Every access goes through its mutex.
type Session struct {
	mu        sync.Mutex
	id        uuid.UUID
	label     string
	state     *quantum.State
	history   *circuit.Circuit
	rng       quantum.RandomSource
	ttl       time.Duration
	createdAt time.Time
	updatedAt time.Time
	expiresAt time.Time
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID { return s.id }

// NumQubits returns the register width
func (s *Session) NumQubits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.NumQubits
}

// ExpiresAt returns the current expiry time
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) options() []quantum.Option {
	if s.rng == nil {
		return nil
	}
	return []quantum.Option{quantum.WithRandomSource(s.rng)}
}

func (s *Session) touch(now time.Time) {
	s.updatedAt = now
	s.expiresAt = now.Add(s.ttl)
}

// load replaces the register and history with a replay of c. The session is
// left unchanged when any operation fails.
func (s *Session) load(c *circuit.Circuit) error {
	state, history, err := replay(c, s.options()...)
	if err != nil {
		return err
	}
	s.state = state
	s.history = history
	return nil
}

func (s *Session) snapshot() (*playground.SessionSnapshot, error) {
	digest, err := circuit.Digest(s.history)
	if err != nil {
		return nil, err
	}

	return &playground.SessionSnapshot{
		SessionID:          s.id,
		Label:              s.label,
		NumQubits:          s.history.NumQubits,
		Amplitudes:         s.state.State(),
		Probabilities:      s.state.Probabilities(),
		QubitProbabilities: s.state.QubitProbabilities(),
		History:            s.history.Clone().Operations,
		Digest:             digest,
		CreatedAt:          s.createdAt,
		UpdatedAt:          s.updatedAt,
		ExpiresAt:          s.expiresAt,
	}, nil
}

// replay runs c on a fresh register and returns a history in which every
// MEASURE and RESET carries its observed outcome
func replay(c *circuit.Circuit, opts ...quantum.Option) (*quantum.State, *circuit.Circuit, error) {
	state, err := quantum.New(c.NumQubits, opts...)
	if err != nil {
		return nil, nil, err
	}

	history := circuit.New(c.NumQubits)
	for i, op := range c.Operations {
		m, err := circuit.Apply(state, op)
		if err != nil {
			return nil, nil, fmt.Errorf("operation %d (%s): %w", i, op.Gate, err)
		}
		if m != nil {
			result := m.Result
			op.Result = &result
		}
		history.Append(op)
	}

	return state, history, nil
}

// Option configures a SessionManager
type Option func(*SessionManager)

// WithMaxSessions caps the number of live sessions
func WithMaxSessions(n int) Option {
	return func(sm *SessionManager) { sm.maxSessions = n }
}

// WithMaxQubits caps the register width of sessions and runs
func WithMaxQubits(n int) Option {
	return func(sm *SessionManager) { sm.maxQubits = n }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(sm *SessionManager) { sm.now = now }
}

// SessionManager hosts playground sessions
type SessionManager struct {
	sessions    map[uuid.UUID]*Session
	mutex       sync.RWMutex
	maxSessions int
	maxQubits   int
	now         func() time.Time
	logger      *zap.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(logger *zap.Logger, opts ...Option) *SessionManager {
	sm := &SessionManager{
		sessions:    make(map[uuid.UUID]*Session),
		maxSessions: DefaultMaxSessions,
		maxQubits:   DefaultMaxQubits,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(sm)
	}
	if sm.maxQubits > quantum.MaxQubits {
		sm.maxQubits = quantum.MaxQubits
	}
	return sm
}

// MaxQubits returns the register cap applied to sessions and runs
func (sm *SessionManager) MaxQubits() int {
	return sm.maxQubits
}

func (sm *SessionManager) checkWidth(n int) error {
	if n > sm.maxQubits {
		return fmt.Errorf("%w: %d qubits requested, limit is %d", playground.ErrInvalidNumQubits, n, sm.maxQubits)
	}
	return nil
}

func randomSource(seed *int64) quantum.RandomSource {
	if seed == nil {
		return nil
	}
	return rand.New(rand.NewSource(*seed))
}

// CreateSession opens a session with a register in |0...0>
func (sm *SessionManager) CreateSession(req *playground.SessionCreateRequest) (*playground.SessionSnapshot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := sm.checkWidth(req.NumQubits); err != nil {
		return nil, err
	}

	now := sm.now()
	session := &Session{
		id:        uuid.New(),
		label:     req.Label,
		history:   circuit.New(req.NumQubits),
		rng:       randomSource(req.Seed),
		ttl:       time.Duration(req.TTLMinutes) * time.Minute,
		createdAt: now,
	}
	session.touch(now)

	state, err := quantum.New(req.NumQubits, session.options()...)
	if err != nil {
		return nil, err
	}
	session.state = state

	sm.mutex.Lock()
	if len(sm.sessions) >= sm.maxSessions {
		sm.purgeExpiredLocked(now)
	}
	if len(sm.sessions) >= sm.maxSessions {
		sm.mutex.Unlock()
		sm.logger.Warn("session limit reached", zap.Int("max_sessions", sm.maxSessions))
		return nil, playground.ErrTooManySessions
	}
	sm.sessions[session.id] = session
	sm.mutex.Unlock()

	sm.logger.Info("session created",
		zap.String("session_id", session.id.String()),
		zap.Int("num_qubits", req.NumQubits),
		zap.Duration("ttl", session.ttl),
	)

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshot()
}

// GetSession retrieves a live session by ID
func (sm *SessionManager) GetSession(sessionID uuid.UUID) (*Session, error) {
	var session *Session
	err := sm.withSession(sessionID, func(s *Session) error {
		session = s
		return nil
	})
	return session, err
}

// withSession runs fn with the session locked. Expired sessions are reported
// but left for the janitor.
func (sm *SessionManager) withSession(sessionID uuid.UUID, fn func(s *Session) error) error {
	sm.mutex.RLock()
	session, exists := sm.sessions[sessionID]
	sm.mutex.RUnlock()

	if !exists {
		return playground.ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if sm.now().After(session.expiresAt) {
		return playground.ErrSessionExpired
	}

	return fn(session)
}

// ApplyOperation applies one gate and records it in the history. A rejected
// operation leaves both the register and the history untouched.
func (sm *SessionManager) ApplyOperation(sessionID uuid.UUID, req *playground.OperationRequest) (*playground.SessionSnapshot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var snapshot *playground.SessionSnapshot
	err := sm.withSession(sessionID, func(s *Session) error {
		op := req.Operation()
		m, err := circuit.Apply(s.state, op)
		if err != nil {
			sm.logger.Debug("operation rejected",
				zap.String("session_id", sessionID.String()),
				zap.String("operation", op.String()),
				zap.Error(err),
			)
			return err
		}
		if m != nil {
			result := m.Result
			op.Result = &result
		}
		s.history.Append(op)
		s.touch(sm.now())

		snapshot, err = s.snapshot()
		return err
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// Measure measures one qubit, collapsing the register
func (sm *SessionManager) Measure(sessionID uuid.UUID, qubit int) (*playground.MeasureResponse, error) {
	var resp *playground.MeasureResponse
	err := sm.withSession(sessionID, func(s *Session) error {
		m, err := s.state.Measure(qubit)
		if err != nil {
			return err
		}

		op := circuit.MeasureOf(qubit)
		op.Result = &m.Result
		s.history.Append(op)
		s.touch(sm.now())

		snapshot, err := s.snapshot()
		if err != nil {
			return err
		}
		resp = &playground.MeasureResponse{Measurement: m, Session: snapshot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sm.logger.Debug("qubit measured",
		zap.String("session_id", sessionID.String()),
		zap.Int("qubit", qubit),
		zap.Int("result", int(resp.Measurement.Result)),
	)
	return resp, nil
}

// Reset returns the register to |0...0> and clears the history
func (sm *SessionManager) Reset(sessionID uuid.UUID) (*playground.SessionSnapshot, error) {
	var snapshot *playground.SessionSnapshot
	err := sm.withSession(sessionID, func(s *Session) error {
		s.state.Reset()
		s.history = circuit.New(s.history.NumQubits)
		s.touch(sm.now())

		var err error
		snapshot, err = s.snapshot()
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Snapshot returns the current state of a session
func (sm *SessionManager) Snapshot(sessionID uuid.UUID) (*playground.SessionSnapshot, error) {
	var snapshot *playground.SessionSnapshot
	err := sm.withSession(sessionID, func(s *Session) error {
		var err error
		snapshot, err = s.snapshot()
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// LoadAlgorithm replaces the session with a preset circuit
func (sm *SessionManager) LoadAlgorithm(sessionID uuid.UUID, name string, req *playground.AlgorithmRequest) (*playground.SessionSnapshot, error) {
	c, err := algorithms.Build(name, req.NumQubits, req.Args)
	if err != nil {
		return nil, err
	}
	if err := sm.checkWidth(c.NumQubits); err != nil {
		return nil, err
	}

	snapshot, err := sm.replace(sessionID, c)
	if err != nil {
		return nil, err
	}

	sm.logger.Info("algorithm loaded",
		zap.String("session_id", sessionID.String()),
		zap.String("algorithm", name),
		zap.Int("num_qubits", c.NumQubits),
	)
	return snapshot, nil
}

// ImportQASM replaces the session with an OpenQASM 2.0 program
func (sm *SessionManager) ImportQASM(sessionID uuid.UUID, req *playground.QASMImportRequest) (*playground.SessionSnapshot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := circuit.ParseQASM(req.QASM)
	if err != nil {
		return nil, err
	}
	if err := sm.checkWidth(c.NumQubits); err != nil {
		return nil, err
	}

	return sm.replace(sessionID, c)
}

func (sm *SessionManager) replace(sessionID uuid.UUID, c *circuit.Circuit) (*playground.SessionSnapshot, error) {
	var snapshot *playground.SessionSnapshot
	err := sm.withSession(sessionID, func(s *Session) error {
		if err := s.load(c); err != nil {
			return err
		}
		s.touch(sm.now())

		var err error
		snapshot, err = s.snapshot()
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ExportQASM returns the session history as OpenQASM 2.0 with its digest
func (sm *SessionManager) ExportQASM(sessionID uuid.UUID) (program string, digest string, err error) {
	err = sm.withSession(sessionID, func(s *Session) error {
		if program, err = circuit.ToQASM(s.history); err != nil {
			return err
		}
		digest, err = circuit.Digest(s.history)
		return err
	})
	return program, digest, err
}

// Run simulates a program on a throwaway register
func (sm *SessionManager) Run(req *playground.RunRequest) (*playground.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := programOf(req)
	if err != nil {
		return nil, err
	}
	if err := sm.checkWidth(c.NumQubits); err != nil {
		return nil, err
	}

	var opts []quantum.Option
	if rng := randomSource(req.Seed); rng != nil {
		opts = append(opts, quantum.WithRandomSource(rng))
	}

	state, measurements, err := circuit.Replay(c, opts...)
	if err != nil {
		return nil, err
	}

	program, err := circuit.ToQASM(c)
	if err != nil {
		return nil, err
	}
	digest, err := circuit.Digest(c)
	if err != nil {
		return nil, err
	}

	resp := &playground.RunResponse{
		NumQubits:          c.NumQubits,
		Probabilities:      state.Probabilities(),
		QubitProbabilities: state.QubitProbabilities(),
		Measurements:       measurements,
		QASM:               program,
		Digest:             digest,
	}

	if req.Shots > 0 {
		counts, err := state.Sample(req.Shots)
		if err != nil {
			return nil, err
		}
		resp.Shots = req.Shots
		resp.Counts = counts
	}

	sm.logger.Debug("stateless run",
		zap.Int("num_qubits", c.NumQubits),
		zap.Int("operations", c.Len()),
		zap.Int("shots", req.Shots),
	)
	return resp, nil
}

func programOf(req *playground.RunRequest) (*circuit.Circuit, error) {
	switch {
	case req.QASM != "":
		return circuit.ParseQASM(req.QASM)
	case req.Algorithm != "":
		return algorithms.Build(req.Algorithm, req.NumQubits, req.Args)
	default:
		c := circuit.New(req.NumQubits)
		for i := range req.Operations {
			c.Append(req.Operations[i].Operation())
		}
		return c, c.Validate()
	}
}

// DeleteSession removes a session
func (sm *SessionManager) DeleteSession(sessionID uuid.UUID) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.sessions[sessionID]; !exists {
		return playground.ErrSessionNotFound
	}
	delete(sm.sessions, sessionID)

	sm.logger.Info("session deleted", zap.String("session_id", sessionID.String()))
	return nil
}

// Count returns the number of sessions held, expired ones included
func (sm *SessionManager) Count() int {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return len(sm.sessions)
}

// CleanupExpiredSessions removes expired sessions
func (sm *SessionManager) CleanupExpiredSessions() int {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	removed := sm.purgeExpiredLocked(sm.now())
	if removed > 0 {
		sm.logger.Info("expired sessions removed", zap.Int("removed", removed))
	}
	return removed
}

func (sm *SessionManager) purgeExpiredLocked(now time.Time) int {
	removed := 0
	for id, session := range sm.sessions {
		session.mu.Lock()
		expired := now.After(session.expiresAt)
		session.mu.Unlock()

		if expired {
			delete(sm.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor calls CleanupExpiredSessions every interval until ctx is done
func (sm *SessionManager) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sm.CleanupExpiredSessions()
		}
	}
}
