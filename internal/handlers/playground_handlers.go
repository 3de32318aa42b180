package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iprasannamb/qosc/internal/algorithms"
	"github.com/iprasannamb/qosc/internal/models/playground"
	pgcore "github.com/iprasannamb/qosc/internal/playground"
	"github.com/iprasannamb/qosc/internal/quantum"
)

// maxBodyBytes bounds request bodies, OpenQASM uploads included
const maxBodyBytes = 1 << 20

// PlaygroundHandler serves the simulator API
type PlaygroundHandler struct {
	sessionManager *pgcore.SessionManager
	logger         *zap.Logger
}

// NewPlaygroundHandler creates a handler backed by sessionManager
func NewPlaygroundHandler(sessionManager *pgcore.SessionManager, logger *zap.Logger) *PlaygroundHandler {
	return &PlaygroundHandler{
		sessionManager: sessionManager,
		logger:         logger,
	}
}

// Register mounts every API route on mux
func (h *PlaygroundHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthHandler)

	mux.HandleFunc("POST /api/v1/sessions", h.CreateSessionHandler)
	mux.HandleFunc("GET /api/v1/sessions/{id}", h.GetSessionHandler)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.DeleteSessionHandler)
	mux.HandleFunc("POST /api/v1/sessions/{id}/operations", h.ApplyOperationHandler)
	mux.HandleFunc("POST /api/v1/sessions/{id}/measure", h.MeasureHandler)
	mux.HandleFunc("POST /api/v1/sessions/{id}/reset", h.ResetHandler)
	mux.HandleFunc("GET /api/v1/sessions/{id}/qasm", h.ExportQASMHandler)
	mux.HandleFunc("POST /api/v1/sessions/{id}/qasm", h.ImportQASMHandler)
	mux.HandleFunc("POST /api/v1/sessions/{id}/algorithms/{name}", h.LoadAlgorithmHandler)

	mux.HandleFunc("GET /api/v1/gates", h.GatesHandler)
	mux.HandleFunc("GET /api/v1/algorithms", h.AlgorithmsHandler)
	mux.HandleFunc("GET /api/v1/algorithms/{name}", h.AlgorithmHandler)
	mux.HandleFunc("POST /api/v1/run", h.RunHandler)
}

// CreateSessionHandler handles POST /api/v1/sessions
func (h *PlaygroundHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req playground.SessionCreateRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	snapshot, err := h.sessionManager.CreateSession(&req)
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/sessions/"+snapshot.SessionID.String())
	respondWithJSON(w, http.StatusCreated, snapshot)
}

// GetSessionHandler handles GET /api/v1/sessions/{id}
func (h *PlaygroundHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	snapshot, err := h.sessionManager.Snapshot(sessionID)
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// DeleteSessionHandler handles DELETE /api/v1/sessions/{id}
func (h *PlaygroundHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	if err := h.sessionManager.DeleteSession(sessionID); err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApplyOperationHandler handles POST /api/v1/sessions/{id}/operations
func (h *PlaygroundHandler) ApplyOperationHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	var req playground.OperationRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	snapshot, err := h.sessionManager.ApplyOperation(sessionID, &req)
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// MeasureHandler handles POST /api/v1/sessions/{id}/measure
func (h *PlaygroundHandler) MeasureHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	var req playground.MeasureRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	resp, err := h.sessionManager.Measure(sessionID, req.Qubit)
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// ResetHandler handles POST /api/v1/sessions/{id}/reset
func (h *PlaygroundHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	snapshot, err := h.sessionManager.Reset(sessionID)
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// ExportQASMHandler handles GET /api/v1/sessions/{id}/qasm
// The ETag is the circuit digest, so unchanged circuits answer 304.
func (h *PlaygroundHandler) ExportQASMHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	program, digest, err := h.sessionManager.ExportQASM(sessionID)
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	etag := `"` + digest + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, program)
}

// ImportQASMHandler handles POST /api/v1/sessions/{id}/qasm
// The program is either the raw text/plain body or a JSON {"qasm": ...} object.
func (h *PlaygroundHandler) ImportQASMHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	var req playground.QASMImportRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/plain") {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.QASM = string(body)
	} else if !decodeJSON(w, r, &req, false) {
		return
	}

	snapshot, err := h.sessionManager.ImportQASM(sessionID, &req)
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// LoadAlgorithmHandler handles POST /api/v1/sessions/{id}/algorithms/{name}
func (h *PlaygroundHandler) LoadAlgorithmHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDFrom(w, r)
	if !ok {
		return
	}

	var req playground.AlgorithmRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	snapshot, err := h.sessionManager.LoadAlgorithm(sessionID, r.PathValue("name"), &req)
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// GatesHandler handles GET /api/v1/gates
func (h *PlaygroundHandler) GatesHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"gates": quantum.Catalogue(),
	})
}

// AlgorithmsHandler handles GET /api/v1/algorithms
func (h *PlaygroundHandler) AlgorithmsHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"algorithms": algorithms.List(),
	})
}

// AlgorithmHandler handles GET /api/v1/algorithms/{name}
func (h *PlaygroundHandler) AlgorithmHandler(w http.ResponseWriter, r *http.Request) {
	info, err := algorithms.Lookup(r.PathValue("name"))
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, info)
}

// RunHandler handles POST /api/v1/run
// Simulates a program without creating a session
func (h *PlaygroundHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	var req playground.RunRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	resp, err := h.sessionManager.Run(&req)
	if err != nil {
		h.respondWithFailure(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// HealthHandler handles GET /health
func (h *PlaygroundHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"service":    "qosc",
		"sessions":   h.sessionManager.Count(),
		"max_qubits": h.sessionManager.MaxQubits(),
	})
}

func sessionIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid session ID")
		return uuid.Nil, false
	}
	return sessionID, true
}

// decodeJSON reads the request body into dst. An empty body is accepted
// when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	respondWithError(w, http.StatusBadRequest, "Invalid request body")
	return false
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	var playgroundErr *playground.PlaygroundError
	var simulationErr *quantum.SimulationError

	switch {
	case errors.Is(err, playground.ErrSessionNotFound), errors.Is(err, algorithms.ErrUnknownAlgorithm):
		return http.StatusNotFound
	case errors.Is(err, playground.ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, playground.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.As(err, &playgroundErr), errors.As(err, &simulationErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *PlaygroundHandler) respondWithFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondWithError(w, status, "Internal server error")
		return
	}
	respondWithError(w, status, err.Error())
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, playground.ErrorResponse{Error: message})
}
