package handlers

import (
	"net/http"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// HomeHandler handles requests to the root path
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondWithError(w, http.StatusNotFound, "Not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Quantum state-vector simulator API",
		"version": Version,
		"status":  "running",
		"docs":    "/api/v1/gates, /api/v1/algorithms, /api/v1/sessions, /api/v1/run",
	})
}
