// Package api holds the JSON response helpers shared by all HTTP handlers.
package api

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the wire shape for every client-visible failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// Convenience helpers
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func Internal(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}
