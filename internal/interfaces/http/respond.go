// Package http contains the HTTP handlers for the API surface.
package http

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondMessage(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": msg})
}
