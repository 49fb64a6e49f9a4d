package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/statify/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, models.ErrorResponse{Error: code, ErrorDescription: description})
}
