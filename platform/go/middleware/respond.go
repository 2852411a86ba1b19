package middleware

import (
	"encoding/json"
	"net/http"
)

// writeAlert emits the redirect-equivalent JSON alert used when a request is
// turned away before reaching any handler.
func writeAlert(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
