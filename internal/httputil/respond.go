package httputil

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ErrorCode writes a JSON error response with a machine-readable code and,
// when non-empty, a recovery action the client should offer. Blocking gate
// responses always carry both so the user is never left at a dead end.
func ErrorCode(w http.ResponseWriter, status int, code, message, recovery string) {
	body := map[string]string{
		"code":  code,
		"error": message,
	}
	if recovery != "" {
		body["recovery"] = recovery
	}
	JSON(w, status, body)
}
