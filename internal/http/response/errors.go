package response

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/spa-intake/pkg/logger"
)

// ErrorResponse is the body of every failed /api call that is not a submit, auth or export result.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// WriteError writes a {success:false,error} body.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithDetails adds internal detail; callers pass "" outside development mode.
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, details string) {
	JSON(w, statusCode, ErrorResponse{Error: message, Details: details})
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

// GuardError is the bare {error} body the admin guard answers with.
type GuardError struct {
	Error string `json:"error"`
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnauthorized, GuardError{Error: message})
}

func Forbidden(w http.ResponseWriter, message string) {
	JSON(w, http.StatusForbidden, GuardError{Error: message})
}

// Detail returns err's message only when dev is set.
func Detail(dev bool, err error) string {
	if !dev || err == nil {
		return ""
	}
	return err.Error()
}
