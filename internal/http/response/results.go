package response

import (
	"fmt"
	"net/http"
	"strconv"
)

type SubmitData struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
}

// SubmitResult answers POST /api/submit and /api/admin/submit. Data is set only on success.
type SubmitResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    *SubmitData `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details string      `json:"details,omitempty"`
}

func SubmitOK(w http.ResponseWriter, message string, data SubmitData) {
	JSON(w, http.StatusOK, SubmitResult{Success: true, Message: message, Data: &data})
}

func SubmitFailed(w http.ResponseWriter, statusCode int, message, details string) {
	JSON(w, statusCode, SubmitResult{Error: message, Details: details})
}

// AuthResult answers POST /api/admin/check-password.
type AuthResult struct {
	OK    bool   `json:"ok"`
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

func AuthOK(w http.ResponseWriter, token string) {
	JSON(w, http.StatusOK, AuthResult{OK: true, Token: token})
}

func AuthRejected(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnauthorized, AuthResult{Error: message})
}

// ExportResult is the JSON body of an export that produced no document.
type ExportResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

func ExportEmpty(w http.ResponseWriter, message string) {
	JSON(w, http.StatusNotFound, ExportResult{Message: message})
}

func ExportFailed(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusInternalServerError, ExportResult{Error: message, Details: details})
}

// Attachment sends doc as a download named filename.
func Attachment(w http.ResponseWriter, contentType, filename string, doc []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

const (
	Configured = "configured"
	Missing    = "missing"
)

type HealthResult struct {
	Success    bool   `json:"success"`
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	SheetID    string `json:"sheetId"`
	AdminEmail string `json:"adminEmail"`
}

// Presence reports whether a secret is set without revealing it.
func Presence(v string) string {
	if v == "" {
		return Missing
	}
	return Configured
}

type StatsResult struct {
	Success  bool   `json:"success"`
	Today    string `json:"today"`
	Bookings int    `json:"bookings"`
}
