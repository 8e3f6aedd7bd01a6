package handlers

import (
	"net/http"
	"time"

	"github.com/diagnosis/spa-intake/internal/http/response"
	"github.com/diagnosis/spa-intake/pkg/auth"
	"github.com/diagnosis/spa-intake/pkg/logger"
)

type PasswordChecker interface {
	Check(password string) bool
}

// AuthHandler trades the shared admin password for a short-lived admin token.
type AuthHandler struct {
	passwords PasswordChecker
	secret    string
	ttl       time.Duration
}

func NewAuthHandler(passwords PasswordChecker, secret string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{passwords: passwords, secret: secret, ttl: ttl}
}

type checkPasswordReq struct {
	Password string `json:"password"`
}

// CheckPassword never says why a login failed.
func (h *AuthHandler) CheckPassword(w http.ResponseWriter, r *http.Request) {
	var in checkPasswordReq
	if err := decodeBody(w, r, &in, func(get func(string) string) {
		in.Password = get("password")
	}); err != nil {
		response.AuthRejected(w, "Incorrect password")
		return
	}

	if !h.passwords.Check(in.Password) {
		logger.WarnContext(r.Context(), "Admin login rejected", "remote_addr", r.RemoteAddr)
		response.AuthRejected(w, "Incorrect password")
		return
	}

	token, err := auth.NewAdminToken(h.secret, h.ttl)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to sign admin token", "error", err)
		response.JSON(w, http.StatusInternalServerError, response.AuthResult{Error: "Internal server error"})
		return
	}
	logger.InfoContext(r.Context(), "Admin token issued", "ttl", h.ttl.String())
	response.AuthOK(w, token)
}
