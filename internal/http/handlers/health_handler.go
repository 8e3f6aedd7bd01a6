package handlers

import (
	"net/http"
	"time"

	"github.com/diagnosis/spa-intake/internal/domain"
	"github.com/diagnosis/spa-intake/internal/http/response"
)

// HealthHandler reports liveness and whether the two deployment secrets are set.
type HealthHandler struct {
	sheetID    string
	adminEmail string
	now        func() time.Time
}

func NewHealthHandler(sheetID, adminEmail string) *HealthHandler {
	return &HealthHandler{sheetID: sheetID, adminEmail: adminEmail, now: time.Now}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResult{
		Success:    true,
		Status:     "healthy",
		Timestamp:  domain.FormatTimestamp(h.now()),
		SheetID:    response.Presence(h.sheetID),
		AdminEmail: response.Presence(h.adminEmail),
	})
}

// NotFound answers unknown /api paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w, "Not found")
}
