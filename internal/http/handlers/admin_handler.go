package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/diagnosis/spa-intake/internal/domain"
	"github.com/diagnosis/spa-intake/internal/export"
	"github.com/diagnosis/spa-intake/internal/http/response"
	"github.com/diagnosis/spa-intake/internal/notify"
	"github.com/diagnosis/spa-intake/internal/table"
	"github.com/diagnosis/spa-intake/pkg/logger"
)

const visitsFilename = "customervisits.xlsx"

type AdminConfig struct {
	TableID string
	DevMode bool
}

// AdminHandler serves the front-desk panel. Every route sits behind the admin guard.
type AdminHandler struct {
	tables   Tables
	notifier Notifier
	reports  Reports
	cfg      AdminConfig
	now      func() time.Time
}

func NewAdminHandler(tables Tables, notifier Notifier, reports Reports, cfg AdminConfig) *AdminHandler {
	return &AdminHandler{tables: tables, notifier: notifier, reports: reports, cfg: cfg, now: time.Now}
}

func (h *AdminHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in domain.AdminRecordInput
	if err := decodeBody(w, r, &in, func(get func(string) string) {
		in = domain.AdminRecordInput{
			Name:        get("name"),
			RoomNo:      get("roomNo"),
			Address:     get("address"),
			Contact:     get("contact"),
			PaymentMode: get("paymentMode"),
			TimeIn:      get("timeIn"),
			TimeOut:     get("timeOut"),
			TherapyName: get("therapyName"),
			Duration:    get("duration"),
			Therapist:   get("therapist"),
			Date:        get("date"),
			Membership:  get("membership"),
		}
	}); err != nil {
		response.SubmitFailed(w, http.StatusBadRequest, "Invalid request body.", "")
		return
	}

	a, err := domain.ValidateAdminRecord(in)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		logger.InfoContext(ctx, "Visit failed validation", "rule", verr.Rule, "fields", verr.Fields)
		response.SubmitFailed(w, http.StatusBadRequest, verr.Message, "")
		return
	}
	a.Timestamp = domain.FormatTimestamp(h.now())

	res, err := h.tables.Append(ctx, h.cfg.TableID, a.Row())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to record visit", "error", err)
		response.SubmitFailed(w, http.StatusInternalServerError, "Internal server error.", response.Detail(h.cfg.DevMode, err))
		return
	}
	logger.InfoContext(ctx, "Visit recorded", "row_number", res.RowNumber, "therapy", a.TherapyName)

	nctx, cancel := notifyContext(ctx)
	defer cancel()
	notify.Log(nctx, h.notifier.VisitRecorded(nctx, a, res.RowNumber))

	response.SubmitOK(w, "Form saved successfully!", response.SubmitData{
		ID:        res.RowNumber,
		Timestamp: a.Timestamp,
	})
}

// Export downloads every recorded visit.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.tables.ReadAll(r.Context(), h.cfg.TableID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to read visits", "error", err)
		response.ExportFailed(w, "Failed to export admin data", response.Detail(h.cfg.DevMode, err))
		return
	}
	if table.DataRows(rows) == 0 {
		response.ExportEmpty(w, "No admin data found")
		return
	}

	doc, err := h.reports.Format(rows, export.VariantAdmin)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to build visits report", "error", err)
		response.ExportFailed(w, "Failed to export admin data", response.Detail(h.cfg.DevMode, err))
		return
	}
	logger.InfoContext(r.Context(), "Report exported", "file", visitsFilename, "rows", table.DataRows(rows))
	response.Attachment(w, export.ContentType, visitsFilename, doc)
}
