package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/spa-intake/internal/domain"
	"github.com/diagnosis/spa-intake/internal/export"
	"github.com/diagnosis/spa-intake/internal/http/response"
	"github.com/diagnosis/spa-intake/internal/notify"
	"github.com/diagnosis/spa-intake/internal/table"
	"github.com/diagnosis/spa-intake/pkg/logger"
)

type BookingsConfig struct {
	SiteName string
	TableID  string
	Policy   domain.Policy
	DevMode  bool
}

// BookingsHandler serves the public booking form and its reports.
type BookingsHandler struct {
	tables   Tables
	notifier Notifier
	reports  Reports
	cfg      BookingsConfig
	now      func() time.Time
}

func NewBookingsHandler(tables Tables, notifier Notifier, reports Reports, cfg BookingsConfig) *BookingsHandler {
	return &BookingsHandler{tables: tables, notifier: notifier, reports: reports, cfg: cfg, now: time.Now}
}

func (h *BookingsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in domain.SubmissionInput
	if err := decodeBody(w, r, &in, func(get func(string) string) {
		in = domain.SubmissionInput{
			Service:   get("service"),
			Date:      get("date"),
			Time:      get("time"),
			FirstName: get("firstName"),
			Email:     get("email"),
			Phone:     get("phone"),
			Message:   get("message"),
		}
	}); err != nil {
		logger.WarnContext(ctx, "Rejected booking body", "error", err)
		response.SubmitFailed(w, http.StatusBadRequest, "Invalid request body.", "")
		return
	}

	s, err := domain.ValidateSubmission(in, h.cfg.Policy)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		logger.InfoContext(ctx, "Booking failed validation", "rule", verr.Rule, "fields", verr.Fields)
		response.SubmitFailed(w, http.StatusBadRequest, verr.Message, "")
		return
	}
	s.Timestamp = domain.FormatTimestamp(h.now())

	res, err := h.tables.Append(ctx, h.cfg.TableID, s.Row())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to record booking", "error", err)
		response.SubmitFailed(w, http.StatusInternalServerError, "Something went wrong. Please try again.", response.Detail(h.cfg.DevMode, err))
		return
	}
	logger.InfoContext(ctx, "Booking recorded", "row_number", res.RowNumber, "service", s.Service)

	nctx, cancel := notifyContext(ctx)
	defer cancel()
	notify.Log(nctx, h.notifier.BookingSubmitted(nctx, s, res.RowNumber))

	response.SubmitOK(w, "Appointment request submitted! We'll contact you soon.", response.SubmitData{
		ID:        res.RowNumber,
		Timestamp: s.Timestamp,
	})
}

// ExportToday downloads today's bookings.
func (h *BookingsHandler) ExportToday(w http.ResponseWriter, r *http.Request) {
	rows, err := h.tables.ReadToday(r.Context(), h.cfg.TableID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to read today's bookings", "error", err)
		response.ExportFailed(w, "Failed to export data.", response.Detail(h.cfg.DevMode, err))
		return
	}
	if table.DataRows(rows) == 0 {
		response.ExportEmpty(w, "No submissions found for today.")
		return
	}
	name := fmt.Sprintf("%s-bookings-%s.xlsx", h.cfg.SiteName, domain.CalendarDay(h.now()))
	h.send(w, r, rows, name, "Failed to export data.")
}

// ExportAll downloads every booking in table order.
func (h *BookingsHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	rows, err := h.tables.ReadAll(r.Context(), h.cfg.TableID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to read bookings", "error", err)
		response.ExportFailed(w, "Failed to export all data.", response.Detail(h.cfg.DevMode, err))
		return
	}
	if table.DataRows(rows) == 0 {
		response.ExportEmpty(w, "No data found in the sheet.")
		return
	}
	h.send(w, r, rows, h.cfg.SiteName+"-bookings-all.xlsx", "Failed to export all data.")
}

func (h *BookingsHandler) send(w http.ResponseWriter, r *http.Request, rows []table.Row, filename, failure string) {
	doc, err := h.reports.Format(rows, export.VariantPublic)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to build report", "error", err)
		response.ExportFailed(w, failure, response.Detail(h.cfg.DevMode, err))
		return
	}
	logger.InfoContext(r.Context(), "Report exported", "file", filename, "rows", table.DataRows(rows))
	response.Attachment(w, export.ContentType, filename, doc)
}

// Stats counts today's bookings.
func (h *BookingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.tables.ReadToday(r.Context(), h.cfg.TableID)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to fetch statistics", "error", err)
		response.WriteErrorWithDetails(w, http.StatusInternalServerError, "Failed to fetch statistics.", response.Detail(h.cfg.DevMode, err))
		return
	}
	response.JSON(w, http.StatusOK, response.StatsResult{
		Success:  true,
		Today:    domain.CalendarDay(h.now()),
		Bookings: table.DataRows(rows),
	})
}
