package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/diagnosis/spa-intake/internal/domain"
	"github.com/diagnosis/spa-intake/internal/export"
	"github.com/diagnosis/spa-intake/internal/notify"
	"github.com/diagnosis/spa-intake/internal/table"
)

const (
	maxBodyBytes  = 1 << 20
	notifyTimeout = 20 * time.Second
)

// Tables is the part of the table client the handlers use.
type Tables interface {
	Append(ctx context.Context, tableID string, row table.Row) (table.AppendResult, error)
	ReadAll(ctx context.Context, tableID string) ([]table.Row, error)
	ReadToday(ctx context.Context, tableID string) ([]table.Row, error)
}

type Notifier interface {
	BookingSubmitted(ctx context.Context, s domain.Submission, rowNumber int64) []notify.Result
	VisitRecorded(ctx context.Context, a domain.AdminRecord, rowNumber int64) []notify.Result
}

type Reports interface {
	Format(rows []table.Row, v export.Variant) ([]byte, error)
}

var errBadBody = errors.New("invalid request body")

// decodeBody accepts JSON or a url-encoded form, the two encodings the storefront posts.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, form func(get func(string) string)) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", errBadBody, err)
		}
		form(r.PostForm.Get)
		return nil
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// notifyContext outlives the request so a client hanging up does not cut a send short.
func notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
}
