// Package table is the client for the append-only tables bookings are recorded in.
// A table is addressed by an identifier, its first row is the header and rows are
// never updated or removed.
package table

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/spa-intake/internal/domain"
	"github.com/diagnosis/spa-intake/pkg/logger"
)

// Row is one positional record; cell order follows the table header.
type Row []string

// AppendResult reports where an appended row landed (1-based, header is row 1).
type AppendResult struct {
	RowNumber int64
	Range     string
}

// Backend is the storage a Client talks to. Append must be all-or-nothing.
type Backend interface {
	Append(ctx context.Context, tableID string, row Row) (AppendResult, error)
	ReadAll(ctx context.Context, tableID string) ([]Row, error)
}

// StoreError tags a transport or auth failure against the backing store.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("table %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

type Client struct {
	backend Backend
	now     func() time.Time
}

type Option func(*Client)

// WithClock overrides the clock ReadToday uses to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(backend Backend, opts ...Option) *Client {
	c := &Client{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Append adds exactly one row at the end of the table.
func (c *Client) Append(ctx context.Context, tableID string, row Row) (AppendResult, error) {
	res, err := c.backend.Append(ctx, tableID, row)
	if err != nil {
		return AppendResult{}, &StoreError{Op: "append", Table: tableID, Err: err}
	}
	logger.DebugContext(ctx, "Row appended", "table", tableID, "row_number", res.RowNumber)
	return res, nil
}

// ReadAll returns every row, header first. An empty table yields an empty slice.
func (c *Client) ReadAll(ctx context.Context, tableID string) ([]Row, error) {
	rows, err := c.backend.ReadAll(ctx, tableID)
	if err != nil {
		return nil, &StoreError{Op: "read", Table: tableID, Err: err}
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// ReadToday returns the header followed by the data rows stamped with the current UTC day.
func (c *Client) ReadToday(ctx context.Context, tableID string) ([]Row, error) {
	rows, err := c.ReadAll(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return FilterDay(rows, c.now()), nil
}

// EnsureHeader writes header as the first row when the table is still empty.
func (c *Client) EnsureHeader(ctx context.Context, tableID string, header Row) (bool, error) {
	rows, err := c.ReadAll(ctx, tableID)
	if err != nil {
		return false, err
	}
	if len(rows) > 0 {
		return false, nil
	}
	if _, err := c.Append(ctx, tableID, header); err != nil {
		return false, err
	}
	logger.InfoContext(ctx, "Table header initialized", "table", tableID, "columns", len(header))
	return true, nil
}

// FilterDay keeps the header and every data row whose timestamp cell falls on day's UTC date.
// Rows with a missing or unparsable timestamp are dropped; order is preserved.
func FilterDay(rows []Row, day time.Time) []Row {
	if len(rows) == 0 {
		return []Row{}
	}
	want := domain.CalendarDay(day)
	out := []Row{rows[0]}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		ts, ok := domain.ParseTimestamp(row[0])
		if !ok {
			continue
		}
		if domain.CalendarDay(ts) == want {
			out = append(out, row)
		}
	}
	return out
}

// DataRows counts rows after the header.
func DataRows(rows []Row) int {
	if len(rows) <= 1 {
		return 0
	}
	return len(rows) - 1
}
