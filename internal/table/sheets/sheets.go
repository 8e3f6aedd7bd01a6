// Package sheets stores tables in Google Sheets spreadsheets; the table id is the spreadsheet id.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/diagnosis/spa-intake/internal/table"
)

type Config struct {
	CredentialsJSON string
	SheetName       string
	// Columns maps a table id to its column count; unknown tables read A:Z.
	Columns map[string]int
	Timeout time.Duration
}

type Backend struct {
	values  *sheets.SpreadsheetsValuesService
	sheet   string
	columns map[string]int
	timeout time.Duration
}

func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Backend, error) {
	// The credentials setting holds either the service account JSON itself or a path to it.
	switch creds := strings.TrimSpace(cfg.CredentialsJSON); {
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	case creds != "":
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google sheets authentication failed: %w", err)
	}

	b := &Backend{
		values:  srv.Spreadsheets.Values,
		sheet:   cfg.SheetName,
		columns: cfg.Columns,
		timeout: cfg.Timeout,
	}
	if b.sheet == "" {
		b.sheet = "Sheet1"
	}
	if b.timeout <= 0 {
		b.timeout = 15 * time.Second
	}
	return b, nil
}

func (b *Backend) Append(ctx context.Context, tableID string, row table.Row) (table.AppendResult, error) {
	if tableID == "" {
		return table.AppendResult{}, errors.New("spreadsheet id not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cells := make([]interface{}, len(row))
	for i, c := range row {
		cells[i] = c
	}

	resp, err := b.values.Append(tableID, b.rangeFor(tableID, len(row)), &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return table.AppendResult{}, err
	}
	if resp.Updates == nil {
		return table.AppendResult{}, errors.New("append response carried no update summary")
	}

	n, ok := rowFromRange(resp.Updates.UpdatedRange)
	if !ok {
		n = resp.Updates.UpdatedRows
	}
	return table.AppendResult{RowNumber: n, Range: resp.Updates.UpdatedRange}, nil
}

func (b *Backend) ReadAll(ctx context.Context, tableID string) ([]table.Row, error) {
	if tableID == "" {
		return nil, errors.New("spreadsheet id not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.values.Get(tableID, b.rangeFor(tableID, 0)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	rows := make([]table.Row, 0, len(resp.Values))
	for _, vs := range resp.Values {
		row := make(table.Row, len(vs))
		for i, v := range vs {
			if v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rangeFor builds an A1 range like Sheet1!A:H covering the table's columns.
func (b *Backend) rangeFor(tableID string, width int) string {
	if n, ok := b.columns[tableID]; ok && n > 0 {
		width = n
	}
	if width <= 0 || width > 26 {
		width = 26
	}
	return fmt.Sprintf("%s!A:%c", b.sheet, rune('A'+width-1))
}

var updatedRowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// rowFromRange extracts the first row number of an A1 range such as Sheet1!A7:H7.
func rowFromRange(rng string) (int64, bool) {
	m := updatedRowPattern.FindStringSubmatch(rng)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
