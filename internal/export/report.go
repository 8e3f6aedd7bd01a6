// Package export renders table rows as styled .xlsx reports.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/diagnosis/spa-intake/internal/table"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Variant string

const (
	VariantPublic Variant = "public"
	VariantAdmin  Variant = "admin"
)

type column struct {
	header string
	width  float64
}

type layout struct {
	sheet   string
	columns []column
}

var layouts = map[Variant]layout{
	VariantPublic: {
		sheet: "Spa Bookings",
		columns: []column{
			{"Timestamp", 20}, {"Service", 25}, {"Date", 15}, {"Time", 12},
			{"First Name", 20}, {"Email", 30}, {"Phone", 18}, {"Message", 40},
		},
	},
	VariantAdmin: {
		sheet: "Customer Visits",
		columns: []column{
			{"Timestamp", 20}, {"Name", 20}, {"Room No", 10}, {"Address", 30},
			{"Contact", 18}, {"Payment Mode", 15}, {"Time In", 10}, {"Time Out", 10},
			{"Therapy Name", 22}, {"Duration", 10}, {"Therapist", 18}, {"Date", 15},
			{"Membership", 15},
		},
	},
}

// Columns returns the header names a variant writes.
func Columns(v Variant) []string {
	l := layouts[v]
	out := make([]string, len(l.columns))
	for i, c := range l.columns {
		out[i] = c.header
	}
	return out
}

// SheetName is the worksheet a variant's report is written to.
func SheetName(v Variant) string {
	return layouts[v].sheet
}

type Formatter struct {
	Creator string
	now     func() time.Time
}

func NewFormatter(creator string) *Formatter {
	return &Formatter{Creator: creator, now: time.Now}
}

// WithClock returns a copy of f that dates reports with now.
func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	cp := *f
	cp.now = now
	return &cp
}

type styles struct {
	header, even, odd, summary, date int
}

// Format builds the report. rows[0] is taken to be the source header and skipped.
func (f *Formatter) Format(rows []table.Row, v Variant) ([]byte, error) {
	l, ok := layouts[v]
	if !ok {
		return nil, fmt.Errorf("unknown report variant %q", v)
	}

	var data []table.Row
	if len(rows) > 1 {
		data = rows[1:]
	}

	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName("Sheet1", l.sheet); err != nil {
		return nil, err
	}
	now := f.now()
	if err := x.SetDocProps(&excelize.DocProperties{
		Creator:        f.Creator,
		LastModifiedBy: f.Creator,
		Created:        now.UTC().Format(time.RFC3339),
		Modified:       now.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	st, err := newStyles(x)
	if err != nil {
		return nil, err
	}

	last := len(l.columns)
	lastCol, err := excelize.ColumnNumberToName(last)
	if err != nil {
		return nil, err
	}

	for i, c := range l.columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := x.SetColWidth(l.sheet, name, name, c.width); err != nil {
			return nil, err
		}
	}

	header := make([]interface{}, last)
	for i, c := range l.columns {
		header[i] = c.header
	}
	if err := x.SetSheetRow(l.sheet, "A1", &header); err != nil {
		return nil, err
	}
	if err := x.SetCellStyle(l.sheet, "A1", lastCol+"1", st.header); err != nil {
		return nil, err
	}

	for i, src := range data {
		r := i + 2
		vals := make([]interface{}, last)
		for c := 0; c < last; c++ {
			vals[c] = ""
			if c < len(src) {
				vals[c] = src[c]
			}
		}
		start := fmt.Sprintf("A%d", r)
		if err := x.SetSheetRow(l.sheet, start, &vals); err != nil {
			return nil, err
		}
		style := st.odd
		if i%2 == 0 {
			style = st.even
		}
		if err := x.SetCellStyle(l.sheet, start, fmt.Sprintf("%s%d", lastCol, r), style); err != nil {
			return nil, err
		}
	}

	if err := x.AutoFilter(l.sheet, "A1:"+lastCol+"1", nil); err != nil {
		return nil, err
	}
	if err := x.SetPanes(l.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	summaryRow := len(data) + 2
	summaryCell := fmt.Sprintf("A%d", summaryRow)
	if err := x.SetCellValue(l.sheet, summaryCell, TotalLabel(len(data))); err != nil {
		return nil, err
	}
	if err := x.SetCellStyle(l.sheet, summaryCell, summaryCell, st.summary); err != nil {
		return nil, err
	}

	dateCell := fmt.Sprintf("A%d", summaryRow+1)
	if err := x.SetCellValue(l.sheet, dateCell, DateLabel(now)); err != nil {
		return nil, err
	}
	if err := x.SetCellStyle(l.sheet, dateCell, dateCell, st.date); err != nil {
		return nil, err
	}

	buf, err := x.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to generate excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func TotalLabel(n int) string {
	return fmt.Sprintf("Total Bookings: %d", n)
}

func DateLabel(t time.Time) string {
	return "Report Date: " + t.Format("January 2, 2006")
}

func newStyles(x *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "D3D3D3", Style: 1},
		{Type: "top", Color: "D3D3D3", Style: 1},
		{Type: "right", Color: "D3D3D3", Style: 1},
		{Type: "bottom", Color: "D3D3D3", Style: 1},
	}

	var (
		st  styles
		err error
	)
	if st.header, err = x.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4CAF50"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return st, err
	}
	if st.even, err = x.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F9F9F9"}},
		Border: border,
	}); err != nil {
		return st, err
	}
	if st.odd, err = x.NewStyle(&excelize.Style{Border: border}); err != nil {
		return st, err
	}
	if st.summary, err = x.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Italic: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFE599"}},
	}); err != nil {
		return st, err
	}
	if st.date, err = x.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true},
	}); err != nil {
		return st, err
	}
	return st, nil
}
