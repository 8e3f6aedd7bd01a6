package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"github.com/diagnosis/spa-intake/internal/table"
)

func TestRowFromRange(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"Sheet1!A7:H7", 7, true},
		{"'My Sheet'!A120:M120", 120, true},
		{"Sheet1", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := rowFromRange(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("rowFromRange(%q) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRangeFor(t *testing.T) {
	b := &Backend{sheet: "Sheet1", columns: map[string]int{"admin": 13}}
	if got := b.rangeFor("admin", 0); got != "Sheet1!A:M" {
		t.Fatalf("admin range = %s", got)
	}
	if got := b.rangeFor("public", 8); got != "Sheet1!A:H" {
		t.Fatalf("public range = %s", got)
	}
	if got := b.rangeFor("unknown", 0); got != "Sheet1!A:Z" {
		t.Fatalf("unknown range = %s", got)
	}
}

// fakeSheets answers the two Values endpoints the backend uses.
func fakeSheets(t *testing.T, appended *[][]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
			if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
				t.Errorf("valueInputOption = %q", got)
			}
			var body struct {
				Values [][]interface{} `json:"values"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			*appended = append(*appended, body.Values...)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"spreadsheetId": "sheet-1",
				"updates": map[string]any{
					"updatedRange": "Sheet1!A5:H5",
					"updatedRows":  1,
				},
			})
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"range": "Sheet1!A1:H3",
				"values": [][]any{
					{"Timestamp", "Service"},
					{"2026-10-16T08:00:00.000Z", "Facial"},
					{"2026-10-16T09:00:00.000Z"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestBackend_AgainstFakeAPI(t *testing.T) {
	var appended [][]interface{}
	srv := fakeSheets(t, &appended)
	defer srv.Close()

	ctx := context.Background()
	b, err := New(ctx, Config{SheetName: "Sheet1"},
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatal(err)
	}

	res, err := b.Append(ctx, "sheet-1", table.Row{"2026-10-16T10:00:00.000Z", "Massage"})
	if err != nil {
		t.Fatal(err)
	}
	if res.RowNumber != 5 {
		t.Fatalf("row number = %d", res.RowNumber)
	}
	if len(appended) != 1 || appended[0][1] != "Massage" {
		t.Fatalf("appended = %v", appended)
	}

	rows, err := b.ReadAll(ctx, "sheet-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][1] != "Facial" || len(rows[2]) != 1 {
		t.Fatalf("rows = %v", rows)
	}
}

func TestBackend_MissingTableID(t *testing.T) {
	b := &Backend{sheet: "Sheet1", timeout: 1}
	if _, err := b.Append(context.Background(), "", table.Row{"x"}); err == nil {
		t.Fatal("expected error for empty spreadsheet id")
	}
	if _, err := b.ReadAll(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty spreadsheet id")
	}
}
