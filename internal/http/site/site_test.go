package site

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildDist(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":     "<html>index</html>",
		"error.html":     "<html>unavailable</html>",
		"robots.txt":     "User-agent: *",
		"assets/app.js":  "console.log(1)",
		"assets/app.css": "body{}",
	}
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPaidSite(t *testing.T) {
	h := New(Config{Dir: buildDist(t), Paid: true})

	tests := []struct {
		target    string
		wantBody  string
		wantCache string
	}{
		{"/", "index", cacheNone},
		{"/index.html", "index", cacheNone},
		{"/assets/app.js", "console.log", cacheImmutable},
		{"/booking/confirm", "index", cacheNone},
		{"/robots.txt", "User-agent", cacheImmutable},
		{"/../../etc/passwd", "index", cacheNone},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(h, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if got := rec.Header().Get("Cache-Control"); got != tt.wantCache {
				t.Fatalf("Cache-Control = %q, want %q", got, tt.wantCache)
			}
		})
	}
}

func TestUnpaidSite(t *testing.T) {
	h := New(Config{Dir: buildDist(t), Paid: false})

	for _, target := range []string{"/", "/index.html", "/assets/app.js", "/anything"} {
		rec := get(h, target)
		if !strings.Contains(rec.Body.String(), "unavailable") {
			t.Errorf("%s: body = %q, want unavailable page", target, rec.Body.String())
		}
		if got := rec.Header().Get("Cache-Control"); got != cacheNone {
			t.Errorf("%s: Cache-Control = %q", target, got)
		}
	}

	if rec := get(h, "/robots.txt"); !strings.Contains(rec.Body.String(), "User-agent") {
		t.Errorf("robots.txt must stay reachable, got %q", rec.Body.String())
	}
	if rec := get(h, "/error.html"); !strings.Contains(rec.Body.String(), "unavailable") {
		t.Errorf("error.html: got %q", rec.Body.String())
	}
}

func TestMissingDist(t *testing.T) {
	h := New(Config{Dir: filepath.Join(t.TempDir(), "nope"), Paid: true})
	if rec := get(h, "/"); rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rec.Code)
	}
}
