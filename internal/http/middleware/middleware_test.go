package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/spa-intake/pkg/auth"
)

const secret = "guard-secret"

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := Claims(r); c == nil || c.Role != auth.RoleAdmin {
			t.Errorf("claims not on context: %+v", c)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireAdmin(t *testing.T) {
	admin, _ := auth.NewAdminToken(secret, time.Hour)
	expired, _ := auth.NewAdminToken(secret, -time.Hour)
	user, _ := auth.NewToken("user", secret, time.Hour)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"no header", "", http.StatusUnauthorized, "No token provided"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "Invalid or expired token"},
		{"tampered", "Bearer " + admin + "x", http.StatusUnauthorized, "Invalid or expired token"},
		{"user role", "Bearer " + user, http.StatusForbidden, "Forbidden"},
		{"admin", "Bearer " + admin, http.StatusNoContent, ""},
	}
	h := RequireAdmin(secret)(okHandler(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/export", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantErr == "" {
				return
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.wantErr {
				t.Fatalf("error = %q, want %q", body.Error, tt.wantErr)
			}
		})
	}
}

func TestRateLimiter_Memory(t *testing.T) {
	rl := NewRateLimiter(NewMemoryLimiter(2, time.Hour), RateLimitConfig{})
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/submit", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: code = %d", i, code)
		}
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: code = %d, want 429", code)
	}
	if code := do("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client: code = %d", code)
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	rl := NewRateLimiter(brokenLimiter{}, RateLimitConfig{})
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submit", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		trustProxy bool
		want       string
	}{
		{"direct ignores forwarded header", "203.0.113.9", false, "192.0.2.1"},
		{"direct without header", "", false, "192.0.2.1"},
		{"proxy takes right-most hop", "198.51.100.7, 203.0.113.9", true, "203.0.113.9"},
		{"proxy single hop", "203.0.113.9", true, "203.0.113.9"},
		{"proxy without header", "", true, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:4321"
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := getClientIP(req, tt.trustProxy); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_SpoofedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(NewMemoryLimiter(1, time.Hour), RateLimitConfig{})
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 2)
	for _, fake := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/submit", nil)
		req.RemoteAddr = "10.0.0.9:5555"
		req.Header.Set("X-Forwarded-For", fake)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, rotating X-Forwarded-For must not reset the budget", codes)
	}
}

func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	l := NewRedisLimiter(rdb, 1, time.Minute, "test-rl-"+time.Now().Format("150405.000"))
	ctx := context.Background()
	if ok, err := l.Allow(ctx, "k"); err != nil || !ok {
		t.Fatalf("first: ok=%v err=%v", ok, err)
	}
	if ok, err := l.Allow(ctx, "k"); err != nil || ok {
		t.Fatalf("second: ok=%v err=%v", ok, err)
	}
}
