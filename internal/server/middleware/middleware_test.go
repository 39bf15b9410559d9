package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
)

// TestChain tests middleware composition order.
func TestChain(t *testing.T) {
	var calls []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls = append(calls, "handler")
	})

	Chain(mark("m1"), mark("m2"))(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if got := strings.Join(calls, ","); got != "m1,m2,handler" {
		t.Errorf("expected m1,m2,handler, got %s", got)
	}
}

// TestRequestID tests id generation and propagation.
func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logging.RequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if seen == "" || len(seen) != 36 {
		t.Fatalf("expected a generated uuid, got %q", seen)
	}
	if w.Header().Get(RequestIDHeader) != seen {
		t.Errorf("expected response header %q, got %q", seen, w.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "abc-123" {
		t.Errorf("expected caller id to be reused, got %q", seen)
	}
}

type recorded struct {
	method, route string
	code          int
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (f *fakeRecorder) ObserveHTTP(method, route string, code int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recorded{method, route, code})
}

// TestLogger tests request logging and route observation.
func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	rec := &fakeRecorder{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/postcodes/{state}", func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	})
	handler := RequestID(Logger(&logger, rec)(mux))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/postcodes/NSW", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	if len(rec.seen) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(rec.seen))
	}
	if want := (recorded{"GET", "GET /api/postcodes/{state}", http.StatusTeapot}); rec.seen[0] != want {
		t.Errorf("expected %+v, got %+v", want, rec.seen[0])
	}
	if rec.seen[1].route != "unmatched" || rec.seen[1].code != http.StatusNotFound {
		t.Errorf("unexpected observation for unknown path: %+v", rec.seen[1])
	}

	out := buf.String()
	for _, want := range []string{`"message":"inside"`, `"path":"/api/postcodes/NSW"`, `"status":418`, `"request_id":"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %s, got %s", want, out)
		}
	}
}

// TestRecovery tests that panics become 500 responses.
func TestRecovery(t *testing.T) {
	logger := zerolog.Nop()
	handler := Recovery(&logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/sync/all/NSW", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"failed"`) {
		t.Errorf("expected failed status body, got %s", w.Body.String())
	}
}

// TestCORS tests origin handling and preflight short-circuiting.
func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		config     CORSConfig
		method     string
		origin     string
		preflight  bool
		wantOrigin string
		wantCode   int
	}{
		{"allow all", CORSConfig{AllowAll: true}, "GET", "https://example.com", false, "*", http.StatusOK},
		{"listed origin", CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}, "GET", "https://app.example.com", false, "https://app.example.com", http.StatusOK},
		{"unlisted origin", CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}, "GET", "https://evil.example.com", false, "", http.StatusOK},
		{"wildcard in list", CORSConfig{AllowedOrigins: []string{"https://app.example.com", "*"}}, "GET", "https://other.example.com", false, "*", http.StatusOK},
		{"preflight", DefaultCORSConfig(), "OPTIONS", "https://example.com", true, "*", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(tt.method, "/api/health", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "POST")
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("expected origin %q, got %q", tt.wantOrigin, got)
			}
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, w.Code)
			}
		})
	}
}

// TestAuth tests API key enforcement.
func TestAuth(t *testing.T) {
	logger := zerolog.Nop()
	cfg := DefaultAuthConfig()
	cfg.Enabled = true
	cfg.APIKey = "secret"
	handler := Auth(cfg, &logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		path   string
		header string
		value  string
		want   int
	}{
		{"public path", "/api/health", "", "", http.StatusOK},
		{"missing key", "/api/sync/all/NSW", "", "", http.StatusUnauthorized},
		{"wrong key", "/api/sync/all/NSW", "X-API-Key", "nope", http.StatusUnauthorized},
		{"header key", "/api/sync/all/NSW", "X-API-Key", "secret", http.StatusOK},
		{"bearer key", "/api/sync/all/NSW", "Authorization", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

// TestRateLimit tests per-IP buckets and refill.
func TestRateLimit(t *testing.T) {
	logger := zerolog.Nop()
	rl := NewRateLimiter(2, &logger)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	hit := func(ip string) int {
		req := httptest.NewRequest("GET", "/api/sources", nil)
		req.RemoteAddr = ip + ":5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i, want := range []int{200, 200, 429} {
		if got := hit("10.0.0.1"); got != want {
			t.Errorf("request %d: expected %d, got %d", i, want, got)
		}
	}
	if got := hit("10.0.0.2"); got != http.StatusOK {
		t.Errorf("expected separate bucket per IP, got %d", got)
	}

	now = now.Add(30 * time.Second)
	if got := hit("10.0.0.1"); got != http.StatusOK {
		t.Errorf("expected a token after refill, got %d", got)
	}

	now = now.Add(time.Hour)
	rl.Allow("10.0.0.3")
	if n := len(rl.visitors); n != 1 {
		t.Errorf("expected idle visitors to be dropped, have %d", n)
	}
}

// TestClientIP tests forwarded header handling.
func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := clientIP(req); got != "192.0.2.1" {
		t.Errorf("expected peer host, got %s", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.5" {
		t.Errorf("expected first forwarded hop, got %s", got)
	}
}
