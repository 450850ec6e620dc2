package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type staticSource string

func (s staticSource) CurrentUserID(*http.Request) string { return string(s) }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoadUserAndRequireUser(t *testing.T) {
	var seen string
	h := LoadUser(staticSource("u-1"), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen != "u-1" {
		t.Fatalf("UserFromContext = %q, want u-1", seen)
	}

	rec := httptest.NewRecorder()
	LoadUser(staticSource(""), nil)(RequireUser(okHandler())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] == "" {
		t.Fatalf("error body missing: %v", body)
	}

	rec = httptest.NewRecorder()
	LoadUser(staticSource("u-1"), nil)(RequireUser(okHandler())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("signed-in status = %d, want 200", rec.Code)
	}
}

type knownUsers map[string]bool

func (k knownUsers) Exists(_ context.Context, id string) (bool, error) {
	if id == "broken" {
		return false, errors.New("db down")
	}
	return k[id], nil
}

func TestLoadUserDropsUnknownUser(t *testing.T) {
	users := knownUsers{"u-1": true}
	cases := []struct {
		id   string
		want string
	}{
		{"u-1", "u-1"},
		{"u-deleted", ""},
		{"broken", ""},
		{"", ""},
	}
	for _, tc := range cases {
		var seen string
		h := LoadUser(staticSource(tc.id), users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = UserFromContext(r.Context())
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if seen != tc.want {
			t.Fatalf("UserFromContext(%q) = %q, want %q", tc.id, seen, tc.want)
		}
	}

	rec := httptest.NewRecorder()
	LoadUser(staticSource("u-deleted"), users)(RequireUser(okHandler())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("stale cookie status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cases := []struct {
		name   string
		key    string
		header string
		value  string
		want   int
	}{
		{"open when unset", "", "", "", http.StatusOK},
		{"missing", "secret", "", "", http.StatusUnauthorized},
		{"bearer", "secret", "Authorization", "Bearer secret", http.StatusOK},
		{"x-api-key", "secret", "X-API-Key", "secret", http.StatusOK},
		{"wrong", "secret", "X-API-Key", "nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tc.key)(okHandler()).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRateLimiterRefill(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, 1)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("a"); !ok {
			t.Fatalf("request %d denied, want allowed", i)
		}
	}
	ok, wait := rl.Allow("a")
	if ok {
		t.Fatalf("third request allowed, want denied")
	}
	if wait <= 0 || wait > time.Second {
		t.Fatalf("wait = %s, want (0, 1s]", wait)
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Fatalf("other caller denied, want independent bucket")
	}

	now = now.Add(time.Second)
	if ok, _ := rl.Allow("a"); !ok {
		t.Fatalf("request after refill denied")
	}
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 0.1)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(11 * time.Minute)
	rl.Allow("b")
	if _, ok := rl.buckets["a"]; ok {
		t.Fatalf("idle bucket was not swept")
	}
}

func TestRateLimitHandlerKeysByUser(t *testing.T) {
	rl := NewRateLimiter(1, 0.001)
	h := rl.Handler(okHandler())

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/analyze", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if user != "" {
			req = req.WithContext(context.WithValue(req.Context(), UserKey, user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(""); rec.Code != http.StatusOK {
		t.Fatalf("first anonymous = %d", rec.Code)
	}
	rec := send("")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second anonymous = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After missing")
	}
	if rec := send("u-1"); rec.Code != http.StatusOK {
		t.Fatalf("signed-in user from same IP = %d, want 200", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	ok := HealthCheckFunc(func(context.Context) error { return nil })
	bad := HealthCheckFunc(func(context.Context) error { return errors.New("down") })

	cases := []struct {
		name     string
		required map[string]HealthChecker
		optional map[string]HealthChecker
		code     int
		status   string
	}{
		{"healthy", map[string]HealthChecker{"storage": ok}, map[string]HealthChecker{"objects": ok}, http.StatusOK, "healthy"},
		{"degraded", map[string]HealthChecker{"storage": ok}, map[string]HealthChecker{"objects": bad}, http.StatusOK, "degraded"},
		{"unhealthy", map[string]HealthChecker{"storage": bad}, map[string]HealthChecker{"objects": ok}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthHandler(tc.required, tc.optional)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tc.code {
				t.Fatalf("code = %d, want %d", rec.Code, tc.code)
			}
			var got HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != tc.status {
				t.Fatalf("status = %q, want %q", got.Status, tc.status)
			}
		})
	}
}

func TestMetricsCounters(t *testing.T) {
	before := globalMetrics.AnalysesTotal.Load()
	IncrementAnalyses()
	RecordAIFallback("analyze", errors.New("x"))
	if got := globalMetrics.AnalysesTotal.Load(); got != before+1 {
		t.Fatalf("analyses = %d, want %d", got, before+1)
	}

	rec := httptest.NewRecorder()
	MetricsMiddleware(http.HandlerFunc(MetricsHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `"ai_fallbacks"`) {
		t.Fatalf("metrics body = %s", rec.Body.String())
	}
}

func TestValidators(t *testing.T) {
	if err := ValidatePolicyText(strings.Repeat("a", 49) + "   "); !errors.Is(err, ErrPolicyTooShort) {
		t.Fatalf("49 chars err = %v, want ErrPolicyTooShort", err)
	}
	if err := ValidatePolicyText(strings.Repeat("é", 50)); err != nil {
		t.Fatalf("50 runes err = %v", err)
	}
	// 49 emoji are 98 UTF-16 units but still 49 code points
	if err := ValidatePolicyText(strings.Repeat("\U0001F600", 49)); !errors.Is(err, ErrPolicyTooShort) {
		t.Fatalf("49 emoji err = %v, want ErrPolicyTooShort", err)
	}
	if err := ValidateID("not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("ValidateID err = %v", err)
	}
	if err := ValidateID("5f0c6a3e-8a0e-4c43-9a0c-2b2b1d9d6f10"); err != nil {
		t.Fatalf("ValidateID(valid) = %v", err)
	}
	if err := ValidateSessionToken("session_1718000000000_ab12cd"); err != nil {
		t.Fatalf("ValidateSessionToken = %v", err)
	}
	if err := ValidateSessionToken("bad token!"); err == nil {
		t.Fatalf("ValidateSessionToken accepted spaces")
	}
	limits := []struct {
		raw  string
		want int
	}{{"", 20}, {"abc", 20}, {"-3", 20}, {"5", 5}, {"500", 100}}
	for _, l := range limits {
		if got := ValidateLimit(l.raw, 20, 100); got != l.want {
			t.Fatalf("ValidateLimit(%q) = %d, want %d", l.raw, got, l.want)
		}
	}
	if got := SanitizeString("  a\x00b "); got != "ab" {
		t.Fatalf("SanitizeString = %q", got)
	}
}
