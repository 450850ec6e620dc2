package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	appai "github.com/bryanwahyu/policylens/internal/application/ai"
	appclauses "github.com/bryanwahyu/policylens/internal/application/clauses"
	appinsights "github.com/bryanwahyu/policylens/internal/application/insights"
	apppolicies "github.com/bryanwahyu/policylens/internal/application/policies"
	appsessions "github.com/bryanwahyu/policylens/internal/application/sessions"
	appusers "github.com/bryanwahyu/policylens/internal/application/users"
	domai "github.com/bryanwahyu/policylens/internal/domain/ai"
	"github.com/bryanwahyu/policylens/internal/domain/documents"
	"github.com/bryanwahyu/policylens/internal/infra/auth"
	"github.com/bryanwahyu/policylens/internal/infra/db/memory"
	"github.com/bryanwahyu/policylens/internal/infra/db/storetest"
)

const longPolicy = "This policy covers in-patient hospitalization for the insured member subject to the terms below."

type countingClient struct{ calls atomic.Int32 }

func (c *countingClient) Analyze(ctx context.Context, req domai.AnalysisRequest) (string, error) {
	c.calls.Add(1)
	return "", errors.New("provider down")
}

func (c *countingClient) Answer(ctx context.Context, policyText, question string) (string, error) {
	c.calls.Add(1)
	return "", errors.New("provider down")
}

type fakePDF struct{}

func (fakePDF) Extract(ctx context.Context, r io.ReaderAt, size int64) (*documents.Extraction, error) {
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}
	if !bytes.HasPrefix(buf, []byte("%PDF")) {
		return nil, documents.ErrUnreadable
	}
	return &documents.Extraction{Text: "Policy terms", NumPages: 2, Info: &documents.Info{Title: "Plan"}}, nil
}

type testEnv struct {
	srv    *httptest.Server
	client *countingClient
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := storetest.NewStepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	store := memory.New(clock)
	client := &countingClient{}

	h := NewRouter(Deps{
		Users:    &appusers.Service{Repo: store, Clock: clock},
		Policies: &apppolicies.Service{Repo: store, Clock: clock},
		Clauses:  &appclauses.Service{Repo: store},
		Insights: &appinsights.Service{Repo: store, Policies: store},
		Sessions: &appsessions.Service{Repo: store, Clock: clock},
		AI:       appai.NewGateway(client, time.Second),
		PDF:      fakePDF{},
		Auth:     auth.NewManager("test-secret", false),
		State:    auth.NewStateSigner("test-secret"),
		Options: Options{
			AllowedOrigins: []string{"http://localhost:5173"},
			RateCapacity:   1000,
			RateRefill:     100,
			UploadMaxBytes: 1 << 20,
		},
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, client: client}
}

// user returns an http.Client with its own cookie jar, optionally registered.
func (e *testEnv) user(t *testing.T, username string) *http.Client {
	t.Helper()
	jar, _ := cookiejar.New(nil)
	c := &http.Client{Jar: jar, CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	if username != "" {
		resp := e.do(t, c, http.MethodPost, "/api/auth/register", map[string]string{"username": username, "password": "correct-horse"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("register %s = %d", username, resp.StatusCode)
		}
	}
	return c
}

func (e *testEnv) do(t *testing.T, c *http.Client, method, path string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestAnalyzeRejectsShortTextBeforeGateway(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, e.user(t, ""), http.MethodPost, "/api/ai/analyze", map[string]string{"policyText": "   too short   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["error"] == "" {
		t.Fatalf("error body = %v", body)
	}
	if n := e.client.calls.Load(); n != 0 {
		t.Fatalf("gateway calls = %d, want 0", n)
	}
}

func TestAnalyzeAnonymousReturnsFallback(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, e.user(t, ""), http.MethodPost, "/api/ai/analyze", map[string]any{"policyText": longPolicy, "save": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decode[analyzeResponse](t, resp)
	if got.Summary != appai.FallbackAnalysis().Summary {
		t.Fatalf("Summary = %q, want fallback", got.Summary)
	}
	if got.AnalysisID != "" {
		t.Fatalf("anonymous save produced analysisId %q", got.AnalysisID)
	}
}

func TestAnalysisOwnership(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	anon := e.user(t, "")

	resp := e.do(t, alice, http.MethodPost, "/api/ai/analyze", map[string]any{
		"policyText": longPolicy, "policyType": "Health", "save": true, "policyTitle": "Family Floater",
	})
	got := decode[analyzeResponse](t, resp)
	if got.AnalysisID == "" {
		t.Fatalf("save did not return analysisId")
	}
	path := "/api/analyses/" + got.AnalysisID

	cases := []struct {
		name   string
		client *http.Client
		method string
		path   string
		want   int
	}{
		{"owner reads", alice, http.MethodGet, path, http.StatusOK},
		{"anonymous reads", anon, http.MethodGet, path, http.StatusUnauthorized},
		{"stranger reads", bob, http.MethodGet, path, http.StatusForbidden},
		{"missing", alice, http.MethodGet, "/api/analyses/5f0c6a3e-8a0e-4c43-9a0c-2b2b1d9d6f10", http.StatusNotFound},
		{"malformed id", alice, http.MethodGet, "/api/analyses/nope", http.StatusNotFound},
		{"stranger deletes", bob, http.MethodDelete, path, http.StatusNotFound},
		{"anonymous lists", anon, http.MethodGet, "/api/analyses", http.StatusUnauthorized},
		{"export disabled", alice, http.MethodPost, path + "/export", http.StatusServiceUnavailable},
		{"still there", alice, http.MethodGet, path, http.StatusOK},
		{"owner deletes", alice, http.MethodDelete, path, http.StatusOK},
		{"gone", alice, http.MethodGet, path, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.do(t, tc.client, tc.method, tc.path, nil)
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestCreateAndListAnalyses(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	for i := 0; i < 3; i++ {
		resp := e.do(t, alice, http.MethodPost, "/api/analyses", map[string]any{
			"policyTitle":          fmt.Sprintf("Policy %d", i),
			"policyType":           "Vehicle",
			"plainLanguageSummary": "Covers accidents.",
			"riskLevel":            "Low",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("create %d = %d", i, resp.StatusCode)
		}
	}

	list := decode[[]map[string]any](t, e.do(t, alice, http.MethodGet, "/api/analyses?limit=2", nil))
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0]["policyTitle"] != "Policy 2" {
		t.Fatalf("first = %v, want newest", list[0]["policyTitle"])
	}

	bad := e.do(t, alice, http.MethodPost, "/api/analyses", map[string]any{"policyTitle": "x", "policyType": "Boat"})
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid type status = %d, want 400", bad.StatusCode)
	}

	anon := decode[map[string]any](t, e.do(t, e.user(t, ""), http.MethodPost, "/api/analyses", map[string]any{
		"policyTitle": "Guest", "policyType": "Life", "plainLanguageSummary": "s", "riskLevel": "High",
	}))
	if anon["id"] == "" || anon["userId"] != nil {
		t.Fatalf("anonymous create = %v, want transient analysis", anon)
	}
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t)
	anon := e.user(t, "")
	if resp := e.do(t, anon, http.MethodGet, "/api/user", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous /api/user = %d", resp.StatusCode)
	}

	alice := e.user(t, "alice")
	me := decode[map[string]any](t, e.do(t, alice, http.MethodGet, "/api/user", nil))
	if me["username"] != "alice" {
		t.Fatalf("user = %v", me)
	}
	if _, leaked := me["password"]; leaked {
		t.Fatalf("password hash leaked: %v", me)
	}

	if resp := e.do(t, anon, http.MethodPost, "/api/auth/register", map[string]string{"username": "alice", "password": "another-pass"}); resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register = %d, want 409", resp.StatusCode)
	}
	if resp := e.do(t, anon, http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "wrong-pass"}); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", resp.StatusCode)
	}
	if resp := e.do(t, anon, http.MethodPost, "/api/auth/login", map[string]string{"username": "alice", "password": "correct-horse"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("login = %d, want 200", resp.StatusCode)
	}
	if resp := e.do(t, anon, http.MethodGet, "/api/user", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/user after login = %d", resp.StatusCode)
	}

	e.do(t, alice, http.MethodPost, "/api/auth/logout", nil)
	if resp := e.do(t, alice, http.MethodGet, "/api/user", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("/api/user after logout = %d", resp.StatusCode)
	}

	if resp := e.do(t, anon, http.MethodGet, "/api/auth/google", nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("google without config = %d, want 503", resp.StatusCode)
	}
}

func TestSessionForUnknownUserIsAnonymous(t *testing.T) {
	// both servers sign cookies with the same secret; only the first knows alice
	home := newEnv(t)
	other := newEnv(t)
	alice := home.user(t, "alice")

	if resp := other.do(t, alice, http.MethodGet, "/api/user", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("/api/user on other server = %d, want 401", resp.StatusCode)
	}
	if resp := other.do(t, alice, http.MethodGet, "/api/analyses", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("list on other server = %d, want 401", resp.StatusCode)
	}

	created := decode[map[string]any](t, other.do(t, alice, http.MethodPost, "/api/analyses", map[string]any{
		"policyTitle": "Orphan", "policyType": "Life", "plainLanguageSummary": "s", "riskLevel": "Low",
	}))
	if created["userId"] != nil {
		t.Fatalf("create with stale cookie = %v, want transient analysis", created)
	}

	if resp := home.do(t, alice, http.MethodGet, "/api/user", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/user on home server = %d, want 200", resp.StatusCode)
	}
}

func TestClauseExplainCaches(t *testing.T) {
	e := newEnv(t)
	c := e.user(t, "")
	body := map[string]string{
		"clauseText":            "Pre-existing diseases are covered after 48 months.",
		"simplifiedExplanation": "Old illnesses are covered after four years.",
		"category":              "Waiting Period",
	}
	first := decode[map[string]any](t, e.do(t, c, http.MethodPost, "/api/clauses/explain", body))
	second := decode[map[string]any](t, e.do(t, c, http.MethodPost, "/api/clauses/explain", body))
	if first["cached"] != false || second["cached"] != true {
		t.Fatalf("cached = %v then %v, want false then true", first["cached"], second["cached"])
	}
	clause, _ := second["clause"].(map[string]any)
	if clause["frequencyCount"] != float64(2) {
		t.Fatalf("frequencyCount = %v, want 2", clause["frequencyCount"])
	}

	top := decode[[]map[string]any](t, e.do(t, c, http.MethodGet, "/api/clauses/top", nil))
	if len(top) != 1 {
		t.Fatalf("top = %d, want 1", len(top))
	}
}

func TestChatRecordsScrubbedInsight(t *testing.T) {
	e := newEnv(t)
	c := e.user(t, "")

	if resp := e.do(t, c, http.MethodPost, "/api/ai/chat", map[string]string{"policyText": longPolicy}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing question = %d, want 400", resp.StatusCode)
	}

	resp := e.do(t, c, http.MethodPost, "/api/ai/chat", map[string]string{
		"policyText": longPolicy,
		"question":   "Is dengue covered for my friend Rahul Verma??",
	})
	got := decode[domai.ChatResult](t, resp)
	if got.Confidence != domai.ConfidenceHigh {
		t.Fatalf("Confidence = %s, want High", got.Confidence)
	}

	list := decode[[]map[string]any](t, e.do(t, c, http.MethodGet, "/api/insights/Coverage", nil))
	if len(list) != 1 {
		t.Fatalf("insights = %d, want 1", len(list))
	}
	q, _ := list[0]["normalizedQuestion"].(string)
	if strings.Contains(q, "Rahul") || strings.Contains(q, "dengue") {
		t.Fatalf("normalizedQuestion = %q, still has PII", q)
	}
	if list[0]["isConfused"] != float64(1) {
		t.Fatalf("isConfused = %v, want 1", list[0]["isConfused"])
	}

	if resp := e.do(t, c, http.MethodGet, "/api/insights/Nonsense", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown category = %d, want 400", resp.StatusCode)
	}
}

func TestInsightAcceptsNumericFlag(t *testing.T) {
	e := newEnv(t)
	c := e.user(t, "")
	got := decode[map[string]any](t, e.do(t, c, http.MethodPost, "/api/insights", map[string]any{
		"normalizedQuestion": "When does the waiting period end?",
		"category":           "Timing",
		"isConfused":         0,
		"policyId":           "not-persisted",
	}))
	if got["isConfused"] != float64(0) || got["policyId"] != nil {
		t.Fatalf("insight = %v", got)
	}
}

func TestSessionEndpoints(t *testing.T) {
	e := newEnv(t)
	c := e.user(t, "")

	first := decode[map[string]any](t, e.do(t, c, http.MethodPost, "/api/session", map[string]string{"sessionToken": "session_1718000000000_ab12cd"}))
	second := decode[map[string]any](t, e.do(t, c, http.MethodPost, "/api/session", map[string]string{"sessionToken": "session_1718000000000_ab12cd"}))
	if first["id"] == nil || first["id"] != second["id"] {
		t.Fatalf("ids = %v / %v, want same", first["id"], second["id"])
	}
	if first["isGuest"] != float64(1) {
		t.Fatalf("isGuest = %v, want 1", first["isGuest"])
	}

	id, _ := first["id"].(string)
	if resp := e.do(t, c, http.MethodPatch, "/api/session/"+id, map[string]int{"policiesAnalyzed": 3, "questionsAsked": 5}); resp.StatusCode != http.StatusOK {
		t.Fatalf("patch = %d", resp.StatusCode)
	}
	again := decode[map[string]any](t, e.do(t, c, http.MethodPost, "/api/session", map[string]string{"sessionToken": "session_1718000000000_ab12cd"}))
	if again["policiesAnalyzed"] != float64(3) || again["questionsAsked"] != float64(5) {
		t.Fatalf("counters = %v / %v", again["policiesAnalyzed"], again["questionsAsked"])
	}

	if resp := e.do(t, c, http.MethodPost, "/api/session", map[string]string{}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing token = %d, want 400", resp.StatusCode)
	}
	cleanup := decode[map[string]any](t, e.do(t, c, http.MethodPost, "/api/session/cleanup", nil))
	if cleanup["removed"] != float64(0) {
		t.Fatalf("removed = %v, want 0", cleanup["removed"])
	}
}

func uploadBody(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="pdf"; filename="policy.pdf"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadPDF(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name        string
		contentType string
		data        []byte
		want        int
		wantError   string
	}{
		{"ok", "application/pdf", []byte("%PDF-1.4 fake"), http.StatusOK, ""},
		{"not a pdf type", "text/plain", []byte("hello"), http.StatusBadRequest, "Only PDF files are allowed"},
		{"unreadable", "application/pdf", []byte("garbage"), http.StatusInternalServerError, "Failed to parse PDF. Please ensure it's a valid PDF file."},
		{"too large", "application/pdf", bytes.Repeat([]byte("a"), 3<<19), http.StatusRequestEntityTooLarge, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := uploadBody(t, tc.contentType, tc.data)
			resp, err := http.Post(e.srv.URL+"/api/upload/pdf", ct, body)
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
			if tc.want == http.StatusOK {
				got := decode[uploadResponse](t, resp)
				if got.NumPages != 2 || got.FileName != "policy.pdf" || got.Info == nil || got.Info.Title != "Plan" {
					t.Fatalf("upload = %+v", got)
				}
				return
			}
			if tc.wantError != "" {
				if got := decode[map[string]string](t, resp); got["error"] != tc.wantError {
					t.Fatalf("error = %q, want %q", got["error"], tc.wantError)
				}
			}
		})
	}

	resp, err := http.Post(e.srv.URL+"/api/upload/pdf", "multipart/form-data; boundary=x", strings.NewReader(""))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("no file = %d, want 400", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)
	c := e.user(t, "")
	if resp := e.do(t, c, http.MethodGet, "/health", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("/health = %d", resp.StatusCode)
	}
	m := decode[map[string]any](t, e.do(t, c, http.MethodGet, "/metrics", nil))
	if _, ok := m["requests_total"]; !ok {
		t.Fatalf("metrics = %v", m)
	}
}
