package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/twinoai/twino/pkg/prompts"
	"github.com/twinoai/twino/pkg/ratelimit"
	"github.com/twinoai/twino/pkg/realtime"
	"github.com/twinoai/twino/pkg/twin"
)

type fakeMinter struct {
	req *realtime.SessionRequest
	err error
}

func (f *fakeMinter) CreateSession(_ context.Context, req *realtime.SessionRequest) (*realtime.EphemeralSession, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &realtime.EphemeralSession{
		ID:           "sess_1",
		Model:        req.Model,
		Voice:        req.Voice,
		ClientSecret: "ek_test",
		ExpiresAt:    time.UnixMilli(1735725600000),
	}, nil
}

type fakeExtractor struct {
	transcript, documents string
	err                   error
}

func (f *fakeExtractor) Extract(_ context.Context, transcript, documents string) (twin.Profile, error) {
	f.transcript, f.documents = transcript, documents
	if f.err != nil {
		return twin.Profile{}, f.err
	}
	return twin.Profile{IdentitySummary: "Designer."}.Normalize(), nil
}

type testEnv struct {
	handler   http.Handler
	store     *twin.Memory
	minter    *fakeMinter
	extractor *fakeExtractor
}

func newTestEnv(t *testing.T, limit int) *testEnv {
	t.Helper()
	limiter, err := ratelimit.New(ratelimit.Config{Limit: limit, Window: time.Minute, MaxClients: 100})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(limiter.Close)
	env := &testEnv{
		store:     twin.NewMemory(),
		minter:    &fakeMinter{},
		extractor: &fakeExtractor{},
	}
	s, err := New(Options{
		Twins:     env.store,
		Tokens:    env.minter,
		Extractor: env.extractor,
		Limiter:   limiter,
		Model:     "gpt-4o-realtime-preview",
		Voice:     "alloy",
	})
	if err != nil {
		t.Fatal(err)
	}
	env.handler = s.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"foo": "bar"})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := decode[map[string]string](t, w); got["foo"] != "bar" {
		t.Errorf("body = %v", got)
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without a twin store")
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 10)
	if w := env.do(t, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestToken(t *testing.T) {
	env := newTestEnv(t, 2)
	w := env.do(t, http.MethodGet, "/api/realtime/token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	got := decode[tokenResponse](t, w)
	if got.ClientSecret != "ek_test" || got.Model != "gpt-4o-realtime-preview" || got.Voice != "alloy" {
		t.Errorf("token = %+v", got)
	}
	if got.ExpiresAt != 1735725600000 {
		t.Errorf("expires_at = %d", got.ExpiresAt)
	}
	if env.minter.req.Model != "gpt-4o-realtime-preview" {
		t.Errorf("request model = %q", env.minter.req.Model)
	}

	env.do(t, http.MethodGet, "/api/realtime/token", "")
	w = env.do(t, http.MethodGet, "/api/realtime/token", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// Other routes are not rate limited.
	if w := env.do(t, http.MethodGet, "/api/interview/prompt", ""); w.Code != http.StatusOK {
		t.Errorf("prompt status = %d", w.Code)
	}
}

func TestTokenUpstreamError(t *testing.T) {
	env := newTestEnv(t, 10)
	env.minter.err = &realtime.Error{Message: "invalid key", HTTPStatus: 401}
	if w := env.do(t, http.MethodGet, "/api/realtime/token", ""); w.Code != http.StatusBadGateway {
		t.Errorf("status = %d", w.Code)
	}
}

func TestInterviewPrompt(t *testing.T) {
	env := newTestEnv(t, 10)
	w := env.do(t, http.MethodGet, "/api/interview/prompt?name=Anna", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[promptResponse](t, w)
	if got.FixedQuestions != len(prompts.DefaultQuestions) || got.FollowUpQuestions != 2 || got.MaxQuestions != 16 {
		t.Errorf("budget = %d/%d/%d", got.FixedQuestions, got.FollowUpQuestions, got.MaxQuestions)
	}
	if !strings.Contains(got.Instructions, "Ciao Anna!") {
		t.Error("instructions not personalized")
	}
}

func TestCreateAndGetTwin(t *testing.T) {
	env := newTestEnv(t, 10)
	body := `{
		"slug": " Anna-Rossi ",
		"email": "anna@example.com",
		"twin_profile": {"identity_summary": "Designer a Torino.", "do_not_say": ["Lavoro in Google"]},
		"documents": [{"name": "cv.txt", "text": "8 anni di esperienza"}]
	}`
	w := env.do(t, http.MethodPost, "/api/twins", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body)
	}
	created := decode[twin.Twin](t, w)
	if created.Slug != "anna-rossi" || created.DisplayName != "Anna Rossi" {
		t.Errorf("created = %s / %s", created.Slug, created.DisplayName)
	}
	if created.Transcript != twin.Placeholder || created.Profile.Methodology != twin.Placeholder {
		t.Errorf("placeholders missing: %+v", created)
	}
	if created.Documents != "=== cv.txt ===\n8 anni di esperienza" {
		t.Errorf("documents = %q", created.Documents)
	}

	w = env.do(t, http.MethodPost, "/api/twins", `{"slug": "anna-rossi"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/twins/anna-rossi", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	got := decode[twin.Twin](t, w)
	if got.ID != created.ID || got.Profile.IdentitySummary != "Designer a Torino." {
		t.Errorf("get = %+v", got)
	}

	w = env.do(t, http.MethodGet, "/api/twins/anna-rossi/prompt", "")
	if w.Code != http.StatusOK {
		t.Fatalf("prompt status = %d", w.Code)
	}
	prompt := decode[map[string]string](t, w)
	for _, want := range []string{"Anna Rossi", "Lavoro in Google", "8 anni di esperienza"} {
		if !strings.Contains(prompt["instructions"], want) {
			t.Errorf("twin prompt missing %q", want)
		}
	}
}

func TestCreateTwinInvalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"malformed", `{"slug":`, http.StatusBadRequest, msgInvalidBody},
		{"missing slug", `{}`, http.StatusBadRequest, msgSlugRequired},
		{"bad format", `{"slug": "a_b"}`, http.StatusBadRequest, msgSlugFormat},
		{"reserved", `{"slug": "admin"}`, http.StatusBadRequest, msgSlugReserved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 10)
			w := env.do(t, http.MethodPost, "/api/twins", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if got := decode[map[string]string](t, w); got["error"] != tt.msg {
				t.Errorf("error = %q, want %q", got["error"], tt.msg)
			}
		})
	}
}

func TestGetTwinMissing(t *testing.T) {
	env := newTestEnv(t, 10)
	for _, path := range []string{"/api/twins/nessuno", "/api/twins/nessuno/prompt"} {
		w := env.do(t, http.MethodGet, path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", path, w.Code)
		}
	}
}

func TestValidateSlug(t *testing.T) {
	env := newTestEnv(t, 10)
	tw, err := twin.New("preso", "", twin.Profile{}, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.store.Create(context.Background(), tw); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		slug      string
		valid     bool
		available bool
		reason    string
	}{
		{"", false, false, msgSlugRequired},
		{"ab", false, false, msgSlugFormat},
		{"api", false, false, msgSlugReserved},
		{"preso", true, false, msgSlugTaken},
		{"Libero-1", true, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/twins/validate-slug?slug="+tt.slug, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			got := decode[validateSlugResponse](t, w)
			if got.Valid != tt.valid || got.Available != tt.available || got.Reason != tt.reason {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestExtractProfile(t *testing.T) {
	env := newTestEnv(t, 10)
	transcript := strings.Repeat("UTENTE: Sono una designer di Torino.\n\n", 3)

	w := env.do(t, http.MethodPost, "/api/twins/extract-profile", `{"transcript": "troppo corto"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("short transcript status = %d", w.Code)
	}

	body, _ := json.Marshal(map[string]any{
		"transcript": transcript,
		"documents":  []prompts.Document{{Name: "cv", Text: "CV"}},
	})
	w = env.do(t, http.MethodPost, "/api/twins/extract-profile", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	got := decode[struct {
		Success bool         `json:"success"`
		Profile twin.Profile `json:"profile"`
	}](t, w)
	if !got.Success || got.Profile.IdentitySummary != "Designer." {
		t.Errorf("got %+v", got)
	}
	if env.extractor.transcript != transcript || env.extractor.documents != "=== cv ===\nCV" {
		t.Errorf("extractor saw %q / %q", env.extractor.transcript, env.extractor.documents)
	}

	env.extractor.err = errors.New("upstream down")
	w = env.do(t, http.MethodPost, "/api/twins/extract-profile", string(body))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("failure status = %d", w.Code)
	}
}
