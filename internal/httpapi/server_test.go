package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mlbridge/pkg/status"
	"mlbridge/pkg/types"
)

type fakeService struct {
	models []*types.ModelEntry
	loras  []*types.LoraEntry
	ready  bool
	genErr error
	tokens []string
}

func (s *fakeService) Models() []*types.ModelEntry { return s.models }
func (s *fakeService) Loras() []*types.LoraEntry   { return s.loras }
func (s *fakeService) Ready() bool                 { return s.ready }

func (s *fakeService) Status() StatusResponse {
	return StatusResponse{EngineBuilt: false, LLMState: "loaded", ModelsRegistered: len(s.models)}
}

func (s *fakeService) Generate(ctx context.Context, req GenerateRequest, w io.Writer, flush func()) error {
	if s.genErr != nil {
		return s.genErr
	}
	for _, tok := range s.tokens {
		fmt.Fprintf(w, "{\"token\":%q}\n", tok)
		if flush != nil {
			flush()
		}
	}
	fmt.Fprintf(w, "{\"done\":true}\n")
	return nil
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	svc := &fakeService{ready: false}
	h := NewMux(svc)
	if rec := doRequest(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec := doRequest(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz while loading = %d", rec.Code)
	}
	svc.ready = true
	if rec := doRequest(t, h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz when ready = %d", rec.Code)
	}
}

func TestModelsAndStatus(t *testing.T) {
	svc := &fakeService{models: []*types.ModelEntry{{ModelID: "m1", Name: "Model One"}}}
	h := NewMux(svc)

	rec := doRequest(t, h, http.MethodGet, "/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("models = %d", rec.Code)
	}
	var body struct {
		Models []*types.ModelEntry `json:"models"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Models) != 1 || body.Models[0].ModelID != "m1" {
		t.Fatalf("unexpected models: %+v", body.Models)
	}

	rec = doRequest(t, h, http.MethodGet, "/status", "")
	var st StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.ModelsRegistered != 1 || st.LLMState != "loaded" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestGenerateStreamsNDJSON(t *testing.T) {
	svc := &fakeService{ready: true, tokens: []string{"hi", " there"}}
	h := NewMux(svc)
	rec := doRequest(t, h, http.MethodPost, "/generate", `{"prompt":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 NDJSON lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[2], `"done":true`) {
		t.Fatalf("missing final line: %q", lines[2])
	}
}

func TestGenerateValidation(t *testing.T) {
	h := NewMux(&fakeService{})
	rec := doRequest(t, h, http.MethodPost, "/generate", `{"prompt":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank prompt = %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodPost, "/generate", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"prompt":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("wrong content type = %d", w.Code)
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{status.NotFound, http.StatusNotFound},
		{status.InvalidState, http.StatusTooManyRequests},
		{status.InvalidArgument, http.StatusBadRequest},
		{status.InvalidHandle, http.StatusServiceUnavailable},
		{fmt.Errorf("session exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := NewMux(&fakeService{genErr: tc.err})
		rec := doRequest(t, h, http.MethodPost, "/generate", `{"prompt":"hello"}`)
		if rec.Code != tc.want {
			t.Fatalf("%v -> %d, want %d", tc.err, rec.Code, tc.want)
		}
		var er ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if er.Code != tc.want {
			t.Fatalf("payload code = %d, want %d", er.Code, tc.want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(&fakeService{})
	rec := doRequest(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mlbridge_http_requests_total") {
		t.Fatalf("missing request counter in metrics output")
	}
}
