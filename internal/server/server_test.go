package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodify/pkg/buildinfo"
	"github.com/matzehuels/nodify/pkg/cache"
	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/graph"
	"github.com/matzehuels/nodify/pkg/observability"
	"github.com/matzehuels/nodify/pkg/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	s := New(pipeline.NewRunner(nil, nil, logger), nil, pipeline.Options{}, logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/compile", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/compile: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("GET /healthz = %d %q, want 200 ok", resp.StatusCode, body)
	}
}

func TestVersion(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/version")
	if err != nil {
		t.Fatalf("GET /v1/version: %v", err)
	}
	defer resp.Body.Close()

	var info buildinfo.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.GoVersion == "" {
		t.Error("go_version missing")
	}
}

func TestCompile(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, `{"source": "a = 2 + 3\na * 4", "frame": true}`)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	doc, err := graph.ReadJSON(resp.Body)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if doc.SessionID == "" || doc.SessionID != resp.Header.Get("X-Session-ID") {
		t.Errorf("SessionID = %q, header %q", doc.SessionID, resp.Header.Get("X-Session-ID"))
	}
	if got := resp.Header.Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}
	if len(doc.Lines) != 1 || doc.Lines[0].Number != 2 {
		t.Fatalf("Lines = %+v, want line 2 only", doc.Lines)
	}
	if frame, ok := doc.Node(doc.Lines[0].Frame); !ok || frame.Label != "Line 2" {
		t.Errorf("frame = %+v, want label Line 2", frame)
	}
}

func TestCompileCacheHeaders(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	logger := log.New(io.Discard)
	s := New(pipeline.NewRunner(fc, nil, logger), nil, pipeline.Options{}, logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	const body = `{"source": "a = 2 + 3\na * 4"}`
	first := post(t, ts, body)
	second := post(t, ts, body)
	if first.StatusCode != http.StatusOK || second.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, %d, want 200", first.StatusCode, second.StatusCode)
	}

	tests := []struct {
		resp *http.Response
		want string
	}{
		{first, "MISS"},
		{second, "HIT"},
	}
	for i, tt := range tests {
		if got := tt.resp.Header.Get("X-Cache"); got != tt.want {
			t.Errorf("request %d: X-Cache = %q, want %q", i+1, got, tt.want)
		}
	}

	// A cached document keeps the session that compiled it.
	if a, b := first.Header.Get("X-Session-ID"), second.Header.Get("X-Session-ID"); a == "" || a != b {
		t.Errorf("X-Session-ID = %q then %q, want the same non-empty id", a, b)
	}
}

func TestCompileDOT(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts, `{"source": "sqrt(16)", "format": "DOT"}`)

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(body, []byte("digraph")) {
		t.Errorf("body does not start with digraph:\n%s", body)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
		line   int
	}{
		{"unknown function", `{"source": "x = 1\nnope(x)"}`, http.StatusUnprocessableEntity, errors.ErrCodeUnknownFunction, 2},
		{"double assignment", `{"source": "a = b = 1"}`, http.StatusUnprocessableEntity, errors.ErrCodeAssignment, 1},
		{"empty source", `{"source": ""}`, http.StatusBadRequest, errors.ErrCodeInvalidInput, 0},
		{"bad alignment", `{"source": "1", "alignment": "LEFT"}`, http.StatusBadRequest, errors.ErrCodeInvalidAlignment, 0},
		{"bad format", `{"source": "1", "format": "png"}`, http.StatusBadRequest, errors.ErrCodeInvalidFormat, 0},
		{"unknown field", `{"source": "1", "colour": "red"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput, 0},
		{"malformed", `{"source":`, http.StatusBadRequest, errors.ErrCodeInvalidInput, 0},
	}

	ts := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var er ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if er.Code != tt.code || er.Line != tt.line {
				t.Errorf("error = %+v, want code %s line %d", er, tt.code, tt.line)
			}
			if er.RequestID == "" {
				t.Error("request_id missing")
			}
		})
	}
}

func TestFunctions(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/functions")
	if err != nil {
		t.Fatalf("GET /v1/functions: %v", err)
	}
	defer resp.Body.Close()

	var fns []FunctionInfo
	if err := json.NewDecoder(resp.Body).Decode(&fns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := map[string]bool{}
	for _, f := range fns {
		found[f.Name] = true
		if f.Namespace == "internal" {
			t.Errorf("internal entry %s listed", f.Name)
		}
	}
	for _, name := range []string{"add", "sqrt", "output"} {
		if !found[name] {
			t.Errorf("function %s not listed", name)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.Syntax("bad"), http.StatusUnprocessableEntity},
		{errors.AtLine(3, errors.New(errors.ErrCodeScope, "scope")), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeInvalidInput, "empty"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeFileNotFound, "gone"), http.StatusNotFound},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

type recordingHooks struct {
	observability.NoopServerHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestServerHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetServerHooks(hooks)
	defer observability.Reset()

	ts := newTestServer(t)
	post(t, ts, `{"source": "nope()"}`)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.statuses) != 1 || hooks.statuses[0] != http.StatusUnprocessableEntity {
		t.Errorf("hook statuses = %v, want [422]", hooks.statuses)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(nil, nil, pipeline.Options{}, log.New(io.Discard))

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
