package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ayusman/handsteer/internal/app"
	"github.com/ayusman/handsteer/internal/control"
	"github.com/ayusman/handsteer/internal/follow"
)

// fakePipeline is an in-memory Pipeline.
type fakePipeline struct {
	mu          sync.Mutex
	state       control.Snapshot
	stats       app.Stats
	enabled     bool
	preview     []byte
	reconfigs   []control.Config
	reconfigErr error
	running     bool
	starts      int
	startErr    error
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{enabled: true, running: true}
}

func (p *fakePipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *fakePipeline) Start(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts++
	if p.startErr != nil {
		return p.startErr
	}
	p.running = true
	return nil
}

func (p *fakePipeline) State() control.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *fakePipeline) Stats() app.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Enabled = p.enabled
	return s
}

func (p *fakePipeline) SetEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = v
}

func (p *fakePipeline) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *fakePipeline) Preview() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preview
}

func (p *fakePipeline) setPreview(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.preview = b
}

func (p *fakePipeline) Reconfigure(cfg control.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reconfigErr != nil {
		return p.reconfigErr
	}
	p.reconfigs = append(p.reconfigs, cfg)
	return nil
}

func serve(s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		rec := serve(s, http.MethodGet, "/api/health", "")

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
		if _, exists := response["running"]; exists {
			t.Error("no pipeline, no 'running' field")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
			rec := serve(s, method, "/api/health", "")
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_OptionalRoutes(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/state", "/api/enabled", "/api/profiles", "/api/settings", "/api/events", "/api/preview", "/api/object/finalize", "/"} {
		rec := serve(s, http.MethodGet, path, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d without dependencies, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_State(t *testing.T) {
	p := newFakePipeline()
	p.state = control.Snapshot{Ticks: 42, Detected: true, Armed: true}
	p.stats = app.Stats{Running: true, Processed: 40, Dropped: 2}

	pose := follow.Pose{Visible: true, X: 0.25, Scale: 1}
	s := New(Config{
		Pipeline: p,
		Hub:      NewHub(),
		Pose:     func() follow.Pose { return pose },
	})

	rec := serve(s, http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got stateResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Gesture.Ticks != 42 || !got.Gesture.Armed || !got.Gesture.Detected {
		t.Errorf("unexpected gesture state: %+v", got.Gesture)
	}
	if got.Stats.Processed != 40 || got.Stats.Dropped != 2 || !got.Stats.Running {
		t.Errorf("unexpected stats: %+v", got.Stats)
	}
	if got.Pose == nil || got.Pose.X != 0.25 {
		t.Errorf("unexpected pose: %+v", got.Pose)
	}

	rec = serve(s, http.MethodPost, "/api/state", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	rec = serve(s, http.MethodGet, "/api/health", "")
	var health map[string]any
	json.NewDecoder(rec.Body).Decode(&health)
	if health["running"] != true {
		t.Errorf("health should report running, got %v", health["running"])
	}
}

func TestServer_Enabled(t *testing.T) {
	p := newFakePipeline()
	s := New(Config{Pipeline: p})

	tests := []struct {
		method, body string
		wantStatus   int
		wantEnabled  bool
	}{
		{http.MethodGet, "", http.StatusOK, true},
		{http.MethodPut, `{"enabled": false}`, http.StatusOK, false},
		{http.MethodGet, "", http.StatusOK, false},
		{http.MethodPut, `{"enabled": `, http.StatusBadRequest, false},
		{http.MethodPut, `{"enabled": true}`, http.StatusOK, true},
		{http.MethodDelete, "", http.StatusMethodNotAllowed, true},
	}
	for i, tt := range tests {
		rec := serve(s, tt.method, "/api/enabled", tt.body)
		if rec.Code != tt.wantStatus {
			t.Errorf("step %d: expected status %d, got %d", i, tt.wantStatus, rec.Code)
		}
		if p.IsEnabled() != tt.wantEnabled {
			t.Errorf("step %d: enabled = %v, want %v", i, p.IsEnabled(), tt.wantEnabled)
		}
	}
}

func TestServer_EnableRestartsStoppedPipeline(t *testing.T) {
	p := newFakePipeline()
	p.running = false
	p.startErr = errors.New("no camera")
	s := New(Config{Pipeline: p})

	rec := serve(s, http.MethodPut, "/api/enabled", `{"enabled": false}`)
	if rec.Code != http.StatusOK || p.starts != 0 {
		t.Fatalf("disabling: status %d, starts %d", rec.Code, p.starts)
	}

	rec = serve(s, http.MethodPut, "/api/enabled", `{"enabled": true}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d while the camera is missing, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no camera") {
		t.Errorf("expected the start error in the body, got %q", rec.Body.String())
	}

	p.mu.Lock()
	p.startErr = nil
	p.mu.Unlock()
	rec = serve(s, http.MethodPut, "/api/enabled", `{"enabled": true}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d after the fix, got %d", http.StatusOK, rec.Code)
	}
	if !p.Running() || p.starts != 2 {
		t.Errorf("running = %v, starts = %d, want true, 2", p.Running(), p.starts)
	}

	rec = serve(s, http.MethodPut, "/api/enabled", `{"enabled": true}`)
	if rec.Code != http.StatusOK || p.starts != 2 {
		t.Errorf("a running pipeline is not started again: status %d, starts %d", rec.Code, p.starts)
	}
}

func TestServer_Finalize(t *testing.T) {
	calls := 0
	s := New(Config{Finalize: func() { calls++ }})

	if rec := serve(s, http.MethodGet, "/api/object/finalize", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
	if rec := serve(s, http.MethodPost, "/api/object/finalize", ""); rec.Code != http.StatusNoContent {
		t.Errorf("POST: expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if calls != 1 {
		t.Errorf("expected 1 finalize call, got %d", calls)
	}
}

func TestServer_PreviewSnapshot(t *testing.T) {
	p := newFakePipeline()
	s := New(Config{Pipeline: p})

	if rec := serve(s, http.MethodGet, "/api/preview.jpg", ""); rec.Code != http.StatusNotFound {
		t.Errorf("no frame yet: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	p.setPreview([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	rec := serve(s, http.MethodGet, "/api/preview.jpg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", ct)
	}
	if rec.Body.Len() != 4 {
		t.Errorf("expected 4 bytes, got %d", rec.Body.Len())
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	index := "<html><body>handsteer</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(index), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	script := "console.log('viewer')"
	if err := os.WriteFile(filepath.Join(tmpDir, "viewer.js"), []byte(script), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, index},
		{"/viewer.js", http.StatusOK, script},
		{"/missing.html", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(s, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
		})
	}
}
