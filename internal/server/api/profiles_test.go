package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/handsteer/internal/config"
	"github.com/ayusman/handsteer/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestProfileHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)

	rec := do(t, handler, http.MethodGet, "/api/profiles", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	empty := decode[listProfilesResponse](t, rec)
	if empty.Profiles == nil || len(empty.Profiles) != 0 {
		t.Errorf("expected an empty, non-nil list, got %#v", empty.Profiles)
	}

	if err := s.Profiles().Create(&store.Profile{Name: "desk"}); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	if err := s.Settings().Set(store.SettingActiveProfile, "desk"); err != nil {
		t.Fatalf("failed to set active profile: %v", err)
	}

	rec = do(t, handler, http.MethodGet, "/api/profiles", "")
	list := decode[listProfilesResponse](t, rec)
	if len(list.Profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(list.Profiles))
	}
	if list.Profiles[0].Name != "desk" || !list.Profiles[0].Active {
		t.Errorf("unexpected profile: %+v", list.Profiles[0])
	}
}

func TestProfileHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"minimal", `{"name": "desk"}`, http.StatusCreated},
		{"with config", `{"name": "couch", "description": "far", "config": {"gesture": {"pinch_on": 0.08}}}`, http.StatusCreated},
		{"missing name", `{"config": {}}`, http.StatusBadRequest},
		{"invalid json", `{"name": `, http.StatusBadRequest},
		{"invalid tuning", `{"name": "bad", "config": {"gesture": {"pinch_off": 0.01}}}`, http.StatusBadRequest},
		{"config not object", `{"name": "bad", "config": [1]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewProfileHandler(newTestStore(t), nil)
			rec := do(t, handler, http.MethodPost, "/api/profiles", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			resp := decode[profileResponse](t, rec)
			if resp.ID == "" {
				t.Error("expected an ID to be assigned")
			}
			if resp.Active {
				t.Error("a new profile is not active")
			}
		})
	}
}

func TestProfileHandler_CreateDuplicate(t *testing.T) {
	handler := NewProfileHandler(newTestStore(t), nil)

	if rec := do(t, handler, http.MethodPost, "/api/profiles", `{"name": "desk"}`); rec.Code != http.StatusCreated {
		t.Fatalf("first create: status %d", rec.Code)
	}
	rec := do(t, handler, http.MethodPost, "/api/profiles", `{"name": "desk"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestProfileHandler_GetUpdateDelete(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)

	p := &store.Profile{Name: "desk", Description: "seated"}
	if err := s.Profiles().Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	rec := do(t, handler, http.MethodGet, "/api/profiles/"+p.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := decode[profileResponse](t, rec); got.Description != "seated" {
		t.Errorf("GET: description = %q", got.Description)
	}

	rec = do(t, handler, http.MethodPut, "/api/profiles/"+p.ID, `{"name": "office", "config": {"emit": {"min_delta": 0.02}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	updated := decode[profileResponse](t, rec)
	if updated.Name != "office" || updated.Description != "seated" {
		t.Errorf("PUT: unexpected profile %+v", updated)
	}

	rec = do(t, handler, http.MethodPut, "/api/profiles/"+p.ID, `{"config": {"smoothing": {"move": 2}}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("PUT invalid config: expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	rec = do(t, handler, http.MethodDelete, "/api/profiles/"+p.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE: expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec = do(t, handler, method, "/api/profiles/"+p.ID, `{}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected status %d, got %d", method, http.StatusNotFound, rec.Code)
		}
	}
}

func TestProfileHandler_Activate(t *testing.T) {
	s := newTestStore(t)

	var applied *config.Tuning
	handler := NewProfileHandler(s, func(tn *config.Tuning) error {
		applied = tn
		return nil
	})

	p := &store.Profile{Name: "desk", Config: json.RawMessage(`{"gesture": {"pinch_on": 0.08}}`)}
	if err := s.Profiles().Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	rec := do(t, handler, http.MethodGet, "/api/profiles/"+p.ID+"/activate", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET activate: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	rec = do(t, handler, http.MethodPost, "/api/profiles/"+p.ID+"/activate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("activate: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if applied == nil || applied.Gesture.PinchOn != 0.08 {
		t.Errorf("tuning not applied: %+v", applied)
	}
	if applied.Gesture.PinchOff != config.Default().Gesture.PinchOff {
		t.Error("unspecified values should keep defaults")
	}
	if active, _ := s.Settings().Get(store.SettingActiveProfile); active != "desk" {
		t.Errorf("active profile = %q, want desk", active)
	}

	// renaming the active profile keeps it active and reapplies it
	applied = nil
	rec = do(t, handler, http.MethodPut, "/api/profiles/"+p.ID, `{"name": "office"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: status %d", rec.Code)
	}
	if !decode[profileResponse](t, rec).Active {
		t.Error("renamed profile should stay active")
	}
	if applied == nil {
		t.Error("updating the active profile should reapply it")
	}

	do(t, handler, http.MethodDelete, "/api/profiles/"+p.ID, "")
	if _, err := s.Settings().Get(store.SettingActiveProfile); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleting the active profile should clear the setting, got %v", err)
	}
}

func TestProfileHandler_ActivateFailure(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, func(*config.Tuning) error { return errors.New("pipeline busy") })

	p := &store.Profile{Name: "desk"}
	if err := s.Profiles().Create(p); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	rec := do(t, handler, http.MethodPost, "/api/profiles/"+p.ID+"/activate", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
	if _, err := s.Settings().Get(store.SettingActiveProfile); !errors.Is(err, store.ErrNotFound) {
		t.Error("a failed activation must not be recorded")
	}

	rec = do(t, handler, http.MethodPost, "/api/profiles/missing/activate", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing profile: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestProfileHandler_Routing(t *testing.T) {
	handler := NewProfileHandler(newTestStore(t), nil)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodPatch, "/api/profiles", http.StatusMethodNotAllowed},
		{http.MethodPatch, "/api/profiles/x", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/profiles/x/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := do(t, handler, tt.method, tt.path, "")
		if rec.Code != tt.want {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.want, rec.Code)
		}
	}
}
