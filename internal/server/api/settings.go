package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/handsteer/internal/store"
)

// SettingsHandler exposes key-value settings.
//
// Routes:
//
//	GET    /api/settings
//	GET    /api/settings/{key}
//	PUT    /api/settings/{key}
//	DELETE /api/settings/{key}
type SettingsHandler struct {
	store *store.Store
}

// NewSettingsHandler creates a SettingsHandler with the given store.
func NewSettingsHandler(s *store.Store) *SettingsHandler {
	return &SettingsHandler{store: s}
}

type settingBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/settings"), "/")
	settings := h.store.Settings()

	if key == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		all, err := settings.All()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list settings")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"settings": all})
		return
	}

	switch r.Method {
	case http.MethodGet:
		v, err := settings.Get(key)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get setting")
			return
		}
		writeJSON(w, http.StatusOK, settingBody{Key: key, Value: v})

	case http.MethodPut:
		var req settingBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if key == store.SettingActiveProfile {
			writeError(w, http.StatusBadRequest, "Use POST /api/profiles/{id}/activate")
			return
		}
		if err := settings.Set(key, req.Value); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save setting")
			return
		}
		writeJSON(w, http.StatusOK, settingBody{Key: key, Value: req.Value})

	case http.MethodDelete:
		if err := settings.Delete(key); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to delete setting")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
