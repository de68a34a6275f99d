package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/handsteer/internal/config"
	"github.com/ayusman/handsteer/internal/log"
	"github.com/ayusman/handsteer/internal/store"
)

// ActivateFunc applies a tuning to the running pipeline.
type ActivateFunc func(*config.Tuning) error

// ProfileHandler handles HTTP requests for calibration profiles.
//
// Routes:
//
//	GET    /api/profiles
//	POST   /api/profiles
//	GET    /api/profiles/{id}
//	PUT    /api/profiles/{id}
//	DELETE /api/profiles/{id}
//	POST   /api/profiles/{id}/activate
type ProfileHandler struct {
	store    *store.Store
	activate ActivateFunc
}

// NewProfileHandler creates a ProfileHandler. activate may be nil, in which
// case activation only records the active profile setting.
func NewProfileHandler(s *store.Store, activate ActivateFunc) *ProfileHandler {
	return &ProfileHandler{store: s, activate: activate}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, action, _ := strings.Cut(path, "/")
	switch action {
	case "":
	case "activate":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activateProfile(w, r, id)
		return
	default:
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type profileRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Config      json.RawMessage `json:"config"`
}

type profileResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
	Active      bool            `json:"active"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

func (h *ProfileHandler) activeName() string {
	name, _ := h.store.Settings().GetOr(store.SettingActiveProfile, "")
	return name
}

func toResponse(p *store.Profile, active string) profileResponse {
	return profileResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Config:      p.Config,
		Active:      active != "" && p.Name == active,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

// validConfig reports whether raw is a valid tuning document.
func validConfig(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	_, err := config.Parse(raw)
	return err
}

// list handles GET /api/profiles.
func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	active := h.activeName()
	response := listProfilesResponse{
		Profiles: make([]profileResponse, 0, len(profiles)),
	}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toResponse(p, active))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/profiles/{id}.
func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p, h.activeName()))
}

// create handles POST /api/profiles.
func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if err := validConfig(req.Config); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid config: "+err.Error())
		return
	}

	p := &store.Profile{Name: req.Name, Config: req.Config}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if err := h.store.Profiles().Create(p); err != nil {
		h.storeError(w, err, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(p, h.activeName()))
}

// update handles PUT /api/profiles/{id}. Omitted fields keep their values.
func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	active := h.activeName()
	wasActive := active != "" && p.Name == active

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if len(req.Config) > 0 {
		if err := validConfig(req.Config); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid config: "+err.Error())
			return
		}
		p.Config = req.Config
	}

	if err := h.store.Profiles().Update(p); err != nil {
		h.storeError(w, err, "Failed to update profile")
		return
	}

	if wasActive {
		// keep the setting pointing at the renamed profile and push the new tuning
		if err := h.store.Settings().Set(store.SettingActiveProfile, p.Name); err != nil {
			log.Warn("updating active profile setting", "error", err)
		}
		active = p.Name
		if err := h.apply(p); err != nil {
			log.Warn("reapplying active profile", "profile", p.Name, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, toResponse(p, active))
}

// delete handles DELETE /api/profiles/{id}.
func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}
	if err := h.store.Profiles().Delete(id); err != nil {
		h.storeError(w, err, "Failed to delete profile")
		return
	}
	if p.Name == h.activeName() {
		if err := h.store.Settings().Delete(store.SettingActiveProfile); err != nil {
			log.Warn("clearing active profile setting", "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// activateProfile handles POST /api/profiles/{id}/activate.
func (h *ProfileHandler) activateProfile(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get profile")
		return
	}

	if err := h.apply(p); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Failed to apply profile: "+err.Error())
		return
	}
	if err := h.store.Settings().Set(store.SettingActiveProfile, p.Name); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save active profile")
		return
	}

	log.Info("profile activated", "profile", p.Name)
	writeJSON(w, http.StatusOK, toResponse(p, p.Name))
}

func (h *ProfileHandler) apply(p *store.Profile) error {
	t, err := config.Parse(p.Config)
	if err != nil {
		return err
	}
	if h.activate == nil {
		return nil
	}
	return h.activate(t)
}

func (h *ProfileHandler) storeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, store.ErrDuplicateName):
		writeError(w, http.StatusConflict, "Profile name already exists")
	case errors.Is(err, store.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}
