// Package server provides the handsteer HTTP server: pipeline state, profile
// management, a websocket event stream and the camera preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ayusman/handsteer/internal/app"
	"github.com/ayusman/handsteer/internal/config"
	"github.com/ayusman/handsteer/internal/control"
	"github.com/ayusman/handsteer/internal/follow"
	"github.com/ayusman/handsteer/internal/log"
	"github.com/ayusman/handsteer/internal/server/api"
	"github.com/ayusman/handsteer/internal/store"
)

// Pipeline is the part of app.App the server uses.
type Pipeline interface {
	State() control.Snapshot
	Stats() app.Stats
	SetEnabled(bool)
	IsEnabled() bool
	Preview() []byte
	Reconfigure(control.Config) error
	Running() bool
	Start(context.Context) error
}

var _ Pipeline = (*app.App)(nil)

// Config holds the server configuration. Every dependency is optional; the
// routes that need a missing one are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Pipeline  Pipeline
	Hub       *Hub
	// Pose returns the current follow pose.
	Pose func() follow.Pose
	// Finalize ends the followed object instance.
	Finalize func()
	// PreviewInterval paces the MJPEG stream.
	PreviewInterval time.Duration
}

// Server represents the HTTP server for handsteer.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	// runCtx bounds a pipeline restarted over HTTP; set by Serve.
	runCtx context.Context
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		runCtx: context.Background(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Pipeline != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
		s.mux.Handle("/api/preview", NewPreviewHandler(s.config.Pipeline.Preview, s.config.PreviewInterval))
		s.mux.Handle("/api/preview.jpg", snapshot(s.config.Pipeline.Preview))
	}

	if s.config.Store != nil {
		profiles := api.NewProfileHandler(s.config.Store, s.activate)
		s.mux.Handle("/api/profiles", profiles)
		s.mux.Handle("/api/profiles/", profiles)

		settings := api.NewSettingsHandler(s.config.Store)
		s.mux.Handle("/api/settings", settings)
		s.mux.Handle("/api/settings/", settings)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/events", s.config.Hub)
	}

	if s.config.Finalize != nil {
		s.mux.HandleFunc("/api/object/finalize", s.handleFinalize)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// activate pushes a profile's control calibration into the running pipeline.
func (s *Server) activate(t *config.Tuning) error {
	if s.config.Pipeline == nil {
		return nil
	}
	cc, err := t.ControlConfig()
	if err != nil {
		return err
	}
	return s.config.Pipeline.Reconfigure(cc)
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("encoding response", "error", err)
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Pipeline != nil {
		response["running"] = s.config.Pipeline.Stats().Running
	}
	writeJSON(w, http.StatusOK, response)
}

type stateResponse struct {
	Gesture control.Snapshot `json:"gesture"`
	Stats   app.Stats        `json:"stats"`
	Pose    *follow.Pose     `json:"pose,omitempty"`
	Clients int              `json:"clients"`
}

// handleState handles GET /api/state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := stateResponse{
		Gesture: s.config.Pipeline.State(),
		Stats:   s.config.Pipeline.Stats(),
	}
	if s.config.Pose != nil {
		p := s.config.Pose()
		resp.Pose = &p
	}
	if s.config.Hub != nil {
		resp.Clients = s.config.Hub.Clients()
	}
	writeJSON(w, http.StatusOK, resp)
}

type enabledBody struct {
	Enabled bool `json:"enabled"`
}

// handleEnabled handles GET and PUT /api/enabled.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req enabledBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
			return
		}
		s.config.Pipeline.SetEnabled(req.Enabled)
		// enabling a pipeline that failed to start is an explicit restart
		if req.Enabled && !s.config.Pipeline.Running() {
			if err := s.config.Pipeline.Start(s.runCtx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
				return
			}
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, enabledBody{Enabled: s.config.Pipeline.IsEnabled()})
}

// handleFinalize handles POST /api/object/finalize.
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.config.Finalize()
	w.WriteHeader(http.StatusNoContent)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.runCtx = ctx
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	log.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
