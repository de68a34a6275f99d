package server

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultPreviewInterval paces the MJPEG preview at about 15 FPS.
const DefaultPreviewInterval = 66 * time.Millisecond

// PreviewHandler serves the pipeline's latest preview JPEG as an MJPEG stream.
type PreviewHandler struct {
	latest   func() []byte
	interval time.Duration
}

// NewPreviewHandler creates a PreviewHandler polling latest every interval.
func NewPreviewHandler(latest func() []byte, interval time.Duration) *PreviewHandler {
	if interval <= 0 {
		interval = DefaultPreviewInterval
	}
	return &PreviewHandler{latest: latest, interval: interval}
}

func sameFrame(a, b []byte) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}

// ServeHTTP streams MJPEG frames until the client disconnects. A frame is
// written only when the pipeline has stored a new one.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last []byte
	for {
		if frame := h.latest(); len(frame) > 0 && !sameFrame(frame, last) {
			last = frame
			if err := writePart(w, frame); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}

// snapshot handles GET /api/preview.jpg with the latest frame.
func snapshot(latest func() []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		frame := latest()
		if len(frame) == 0 {
			http.Error(w, "No preview available", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(frame)
	}
}
