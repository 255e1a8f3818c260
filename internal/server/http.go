package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/muurk/simplehome/internal/logging"
	"github.com/muurk/simplehome/internal/ssdp"
	"go.uber.org/zap"
)

// Routes besides the description document
const (
	StatusPath = "/status"
	EventsPath = "/events"
)

// engineView is the part of the engine the HTTP surface reads
type engineView interface {
	Description() ([]byte, error)
	Status() ssdp.Status
}

// NewHandler returns the HTTP handler serving the description document at
// "/"+schemaURL, the JSON status and the event stream.
func NewHandler(engine engineView, schemaURL string, hub *Hub) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/"+schemaURL, descriptionHandler(engine))
	mux.Handle(StatusPath, statusHandler(engine))
	if hub != nil {
		mux.Handle(EventsPath, hub)
	}
	return logRequests(mux)
}

// descriptionHandler serves the UPnP device description XML
func descriptionHandler(engine engineView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		doc, err := engine.Description()
		if errors.Is(err, ssdp.ErrNotStarted) {
			http.Error(w, "discovery session not running", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			logging.Error("Failed to render device description", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		h := w.Header()
		h.Set("Content-Type", "text/xml")
		h.Set("Connection", "close")
		h.Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(doc)
		}
	}
}

// statusHandler serves a JSON snapshot of the engine
func statusHandler(engine engineView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(engine.Status()); err != nil {
			logging.Debug("Failed to write status response", zap.Error(err))
		}
	}
}

// statusRecorder captures the response code for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Hijack lets the WebSocket upgrader take over the connection
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}
