package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/version"
)

// HealthResponse is returned by the public health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is returned by the authenticated status endpoint.
type StatusResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version"`
	Commit   string                 `json:"commit,omitempty"`
	UptimeMs int64                  `json:"uptimeMs"`
	Channels []domain.ChannelStatus `json:"channels"`
	Extra    map[string]any         `json:"extra,omitempty"`
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Path   string `json:"path,omitempty"`
}

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /status", s.requireToken(http.HandlerFunc(s.handleStatus)))

	for _, m := range s.mounts {
		h := m.handler
		if m.private {
			h = s.requireToken(h)
		}
		mux.Handle(m.path, h)
		s.log.Debug().Str("path", m.path).Bool("private", m.private).Msg("mounted handler")
	}

	mux.HandleFunc("/", handleNotFound)
}

// handleHealth reports liveness only; details live behind /status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:   "ok",
		Version:  version.Version,
		Commit:   version.Commit,
		UptimeMs: s.uptime().Milliseconds(),
		Channels: []domain.ChannelStatus{},
	}
	if s.channels != nil {
		resp.Channels = s.channels.Status()
	}
	if s.status != nil {
		resp.Extra = s.status(r.Context())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Path: r.URL.Path})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
