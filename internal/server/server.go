// Package server exposes the dashboard over HTTP and WebSocket.
//
// The browser keeps only rendering duties; every stateful concern lives
// behind this surface:
//
//   - /api/users, /api/meetings, /api/actionpoints — seeded workspace data.
//   - /api/studio/* — AI task dispatch (multipart uploads for file tasks).
//   - /api/blobs/{id} — generated media payloads.
//   - /api/credentials/video — the separately granted video-generation key.
//   - /ws/chat — streaming assistant conversation, one session per socket.
//   - /ws/live — live meeting control plane with pushed state snapshots.
//   - /ws/live/feed — inbound browser speech-recognition events.
//   - /healthz, /readyz, /metrics — operational endpoints.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Oracle69digitalmarketing/meetwhiz/internal/credentials"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/health"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/media"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/observe"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/scribe"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/studio"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/workspace"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/recognition/wsfeed"
)

// ScribeFactory creates one live-meeting pipeline per /ws/live connection.
// The snapshot listener must be wired in by the factory.
type ScribeFactory func(onUpdate func(scribe.Snapshot)) *scribe.Session

// Config carries the collaborators a Server needs. Store, Dispatcher, Chat,
// Blobs, and NewScribe are required; the rest default sensibly.
type Config struct {
	Store      *workspace.MemStore
	Dispatcher *studio.Dispatcher
	Chat       generative.Client
	Blobs      *BlobStore
	NewScribe  ScribeFactory

	Credentials credentials.Store
	Feed        *wsfeed.Provider
	Health      *health.Handler
	Metrics     *observe.Metrics
	Logger      *slog.Logger
}

// Server is the HTTP/WebSocket surface. Create with [New], serve via
// [Server.Handler].
type Server struct {
	store     *workspace.MemStore
	studio    *studio.Dispatcher
	chat      generative.Client
	blobs     *BlobStore
	newScribe ScribeFactory
	creds     credentials.Store
	feed      *wsfeed.Provider
	metrics   *observe.Metrics
	logger    *slog.Logger

	mux *http.ServeMux
}

// New builds a Server and registers all routes.
func New(cfg Config) *Server {
	s := &Server{
		store:     cfg.Store,
		studio:    cfg.Dispatcher,
		chat:      cfg.Chat,
		blobs:     cfg.Blobs,
		newScribe: cfg.NewScribe,
		creds:     cfg.Credentials,
		feed:      cfg.Feed,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		mux:       http.NewServeMux(),
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.mux.HandleFunc("GET /api/users", s.listUsers)
	s.mux.HandleFunc("GET /api/users/{id}", s.getUser)
	s.mux.HandleFunc("GET /api/meetings", s.listMeetings)
	s.mux.HandleFunc("GET /api/meetings/{id}", s.getMeeting)
	s.mux.HandleFunc("GET /api/actionpoints", s.listActionPoints)
	s.mux.HandleFunc("PATCH /api/actionpoints/{id}/status", s.updateActionPointStatus)

	s.mux.HandleFunc("POST /api/studio/generate", s.generate)
	s.mux.HandleFunc("GET /api/studio/content", s.currentContent)
	s.mux.HandleFunc("GET /api/studio/tasks", s.listTasks)
	s.mux.HandleFunc("GET /api/blobs/{id}", s.serveBlob)

	if s.creds != nil {
		s.mux.HandleFunc("GET /api/credentials/video", s.videoKeyStatus)
		s.mux.HandleFunc("PUT /api/credentials/video", s.setVideoKey)
		s.mux.HandleFunc("DELETE /api/credentials/video", s.clearVideoKey)
	}

	s.mux.HandleFunc("GET /ws/chat", s.chatSocket)
	s.mux.HandleFunc("GET /ws/live", s.liveSocket)
	if s.feed != nil {
		s.mux.HandleFunc("GET /ws/live/feed", s.feedSocket)
	}

	if cfg.Health != nil {
		cfg.Health.Register(s.mux)
	}
	s.mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Handler returns the full route tree wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	return observe.Middleware(s.metrics)(s.mux)
}

// ── Workspace routes ──────────────────────────────────────────────────────────

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Users())
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.UserByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listMeetings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Meetings())
}

func (s *Server) getMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := s.store.MeetingByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "meeting not found")
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

func (s *Server) listActionPoints(w http.ResponseWriter, r *http.Request) {
	if assignee := r.URL.Query().Get("assignee"); assignee != "" {
		writeJSON(w, http.StatusOK, s.store.ActionPointsForAssignee(assignee))
		return
	}
	writeJSON(w, http.StatusOK, s.store.ActionPoints())
}

func (s *Server) updateActionPointStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ap, err := s.store.UpdateActionPointStatus(r.PathValue("id"), workspace.Status(body.Status))
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		writeError(w, http.StatusNotFound, "action point not found")
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusOK, ap)
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps dispatcher sentinels onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, studio.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, studio.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrUnsupportedInput):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, studio.ErrMissingCredential):
		return http.StatusForbidden
	case errors.Is(err, studio.ErrGenerationFailed), errors.Is(err, studio.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
