package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Oracle69digitalmarketing/meetwhiz/internal/chat"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/scribe"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/workspace"
)

// socketWriter serializes JSON pushes onto one WebSocket connection. State
// snapshots originate from several goroutines (command handling, the
// recognition consumer, insight passes), so writes go through a mutex.
type socketWriter struct {
	conn   *websocket.Conn
	ctx    context.Context
	logger *slog.Logger

	mu sync.Mutex
}

// push writes one JSON message. Failures are logged, not surfaced: a dropped
// snapshot only means the client disconnected.
func (w *socketWriter) push(v any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := wsjson.Write(w.ctx, w.conn, v); err != nil {
		w.logger.Debug("socket push failed", "err", err)
	}
}

// ── Chat socket ───────────────────────────────────────────────────────────────

// chatInput is one inbound chat message from the client.
type chatInput struct {
	Text string `json:"text"`
}

// chatPush carries the full conversation snapshot to the client.
type chatPush struct {
	Type     string         `json:"type"`
	Messages []chat.Message `json:"messages"`
}

// chatSocket handles GET /ws/chat. One chat session lives exactly as long as
// the socket; closing the panel discards the conversation.
func (s *Server) chatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Debug("chat socket accept failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "chat session ended")

	ctx := r.Context()
	s.metrics.ActiveChatSessions.Add(ctx, 1)
	defer s.metrics.ActiveChatSessions.Add(ctx, -1)

	writer := &socketWriter{conn: conn, ctx: ctx, logger: s.logger}
	sess, err := chat.Open(ctx, s.chat,
		chat.WithUpdateListener(func(msgs []chat.Message) {
			writer.push(chatPush{Type: "messages", Messages: msgs})
		}),
		chat.WithLogger(s.logger),
	)
	if err != nil {
		s.logger.Warn("chat session open failed", "err", err)
		conn.Close(websocket.StatusInternalError, "assistant unavailable")
		return
	}
	defer sess.Close()

	for {
		var in chatInput
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				conn.Close(websocket.StatusNormalClosure, "")
			}
			return
		}
		if err := sess.Send(ctx, in.Text); errors.Is(err, chat.ErrClosed) {
			return
		}
	}
}

// ── Live meeting socket ───────────────────────────────────────────────────────

// liveCommand is one inbound control message for the live meeting pipeline.
type liveCommand struct {
	// Action is one of "start", "stop", "tag", "accept".
	Action string `json:"action"`

	// Line indexes the transcript for "tag".
	Line int `json:"line"`

	// Category is the tag classification for "tag".
	Category string `json:"category"`

	// Text identifies the suggestion for "accept".
	Text string `json:"text"`
}

// livePush carries a state snapshot or a command error to the client.
type livePush struct {
	Type     string           `json:"type"`
	Snapshot *scribe.Snapshot `json:"snapshot,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// liveSocket handles GET /ws/live. Each connection owns one pipeline
// session; the pipeline stops when the socket closes.
func (s *Server) liveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Debug("live socket accept failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "live session ended")

	ctx := r.Context()
	s.metrics.ActiveScribeSessions.Add(ctx, 1)
	defer s.metrics.ActiveScribeSessions.Add(ctx, -1)

	writer := &socketWriter{conn: conn, ctx: ctx, logger: s.logger}
	sess := s.newScribe(func(snap scribe.Snapshot) {
		writer.push(livePush{Type: "snapshot", Snapshot: &snap})
	})
	defer sess.Stop()

	// Initial snapshot so the client renders the stopped state immediately.
	snap := sess.Snapshot()
	writer.push(livePush{Type: "snapshot", Snapshot: &snap})

	for {
		var cmd liveCommand
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				conn.Close(websocket.StatusNormalClosure, "")
			}
			return
		}
		if err := s.handleLiveCommand(ctx, sess, cmd); err != nil {
			writer.push(livePush{Type: "error", Error: err.Error()})
		}
	}
}

func (s *Server) handleLiveCommand(ctx context.Context, sess *scribe.Session, cmd liveCommand) error {
	switch cmd.Action {
	case "start":
		return sess.Start(ctx)
	case "stop":
		sess.Stop()
		return nil
	case "tag":
		category, err := scribe.ParseCategory(cmd.Category)
		if err != nil {
			return err
		}
		_, err = sess.TagLine(cmd.Line, category)
		return err
	case "accept":
		item, err := sess.AcceptSuggestion(cmd.Text)
		if err != nil {
			return err
		}
		// Accepted suggestions become workspace action points so they
		// survive the live session.
		s.store.AddActionPoint(workspace.ActionPoint{
			Title:      item.Text,
			AssignedTo: item.Assignee,
		})
		s.metrics.RecordSuggestion(ctx, "accepted")
		return nil
	default:
		return errors.New("unknown action " + cmd.Action)
	}
}

// ── Recognition feed socket ───────────────────────────────────────────────────

// feedSocket handles GET /ws/live/feed: the browser's speech recognition
// engine streams its result events here. The connection is handed to the
// feed provider, which pairs it with a listening pipeline.
func (s *Server) feedSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Debug("feed socket accept failed", "err", err)
		return
	}
	s.feed.Connect(r.Context(), conn)
}
