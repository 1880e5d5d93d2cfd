// Package chat implements the assistant panel's streaming conversation.
//
// A Session owns one conversational context with the generative backend and
// the ordered message list rendered by the client. Sessions carry no memory
// across openings: the panel opens a fresh Session and discards it on close.
//
// Message ordering is append-only with two exceptions: the currently
// streaming assistant message mutates in place as deltas arrive, and the
// transient pending placeholder is resolved (not removed) once real content
// or the final error arrives.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
)

// SystemInstruction steers every assistant conversation.
const SystemInstruction = "You are a helpful assistant integrated into a dashboard application called MeetWhiz. Be concise and helpful."

const (
	greetingText = "Hello! How can I help you navigate MeetWhiz today?"
	errorText    = "Sorry, something went wrong. Please try again."
)

// ErrClosed is returned when sending on a closed session.
var ErrClosed = errors.New("chat: session closed")

// Sender identifies a message author.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one entry in the conversation.
type Message struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Sender Sender `json:"sender"`

	// Pending marks the assistant placeholder shown between submission and
	// the first delta (or the final error).
	Pending bool `json:"pending"`
}

// UpdateListener receives a snapshot of the full message list after every
// mutation. Snapshots are safe to retain.
type UpdateListener func([]Message)

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithUpdateListener registers the snapshot callback. The callback runs
// synchronously on the sending goroutine.
func WithUpdateListener(fn UpdateListener) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// WithLogger overrides the session's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session is one open assistant conversation. Safe for concurrent use;
// concurrent Send calls are serialized.
type Session struct {
	backend generative.ChatSession
	onUpdate UpdateListener
	logger   *slog.Logger

	sendMu sync.Mutex

	mu       sync.Mutex
	messages []Message
	nextID   int
	closed   bool
}

// Open creates a Session with its greeting message already present.
func Open(ctx context.Context, client generative.Client, opts ...Option) (*Session, error) {
	backend, err := client.OpenChat(ctx, SystemInstruction)
	if err != nil {
		return nil, fmt.Errorf("open chat backend: %w", err)
	}
	s := &Session{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.append(Message{Sender: SenderAssistant, Text: greetingText})
	s.publish()
	return s, nil
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Send submits one user message and streams the assistant reply, republishing
// the message list after every delta. Blank input is ignored. Backend
// failures are converted into a fixed error message in place of the reply and
// are not returned.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	// The user message is visible before any assistant content; the pending
	// placeholder follows it immediately.
	s.append(Message{Sender: SenderUser, Text: text})
	placeholderID := s.append(Message{Sender: SenderAssistant, Pending: true})
	s.publish()

	deltas, err := s.backend.Send(ctx, text)
	if err != nil {
		s.logger.Warn("chat send failed", "err", err)
		s.resolve(placeholderID, errorText)
		s.publish()
		return nil
	}

	var reply strings.Builder
	for delta := range deltas {
		if delta.FinishReason == "error" {
			s.logger.Warn("chat stream failed", "err", delta.Text)
			s.resolve(placeholderID, errorText)
			s.publish()
			return nil
		}
		if delta.Text == "" {
			continue
		}
		reply.WriteString(delta.Text)
		s.resolve(placeholderID, reply.String())
		s.publish()
	}

	if reply.Len() == 0 {
		// Stream ended without content; resolve the placeholder anyway so it
		// does not linger.
		s.resolve(placeholderID, errorText)
		s.publish()
	}
	return nil
}

// Close discards the conversation. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.backend.Close()
}

// append adds a message and returns its assigned ID.
func (s *Session) append(m Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = fmt.Sprintf("msg-%d", s.nextID)
	s.messages = append(s.messages, m)
	return m.ID
}

// resolve replaces the text of the identified message and clears its pending
// flag.
func (s *Session) resolve(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Text = text
			s.messages[i].Pending = false
			return
		}
	}
}

func (s *Session) publish() {
	if s.onUpdate == nil {
		return
	}
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.onUpdate(snapshot)
}

func (s *Session) snapshotLocked() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
