// Package scribe implements the live meeting pipeline: transcript capture
// from a recognition feed, debounced AI insight passes, and user tagging.
//
// One Session backs one live meeting view. Its lifecycle is a toggle,
// Stopped -> Listening -> Stopped; entering Listening clears all captured
// state from the previous run, leaving Listening keeps it visible.
//
// The transcript is append-only and holds finalized utterances exclusively;
// interim recognition text never enters it. Every append resets a single
// owned debounce timer, and when the timer fires an insight pass runs over
// the recent transcript window. At most one pass is in flight; new appends
// neither cancel nor re-queue it.
package scribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/recognition"
)

const (
	// defaultDebounce is the quiet period after the last transcript append
	// before an insight pass runs.
	defaultDebounce = 5 * time.Second

	// insightWindowLines is how many trailing transcript lines feed a pass.
	insightWindowLines = 5

	// minInsightChars skips passes over windows too short to carry signal.
	minInsightChars = 50

	// maxSuggestions bounds the suggestion list, newest first.
	maxSuggestions = 5

	insightPromptFormat = "From the following live meeting transcript, identify potential action items, key decisions, or unanswered questions. Be concise. Transcript: %q"
)

// ErrUnknownSuggestion is returned when accepting a suggestion that is not in
// the list (already accepted or truncated away).
var ErrUnknownSuggestion = errors.New("scribe: suggestion not in list")

// Category classifies a tagged item.
type Category string

const (
	CategoryAction   Category = "Action"
	CategoryDecision Category = "Decision"
	CategoryQuestion Category = "Question"
)

// ParseCategory converts a wire identifier into a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryAction, CategoryDecision, CategoryQuestion:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// TaggedItem is a transcript excerpt or accepted suggestion classified by the
// user. Items are immutable once created and never deleted.
type TaggedItem struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Category Category `json:"category"`

	// Assignee is the participant name phonetically matched in the text, if
	// any.
	Assignee string `json:"assignee,omitempty"`
}

// Snapshot is the full pipeline state published to listeners.
type Snapshot struct {
	Listening bool `json:"listening"`

	// TranscriptionAvailable is false when no recognition source exists and
	// the session runs transcription-free.
	TranscriptionAvailable bool `json:"transcription_available"`

	Transcript  []string     `json:"transcript"`
	Suggestions []string     `json:"suggestions"`
	Tagged      []TaggedItem `json:"tagged"`
}

// TextGenerator is the slice of the generative client the insight pass needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, req generative.TextRequest) (string, error)
}

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithDebounce overrides the insight quiet period. Default: 5s.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithParticipants sets the participant names used for assignee matching on
// tagged items.
func WithParticipants(names []string) Option {
	return func(s *Session) { s.participants = names }
}

// WithUpdateListener registers the snapshot callback, invoked after every
// state change. The callback must not call back into the Session.
func WithUpdateListener(fn func(Snapshot)) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// WithLogger overrides the session's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session is one live meeting pipeline. Safe for concurrent use.
type Session struct {
	recog        recognition.Provider
	gen          TextGenerator
	debounce     time.Duration
	participants []string
	onUpdate     func(Snapshot)
	logger       *slog.Logger

	insightInFlight atomic.Bool

	mu          sync.Mutex
	listening   bool
	available   bool
	transcript  []string
	suggestions []string
	tagged      []TaggedItem
	nextTagID   int
	timer       *time.Timer
	feed        recognition.Session
	insightCtx  context.Context
	cancelFeed  context.CancelFunc
}

// NewSession creates a stopped Session over the given recognition provider
// and text generator.
func NewSession(recog recognition.Provider, gen TextGenerator, opts ...Option) *Session {
	s := &Session{
		recog:    recog,
		gen:      gen,
		debounce: defaultDebounce,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start enters Listening: clears all captured state and opens a recognition
// feed. When no recognition source is available the session still starts,
// degraded to transcription-free mode. Starting an already listening session
// is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.listening {
		s.mu.Unlock()
		return nil
	}
	s.listening = true
	s.available = false
	s.transcript = nil
	s.suggestions = nil
	s.tagged = nil

	// Stopping Listening cancels the feed but never an in-flight insight
	// pass, so insight passes run on an uncancellable context.
	s.insightCtx = context.WithoutCancel(ctx)
	feedCtx, cancel := context.WithCancel(ctx)
	s.cancelFeed = cancel
	s.mu.Unlock()

	feed, err := s.recog.Listen(feedCtx)
	switch {
	case errors.Is(err, recognition.ErrUnavailable):
		s.logger.Info("recognition unavailable, running transcription-free")
		s.publish()
		return nil
	case err != nil:
		s.mu.Lock()
		s.listening = false
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("open recognition feed: %w", err)
	}

	s.mu.Lock()
	s.available = true
	s.feed = feed
	s.mu.Unlock()

	go s.consume(feed)
	s.publish()
	return nil
}

// Stop leaves Listening: the feed closes and the pending debounce timer is
// cancelled, but an in-flight insight pass runs to completion. Captured state
// stays visible until the next Start. Stopping a stopped session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.listening {
		s.mu.Unlock()
		return
	}
	s.listening = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	feed := s.feed
	s.feed = nil
	cancel := s.cancelFeed
	s.cancelFeed = nil
	s.mu.Unlock()

	if feed != nil {
		feed.Close()
	}
	if cancel != nil {
		cancel()
	}
	s.publish()
}

// Snapshot returns a copy of the pipeline state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TagLine classifies the transcript line at index as a new TaggedItem.
func (s *Session) TagLine(index int, category Category) (TaggedItem, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.transcript) {
		s.mu.Unlock()
		return TaggedItem{}, fmt.Errorf("transcript line %d out of range", index)
	}
	item := s.appendTaggedLocked(s.transcript[index], category)
	s.mu.Unlock()
	s.publish()
	return item, nil
}

// AcceptSuggestion converts the suggestion with the given text into an Action
// tagged item, removing it from the suggestion list.
func (s *Session) AcceptSuggestion(text string) (TaggedItem, error) {
	s.mu.Lock()
	idx := -1
	for i, sg := range s.suggestions {
		if sg == text {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return TaggedItem{}, ErrUnknownSuggestion
	}
	s.suggestions = append(s.suggestions[:idx], s.suggestions[idx+1:]...)
	item := s.appendTaggedLocked(text, CategoryAction)
	s.mu.Unlock()
	s.publish()
	return item, nil
}

// consume drains the recognition feed, appending finalized results only.
func (s *Session) consume(feed recognition.Session) {
	for result := range feed.Results() {
		if !result.IsFinal {
			continue
		}
		s.appendLine(result.Text)
	}
}

// appendLine commits one finalized utterance to the transcript and resets the
// debounce timer.
func (s *Session) appendLine(text string) {
	line := normalizeLine(text)
	if line == "" {
		return
	}

	s.mu.Lock()
	if !s.listening {
		s.mu.Unlock()
		return
	}
	s.transcript = append(s.transcript, line)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.runInsight)
	s.mu.Unlock()
	s.publish()
}

// runInsight fires when the quiet period elapses. It skips when a pass is
// already in flight or the window carries too little signal.
func (s *Session) runInsight() {
	if !s.insightInFlight.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	window := s.transcript
	if len(window) > insightWindowLines {
		window = window[len(window)-insightWindowLines:]
	}
	joined := strings.Join(window, " ")
	ctx := s.insightCtx
	s.mu.Unlock()

	if len(joined) < minInsightChars {
		s.insightInFlight.Store(false)
		return
	}

	go func() {
		defer s.insightInFlight.Store(false)

		text, err := s.gen.GenerateText(ctx, generative.TextRequest{
			Prompt: fmt.Sprintf(insightPromptFormat, joined),
		})
		if err != nil {
			// Insight failures never interrupt the listening session.
			s.logger.Warn("insight pass failed", "err", err)
			return
		}
		s.addSuggestion(text)
	}()
}

// addSuggestion prepends a non-empty, non-duplicate suggestion and truncates
// the list to its cap.
func (s *Session) addSuggestion(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	s.mu.Lock()
	for _, existing := range s.suggestions {
		if existing == text {
			s.mu.Unlock()
			return
		}
	}
	s.suggestions = append([]string{text}, s.suggestions...)
	if len(s.suggestions) > maxSuggestions {
		s.suggestions = s.suggestions[:maxSuggestions]
	}
	s.mu.Unlock()
	s.publish()
}

func (s *Session) appendTaggedLocked(text string, category Category) TaggedItem {
	s.nextTagID++
	item := TaggedItem{
		ID:       fmt.Sprintf("tag-%d", s.nextTagID),
		Text:     text,
		Category: category,
	}
	if assignee, ok := matchAssignee(text, s.participants); ok {
		item.Assignee = assignee
	}
	s.tagged = append(s.tagged, item)
	return item
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

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Listening:              s.listening,
		TranscriptionAvailable: s.available,
		Transcript:             make([]string, len(s.transcript)),
		Suggestions:            make([]string, len(s.suggestions)),
		Tagged:                 make([]TaggedItem, len(s.tagged)),
	}
	copy(snap.Transcript, s.transcript)
	copy(snap.Suggestions, s.suggestions)
	copy(snap.Tagged, s.tagged)
	return snap
}

// normalizeLine trims the utterance and guarantees sentence termination.
func normalizeLine(text string) string {
	line := strings.TrimSpace(text)
	if line == "" {
		return ""
	}
	switch line[len(line)-1] {
	case '.', '!', '?':
		return line
	}
	return line + "."
}
