package scribe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/recognition"
	recmock "github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/recognition/mock"
)

// recordingGen is a thread-safe TextGenerator stub.
type recordingGen struct {
	mu       sync.Mutex
	prompts  []string
	response string
	err      error
}

func (g *recordingGen) GenerateText(ctx context.Context, req generative.TextRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, req.Prompt)
	return g.response, g.err
}

func (g *recordingGen) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func (g *recordingGen) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newFeedSession(t *testing.T, gen TextGenerator, opts ...Option) (*Session, *recmock.Session) {
	t.Helper()
	feed := &recmock.Session{ResultsCh: make(chan recognition.Result, 32)}
	opts = append([]Option{WithDebounce(20 * time.Millisecond)}, opts...)
	s := NewSession(&recmock.Provider{Session: feed}, gen, opts...)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(s.Stop)
	return s, feed
}

func TestTranscriptKeepsOnlyFinalResults(t *testing.T) {
	t.Parallel()
	gen := &recordingGen{}
	s, feed := newFeedSession(t, gen)

	feed.ResultsCh <- recognition.Result{Text: "we need", IsFinal: false}
	feed.ResultsCh <- recognition.Result{Text: "we need to finalize", IsFinal: false}
	feed.ResultsCh <- recognition.Result{Text: "we need to finalize the budget", IsFinal: true}
	feed.ResultsCh <- recognition.Result{Text: "any objections", IsFinal: false}
	feed.ResultsCh <- recognition.Result{Text: "any objections?", IsFinal: true}

	waitFor(t, 2*time.Second, "transcript to reach 2 lines", func() bool {
		return len(s.Snapshot().Transcript) == 2
	})

	got := s.Snapshot().Transcript
	want := []string{"we need to finalize the budget.", "any objections?"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transcript[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDebouncedInsightRunsOnce(t *testing.T) {
	t.Parallel()
	gen := &recordingGen{response: "Action: confirm the budget owner."}
	s, feed := newFeedSession(t, gen, WithDebounce(50*time.Millisecond))

	lines := []string{
		"We need to finalize the budget before Friday",
		"Marketing asked for two more headcount",
		"Let us schedule a follow up with finance",
	}
	for _, l := range lines {
		feed.ResultsCh <- recognition.Result{Text: l, IsFinal: true}
	}
	waitFor(t, 2*time.Second, "transcript to fill", func() bool {
		return len(s.Snapshot().Transcript) == len(lines)
	})

	waitFor(t, 2*time.Second, "insight pass", func() bool { return gen.calls() >= 1 })
	// Quiet period stays quiet: no further passes without new appends.
	time.Sleep(150 * time.Millisecond)
	if got := gen.calls(); got != 1 {
		t.Errorf("insight passes = %d, want exactly 1", got)
	}
	if prompt := gen.lastPrompt(); !strings.Contains(prompt, "finalize the budget before Friday.") {
		t.Errorf("prompt %q does not contain the transcript window", prompt)
	}

	waitFor(t, 2*time.Second, "suggestion", func() bool {
		return len(s.Snapshot().Suggestions) == 1
	})
	if got := s.Snapshot().Suggestions[0]; got != "Action: confirm the budget owner." {
		t.Errorf("suggestion = %q", got)
	}
}

func TestInsightWindowIsLastFiveLines(t *testing.T) {
	t.Parallel()
	gen := &recordingGen{response: "noted"}
	s, feed := newFeedSession(t, gen)

	for _, l := range []string{
		"line one is about the roadmap review",
		"line two is about hiring plans",
		"line three is about the offsite agenda",
		"line four is about the release schedule",
		"line five is about customer feedback themes",
		"line six is about budget approvals",
	} {
		feed.ResultsCh <- recognition.Result{Text: l, IsFinal: true}
	}
	waitFor(t, 2*time.Second, "transcript to fill", func() bool {
		return len(s.Snapshot().Transcript) == 6
	})
	waitFor(t, 2*time.Second, "insight pass", func() bool { return gen.calls() >= 1 })

	prompt := gen.lastPrompt()
	if strings.Contains(prompt, "line one") {
		t.Errorf("prompt includes lines beyond the trailing window: %q", prompt)
	}
	if !strings.Contains(prompt, "line six") || !strings.Contains(prompt, "line two") {
		t.Errorf("prompt missing expected window lines: %q", prompt)
	}
}

func TestInsightSkippedOnShortWindow(t *testing.T) {
	t.Parallel()
	gen := &recordingGen{}
	s, feed := newFeedSession(t, gen)

	feed.ResultsCh <- recognition.Result{Text: "short", IsFinal: true}
	waitFor(t, 2*time.Second, "transcript append", func() bool {
		return len(s.Snapshot().Transcript) == 1
	})

	time.Sleep(150 * time.Millisecond)
	if gen.calls() != 0 {
		t.Errorf("insight passes = %d, want 0 for a window under the signal floor", gen.calls())
	}
}

func TestInsightFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	gen := &recordingGen{err: errors.New("backend down")}
	s, feed := newFeedSession(t, gen)

	feed.ResultsCh <- recognition.Result{Text: "this sentence is comfortably long enough to trigger an insight pass", IsFinal: true}
	waitFor(t, 2*time.Second, "insight pass", func() bool { return gen.calls() >= 1 })

	time.Sleep(50 * time.Millisecond)
	snap := s.Snapshot()
	if !snap.Listening {
		t.Error("session stopped listening after an insight failure")
	}
	if len(snap.Suggestions) != 0 {
		t.Errorf("suggestions = %v, want none", snap.Suggestions)
	}
}

func TestSuggestionCapAndDedupe(t *testing.T) {
	t.Parallel()
	s := NewSession(&recmock.Provider{}, &recordingGen{})

	for _, text := range []string{"s1", "s2", "s3", "s2", "s4", "s5", "s6", "s7"} {
		s.addSuggestion(text)
	}
	got := s.Snapshot().Suggestions
	if len(got) != maxSuggestions {
		t.Fatalf("suggestion count = %d, want %d", len(got), maxSuggestions)
	}
	seen := map[string]bool{}
	for _, sg := range got {
		if seen[sg] {
			t.Errorf("duplicate suggestion %q", sg)
		}
		seen[sg] = true
	}
	if got[0] != "s7" {
		t.Errorf("newest suggestion = %q, want s7 first", got[0])
	}
}

func TestAcceptSuggestion(t *testing.T) {
	t.Parallel()
	s := NewSession(&recmock.Provider{}, &recordingGen{})
	s.addSuggestion("Follow up with finance")
	s.addSuggestion("Book the offsite venue")

	item, err := s.AcceptSuggestion("Follow up with finance")
	if err != nil {
		t.Fatalf("AcceptSuggestion returned error: %v", err)
	}
	if item.Category != CategoryAction {
		t.Errorf("category = %q, want Action", item.Category)
	}
	if item.Text != "Follow up with finance" {
		t.Errorf("text = %q", item.Text)
	}

	snap := s.Snapshot()
	if len(snap.Suggestions) != 1 || snap.Suggestions[0] != "Book the offsite venue" {
		t.Errorf("suggestions after accept = %v", snap.Suggestions)
	}
	if len(snap.Tagged) != 1 {
		t.Errorf("tagged count = %d, want 1", len(snap.Tagged))
	}

	if _, err := s.AcceptSuggestion("Follow up with finance"); !errors.Is(err, ErrUnknownSuggestion) {
		t.Errorf("second accept err = %v, want ErrUnknownSuggestion", err)
	}
}

func TestTagLineMatchesAssignee(t *testing.T) {
	t.Parallel()
	gen := &recordingGen{}
	s, feed := newFeedSession(t, gen, WithParticipants([]string{"Alex Starr", "Casey Lane"}))

	feed.ResultsCh <- recognition.Result{Text: "Alex will send the invites", IsFinal: true}
	waitFor(t, 2*time.Second, "transcript append", func() bool {
		return len(s.Snapshot().Transcript) == 1
	})

	item, err := s.TagLine(0, CategoryDecision)
	if err != nil {
		t.Fatalf("TagLine returned error: %v", err)
	}
	if item.Category != CategoryDecision {
		t.Errorf("category = %q", item.Category)
	}
	if item.Assignee != "Alex Starr" {
		t.Errorf("assignee = %q, want Alex Starr", item.Assignee)
	}

	if _, err := s.TagLine(7, CategoryAction); err == nil {
		t.Error("expected error for out-of-range line")
	}
}

func TestStartClearsPreviousRun(t *testing.T) {
	t.Parallel()
	gen := &recordingGen{}
	feed := &recmock.Session{ResultsCh: make(chan recognition.Result, 8)}
	provider := &recmock.Provider{Session: feed}
	s := NewSession(provider, gen, WithDebounce(20*time.Millisecond))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	feed.ResultsCh <- recognition.Result{Text: "carry over line", IsFinal: true}
	waitFor(t, 2*time.Second, "transcript append", func() bool {
		return len(s.Snapshot().Transcript) == 1
	})
	s.addSuggestion("stale suggestion")
	if _, err := s.TagLine(0, CategoryAction); err != nil {
		t.Fatalf("TagLine returned error: %v", err)
	}
	s.Stop()

	// Captured state stays visible while stopped.
	snap := s.Snapshot()
	if len(snap.Transcript) != 1 || len(snap.Suggestions) != 1 || len(snap.Tagged) != 1 {
		t.Fatalf("stopped snapshot = %+v, want state retained", snap)
	}

	provider.Session = &recmock.Session{ResultsCh: make(chan recognition.Result, 8)}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart returned error: %v", err)
	}
	defer s.Stop()

	snap = s.Snapshot()
	if len(snap.Transcript) != 0 || len(snap.Suggestions) != 0 || len(snap.Tagged) != 0 {
		t.Errorf("restarted snapshot = %+v, want cleared state", snap)
	}
}

func TestStopCancelsPendingDebounce(t *testing.T) {
	t.Parallel()
	gen := &recordingGen{}
	feed := &recmock.Session{ResultsCh: make(chan recognition.Result, 8)}
	s := NewSession(&recmock.Provider{Session: feed}, gen, WithDebounce(200*time.Millisecond))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	feed.ResultsCh <- recognition.Result{Text: "this line is long enough to qualify for an insight pass later", IsFinal: true}
	waitFor(t, 2*time.Second, "transcript append", func() bool {
		return len(s.Snapshot().Transcript) == 1
	})
	s.Stop()

	time.Sleep(400 * time.Millisecond)
	if gen.calls() != 0 {
		t.Errorf("insight passes after stop = %d, want 0", gen.calls())
	}
}

func TestDegradedModeWithoutRecognition(t *testing.T) {
	t.Parallel()
	s := NewSession(&recmock.Provider{ListenErr: recognition.ErrUnavailable}, &recordingGen{})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop()

	snap := s.Snapshot()
	if !snap.Listening {
		t.Error("session should be listening in degraded mode")
	}
	if snap.TranscriptionAvailable {
		t.Error("TranscriptionAvailable = true, want false without a recognition source")
	}
}

func TestSingleInsightInFlight(t *testing.T) {
	t.Parallel()
	gen := &gatedGen{started: make(chan struct{}, 4), release: make(chan struct{})}
	s, feed := newFeedSession(t, gen)

	feed.ResultsCh <- recognition.Result{Text: "first long enough sentence to trigger the insight machinery", IsFinal: true}
	<-gen.started

	// A second quiet period while the first pass is still in flight must not
	// start another pass.
	feed.ResultsCh <- recognition.Result{Text: "second long enough sentence arriving during the in-flight pass", IsFinal: true}
	waitFor(t, 2*time.Second, "second transcript line", func() bool {
		return len(s.Snapshot().Transcript) == 2
	})
	time.Sleep(150 * time.Millisecond)
	if got := gen.calls(); got != 1 {
		t.Errorf("in-flight passes = %d, want 1", got)
	}
	close(gen.release)
}

// gatedGen blocks GenerateText until released.
type gatedGen struct {
	mu      sync.Mutex
	count   int
	started chan struct{}
	release chan struct{}
}

func (g *gatedGen) GenerateText(ctx context.Context, req generative.TextRequest) (string, error) {
	g.mu.Lock()
	g.count++
	g.mu.Unlock()
	g.started <- struct{}{}
	<-g.release
	return "", nil
}

func (g *gatedGen) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}
