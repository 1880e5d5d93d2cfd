package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative/mock"
)

func TestOpenSeedsGreeting(t *testing.T) {
	t.Parallel()
	client := &mock.Client{}
	s, err := Open(context.Background(), client)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer s.Close()

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Sender != SenderAssistant || msgs[0].Pending {
		t.Errorf("greeting = %+v", msgs[0])
	}
	if msgs[0].Text != "Hello! How can I help you navigate MeetWhiz today?" {
		t.Errorf("greeting text = %q", msgs[0].Text)
	}
	if len(client.ChatInstructions) != 1 || client.ChatInstructions[0] != SystemInstruction {
		t.Errorf("chat opened with instructions %v", client.ChatInstructions)
	}
}

func TestSendStreamsDeltas(t *testing.T) {
	t.Parallel()
	backend := &mock.ChatSession{Deltas: []generative.Delta{
		{Text: "The dash"},
		{Text: "board shows "},
		{Text: "your meetings.", FinishReason: "stop"},
	}}
	var snapshots [][]Message
	s, err := Open(context.Background(), &mock.Client{Chat: backend},
		WithUpdateListener(func(msgs []Message) { snapshots = append(snapshots, msgs) }))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer s.Close()

	if err := s.Send(context.Background(), "What does the dashboard show?"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want greeting + user + assistant", len(msgs))
	}
	if msgs[1].Sender != SenderUser || msgs[1].Text != "What does the dashboard show?" {
		t.Errorf("user message = %+v", msgs[1])
	}
	final := msgs[2]
	if final.Pending {
		t.Error("assistant message still pending after stream end")
	}
	if final.Text != "The dashboard shows your meetings." {
		t.Errorf("assistant text = %q", final.Text)
	}

	// Snapshot sequence: greeting, user+placeholder, then one per delta.
	if len(snapshots) != 5 {
		t.Fatalf("got %d snapshots, want 5", len(snapshots))
	}
	afterSubmit := snapshots[1]
	if !afterSubmit[2].Pending || afterSubmit[2].Text != "" {
		t.Errorf("placeholder after submit = %+v", afterSubmit[2])
	}
	afterFirstDelta := snapshots[2]
	if afterFirstDelta[2].Pending {
		t.Error("placeholder not resolved by first delta")
	}
	if afterFirstDelta[2].Text != "The dash" {
		t.Errorf("cumulative text after first delta = %q", afterFirstDelta[2].Text)
	}
}

func TestSendIgnoresBlankInput(t *testing.T) {
	t.Parallel()
	s, err := Open(context.Background(), &mock.Client{})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer s.Close()

	if err := s.Send(context.Background(), "   \n "); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if got := len(s.Messages()); got != 1 {
		t.Errorf("got %d messages, want greeting only", got)
	}
}

func TestSendBackendFailure(t *testing.T) {
	t.Parallel()
	backend := &mock.ChatSession{SendErr: errors.New("quota exceeded")}
	s, err := Open(context.Background(), &mock.Client{Chat: backend})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer s.Close()

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	msgs := s.Messages()
	final := msgs[len(msgs)-1]
	if final.Pending {
		t.Error("placeholder still pending after failure")
	}
	if final.Text != "Sorry, something went wrong. Please try again." {
		t.Errorf("failure text = %q", final.Text)
	}
}

func TestSendMidStreamErrorDiscardsPartial(t *testing.T) {
	t.Parallel()
	backend := &mock.ChatSession{Deltas: []generative.Delta{
		{Text: "Here is the beginning of"},
		{Text: "stream reset", FinishReason: "error"},
	}}
	s, err := Open(context.Background(), &mock.Client{Chat: backend})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer s.Close()

	if err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	msgs := s.Messages()
	final := msgs[len(msgs)-1]
	if final.Text != "Sorry, something went wrong. Please try again." {
		t.Errorf("final text = %q, want the fixed error message (partial discarded)", final.Text)
	}
}

func TestSendAfterClose(t *testing.T) {
	t.Parallel()
	backend := &mock.ChatSession{}
	s, err := Open(context.Background(), &mock.Client{Chat: backend})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if backend.CloseCallCount != 1 {
		t.Errorf("backend CloseCallCount = %d, want 1", backend.CloseCallCount)
	}
	if err := s.Send(context.Background(), "hello"); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after close err = %v, want ErrClosed", err)
	}
}
