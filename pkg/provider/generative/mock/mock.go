// Package mock provides test doubles for the generative package interfaces.
//
// Use Client to feed controlled responses to the studio dispatcher, chat, and
// scribe pipeline without a live backend, and to inspect the requests they
// build. Zero values for response fields cause methods to return zero values
// and nil errors; set Err fields to inject failures.
//
// Example:
//
//	c := &mock.Client{GenerateTextResponse: "Action: ship report by Friday"}
//	text, err := c.GenerateText(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
)

// TextCall records a single invocation of GenerateText.
type TextCall struct {
	// Ctx is the context passed to GenerateText.
	Ctx context.Context
	// Req is the TextRequest passed to GenerateText.
	Req generative.TextRequest
}

// VideoStartCall records a single invocation of StartVideoGeneration.
type VideoStartCall struct {
	// Req is the VideoRequest passed to StartVideoGeneration.
	Req generative.VideoRequest
}

// Operation is a mock implementation of generative.VideoOperation.
type Operation struct {
	// IsDone is returned by Done.
	IsDone bool
	// VideoURI is returned by URI.
	VideoURI string
}

// Done implements generative.VideoOperation.
func (o *Operation) Done() bool { return o.IsDone }

// URI implements generative.VideoOperation.
func (o *Operation) URI() string { return o.VideoURI }

// Client is a mock implementation of generative.Client.
type Client struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// GenerateTextResponse is returned by GenerateText.
	GenerateTextResponse string

	// GenerateTextResponses, when non-empty, overrides GenerateTextResponse:
	// successive GenerateText calls consume it in order, repeating the last
	// entry once exhausted.
	GenerateTextResponses []string

	// GenerateTextErr, if non-nil, is returned as the error from GenerateText.
	GenerateTextErr error

	// GenerateImageResponse is returned by GenerateImage. May be nil.
	GenerateImageResponse *generative.ImageData

	// GenerateImageErr, if non-nil, is returned as the error from GenerateImage.
	GenerateImageErr error

	// StartVideoOperation is the handle returned by StartVideoGeneration.
	StartVideoOperation generative.VideoOperation

	// StartVideoErr, if non-nil, is returned as the error from StartVideoGeneration.
	StartVideoErr error

	// PollOperations is the sequence of handles returned by successive
	// PollVideoGeneration calls. Once exhausted, the last entry repeats.
	PollOperations []generative.VideoOperation

	// PollErr, if non-nil, is returned as the error from PollVideoGeneration.
	PollErr error

	// DownloadVideoResponse is returned by DownloadVideo.
	DownloadVideoResponse []byte

	// DownloadVideoErr, if non-nil, is returned as the error from DownloadVideo.
	DownloadVideoErr error

	// Chat is the session returned by OpenChat. If nil, OpenChat returns a
	// new default ChatSession.
	Chat generative.ChatSession

	// OpenChatErr, if non-nil, is returned as the error from OpenChat.
	OpenChatErr error

	// --- Call records (read after test) ---

	// TextCalls records every invocation of GenerateText in order.
	TextCalls []TextCall

	// ImagePrompts records the prompt of every GenerateImage call.
	ImagePrompts []string

	// VideoStartCalls records every invocation of StartVideoGeneration.
	VideoStartCalls []VideoStartCall

	// PollCallCount is the number of PollVideoGeneration calls.
	PollCallCount int

	// DownloadCallCount is the number of DownloadVideo calls.
	DownloadCallCount int

	// ChatInstructions records the system instruction of every OpenChat call.
	ChatInstructions []string
}

// GenerateText records the call and returns the configured response.
func (c *Client) GenerateText(ctx context.Context, req generative.TextRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TextCalls = append(c.TextCalls, TextCall{Ctx: ctx, Req: req})
	if c.GenerateTextErr != nil {
		return "", c.GenerateTextErr
	}
	if len(c.GenerateTextResponses) > 0 {
		i := len(c.TextCalls) - 1
		if i >= len(c.GenerateTextResponses) {
			i = len(c.GenerateTextResponses) - 1
		}
		return c.GenerateTextResponses[i], nil
	}
	return c.GenerateTextResponse, nil
}

// GenerateImage records the call and returns GenerateImageResponse, GenerateImageErr.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*generative.ImageData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ImagePrompts = append(c.ImagePrompts, prompt)
	return c.GenerateImageResponse, c.GenerateImageErr
}

// StartVideoGeneration records the call and returns StartVideoOperation, StartVideoErr.
func (c *Client) StartVideoGeneration(ctx context.Context, req generative.VideoRequest) (generative.VideoOperation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.VideoStartCalls = append(c.VideoStartCalls, VideoStartCall{Req: req})
	return c.StartVideoOperation, c.StartVideoErr
}

// PollVideoGeneration records the call and returns the next PollOperations entry.
func (c *Client) PollVideoGeneration(ctx context.Context, op generative.VideoOperation) (generative.VideoOperation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PollCallCount++
	if c.PollErr != nil {
		return nil, c.PollErr
	}
	if len(c.PollOperations) == 0 {
		return op, nil
	}
	i := c.PollCallCount - 1
	if i >= len(c.PollOperations) {
		i = len(c.PollOperations) - 1
	}
	return c.PollOperations[i], nil
}

// DownloadVideo records the call and returns DownloadVideoResponse, DownloadVideoErr.
func (c *Client) DownloadVideo(ctx context.Context, op generative.VideoOperation) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DownloadCallCount++
	return c.DownloadVideoResponse, c.DownloadVideoErr
}

// OpenChat records the call and returns Chat, OpenChatErr.
func (c *Client) OpenChat(ctx context.Context, systemInstruction string) (generative.ChatSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ChatInstructions = append(c.ChatInstructions, systemInstruction)
	if c.OpenChatErr != nil {
		return nil, c.OpenChatErr
	}
	if c.Chat != nil {
		return c.Chat, nil
	}
	return &ChatSession{}, nil
}

// Reset clears all recorded calls. Thread-safe.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TextCalls = nil
	c.ImagePrompts = nil
	c.VideoStartCalls = nil
	c.PollCallCount = 0
	c.DownloadCallCount = 0
	c.ChatInstructions = nil
}

// Ensure Client implements generative.Client at compile time.
var _ generative.Client = (*Client)(nil)

// SendCall records a single invocation of ChatSession.Send.
type SendCall struct {
	// Message is the text passed to Send.
	Message string
}

// ChatSession is a mock implementation of generative.ChatSession.
// Pre-populate Deltas with the values the consumer should receive.
type ChatSession struct {
	mu sync.Mutex

	// Deltas is the sequence emitted on the channel returned by Send. All
	// deltas are sent before the channel is closed.
	Deltas []generative.Delta

	// SendErr, if non-nil, is returned as the error from Send instead of
	// starting a channel.
	SendErr error

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	// SendCalls records every call to Send in order.
	SendCalls []SendCall

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int
}

// Send records the call and returns a channel emitting Deltas.
func (s *ChatSession) Send(ctx context.Context, message string) (<-chan generative.Delta, error) {
	s.mu.Lock()
	s.SendCalls = append(s.SendCalls, SendCall{Message: message})
	if s.SendErr != nil {
		err := s.SendErr
		s.mu.Unlock()
		return nil, err
	}
	deltas := make([]generative.Delta, len(s.Deltas))
	copy(deltas, s.Deltas)
	s.mu.Unlock()

	ch := make(chan generative.Delta, len(deltas))
	go func() {
		defer close(ch)
		for _, d := range deltas {
			select {
			case <-ctx.Done():
				return
			case ch <- d:
			}
		}
	}()
	return ch, nil
}

// Close records the call and returns CloseErr.
func (s *ChatSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return s.CloseErr
}

// Ensure ChatSession implements generative.ChatSession at compile time.
var _ generative.ChatSession = (*ChatSession)(nil)
