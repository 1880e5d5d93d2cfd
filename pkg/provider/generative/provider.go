// Package generative defines the Provider interface for generative AI backends.
//
// A generative provider wraps a hosted multi-modal model API (e.g., Google
// Gemini or OpenAI) and exposes a uniform interface for the MeetWhiz studio
// dispatcher and assistant: one-shot text generation over a prompt plus
// optional inline media, image generation, long-running video generation with
// an explicit poll step, and a streaming conversational session.
//
// Not every backend supports every modality. Providers that cannot serve a
// request kind return [ErrNotSupported] so that callers can route around them
// (see internal/resilience).
//
// Implementations must be safe for concurrent use. Channels returned by
// [ChatSession.Send] must be closed by the implementation when the stream
// ends or when the supplied context is cancelled.
package generative

import (
	"context"
	"errors"
)

// ErrNotSupported is returned by providers that do not implement the
// requested modality (e.g., image generation on a text-only backend).
var ErrNotSupported = errors.New("generative: operation not supported by this provider")

// Client is the abstraction over any generative AI backend.
//
// Implementations must be safe for concurrent use from multiple goroutines.
// Each method should propagate context cancellation promptly.
type Client interface {
	// GenerateText sends req to the model and returns the complete text
	// response. Inline media blobs in the request (images, sampled video
	// frames) are attached to the prompt in order.
	GenerateText(ctx context.Context, req TextRequest) (string, error)

	// GenerateImage asks the model to render prompt as an image and returns
	// the encoded image bytes with their MIME type.
	GenerateImage(ctx context.Context, prompt string) (*ImageData, error)

	// StartVideoGeneration begins a long-running video generation job and
	// returns immediately with an operation handle. The job is not complete
	// until a subsequent [Client.PollVideoGeneration] reports Done.
	//
	// Video generation requires an explicit capability key carried in req;
	// the provider's default credential is not used for this call.
	StartVideoGeneration(ctx context.Context, req VideoRequest) (VideoOperation, error)

	// PollVideoGeneration refreshes the state of a video generation job.
	// The returned handle replaces op; callers must not reuse the old one.
	PollVideoGeneration(ctx context.Context, op VideoOperation) (VideoOperation, error)

	// DownloadVideo fetches the bytes of a completed video generation job.
	// Calling it before the operation reports Done is an error.
	DownloadVideo(ctx context.Context, op VideoOperation) ([]byte, error)

	// OpenChat creates a new conversational session seeded with the given
	// system instruction. The session holds server-side context for its
	// lifetime; the caller must Close it when done.
	OpenChat(ctx context.Context, systemInstruction string) (ChatSession, error)
}

// ChatSession is one open conversational context. It is an interface so that
// test code can provide mock implementations without a live backend.
//
// Sessions are not safe for concurrent Send calls; callers serialise sends.
type ChatSession interface {
	// Send appends message to the conversation and returns a read-only
	// channel emitting incremental response deltas. The channel is closed by
	// the implementation when the response finishes or ctx is cancelled.
	//
	// Errors that occur after the channel is opened are surfaced as a Delta
	// with FinishReason "error"; the initial error return is non-nil only
	// for failures that prevent the stream from starting.
	Send(ctx context.Context, message string) (<-chan Delta, error)

	// Close releases the session's server-side context. Calling Close more
	// than once is safe and returns nil.
	Close() error
}

// VideoOperation is an opaque handle to a long-running video generation job.
// Handles are produced by [Client.StartVideoGeneration] and refreshed by
// [Client.PollVideoGeneration]; they carry provider-private state and must
// only be passed back to the provider that created them.
type VideoOperation interface {
	// Done reports whether the job has reached a terminal state.
	Done() bool

	// URI returns the resource reference of the generated video. Empty until
	// the operation is Done; empty after Done means the job produced no
	// usable video.
	URI() string
}
