// Package recognition defines the event-source interface for speech
// recognition feeds.
//
// MeetWhiz does not transcribe audio itself: recognition runs in an external
// collaborator (typically the browser's speech recognition engine) and the
// server consumes its result events. A feed distinguishes interim guesses
// from finalized utterances per event; only finalized text may enter the
// session transcript.
//
// Implementations must be safe for concurrent use. The Results channel is
// closed by the implementation when the feed ends.
package recognition

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by providers when no recognition source exists
// in the hosting environment. Callers degrade to "no transcription available"
// rather than failing the session.
var ErrUnavailable = errors.New("recognition: no recognition source available")

// Result is a single recognition event.
type Result struct {
	// Text is the recognized speech content.
	Text string

	// IsFinal indicates whether this is a finalized (authoritative) result.
	// Interim results carry the engine's current guess and may be superseded.
	IsFinal bool
}

// Session represents an open recognition feed. Callers must call Close when
// the feed is no longer needed; failing to do so may leak goroutines inside
// the provider implementation.
type Session interface {
	// Results returns a read-only channel emitting recognition events in
	// arrival order. The channel is closed when the feed ends.
	Results() <-chan Result

	// Close terminates the feed and releases associated resources. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any recognition event source.
type Provider interface {
	// Listen opens a new recognition feed. Returns [ErrUnavailable] when the
	// environment offers no recognition source.
	Listen(ctx context.Context) (Session, error)
}
