package media

import (
	"context"
	"fmt"
	"iter"
	"time"
)

// DefaultFrameCount is the target number of frames sampled from a video.
const DefaultFrameCount = 10

// Frame is a single rasterized video frame.
type Frame struct {
	// MIMEType identifies the frame encoding, typically "image/jpeg".
	MIMEType string

	// Data is the encoded frame bytes.
	Data []byte
}

// VideoSource exposes a decoded video for frame sampling. Sources are
// single-use: [SampleFrames] closes the source when iteration ends.
type VideoSource interface {
	// Duration reports the video length.
	Duration() time.Duration

	// FrameAt rasterizes the frame nearest the given offset.
	FrameAt(ctx context.Context, at time.Duration) (Frame, error)

	// Close releases decoder resources.
	Close() error
}

// SampleFrames lazily samples up to target frames evenly across the source's
// duration, starting at offset zero. Resources are released when the sequence
// completes, errors, or is abandoned early. A non-positive target selects
// [DefaultFrameCount].
//
// The sequence yields at most one error, as its final element.
func SampleFrames(ctx context.Context, src VideoSource, target int) iter.Seq2[Frame, error] {
	if target <= 0 {
		target = DefaultFrameCount
	}
	return func(yield func(Frame, error) bool) {
		defer src.Close()

		duration := src.Duration()
		if duration <= 0 {
			yield(Frame{}, fmt.Errorf("%w: video has no duration", ErrUnsupportedInput))
			return
		}
		interval := duration / time.Duration(target)

		at := time.Duration(0)
		for i := 0; i < target && at <= duration; i++ {
			if err := ctx.Err(); err != nil {
				yield(Frame{}, err)
				return
			}
			frame, err := src.FrameAt(ctx, at)
			if err != nil {
				yield(Frame{}, fmt.Errorf("sample frame at %v: %w", at, err))
				return
			}
			if !yield(frame, nil) {
				return
			}
			at += interval
		}
	}
}

// CollectFrames drains a sampled sequence into a slice, surfacing the first
// error encountered.
func CollectFrames(frames iter.Seq2[Frame, error]) ([]Frame, error) {
	var out []Frame
	for frame, err := range frames {
		if err != nil {
			return nil, err
		}
		out = append(out, frame)
	}
	return out, nil
}

// FrameSet adapts a slice of pre-rasterized frames (e.g., captured by the
// browser before upload) to the [VideoSource] interface. Each frame maps to
// one second of synthetic duration.
type FrameSet struct {
	frames []Frame
	closed bool
}

// NewFrameSet creates a FrameSet over the given frames.
func NewFrameSet(frames []Frame) *FrameSet {
	return &FrameSet{frames: frames}
}

// Duration implements VideoSource.
func (f *FrameSet) Duration() time.Duration {
	return time.Duration(len(f.frames)) * time.Second
}

// FrameAt implements VideoSource. Offsets past the end clamp to the last
// frame.
func (f *FrameSet) FrameAt(ctx context.Context, at time.Duration) (Frame, error) {
	if f.closed {
		return Frame{}, fmt.Errorf("%w: frame set closed", ErrUnsupportedInput)
	}
	if len(f.frames) == 0 {
		return Frame{}, fmt.Errorf("%w: empty frame set", ErrUnsupportedInput)
	}
	idx := int(at / time.Second)
	if idx >= len(f.frames) {
		idx = len(f.frames) - 1
	}
	return f.frames[idx], nil
}

// Close implements VideoSource.
func (f *FrameSet) Close() error {
	f.closed = true
	return nil
}

// Ensure FrameSet implements VideoSource at compile time.
var _ VideoSource = (*FrameSet)(nil)
