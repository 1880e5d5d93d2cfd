package generative

// Blob is a single piece of inline binary media attached to a text request.
type Blob struct {
	// MIMEType identifies the payload encoding (e.g., "image/jpeg").
	MIMEType string

	// Data is the raw (not base64) media bytes. Providers encode as their
	// wire format requires.
	Data []byte
}

// TextRequest carries everything the model needs for a one-shot text
// generation call. A zero-value request is invalid; Prompt must be non-empty.
type TextRequest struct {
	// Prompt is the instruction text driving the response.
	Prompt string

	// Media is an optional ordered list of inline attachments (an image to
	// describe, sampled video frames). May be nil for prompt-only calls.
	Media []Blob
}

// VideoRequest starts a video generation job.
type VideoRequest struct {
	// Prompt describes the video to generate.
	Prompt string

	// APIKey is the user-granted capability key required for video
	// generation. It is distinct from the provider's default credential.
	APIKey string
}

// ImageData is an encoded generated image.
type ImageData struct {
	// MIMEType identifies the image encoding (e.g., "image/png").
	MIMEType string

	// Data is the raw image bytes.
	Data []byte
}

// Delta is a single fragment of a streaming chat response.
type Delta struct {
	// Text is the incremental text content of this fragment. On a
	// FinishReason "error" delta it carries the error message instead.
	Text string

	// FinishReason is set on the final delta and indicates why the stream
	// stopped. Well-known values are "stop" (natural end), "error" (the
	// stream failed mid-flight), and "" (non-final delta).
	FinishReason string
}
