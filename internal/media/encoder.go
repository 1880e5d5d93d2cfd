// Package media converts user-supplied attachments into request-ready
// payloads for the generative providers.
//
// Three encodings exist, selected by the studio task kind:
//
//   - documents → extracted plain text, capped at [DocumentCharLimit] runes;
//   - images (and other binary media) → inline blob with its MIME type;
//   - videos → a finite lazy sequence of sampled JPEG frames (see
//     [SampleFrames]).
//
// Encoded payloads are cached in a small LRU keyed by content hash, so that
// re-submitting the same attachment (a common pattern when iterating on a
// prompt) skips re-extraction.
package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnsupportedInput is returned when an attachment cannot be read or is of
// a type no encoding path handles.
var ErrUnsupportedInput = errors.New("media: unsupported or unreadable input")

// DocumentCharLimit caps the document text passed downstream to bound request
// size. Callers must not assume full-document fidelity beyond this cap.
const DocumentCharLimit = 10_000

// encodeCacheSize is the number of encoded payloads retained in the LRU.
const encodeCacheSize = 32

// Attachment is a user-supplied file held in memory for the duration of one
// studio invocation.
type Attachment struct {
	// Name is the original file name, used for diagnostics only.
	Name string

	// MIMEType is the declared content type (e.g., "application/pdf").
	MIMEType string

	// Data is the raw file bytes.
	Data []byte

	// Video is the decoded video source for video attachments. Decoding is
	// an external collaborator concern; the caller supplies a source (e.g.,
	// a [FrameSet] of browser-rasterized frames). Nil for non-video input.
	Video VideoSource
}

// DocumentPayload is extracted document text ready for a text prompt.
type DocumentPayload struct {
	// Text is the extracted document text, capped at [DocumentCharLimit].
	Text string
}

// BlobPayload is inline binary media ready for a multi-modal prompt.
type BlobPayload struct {
	// MIMEType identifies the payload encoding.
	MIMEType string

	// Data is the raw media bytes.
	Data []byte
}

// TextExtractor pulls concatenated plain text out of a structured document
// format (e.g., PDF page text). Implementations must be safe for concurrent
// use.
type TextExtractor interface {
	// ExtractText returns the document's text content in reading order.
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// Option is a functional option for configuring an Encoder.
type Option func(*Encoder)

// WithExtractor registers a [TextExtractor] for the given MIME type.
// Documents of unregistered structured types fail with [ErrUnsupportedInput].
func WithExtractor(mimeType string, ex TextExtractor) Option {
	return func(e *Encoder) { e.extractors[mimeType] = ex }
}

// Encoder converts attachments into payloads. It is safe for concurrent use;
// the extractor registry is fixed at construction time.
type Encoder struct {
	extractors map[string]TextExtractor
	cache      *lru.Cache[string, any]
}

// NewEncoder creates an Encoder with the supplied options.
func NewEncoder(opts ...Option) *Encoder {
	cache, _ := lru.New[string, any](encodeCacheSize)
	e := &Encoder{
		extractors: make(map[string]TextExtractor),
		cache:      cache,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// EncodeDocument extracts the text content of a document attachment.
// Structured formats go through their registered [TextExtractor]; everything
// else is read as plain text. The result is capped at [DocumentCharLimit].
func (e *Encoder) EncodeDocument(ctx context.Context, att Attachment) (DocumentPayload, error) {
	if len(att.Data) == 0 {
		return DocumentPayload{}, fmt.Errorf("%w: empty attachment %q", ErrUnsupportedInput, att.Name)
	}

	key := cacheKey("doc", att)
	if cached, ok := e.cache.Get(key); ok {
		return cached.(DocumentPayload), nil
	}

	var text string
	if ex, ok := e.extractors[att.MIMEType]; ok {
		extracted, err := ex.ExtractText(ctx, att.Data)
		if err != nil {
			return DocumentPayload{}, fmt.Errorf("%w: extract %q: %v", ErrUnsupportedInput, att.Name, err)
		}
		text = extracted
	} else {
		if !utf8.Valid(att.Data) {
			return DocumentPayload{}, fmt.Errorf("%w: %q is not a text document and no extractor is registered for %q",
				ErrUnsupportedInput, att.Name, att.MIMEType)
		}
		text = string(att.Data)
	}

	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > DocumentCharLimit {
		text = string(runes[:DocumentCharLimit])
	}

	payload := DocumentPayload{Text: text}
	e.cache.Add(key, payload)
	return payload, nil
}

// EncodeBlob packages a binary attachment (typically an image) as an inline
// blob with its MIME type.
func (e *Encoder) EncodeBlob(ctx context.Context, att Attachment) (BlobPayload, error) {
	if len(att.Data) == 0 {
		return BlobPayload{}, fmt.Errorf("%w: empty attachment %q", ErrUnsupportedInput, att.Name)
	}
	mime := att.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return BlobPayload{MIMEType: mime, Data: att.Data}, nil
}

// OpenVideo returns the attachment's video source for frame sampling.
// Video decoding lives outside this process, so an attachment without an
// attached source cannot be sampled.
func (e *Encoder) OpenVideo(att Attachment) (VideoSource, error) {
	if att.Video == nil {
		return nil, fmt.Errorf("%w: %q carries no decoded video source", ErrUnsupportedInput, att.Name)
	}
	return att.Video, nil
}

// cacheKey derives a cache key from the encoding mode and content hash.
func cacheKey(mode string, att Attachment) string {
	sum := sha256.Sum256(att.Data)
	return mode + ":" + att.MIMEType + ":" + hex.EncodeToString(sum[:])
}
