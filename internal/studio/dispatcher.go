package studio

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Oracle69digitalmarketing/meetwhiz/internal/media"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
)

const (
	// defaultPollInterval is the fixed wait between video-generation polls.
	defaultPollInterval = 5 * time.Second

	// defaultPollBudget caps the number of polls per video generation so a
	// stuck operation cannot be polled forever (~10 minutes at the default
	// interval).
	defaultPollBudget = 120
)

// Prompt templates for the text-completion task kinds.
const (
	summaryPromptFormat  = "Generate a concise summary and a list of action items for the following text: %q"
	documentPromptFormat = "Summarize the key points of this document: %q"
	imageAnalysisPrompt  = "Describe this image in detail."
	videoSummaryPrompt   = "Summarize this video based on these frames."
)

// Request describes one dispatcher invocation.
type Request struct {
	// Kind selects the task.
	Kind TaskKind

	// Prompt is the user's free-text input. Required for prompt-driven kinds;
	// whitespace-only counts as absent.
	Prompt string

	// Attachment is the user's file. Required for file-driven kinds.
	Attachment *media.Attachment
}

// CredentialSource resolves the separately granted video-generation key.
// An empty key with a nil error means no credential has been granted.
type CredentialSource interface {
	VideoKey(ctx context.Context) (string, error)
}

// BlobPublisher turns generated media bytes into a displayable resource
// reference. The default publisher inlines bytes as a data URI.
type BlobPublisher func(ctx context.Context, mimeType string, data []byte) (string, error)

// DataURIPublisher is the default BlobPublisher.
func DataURIPublisher(_ context.Context, mimeType string, data []byte) (string, error) {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// handler binds one task kind to its input requirements and execution logic.
type handler struct {
	needsPrompt bool
	needsFile   bool
	run         func(ctx context.Context, req Request) (Content, error)
}

// Option is a functional option for configuring a Dispatcher.
type Option func(*Dispatcher)

// WithPollInterval overrides the wait between video-generation polls.
func WithPollInterval(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.pollInterval = d }
}

// WithPollBudget overrides the maximum number of polls per video generation.
// A non-positive budget polls without limit.
func WithPollBudget(n int) Option {
	return func(dp *Dispatcher) { dp.pollBudget = n }
}

// WithBlobPublisher overrides how generated media bytes become displayable
// references.
func WithBlobPublisher(p BlobPublisher) Option {
	return func(dp *Dispatcher) { dp.publish = p }
}

// WithPhaseListener registers a callback invoked on every phase transition.
// The callback runs synchronously on the dispatching goroutine and must not
// block.
func WithPhaseListener(fn func(Phase)) Option {
	return func(dp *Dispatcher) { dp.onPhase = fn }
}

// WithLogger overrides the dispatcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(dp *Dispatcher) { dp.logger = l }
}

// Dispatcher routes creative-workspace requests to the generative service.
// At most one invocation may be in flight at a time; concurrent attempts are
// rejected with [ErrBusy]. Safe for concurrent use.
type Dispatcher struct {
	client       generative.Client
	encoder      *media.Encoder
	creds        CredentialSource
	publish      BlobPublisher
	pollInterval time.Duration
	pollBudget   int
	onPhase      func(Phase)
	logger       *slog.Logger

	handlers map[TaskKind]handler

	busy atomic.Bool

	mu      sync.Mutex
	current *Content
}

// New creates a Dispatcher over the given provider client, encoder, and
// credential source.
func New(client generative.Client, encoder *media.Encoder, creds CredentialSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:       client,
		encoder:      encoder,
		creds:        creds,
		publish:      DataURIPublisher,
		pollInterval: defaultPollInterval,
		pollBudget:   defaultPollBudget,
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	d.handlers = map[TaskKind]handler{
		TaskGenerateSummary: {needsPrompt: true, run: d.generateSummary},
		TaskAnalyzeDocument: {needsFile: true, run: d.analyzeDocument},
		TaskAnalyzeImage:    {needsFile: true, run: d.analyzeImage},
		TaskSummarizeVideo:  {needsFile: true, run: d.summarizeVideo},
		TaskGenerateImage:   {needsPrompt: true, run: d.generateImage},
		TaskGenerateVideo:   {needsPrompt: true, run: d.generateVideo},
	}
	return d
}

// Current returns the content of the most recent successful invocation, if
// any. The value is cleared when a new invocation starts, so a failed request
// leaves the display blank rather than stale.
func (d *Dispatcher) Current() (Content, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return Content{}, false
	}
	return *d.current, true
}

// Busy reports whether an invocation is in flight.
func (d *Dispatcher) Busy() bool {
	return d.busy.Load()
}

// Dispatch runs one invocation to completion and returns the normalized
// content. It rejects with [ErrBusy] while another invocation is in flight.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Content, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return Content{}, ErrBusy
	}
	defer func() {
		d.busy.Store(false)
		d.setPhase(PhaseIdle)
	}()

	// Previous content is invalidated as soon as a new request starts.
	d.mu.Lock()
	d.current = nil
	d.mu.Unlock()

	content, err := d.run(ctx, req)
	if err != nil {
		d.setPhase(PhaseFailed)
		d.logger.Warn("studio task failed", "kind", req.Kind, "err", err)
		return Content{}, err
	}

	d.mu.Lock()
	d.current = &content
	d.mu.Unlock()
	d.setPhase(PhaseDone)
	d.logger.Info("studio task done", "kind", req.Kind, "content_kind", content.Kind)
	return content, nil
}

func (d *Dispatcher) run(ctx context.Context, req Request) (Content, error) {
	d.setPhase(PhaseValidating)
	h, ok := d.handlers[req.Kind]
	if !ok {
		return Content{}, fmt.Errorf("%w: unknown task kind %q", ErrMissingInput, req.Kind)
	}
	if h.needsPrompt && strings.TrimSpace(req.Prompt) == "" {
		return Content{}, fmt.Errorf("%w: task %q requires a prompt", ErrMissingInput, req.Kind)
	}
	if h.needsFile && req.Attachment == nil {
		return Content{}, fmt.Errorf("%w: task %q requires an attached file", ErrMissingInput, req.Kind)
	}
	return h.run(ctx, req)
}

func (d *Dispatcher) setPhase(p Phase) {
	if d.onPhase != nil {
		d.onPhase(p)
	}
}

// completeText issues the single text-completion call shared by the four
// text-result task kinds.
func (d *Dispatcher) completeText(ctx context.Context, req generative.TextRequest) (Content, error) {
	d.setPhase(PhaseRequesting)
	text, err := d.client.GenerateText(ctx, req)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	return Content{Kind: ContentText, Payload: text}, nil
}

func (d *Dispatcher) generateSummary(ctx context.Context, req Request) (Content, error) {
	return d.completeText(ctx, generative.TextRequest{
		Prompt: fmt.Sprintf(summaryPromptFormat, req.Prompt),
	})
}

func (d *Dispatcher) analyzeDocument(ctx context.Context, req Request) (Content, error) {
	d.setPhase(PhaseEncoding)
	doc, err := d.encoder.EncodeDocument(ctx, *req.Attachment)
	if err != nil {
		return Content{}, err
	}
	return d.completeText(ctx, generative.TextRequest{
		Prompt: fmt.Sprintf(documentPromptFormat, doc.Text),
	})
}

func (d *Dispatcher) analyzeImage(ctx context.Context, req Request) (Content, error) {
	d.setPhase(PhaseEncoding)
	blob, err := d.encoder.EncodeBlob(ctx, *req.Attachment)
	if err != nil {
		return Content{}, err
	}
	return d.completeText(ctx, generative.TextRequest{
		Prompt: imageAnalysisPrompt,
		Media:  []generative.Blob{{MIMEType: blob.MIMEType, Data: blob.Data}},
	})
}

func (d *Dispatcher) summarizeVideo(ctx context.Context, req Request) (Content, error) {
	d.setPhase(PhaseEncoding)
	src, err := d.encoder.OpenVideo(*req.Attachment)
	if err != nil {
		return Content{}, err
	}
	frames, err := media.CollectFrames(media.SampleFrames(ctx, src, media.DefaultFrameCount))
	if err != nil {
		return Content{}, err
	}
	blobs := make([]generative.Blob, 0, len(frames))
	for _, f := range frames {
		blobs = append(blobs, generative.Blob{MIMEType: f.MIMEType, Data: f.Data})
	}
	return d.completeText(ctx, generative.TextRequest{
		Prompt: videoSummaryPrompt,
		Media:  blobs,
	})
}

func (d *Dispatcher) generateImage(ctx context.Context, req Request) (Content, error) {
	d.setPhase(PhaseRequesting)
	img, err := d.client.GenerateImage(ctx, req.Prompt)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	if img == nil || len(img.Data) == 0 {
		return Content{}, ErrGenerationFailed
	}
	ref, err := d.publish(ctx, img.MIMEType, img.Data)
	if err != nil {
		return Content{}, fmt.Errorf("publish image: %w", err)
	}
	return Content{Kind: ContentImage, Payload: ref}, nil
}

func (d *Dispatcher) generateVideo(ctx context.Context, req Request) (Content, error) {
	key, err := d.creds.VideoKey(ctx)
	if err != nil {
		return Content{}, fmt.Errorf("resolve video credential: %w", err)
	}
	if key == "" {
		return Content{}, ErrMissingCredential
	}

	d.setPhase(PhaseRequesting)
	op, err := d.client.StartVideoGeneration(ctx, generative.VideoRequest{
		Prompt: req.Prompt,
		APIKey: key,
	})
	if err != nil {
		return Content{}, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	d.setPhase(PhasePolling)
	polls := 0
	for !op.Done() {
		if d.pollBudget > 0 && polls >= d.pollBudget {
			return Content{}, fmt.Errorf("%w: operation still running after %d polls", ErrGenerationFailed, polls)
		}
		select {
		case <-ctx.Done():
			return Content{}, ctx.Err()
		case <-time.After(d.pollInterval):
		}
		op, err = d.client.PollVideoGeneration(ctx, op)
		if err != nil {
			return Content{}, fmt.Errorf("%w: %v", ErrExternalService, err)
		}
		polls++
	}

	data, err := d.client.DownloadVideo(ctx, op)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	if len(data) == 0 {
		if uri := op.URI(); uri != "" {
			return Content{Kind: ContentVideo, Payload: uri}, nil
		}
		return Content{}, ErrGenerationFailed
	}
	ref, err := d.publish(ctx, "video/mp4", data)
	if err != nil {
		return Content{}, fmt.Errorf("publish video: %w", err)
	}
	return Content{Kind: ContentVideo, Payload: ref}, nil
}
