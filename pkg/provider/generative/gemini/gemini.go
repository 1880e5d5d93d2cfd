// Package gemini implements the generative.Client interface using Google's
// Gemini API via the official google.golang.org/genai SDK.
//
// Text generation and chat use the configured text model; image generation
// uses an Imagen model and video generation a Veo model. Video generation
// runs under a per-request capability key (see [generative.VideoRequest]) —
// a dedicated SDK client is created for each job so that polling and download
// happen under the key that started it.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
)

// Compile-time assertions that the provider satisfies the generative interfaces.
var _ generative.Client = (*Provider)(nil)
var _ generative.ChatSession = (*chatSession)(nil)
var _ generative.VideoOperation = (*videoOperation)(nil)

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "imagen-4.0-generate-001"
	defaultVideoModel = "veo-3.1-fast-generate-preview"
)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithTextModel sets the model used for text generation and chat.
func WithTextModel(model string) Option {
	return func(p *Provider) { p.textModel = model }
}

// WithImageModel sets the model used for image generation.
func WithImageModel(model string) Option {
	return func(p *Provider) { p.imageModel = model }
}

// WithVideoModel sets the model used for video generation.
func WithVideoModel(model string) Option {
	return func(p *Provider) { p.videoModel = model }
}

// Provider implements generative.Client for the Gemini API.
type Provider struct {
	client     *genai.Client
	apiKey     string
	textModel  string
	imageModel string
	videoModel string
}

// New creates a Gemini Provider authenticated with apiKey. When apiKey is
// empty the SDK falls back to the GEMINI_API_KEY environment variable.
func New(ctx context.Context, apiKey string, opts ...Option) (*Provider, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	p := &Provider{
		client:     cli,
		apiKey:     apiKey,
		textModel:  defaultTextModel,
		imageModel: defaultImageModel,
		videoModel: defaultVideoModel,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// GenerateText implements generative.Client.
func (p *Provider) GenerateText(ctx context.Context, req generative.TextRequest) (string, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	for _, m := range req.Media {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: m.MIMEType, Data: m.Data},
		})
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.textModel,
		[]*genai.Content{{Parts: parts}}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty response from model %s", p.textModel)
	}
	return text, nil
}

// GenerateImage implements generative.Client.
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*generative.ImageData, error) {
	resp, err := p.client.Models.GenerateImages(ctx, p.imageModel, prompt,
		&genai.GenerateImagesConfig{NumberOfImages: 1})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate images: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, fmt.Errorf("gemini: no image in response from model %s", p.imageModel)
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &generative.ImageData{MIMEType: mime, Data: img.ImageBytes}, nil
}

// StartVideoGeneration implements generative.Client. A dedicated SDK client
// is created under req.APIKey; the returned operation keeps a reference to it
// for polling and download.
func (p *Provider) StartVideoGeneration(ctx context.Context, req generative.VideoRequest) (generative.VideoOperation, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  req.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create video client: %w", err)
	}

	op, err := cli.Models.GenerateVideos(ctx, p.videoModel, req.Prompt, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: start video generation: %w", err)
	}
	return &videoOperation{cli: cli, op: op}, nil
}

// PollVideoGeneration implements generative.Client.
func (p *Provider) PollVideoGeneration(ctx context.Context, op generative.VideoOperation) (generative.VideoOperation, error) {
	vo, ok := op.(*videoOperation)
	if !ok {
		return nil, fmt.Errorf("gemini: foreign video operation %T", op)
	}

	refreshed, err := vo.cli.Operations.GetVideosOperation(ctx, vo.op, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: poll video operation: %w", err)
	}
	return &videoOperation{cli: vo.cli, op: refreshed}, nil
}

// DownloadVideo implements generative.Client.
func (p *Provider) DownloadVideo(ctx context.Context, op generative.VideoOperation) ([]byte, error) {
	vo, ok := op.(*videoOperation)
	if !ok {
		return nil, fmt.Errorf("gemini: foreign video operation %T", op)
	}
	vid := vo.generatedVideo()
	if vid == nil {
		return nil, fmt.Errorf("gemini: operation has no generated video")
	}

	data, err := vo.cli.Files.Download(ctx, vid, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: download video: %w", err)
	}
	if len(data) == 0 {
		data = vid.VideoBytes
	}
	return data, nil
}

// OpenChat implements generative.Client.
func (p *Provider) OpenChat(ctx context.Context, systemInstruction string) (generative.ChatSession, error) {
	cfg := &genai.GenerateContentConfig{}
	if systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	chat, err := p.client.Chats.Create(ctx, p.textModel, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat: %w", err)
	}
	return &chatSession{chat: chat}, nil
}

// ── Chat session ───────────────────────────────────────────────────────────────

type chatSession struct {
	chat *genai.Chat
}

// Send implements generative.ChatSession.
func (s *chatSession) Send(ctx context.Context, message string) (<-chan generative.Delta, error) {
	ch := make(chan generative.Delta, 32)
	go func() {
		defer close(ch)
		for resp, err := range s.chat.SendMessageStream(ctx, genai.Part{Text: message}) {
			if err != nil {
				select {
				case ch <- generative.Delta{Text: err.Error(), FinishReason: "error"}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case ch <- generative.Delta{Text: resp.Text()}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case ch <- generative.Delta{FinishReason: "stop"}:
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

// Close implements generative.ChatSession. The Gemini chat context lives
// client-side in the SDK, so there is nothing to release remotely.
func (s *chatSession) Close() error { return nil }

// ── Video operation ────────────────────────────────────────────────────────────

type videoOperation struct {
	cli *genai.Client
	op  *genai.GenerateVideosOperation
}

// Done implements generative.VideoOperation.
func (o *videoOperation) Done() bool { return o.op.Done }

// URI implements generative.VideoOperation.
func (o *videoOperation) URI() string {
	if vid := o.generatedVideo(); vid != nil {
		return vid.URI
	}
	return ""
}

// generatedVideo returns the first generated video, or nil when the operation
// is unfinished or produced nothing.
func (o *videoOperation) generatedVideo() *genai.Video {
	if o.op.Response == nil || len(o.op.Response.GeneratedVideos) == 0 {
		return nil
	}
	return o.op.Response.GeneratedVideos[0].Video
}
