// Package openai provides a text-only generative provider backed by the
// OpenAI API. It serves text generation and streaming chat; image and video
// requests return [generative.ErrNotSupported] so that fallback routing can
// keep those task kinds on a multi-modal primary.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
)

// Compile-time assertions that the provider satisfies the generative interfaces.
var _ generative.Client = (*Provider)(nil)
var _ generative.ChatSession = (*chatSession)(nil)

// Provider implements generative.Client using the OpenAI chat completions API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Provider{client: oai.NewClient(reqOpts...), model: model}, nil
}

// GenerateText implements generative.Client. Inline media blobs are attached
// as image_url data URIs; the chat completions API accepts image input only,
// which covers both image analysis and sampled video frames.
func (p *Provider) GenerateText(ctx context.Context, req generative.TextRequest) (string, error) {
	var parts []oai.ChatCompletionContentPartUnionParam
	parts = append(parts, oai.TextContentPart(req.Prompt))
	for _, m := range req.Media {
		uri := fmt.Sprintf("data:%s;base64,%s", m.MIMEType, base64.StdEncoding.EncodeToString(m.Data))
		parts = append(parts, oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{URL: uri}))
	}

	resp, err := p.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{oai.UserMessage(parts)},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage implements generative.Client.
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*generative.ImageData, error) {
	return nil, generative.ErrNotSupported
}

// StartVideoGeneration implements generative.Client.
func (p *Provider) StartVideoGeneration(ctx context.Context, req generative.VideoRequest) (generative.VideoOperation, error) {
	return nil, generative.ErrNotSupported
}

// PollVideoGeneration implements generative.Client.
func (p *Provider) PollVideoGeneration(ctx context.Context, op generative.VideoOperation) (generative.VideoOperation, error) {
	return nil, generative.ErrNotSupported
}

// DownloadVideo implements generative.Client.
func (p *Provider) DownloadVideo(ctx context.Context, op generative.VideoOperation) ([]byte, error) {
	return nil, generative.ErrNotSupported
}

// OpenChat implements generative.Client. Conversation history is held
// client-side and replayed on every send.
func (p *Provider) OpenChat(ctx context.Context, systemInstruction string) (generative.ChatSession, error) {
	s := &chatSession{provider: p}
	if systemInstruction != "" {
		s.history = append(s.history, oai.SystemMessage(systemInstruction))
	}
	return s, nil
}

// ── Chat session ───────────────────────────────────────────────────────────────

type chatSession struct {
	provider *Provider

	mu      sync.Mutex
	history []oai.ChatCompletionMessageParamUnion
}

// Send implements generative.ChatSession.
func (s *chatSession) Send(ctx context.Context, message string) (<-chan generative.Delta, error) {
	s.mu.Lock()
	s.history = append(s.history, oai.UserMessage(message))
	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(s.provider.model),
		Messages: append([]oai.ChatCompletionMessageParamUnion(nil), s.history...),
	}
	s.mu.Unlock()

	stream := s.provider.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai: start stream: %w", err)
	}

	ch := make(chan generative.Delta, 32)
	go func() {
		defer close(ch)
		defer stream.Close()

		var full string
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			full += choice.Delta.Content

			out := generative.Delta{Text: choice.Delta.Content}
			if choice.FinishReason != "" {
				out.FinishReason = "stop"
			}
			select {
			case ch <- out:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil {
			select {
			case ch <- generative.Delta{Text: err.Error(), FinishReason: "error"}:
			case <-ctx.Done():
			}
			return
		}

		// Record the assistant turn so the next send carries full history.
		s.mu.Lock()
		asst := oai.ChatCompletionAssistantMessageParam{}
		asst.Content.OfString = oai.String(full)
		s.history = append(s.history, oai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		s.mu.Unlock()
	}()

	return ch, nil
}

// Close implements generative.ChatSession.
func (s *chatSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	return nil
}
