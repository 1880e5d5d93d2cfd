// Package anyllm provides a text-only generative provider backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider client that
// supports OpenAI, Anthropic, Gemini, Ollama, and other backends through one
// interface. It is the natural choice for a locally-hosted insight fallback
// (e.g., Ollama) configured purely by name.
//
// Image and video requests return [generative.ErrNotSupported].
package anyllm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
)

// Compile-time assertions that the provider satisfies the generative interfaces.
var _ generative.Client = (*Provider)(nil)
var _ generative.ChatSession = (*chatSession)(nil)

// Provider implements the text portions of generative.Client by wrapping an
// any-llm-go backend.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// New creates a Provider backed by the given backend name ("openai",
// "anthropic", "gemini", or "ollama") and model. Without an API key option,
// each backend falls back to its conventional environment variable.
func New(backendName string, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if backendName == "" {
		return nil, fmt.Errorf("anyllm: backendName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(backendName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", backendName, err)
	}
	return &Provider{backend: backend, model: model}, nil
}

// createBackend creates the underlying any-llm-go provider for name.
func createBackend(name string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(name) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported backend %q; supported: openai, anthropic, gemini, ollama", name)
	}
}

// GenerateText implements generative.Client. Inline media is not forwarded;
// backends reached through any-llm-go serve prompt-only insight calls.
func (p *Provider) GenerateText(ctx context.Context, req generative.TextRequest) (string, error) {
	if len(req.Media) > 0 {
		return "", generative.ErrNotSupported
	}

	resp, err := p.backend.Completion(ctx, anyllmlib.CompletionParams{
		Model: p.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("anyllm: empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
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

// OpenChat implements generative.Client. History is held client-side and
// replayed on every send.
func (p *Provider) OpenChat(ctx context.Context, systemInstruction string) (generative.ChatSession, error) {
	s := &chatSession{provider: p}
	if systemInstruction != "" {
		s.history = append(s.history, anyllmlib.Message{
			Role:    anyllmlib.RoleSystem,
			Content: systemInstruction,
		})
	}
	return s, nil
}

// ── Chat session ───────────────────────────────────────────────────────────────

type chatSession struct {
	provider *Provider

	mu      sync.Mutex
	history []anyllmlib.Message
}

// Send implements generative.ChatSession.
func (s *chatSession) Send(ctx context.Context, message string) (<-chan generative.Delta, error) {
	s.mu.Lock()
	s.history = append(s.history, anyllmlib.Message{Role: anyllmlib.RoleUser, Content: message})
	params := anyllmlib.CompletionParams{
		Model:    s.provider.model,
		Messages: append([]anyllmlib.Message(nil), s.history...),
	}
	s.mu.Unlock()

	backendChunks, backendErrs := s.provider.backend.CompletionStream(ctx, params)

	ch := make(chan generative.Delta, 32)
	go func() {
		defer close(ch)

		var full string
		for chunk := range backendChunks {
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

		if err := <-backendErrs; err != nil {
			select {
			case ch <- generative.Delta{Text: err.Error(), FinishReason: "error"}:
			case <-ctx.Done():
			}
			return
		}

		s.mu.Lock()
		s.history = append(s.history, anyllmlib.Message{
			Role:    anyllmlib.RoleAssistant,
			Content: full,
		})
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
