package resilience

import (
	"context"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
)

// Client wraps a [Group] of generative backends behind the generative.Client
// interface.
//
// Failover applies to the stateless calls: text completion and chat opening.
// Image generation and the video operation lifecycle stick to the primary
// backend — a video operation handle is only meaningful to the backend that
// created it, and fallbacks are text-capable backends that typically reject
// media generation anyway.
type Client struct {
	group *Group[generative.Client]
}

// NewClient creates a failover client over the given group.
func NewClient(group *Group[generative.Client]) *Client {
	return &Client{group: group}
}

// GenerateText implements generative.Client with failover.
func (c *Client) GenerateText(ctx context.Context, req generative.TextRequest) (string, error) {
	return DoWithResult(ctx, c.group, func(ctx context.Context, backend generative.Client) (string, error) {
		return backend.GenerateText(ctx, req)
	})
}

// GenerateImage implements generative.Client; primary backend only.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*generative.ImageData, error) {
	return c.group.Primary().GenerateImage(ctx, prompt)
}

// StartVideoGeneration implements generative.Client; primary backend only.
func (c *Client) StartVideoGeneration(ctx context.Context, req generative.VideoRequest) (generative.VideoOperation, error) {
	return c.group.Primary().StartVideoGeneration(ctx, req)
}

// PollVideoGeneration implements generative.Client; primary backend only.
func (c *Client) PollVideoGeneration(ctx context.Context, op generative.VideoOperation) (generative.VideoOperation, error) {
	return c.group.Primary().PollVideoGeneration(ctx, op)
}

// DownloadVideo implements generative.Client; primary backend only.
func (c *Client) DownloadVideo(ctx context.Context, op generative.VideoOperation) ([]byte, error) {
	return c.group.Primary().DownloadVideo(ctx, op)
}

// OpenChat implements generative.Client with failover. The returned session
// sticks to whichever backend opened it.
func (c *Client) OpenChat(ctx context.Context, systemInstruction string) (generative.ChatSession, error) {
	return DoWithResult(ctx, c.group, func(ctx context.Context, backend generative.Client) (generative.ChatSession, error) {
		return backend.OpenChat(ctx, systemInstruction)
	})
}

// Ensure Client implements generative.Client at compile time.
var _ generative.Client = (*Client)(nil)
