// Package config provides the configuration schema and loader for the
// MeetWhiz server.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the MeetWhiz server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration wraps time.Duration with YAML decoding of strings like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure for MeetWhiz.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Studio      StudioConfig      `yaml:"studio"`
	Scribe      ScribeConfig      `yaml:"scribe"`
	Recognition RecognitionConfig `yaml:"recognition"`
}

// ServerConfig holds network and logging settings for the MeetWhiz server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares the generative backend plus any fallbacks tried in
// order when the primary fails.
type ProvidersConfig struct {
	// Generative is the primary backend.
	Generative ProviderEntry `yaml:"generative"`

	// Fallbacks are tried in order when the primary rejects a text request.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// ProviderEntry is the common configuration block shared by all generative
// backends.
type ProviderEntry struct {
	// Name selects the backend implementation ("gemini", "openai", "anyllm").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the backend's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend's default API endpoint.
	// Leave empty to use the built-in default.
	BaseURL string `yaml:"base_url"`

	// TextModel selects the text/chat model (e.g., "gemini-2.5-flash").
	TextModel string `yaml:"text_model"`

	// ImageModel selects the image-generation model. Only meaningful for
	// backends that support image generation.
	ImageModel string `yaml:"image_model"`

	// VideoModel selects the video-generation model. Only meaningful for
	// backends that support video generation.
	VideoModel string `yaml:"video_model"`

	// Options holds backend-specific configuration values not covered by the
	// standard fields above.
	Options map[string]any `yaml:"options"`
}

// StudioConfig tunes the creative-workspace dispatcher.
type StudioConfig struct {
	// PollInterval is the wait between video-generation polls. Default: 5s.
	PollInterval Duration `yaml:"poll_interval"`

	// PollBudget caps the number of polls per video generation. Zero or
	// negative polls without limit. Default: 120.
	PollBudget int `yaml:"poll_budget"`
}

// ScribeConfig tunes the live transcription pipeline.
type ScribeConfig struct {
	// Debounce is the quiet period before an insight pass runs. Default: 5s.
	Debounce Duration `yaml:"debounce"`
}

// RecognitionConfig tunes the browser recognition feed.
type RecognitionConfig struct {
	// FeedAwaitTimeout is how long a live session waits for the browser to
	// connect its recognition feed before degrading to transcription-free
	// mode. Default: 10s.
	FeedAwaitTimeout Duration `yaml:"feed_await_timeout"`
}
