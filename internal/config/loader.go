package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists the known generative backend names.
// Used by [Validate] to warn about unrecognised names.
var ValidProviderNames = []string{"gemini", "openai", "anyllm"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Providers
	if cfg.Providers.Generative.Name == "" {
		errs = append(errs, errors.New("providers.generative.name is required"))
	}
	validateProviderName("providers.generative", cfg.Providers.Generative.Name)
	for i, fb := range cfg.Providers.Fallbacks {
		prefix := fmt.Sprintf("providers.fallbacks[%d]", i)
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		validateProviderName(prefix, fb.Name)
	}
	if cfg.Providers.Generative.APIKey == "" {
		slog.Warn("providers.generative.api_key is empty; requests will fail unless the backend reads it from the environment")
	}

	// Timings
	if cfg.Studio.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("studio.poll_interval %v must not be negative", cfg.Studio.PollInterval.Std()))
	}
	if cfg.Scribe.Debounce < 0 {
		errs = append(errs, fmt.Errorf("scribe.debounce %v must not be negative", cfg.Scribe.Debounce.Std()))
	}
	if cfg.Recognition.FeedAwaitTimeout < 0 {
		errs = append(errs, fmt.Errorf("recognition.feed_await_timeout %v must not be negative", cfg.Recognition.FeedAwaitTimeout.Std()))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// [ValidProviderNames].
func validateProviderName(field, name string) {
	if name == "" || slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo",
		"field", field,
		"name", name,
		"known", ValidProviderNames,
	)
}
