// Command meetwhiz is the main entry point for the MeetWhiz dashboard server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/Oracle69digitalmarketing/meetwhiz/internal/app"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/config"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/observe"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative/anyllm"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative/gemini"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "meetwhiz: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "meetwhiz: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("meetwhiz starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	shutdownObserve, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "meetwhiz",
	})
	if err != nil {
		slog.Error("failed to initialise observability", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownObserve(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", "err", err)
		}
	}()

	// ── Generative providers ──────────────────────────────────────────────────
	providers, err := buildProviders(ctx, cfg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(cfg, providers)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// buildProviders instantiates the primary generative backend and any
// configured fallbacks.
func buildProviders(ctx context.Context, cfg *config.Config) (*app.Providers, error) {
	primary, err := buildClient(ctx, cfg.Providers.Generative)
	if err != nil {
		return nil, fmt.Errorf("create provider %q: %w", cfg.Providers.Generative.Name, err)
	}
	ps := &app.Providers{
		Primary: app.NamedClient{Name: cfg.Providers.Generative.Name, Client: primary},
	}
	slog.Info("provider created", "kind", "generative", "name", cfg.Providers.Generative.Name)

	for _, entry := range cfg.Providers.Fallbacks {
		client, err := buildClient(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("create fallback provider %q: %w", entry.Name, err)
		}
		ps.Fallbacks = append(ps.Fallbacks, app.NamedClient{Name: entry.Name, Client: client})
		slog.Info("provider created", "kind", "fallback", "name", entry.Name)
	}
	return ps, nil
}

// buildClient constructs one backend from its config entry.
func buildClient(ctx context.Context, entry config.ProviderEntry) (generative.Client, error) {
	switch entry.Name {
	case "gemini":
		var opts []gemini.Option
		if entry.TextModel != "" {
			opts = append(opts, gemini.WithTextModel(entry.TextModel))
		}
		if entry.ImageModel != "" {
			opts = append(opts, gemini.WithImageModel(entry.ImageModel))
		}
		if entry.VideoModel != "" {
			opts = append(opts, gemini.WithVideoModel(entry.VideoModel))
		}
		return gemini.New(ctx, entry.APIKey, opts...)

	case "openai":
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.TextModel, opts...)

	case "anyllm":
		backend := optString(entry.Options, "backend")
		if backend == "" {
			backend = "ollama"
		}
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New(backend, entry.TextModel, opts...)

	default:
		return nil, fmt.Errorf("unknown provider name %q", entry.Name)
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         MeetWhiz — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Generative", cfg.Providers.Generative.Name, cfg.Providers.Generative.TextModel)
	for _, fb := range cfg.Providers.Fallbacks {
		printProvider("Fallback", fb.Name, fb.TextModel)
	}
	fmt.Printf("║  Fallbacks       : %-19d ║\n", len(cfg.Providers.Fallbacks))
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
