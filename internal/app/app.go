// Package app wires all MeetWhiz subsystems into a running application.
//
// New creates and connects the subsystems — workspace store, media encoder,
// studio dispatcher, credential chain, recognition feed, HTTP surface — and
// Run owns the server lifecycle until the context is cancelled.
//
// For testing, inject doubles via functional options (WithWorkspaceStore,
// WithCredentials, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Oracle69digitalmarketing/meetwhiz/internal/config"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/credentials"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/health"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/media"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/observe"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/resilience"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/scribe"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/server"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/studio"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/workspace"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/recognition/wsfeed"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// NamedClient pairs a generative backend with its configured name, used for
// circuit-breaker identification and logging.
type NamedClient struct {
	Name   string
	Client generative.Client
}

// Providers holds the generative backends built by main.go from the config.
// Primary is required; Fallbacks are tried in order when the primary rejects
// a text or chat request.
type Providers struct {
	Primary   NamedClient
	Fallbacks []NamedClient
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	store      *workspace.MemStore
	creds      credentials.Store
	encoder    *media.Encoder
	client     generative.Client
	blobs      *server.BlobStore
	feed       *wsfeed.Provider
	dispatcher *studio.Dispatcher
	metrics    *observe.Metrics
	httpServer *http.Server
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithWorkspaceStore injects a workspace store instead of the seeded default.
func WithWorkspaceStore(s *workspace.MemStore) Option {
	return func(a *App) { a.store = s }
}

// WithCredentials injects a credential store instead of the env + keyring
// chain.
func WithCredentials(s credentials.Store) Option {
	return func(a *App) { a.creds = s }
}

// WithEncoder injects a media encoder, e.g. one carrying extra document text
// extractors.
func WithEncoder(e *media.Encoder) Option {
	return func(a *App) { a.encoder = e }
}

// WithMetrics injects the metrics bundle instead of the process default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go.
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.Primary.Client == nil {
		return nil, fmt.Errorf("app: a primary generative provider is required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	if a.store == nil {
		a.store = workspace.NewMemStore()
	}
	if a.creds == nil {
		a.creds = credentials.Chain{credentials.Env{}, credentials.Keyring{}}
	}
	if a.encoder == nil {
		a.encoder = media.NewEncoder()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	a.client = a.buildClient()

	blobs, err := server.NewBlobStore()
	if err != nil {
		return nil, fmt.Errorf("app: init blob store: %w", err)
	}
	a.blobs = blobs

	a.dispatcher = studio.New(a.client, a.encoder, a.creds, a.studioOptions()...)
	a.feed = wsfeed.NewProvider(a.feedOptions()...)

	srv := server.New(server.Config{
		Store:       a.store,
		Dispatcher:  a.dispatcher,
		Chat:        a.client,
		Blobs:       a.blobs,
		NewScribe:   a.newScribe,
		Credentials: a.creds,
		Feed:        a.feed,
		Health:      health.New(a.checkers()...),
		Metrics:     a.metrics,
	})
	a.httpServer = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// buildClient composes the fallback group. With no fallbacks the primary is
// used directly.
func (a *App) buildClient() generative.Client {
	if len(a.providers.Fallbacks) == 0 {
		return a.providers.Primary.Client
	}
	group := resilience.NewGroup(a.providers.Primary.Name, a.providers.Primary.Client)
	for _, fb := range a.providers.Fallbacks {
		group.Add(fb.Name, fb.Client)
	}
	slog.Info("generative fallback chain assembled", "backends", group.Names())
	return resilience.NewClient(group)
}

func (a *App) studioOptions() []studio.Option {
	opts := []studio.Option{studio.WithBlobPublisher(a.blobs.Publish)}
	if d := a.cfg.Studio.PollInterval.Std(); d > 0 {
		opts = append(opts, studio.WithPollInterval(d))
	}
	if n := a.cfg.Studio.PollBudget; n != 0 {
		opts = append(opts, studio.WithPollBudget(n))
	}
	return opts
}

func (a *App) feedOptions() []wsfeed.Option {
	var opts []wsfeed.Option
	if d := a.cfg.Recognition.FeedAwaitTimeout.Std(); d > 0 {
		opts = append(opts, wsfeed.WithAwaitTimeout(d))
	}
	return opts
}

// newScribe builds one live-meeting pipeline per live socket.
func (a *App) newScribe(onUpdate func(scribe.Snapshot)) *scribe.Session {
	opts := []scribe.Option{
		scribe.WithParticipants(a.store.ParticipantNames()),
		scribe.WithUpdateListener(onUpdate),
	}
	if d := a.cfg.Scribe.Debounce.Std(); d > 0 {
		opts = append(opts, scribe.WithDebounce(d))
	}
	return scribe.NewSession(a.feed, a.client, opts...)
}

func (a *App) checkers() []health.Checker {
	return []health.Checker{
		{
			Name: "workspace",
			Check: func(context.Context) error {
				if len(a.store.Users()) == 0 {
					return errors.New("workspace store is empty")
				}
				return nil
			},
		},
		{
			Name: "credentials",
			Check: func(ctx context.Context) error {
				_, err := a.creds.VideoKey(ctx)
				return err
			},
		},
	}
}

// Handler exposes the HTTP surface, primarily for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
// Returns ctx.Err() after a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		tls := a.cfg.Server.TLS
		slog.Info("http server listening", "addr", a.httpServer.Addr, "tls", tls != nil)

		var err error
		if tls != nil {
			err = a.httpServer.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down http server")
		return a.httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
