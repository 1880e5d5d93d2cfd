// Package wsfeed implements the recognition.Provider interface over a
// WebSocket feed of browser speech-recognition events.
//
// The browser runs the actual recognition engine and streams its result
// events to the server as JSON messages:
//
//	{"text": "let's ship the report", "is_final": true}
//
// The server side accepts the socket and hands it to [Provider.Connect]; a
// concurrent [Provider.Listen] call (from the scribe pipeline) receives the
// wrapped session. When no feed connects within the await timeout, Listen
// returns [recognition.ErrUnavailable] and the session degrades to
// transcription-free mode.
package wsfeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/recognition"
)

// Compile-time assertions that the wsfeed types satisfy the recognition interfaces.
var _ recognition.Provider = (*Provider)(nil)
var _ recognition.Session = (*Session)(nil)

// defaultAwaitTimeout is how long Listen waits for a browser feed to connect.
const defaultAwaitTimeout = 10 * time.Second

// event is the wire format of a single recognition event.
type event struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithAwaitTimeout sets how long [Provider.Listen] waits for a feed
// connection before reporting [recognition.ErrUnavailable]. Default: 10s.
func WithAwaitTimeout(d time.Duration) Option {
	return func(p *Provider) { p.awaitTimeout = d }
}

// Provider is a rendezvous point between incoming feed sockets and listeners.
// It is safe for concurrent use.
type Provider struct {
	awaitTimeout time.Duration
	pending      chan *Session
}

// NewProvider creates a Provider with the supplied options.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		awaitTimeout: defaultAwaitTimeout,
		pending:      make(chan *Session, 1),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Connect wraps an accepted WebSocket connection into a [Session], starts its
// read loop, and offers it to a waiting [Provider.Listen] call. When no
// listener is waiting and another feed is already pending, the new feed
// replaces it and the stale one is closed.
func (p *Provider) Connect(ctx context.Context, conn *websocket.Conn) *Session {
	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &Session{
		conn:    conn,
		results: make(chan recognition.Result, 16),
		cancel:  cancel,
	}
	go sess.readLoop(sessCtx)

	for {
		select {
		case p.pending <- sess:
			return sess
		default:
		}
		select {
		case stale := <-p.pending:
			slog.Debug("wsfeed: replacing stale pending feed")
			stale.Close()
		default:
		}
	}
}

// Listen implements recognition.Provider. It waits for a feed socket to be
// offered via [Provider.Connect].
func (p *Provider) Listen(ctx context.Context) (recognition.Session, error) {
	timer := time.NewTimer(p.awaitTimeout)
	defer timer.Stop()

	select {
	case sess := <-p.pending:
		return sess, nil
	case <-timer.C:
		return nil, recognition.ErrUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Session adapts one WebSocket feed connection to recognition.Session.
type Session struct {
	conn    *websocket.Conn
	results chan recognition.Result
	cancel  context.CancelFunc

	closeOnce sync.Once
}

// Results implements recognition.Session.
func (s *Session) Results() <-chan recognition.Result {
	return s.results
}

// Close implements recognition.Session. It terminates the read loop and
// closes the underlying connection.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.conn.Close(websocket.StatusNormalClosure, "feed closed")
	})
	return nil
}

// readLoop decodes events off the socket until the connection drops or the
// session is closed. It owns the results channel and closes it on exit.
func (s *Session) readLoop(ctx context.Context) {
	defer close(s.results)

	for {
		var ev event
		if err := wsjson.Read(ctx, s.conn, &ev); err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				slog.Debug("wsfeed: feed closed", "err", err)
			}
			return
		}
		select {
		case s.results <- recognition.Result{Text: ev.Text, IsFinal: ev.IsFinal}:
		case <-ctx.Done():
			return
		}
	}
}
