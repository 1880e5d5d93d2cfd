// Package mock provides test doubles for the recognition package interfaces.
//
// Use Session to feed controlled recognition events to the scribe pipeline.
// Callers own ResultsCh and send events on it; Close closes the channel, so
// tests should not close it themselves.
//
// Example:
//
//	sess := &mock.Session{ResultsCh: make(chan recognition.Result, 8)}
//	p := &mock.Provider{Session: sess}
package mock

import (
	"context"
	"sync"

	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/recognition"
)

// Provider is a mock implementation of recognition.Provider.
type Provider struct {
	mu sync.Mutex

	// Session is the Session returned by Listen. If nil, Listen returns a new
	// default Session with a buffered channel.
	Session recognition.Session

	// ListenErr, if non-nil, is returned as the error from Listen.
	ListenErr error

	// ListenCallCount is the number of Listen calls.
	ListenCallCount int
}

// Listen records the call and returns Session, ListenErr.
func (p *Provider) Listen(ctx context.Context) (recognition.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ListenCallCount++
	if p.ListenErr != nil {
		return nil, p.ListenErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return &Session{ResultsCh: make(chan recognition.Result, 16)}, nil
}

// Ensure Provider implements recognition.Provider at compile time.
var _ recognition.Provider = (*Provider)(nil)

// Session is a mock implementation of recognition.Session.
type Session struct {
	mu sync.Mutex

	// ResultsCh is the channel returned by Results(). Callers own this
	// channel in tests.
	ResultsCh chan recognition.Result

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int

	closeOnce sync.Once
}

// Results returns ResultsCh.
func (s *Session) Results() <-chan recognition.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ResultsCh
}

// Close records the call, closes ResultsCh once, and returns CloseErr.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	s.closeOnce.Do(func() {
		if s.ResultsCh != nil {
			close(s.ResultsCh)
		}
	})
	return s.CloseErr
}

// Ensure Session implements recognition.Session at compile time.
var _ recognition.Session = (*Session)(nil)
