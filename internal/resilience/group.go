package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [Group] fails or has an open
// breaker.
var ErrAllFailed = errors.New("resilience: all backends failed")

// entry pairs a backend with its dedicated breaker.
type entry[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// Group composes a primary backend and ordered fallbacks of the same type.
// When the primary fails or its breaker is open, the next healthy entry is
// tried. Entries are fixed after construction; Group is safe for concurrent
// use.
type Group[T any] struct {
	entries     []entry[T]
	breakerOpts []BreakerOption
}

// NewGroup creates a Group with primary as its first entry. The breaker
// options apply to every entry's breaker.
func NewGroup[T any](primaryName string, primary T, opts ...BreakerOption) *Group[T] {
	g := &Group[T]{breakerOpts: opts}
	g.add(primaryName, primary)
	return g
}

// Add appends a fallback backend, tried after all earlier entries.
func (g *Group[T]) Add(name string, backend T) *Group[T] {
	g.add(name, backend)
	return g
}

func (g *Group[T]) add(name string, backend T) {
	g.entries = append(g.entries, entry[T]{
		name:    name,
		value:   backend,
		breaker: NewBreaker(name, g.breakerOpts...),
	})
}

// Primary returns the first entry's backend.
func (g *Group[T]) Primary() T {
	return g.entries[0].value
}

// Names returns the entry names in try order.
func (g *Group[T]) Names() []string {
	names := make([]string, len(g.entries))
	for i, e := range g.entries {
		names[i] = e.name
	}
	return names
}

// Do tries fn against each entry in order until one succeeds. Entries with an
// open breaker are skipped. Returns [ErrAllFailed] wrapping the last error
// when every entry fails.
func (g *Group[T]) Do(ctx context.Context, fn func(context.Context, T) error) error {
	_, err := DoWithResult(ctx, g, func(ctx context.Context, backend T) (struct{}, error) {
		return struct{}{}, fn(ctx, backend)
	})
	return err
}

// DoWithResult tries fn against each entry of the group until one succeeds,
// returning its result. A package-level function because Go methods cannot
// introduce type parameters.
func DoWithResult[T, R any](ctx context.Context, g *Group[T], fn func(context.Context, T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range g.entries {
		e := &g.entries[i]
		var result R
		err := e.breaker.Do(ctx, func(ctx context.Context) error {
			var innerErr error
			result, innerErr = fn(ctx, e.value)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("skipping backend, circuit open", "backend", e.name)
		} else {
			slog.Warn("backend failed, trying next", "backend", e.name, "err", err)
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
