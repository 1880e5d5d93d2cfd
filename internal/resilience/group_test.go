package resilience

import (
	"context"
	"errors"
	"testing"
)

type namedBackend struct {
	name string
	err  error

	calls int
}

func (b *namedBackend) work() (string, error) {
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	return b.name, nil
}

func TestGroupPrefersPrimary(t *testing.T) {
	t.Parallel()
	primary := &namedBackend{name: "primary"}
	fallback := &namedBackend{name: "fallback"}
	g := NewGroup("primary", primary).Add("fallback", fallback)

	got, err := DoWithResult(context.Background(), g, func(ctx context.Context, b *namedBackend) (string, error) {
		return b.work()
	})
	if err != nil {
		t.Fatalf("DoWithResult returned error: %v", err)
	}
	if got != "primary" {
		t.Errorf("result = %q, want primary", got)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestGroupFailsOver(t *testing.T) {
	t.Parallel()
	primary := &namedBackend{name: "primary", err: errBackend}
	fallback := &namedBackend{name: "fallback"}
	g := NewGroup("primary", primary).Add("fallback", fallback)

	got, err := DoWithResult(context.Background(), g, func(ctx context.Context, b *namedBackend) (string, error) {
		return b.work()
	})
	if err != nil {
		t.Fatalf("DoWithResult returned error: %v", err)
	}
	if got != "fallback" {
		t.Errorf("result = %q, want fallback", got)
	}
}

func TestGroupAllFailed(t *testing.T) {
	t.Parallel()
	g := NewGroup("primary", &namedBackend{name: "primary", err: errBackend}).
		Add("fallback", &namedBackend{name: "fallback", err: errBackend})

	err := g.Do(context.Background(), func(ctx context.Context, b *namedBackend) error {
		_, err := b.work()
		return err
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("err = %v, want ErrAllFailed", err)
	}
}

func TestGroupSkipsOpenBreaker(t *testing.T) {
	t.Parallel()
	primary := &namedBackend{name: "primary", err: errBackend}
	fallback := &namedBackend{name: "fallback"}
	g := NewGroup("primary", primary, WithTripAfter(1)).Add("fallback", fallback)

	ctx := context.Background()
	fn := func(ctx context.Context, b *namedBackend) (string, error) { return b.work() }

	// First call trips the primary's breaker.
	if _, err := DoWithResult(ctx, g, fn); err != nil {
		t.Fatalf("first call err = %v", err)
	}
	primaryCalls := primary.calls

	if _, err := DoWithResult(ctx, g, fn); err != nil {
		t.Fatalf("second call err = %v", err)
	}
	if primary.calls != primaryCalls {
		t.Errorf("primary called again while its circuit is open")
	}
}

func TestGroupHonorsContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	g := NewGroup("primary", &namedBackend{name: "primary", err: errBackend}).
		Add("fallback", &namedBackend{name: "fallback"})

	err := g.Do(ctx, func(ctx context.Context, b *namedBackend) error {
		cancel()
		_, err := b.work()
		return err
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestGroupNames(t *testing.T) {
	t.Parallel()
	g := NewGroup("a", &namedBackend{}).Add("b", &namedBackend{})
	names := g.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names = %v", names)
	}
}
