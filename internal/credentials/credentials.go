// Package credentials manages the separately granted video-generation API
// key. Video generation never falls back to the service's default credential;
// the user grants a distinct key, kept in the OS keyring (or process
// environment for headless deployments).
package credentials

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/zalando/go-keyring"
)

// EnvVideoKey is the environment variable consulted by [Env].
const EnvVideoKey = "MEETWHIZ_VIDEO_API_KEY"

const (
	keyringService = "meetwhiz"
	keyringAccount = "video-api-key"
)

// ErrReadOnly is returned when writing to a read-only store.
var ErrReadOnly = errors.New("credentials: store is read-only")

// Store holds the granted video key. An empty key with a nil error means no
// key has been granted.
type Store interface {
	VideoKey(ctx context.Context) (string, error)
	SetVideoKey(ctx context.Context, key string) error
	ClearVideoKey(ctx context.Context) error
}

// Memory is an in-process Store, used in tests and as a session-scoped cache.
type Memory struct {
	mu  sync.RWMutex
	key string
}

// VideoKey implements Store.
func (m *Memory) VideoKey(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.key, nil
}

// SetVideoKey implements Store.
func (m *Memory) SetVideoKey(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = key
	return nil
}

// ClearVideoKey implements Store.
func (m *Memory) ClearVideoKey(ctx context.Context) error {
	return m.SetVideoKey(ctx, "")
}

// Keyring persists the key in the OS keyring.
type Keyring struct{}

// VideoKey implements Store.
func (Keyring) VideoKey(ctx context.Context) (string, error) {
	key, err := keyring.Get(keyringService, keyringAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return key, err
}

// SetVideoKey implements Store.
func (Keyring) SetVideoKey(ctx context.Context, key string) error {
	return keyring.Set(keyringService, keyringAccount, key)
}

// ClearVideoKey implements Store.
func (Keyring) ClearVideoKey(ctx context.Context) error {
	err := keyring.Delete(keyringService, keyringAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Env reads the key from the process environment. Read-only.
type Env struct{}

// VideoKey implements Store.
func (Env) VideoKey(ctx context.Context) (string, error) {
	return os.Getenv(EnvVideoKey), nil
}

// SetVideoKey implements Store.
func (Env) SetVideoKey(ctx context.Context, key string) error { return ErrReadOnly }

// ClearVideoKey implements Store.
func (Env) ClearVideoKey(ctx context.Context) error { return ErrReadOnly }

// Chain layers stores: reads return the first non-empty key, writes go to the
// first store that accepts them.
type Chain []Store

// VideoKey implements Store.
func (c Chain) VideoKey(ctx context.Context) (string, error) {
	for _, s := range c {
		key, err := s.VideoKey(ctx)
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}
	return "", nil
}

// SetVideoKey implements Store.
func (c Chain) SetVideoKey(ctx context.Context, key string) error {
	var lastErr error = ErrReadOnly
	for _, s := range c {
		if err := s.SetVideoKey(ctx, key); err == nil {
			return nil
		} else if !errors.Is(err, ErrReadOnly) {
			lastErr = err
		}
	}
	return lastErr
}

// ClearVideoKey implements Store.
func (c Chain) ClearVideoKey(ctx context.Context) error {
	var errs []error
	for _, s := range c {
		if err := s.ClearVideoKey(ctx); err != nil && !errors.Is(err, ErrReadOnly) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Compile-time assertions that all stores satisfy the Store interface.
var (
	_ Store = (*Memory)(nil)
	_ Store = Keyring{}
	_ Store = Env{}
	_ Store = Chain{}
)
