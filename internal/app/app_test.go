package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Oracle69digitalmarketing/meetwhiz/internal/config"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/credentials"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/studio"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/workspace"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative/mock"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: "127.0.0.1:0",
			LogLevel:   config.LogInfo,
		},
	}
}

func testProviders(primary *mock.Client) *Providers {
	return &Providers{Primary: NamedClient{Name: "gemini", Client: primary}}
}

func TestNewRequiresPrimaryProvider(t *testing.T) {
	t.Parallel()
	if _, err := New(testConfig(), nil); err == nil {
		t.Error("New accepted nil providers")
	}
	if _, err := New(testConfig(), &Providers{}); err == nil {
		t.Error("New accepted an empty providers struct")
	}
}

func TestAppServesWorkspaceData(t *testing.T) {
	t.Parallel()
	a, err := New(testConfig(), testProviders(&mock.Client{}),
		WithCredentials(&credentials.Memory{}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/users = %d, want 200", rec.Code)
	}
	var users []workspace.User
	if err := json.NewDecoder(rec.Body).Decode(&users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("got %d users, want 2", len(users))
	}
}

func TestReadinessChecksPass(t *testing.T) {
	t.Parallel()
	a, err := New(testConfig(), testProviders(&mock.Client{}),
		WithCredentials(&credentials.Memory{}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /readyz = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
}

func TestFallbackProviderServesTextTasks(t *testing.T) {
	t.Parallel()
	primary := &mock.Client{GenerateTextErr: errors.New("quota exhausted")}
	fallback := &mock.Client{GenerateTextResponse: "summary from fallback"}
	providers := testProviders(primary)
	providers.Fallbacks = []NamedClient{{Name: "openai", Client: fallback}}

	a, err := New(testConfig(), providers, WithCredentials(&credentials.Memory{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("kind", "generate-summary")
	mw.WriteField("prompt", "we agreed on the roadmap")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/studio/generate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var content studio.Content
	if err := json.NewDecoder(rec.Body).Decode(&content); err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if content.Payload != "summary from fallback" {
		t.Errorf("payload = %q, want the fallback response", content.Payload)
	}
	if len(primary.TextCalls) == 0 {
		t.Error("primary was never tried")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	a, err := New(testConfig(), testProviders(&mock.Client{}),
		WithCredentials(&credentials.Memory{}),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// Give the listener a moment to come up, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
