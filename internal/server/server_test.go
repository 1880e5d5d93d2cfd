package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Oracle69digitalmarketing/meetwhiz/internal/credentials"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/health"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/media"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/scribe"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/studio"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/workspace"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/generative/mock"
	"github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/recognition"
	recmock "github.com/Oracle69digitalmarketing/meetwhiz/pkg/provider/recognition/mock"
)

// staticCreds resolves a fixed video key.
type staticCreds string

func (c staticCreds) VideoKey(context.Context) (string, error) { return string(c), nil }

type testEnv struct {
	server *Server
	store  *workspace.MemStore
	client *mock.Client
}

func newTestEnv(t *testing.T, client *mock.Client) *testEnv {
	t.Helper()
	if client == nil {
		client = &mock.Client{}
	}
	store := workspace.NewMemStore()
	blobs, err := NewBlobStore()
	if err != nil {
		t.Fatalf("NewBlobStore returned error: %v", err)
	}
	dispatcher := studio.New(client, media.NewEncoder(), staticCreds("granted"),
		studio.WithPollInterval(time.Millisecond),
		studio.WithBlobPublisher(blobs.Publish),
	)
	srv := New(Config{
		Store:      store,
		Dispatcher: dispatcher,
		Chat:       client,
		Blobs:      blobs,
		NewScribe: func(onUpdate func(scribe.Snapshot)) *scribe.Session {
			return scribe.NewSession(
				&recmock.Provider{ListenErr: recognition.ErrUnavailable},
				client,
				scribe.WithUpdateListener(onUpdate),
			)
		},
		Credentials: &credentials.Memory{},
		Health:      health.New(),
	})
	return &testEnv{server: srv, store: store, client: client}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// multipartBody builds a studio generate request body.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte, frames [][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %q: %v", k, err)
		}
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		fw.Write(data)
	}
	for i, data := range frames {
		fw, err := mw.CreateFormFile("frames", "frame"+string(rune('0'+i))+".jpg")
		if err != nil {
			t.Fatalf("create frame part: %v", err)
		}
		fw.Write(data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// ── Workspace routes ──────────────────────────────────────────────────────────

func TestListUsers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/users", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var users []workspace.User
	decodeInto(t, rec, &users)
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}
	if users[0].Name != "Alex Starr (Admin)" || users[1].Name != "Casey Lane (Member)" {
		t.Errorf("unexpected user names: %q, %q", users[0].Name, users[1].Name)
	}
}

func TestGetUserNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	if rec := env.do(t, http.MethodGet, "/api/users/99", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMeetingsIncludeActionPoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/meetings/m1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var meeting workspace.Meeting
	decodeInto(t, rec, &meeting)
	if len(meeting.ActionPoints) != 3 {
		t.Errorf("m1 has %d action points, want 3", len(meeting.ActionPoints))
	}
}

func TestActionPointAssigneeFilter(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/actionpoints?assignee="+url.QueryEscape("Casey Lane"), nil, "")
	var aps []workspace.ActionPoint
	decodeInto(t, rec, &aps)
	if len(aps) != 3 {
		t.Errorf("got %d action points for Casey Lane, want 3", len(aps))
	}
}

func TestUpdateActionPointStatus(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPatch, "/api/actionpoints/ap1/status",
		strings.NewReader(`{"status":"Completed"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ap workspace.ActionPoint
	decodeInto(t, rec, &ap)
	if ap.Status != workspace.StatusCompleted {
		t.Errorf("status = %q, want Completed", ap.Status)
	}

	rec = env.do(t, http.MethodPatch, "/api/actionpoints/ap1/status",
		strings.NewReader(`{"status":"Bogus"}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status: code = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/api/actionpoints/ap99/status",
		strings.NewReader(`{"status":"Completed"}`), "application/json")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: code = %d, want 404", rec.Code)
	}
}

// ── Studio routes ─────────────────────────────────────────────────────────────

func TestGenerateSummary(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, &mock.Client{GenerateTextResponse: "Action: ship report by Friday"})

	body, ct := multipartBody(t, map[string]string{
		"kind":   "generate-summary",
		"prompt": "we agreed to ship the report",
	}, nil, nil)
	rec := env.do(t, http.MethodPost, "/api/studio/generate", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var content studio.Content
	decodeInto(t, rec, &content)
	if content.Kind != studio.ContentText {
		t.Errorf("kind = %q, want text", content.Kind)
	}
	if content.Payload != "Action: ship report by Friday" {
		t.Errorf("payload = %q", content.Payload)
	}
}

func TestGenerateMissingPrompt(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	body, ct := multipartBody(t, map[string]string{"kind": "generate-summary"}, nil, nil)
	rec := env.do(t, http.MethodPost, "/api/studio/generate", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errBody map[string]string
	decodeInto(t, rec, &errBody)
	if errBody["error"] == "" {
		t.Error("error body is empty")
	}
	if len(env.client.TextCalls) != 0 {
		t.Errorf("provider was called %d times before validation", len(env.client.TextCalls))
	}
}

func TestGenerateUnknownKind(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	body, ct := multipartBody(t, map[string]string{"kind": "compose-poem"}, nil, nil)
	if rec := env.do(t, http.MethodPost, "/api/studio/generate", body, ct); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeDocumentUpload(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, &mock.Client{GenerateTextResponse: "Key point: budget approved."})

	body, ct := multipartBody(t,
		map[string]string{"kind": "analyze-document"},
		map[string][]byte{"notes.txt": []byte("The budget was approved unanimously.")},
		nil,
	)
	rec := env.do(t, http.MethodPost, "/api/studio/generate", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var content studio.Content
	decodeInto(t, rec, &content)
	if content.Payload != "Key point: budget approved." {
		t.Errorf("payload = %q", content.Payload)
	}
	if len(env.client.TextCalls) != 1 {
		t.Fatalf("provider called %d times, want 1", len(env.client.TextCalls))
	}
	if !strings.Contains(env.client.TextCalls[0].Req.Prompt, "The budget was approved unanimously.") {
		t.Errorf("document text missing from prompt %q", env.client.TextCalls[0].Req.Prompt)
	}
}

func TestSummarizeVideoWithFrames(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, &mock.Client{GenerateTextResponse: "A walkthrough of the dashboard."})

	body, ct := multipartBody(t,
		map[string]string{"kind": "summarize-video"},
		map[string][]byte{"demo.mp4": []byte("not-a-real-video")},
		[][]byte{[]byte("f0"), []byte("f1"), []byte("f2")},
	)
	rec := env.do(t, http.MethodPost, "/api/studio/generate", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	if len(env.client.TextCalls) != 1 {
		t.Fatalf("provider called %d times, want 1", len(env.client.TextCalls))
	}
	if parts := env.client.TextCalls[0].Req.Media; len(parts) == 0 {
		t.Error("no frames attached to the provider request")
	}
}

func TestGenerateImagePublishesBlob(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, &mock.Client{
		GenerateImageResponse: &generative.ImageData{MIMEType: "image/png", Data: []byte("png-bytes")},
	})

	body, ct := multipartBody(t, map[string]string{
		"kind":   "generate-image",
		"prompt": "a calm harbor at dawn",
	}, nil, nil)
	rec := env.do(t, http.MethodPost, "/api/studio/generate", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var content studio.Content
	decodeInto(t, rec, &content)
	if content.Kind != studio.ContentImage {
		t.Fatalf("kind = %q, want image", content.Kind)
	}
	if !strings.HasPrefix(content.Payload, "/api/blobs/") {
		t.Fatalf("payload = %q, want a blob reference", content.Payload)
	}

	blobRec := env.do(t, http.MethodGet, content.Payload, nil, "")
	if blobRec.Code != http.StatusOK {
		t.Fatalf("blob fetch status = %d, want 200", blobRec.Code)
	}
	if got := blobRec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("blob content type = %q", got)
	}
	if blobRec.Body.String() != "png-bytes" {
		t.Errorf("blob body = %q", blobRec.Body.String())
	}
}

func TestCurrentContent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, &mock.Client{GenerateTextResponse: "done"})

	if rec := env.do(t, http.MethodGet, "/api/studio/content", nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("empty content status = %d, want 204", rec.Code)
	}

	body, ct := multipartBody(t, map[string]string{"kind": "generate-summary", "prompt": "x"}, nil, nil)
	env.do(t, http.MethodPost, "/api/studio/generate", body, ct)

	rec := env.do(t, http.MethodGet, "/api/studio/content", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var content studio.Content
	decodeInto(t, rec, &content)
	if content.Payload != "done" {
		t.Errorf("payload = %q", content.Payload)
	}
}

func TestListTasks(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/studio/tasks", nil, "")
	var tasks []taskInfo
	decodeInto(t, rec, &tasks)
	if len(tasks) != 6 {
		t.Fatalf("got %d tasks, want 6", len(tasks))
	}
	for _, task := range tasks {
		if task.Label == "" {
			t.Errorf("task %q has no label", task.Kind)
		}
	}
}

func TestBlobNotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	if rec := env.do(t, http.MethodGet, "/api/blobs/deadbeef", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// ── Credential routes ─────────────────────────────────────────────────────────

func TestVideoCredentialLifecycle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	configured := func() bool {
		rec := env.do(t, http.MethodGet, "/api/credentials/video", nil, "")
		var body map[string]bool
		decodeInto(t, rec, &body)
		return body["configured"]
	}

	if configured() {
		t.Fatal("key configured before being set")
	}
	if rec := env.do(t, http.MethodPut, "/api/credentials/video",
		strings.NewReader(`{"key":"veo-key"}`), "application/json"); rec.Code != http.StatusNoContent {
		t.Fatalf("set status = %d, want 204", rec.Code)
	}
	if !configured() {
		t.Fatal("key not configured after set")
	}
	if rec := env.do(t, http.MethodDelete, "/api/credentials/video", nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want 204", rec.Code)
	}
	if configured() {
		t.Error("key still configured after clear")
	}

	if rec := env.do(t, http.MethodPut, "/api/credentials/video",
		strings.NewReader(`{"key":""}`), "application/json"); rec.Code != http.StatusBadRequest {
		t.Errorf("empty key status = %d, want 400", rec.Code)
	}
}

// ── Operational routes ────────────────────────────────────────────────────────

func TestOperationalRoutes(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		if rec := env.do(t, http.MethodGet, path, nil, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
