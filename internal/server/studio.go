package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Oracle69digitalmarketing/meetwhiz/internal/media"
	"github.com/Oracle69digitalmarketing/meetwhiz/internal/studio"
)

// maxUploadBytes caps the multipart form size of a generate request.
const maxUploadBytes = 64 << 20

// generate handles POST /api/studio/generate. The request is a multipart
// form: "kind" (task identifier), optional "prompt", optional "file", and —
// for video summarization — repeated "frames" parts carrying the frames the
// browser rasterized from the uploaded video.
func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	kind, err := studio.ParseTaskKind(r.FormValue("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := studio.Request{Kind: kind, Prompt: r.FormValue("prompt")}
	req.Attachment, err = formAttachment(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	content, err := s.studio.Dispatch(r.Context(), req)
	if err != nil {
		s.metrics.RecordTask(r.Context(), string(kind), "error", time.Since(start).Seconds())
		writeError(w, statusForError(err), studio.UserMessage(err))
		return
	}
	s.metrics.RecordTask(r.Context(), string(kind), "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, content)
}

// currentContent handles GET /api/studio/content: the most recent successful
// result, or 204 when the display is blank.
func (s *Server) currentContent(w http.ResponseWriter, _ *http.Request) {
	content, ok := s.studio.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// taskInfo describes one task kind to the client.
type taskInfo struct {
	Kind  studio.TaskKind `json:"kind"`
	Label string          `json:"label"`
}

// listTasks handles GET /api/studio/tasks.
func (s *Server) listTasks(w http.ResponseWriter, _ *http.Request) {
	kinds := studio.Kinds()
	infos := make([]taskInfo, 0, len(kinds))
	for _, k := range kinds {
		infos = append(infos, taskInfo{Kind: k, Label: k.Label()})
	}
	writeJSON(w, http.StatusOK, infos)
}

// formAttachment assembles the dispatcher attachment from the "file" part
// and, when present, the browser-rasterized "frames" parts. Returns nil when
// the request carries no file.
func formAttachment(r *http.Request) (*media.Attachment, error) {
	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read file part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", header.Filename, err)
	}
	att := &media.Attachment{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Data:     data,
	}

	frames, err := formFrames(r.MultipartForm.File["frames"])
	if err != nil {
		return nil, err
	}
	if len(frames) > 0 {
		att.Video = media.NewFrameSet(frames)
	}
	return att, nil
}

func formFrames(headers []*multipart.FileHeader) ([]media.Frame, error) {
	frames := make([]media.Frame, 0, len(headers))
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open frame %d: %w", i, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", i, err)
		}
		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		frames = append(frames, media.Frame{MIMEType: mimeType, Data: data})
	}
	return frames, nil
}

// ── Video credential routes ───────────────────────────────────────────────────

func (s *Server) videoKeyStatus(w http.ResponseWriter, r *http.Request) {
	key, err := s.creds.VideoKey(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "credential store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"configured": key != ""})
}

func (s *Server) setVideoKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if err := decodeBody(r, &body); err != nil || body.Key == "" {
		writeError(w, http.StatusBadRequest, "a non-empty key is required")
		return
	}
	if err := s.creds.SetVideoKey(r.Context(), body.Key); err != nil {
		writeError(w, http.StatusForbidden, "credential store is read-only")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearVideoKey(w http.ResponseWriter, r *http.Request) {
	if err := s.creds.ClearVideoKey(r.Context()); err != nil {
		writeError(w, http.StatusForbidden, "credential store is read-only")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
