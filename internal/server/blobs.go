package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// blobCacheSize bounds how many generated media payloads stay serveable.
// Evicted blobs return 404; clients inline-fetch results promptly, so a
// small window is enough.
const blobCacheSize = 64

// blob is one stored media payload.
type blob struct {
	mimeType string
	data     []byte
}

// BlobStore holds generated media bytes and serves them over HTTP. It
// implements the dispatcher's blob-publishing contract: Publish returns a
// relative URL under /api/blobs/. Safe for concurrent use.
type BlobStore struct {
	cache *lru.Cache[string, blob]
}

// NewBlobStore creates an empty store.
func NewBlobStore() (*BlobStore, error) {
	cache, err := lru.New[string, blob](blobCacheSize)
	if err != nil {
		return nil, err
	}
	return &BlobStore{cache: cache}, nil
}

// Publish stores the payload and returns its serveable reference. Identical
// payloads share one entry.
func (b *BlobStore) Publish(_ context.Context, mimeType string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	id := hex.EncodeToString(sum[:16])
	b.cache.Add(id, blob{mimeType: mimeType, data: data})
	return "/api/blobs/" + id, nil
}

// Get retrieves a stored payload by ID.
func (b *BlobStore) Get(id string) (mimeType string, data []byte, ok bool) {
	entry, ok := b.cache.Get(id)
	if !ok {
		return "", nil, false
	}
	return entry.mimeType, entry.data, true
}

// serveBlob handles GET /api/blobs/{id}.
func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request) {
	mimeType, data, ok := s.blobs.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600, immutable")
	w.Write(data)
}
