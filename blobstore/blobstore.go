package blobstore

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/DustGalaxy/dZENcode-Test-Task/apperror"
)

// BlobStore stores raw attachment payloads and hands back a public URL.
// Provider errors are mapped to validation failures by the upload handler.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (url string, err error)
}

// LocalStore writes blobs to a date-sharded directory under the static file
// root, the same way uploaded files are laid out on disk by the web server.
type LocalStore struct {
	baseDir string
	baseURL string
	maxSize int64
}

// NewLocalStore creates a store rooted at baseDir, served under baseURL
// (e.g. "/static/uploads"). maxSize bounds a single blob in bytes.
func NewLocalStore(baseDir, baseURL string, maxSize int64) *LocalStore {
	return &LocalStore{baseDir: baseDir, baseURL: baseURL, maxSize: maxSize}
}

func (s *LocalStore) Upload(_ context.Context, data []byte, contentType string) (string, error) {
	if int64(len(data)) > s.maxSize {
		return "", apperror.ValidationFailed("file", fmt.Sprintf("blob exceeds %d bytes", s.maxSize))
	}

	now := time.Now()
	shard := filepath.Join(now.Format("2006"), now.Format("01"), now.Format("02"))
	dir := filepath.Join(s.baseDir, shard)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	name := uuid.New().String() + extensionFor(contentType)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, filepath.ToSlash(shard), name), nil
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	// ExtensionsByType is sorted; prefer the common short ones for images.
	for _, known := range []string{".jpg", ".png", ".gif", ".webp", ".txt"} {
		for _, e := range exts {
			if e == known {
				return known
			}
		}
	}
	return exts[0]
}
