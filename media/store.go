// Package media stores uploaded files in a blob store and removes them when
// the documents that reference them are deleted.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned by the no-op store.
var ErrNotConfigured = errors.New("media storage is not configured")

// Uploaded describes a stored object. Duration is set only when the store
// can measure the media length.
type Uploaded struct {
	URL        string
	ObjectName string
	Duration   *float64
}

type Store interface {
	Upload(ctx context.Context, localPath string) (Uploaded, error)
	Delete(ctx context.Context, url string) error
}

type noop struct{}

// Noop returns a Store that rejects uploads and ignores deletes.
func Noop() Store { return noop{} }

func (noop) Upload(context.Context, string) (Uploaded, error) { return Uploaded{}, ErrNotConfigured }
func (noop) Delete(context.Context, string) error             { return nil }

// objectName builds a unique key that keeps the file extension.
func objectName(localPath string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("uploads/%s/%d-%s%s", now.UTC().Format("2006/01"), now.Unix(), uuid.NewString(), ext)
}

func contentType(localPath string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// UploadMultipart spools fh to a temporary file, uploads it and removes the
// temporary copy.
func UploadMultipart(ctx context.Context, store Store, fh *multipart.FileHeader) (Uploaded, error) {
	src, err := fh.Open()
	if err != nil {
		return Uploaded{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+strings.ToLower(filepath.Ext(fh.Filename)))
	if err != nil {
		return Uploaded{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		return Uploaded{}, fmt.Errorf("spool upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Uploaded{}, fmt.Errorf("close temp file: %w", err)
	}
	return store.Upload(ctx, tmp.Name())
}

// CleanupFunc deletes blobs referenced by a deleted document.
type CleanupFunc func(ctx context.Context, urls ...string)

// Cleanup returns the delete hook for store. Failures are logged only, since
// the owning document is already gone.
func Cleanup(store Store, logger *slog.Logger) CleanupFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, urls ...string) {
		for _, u := range urls {
			if strings.TrimSpace(u) == "" {
				continue
			}
			if err := store.Delete(ctx, u); err != nil {
				logger.Warn("blob delete failed", "url", u, "error", err)
			}
		}
	}
}
