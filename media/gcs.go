package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore opens a client with the service account file when one is
// given, and with application default credentials otherwise.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Upload(ctx context.Context, localPath string) (Uploaded, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return Uploaded{}, fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()

	name := objectName(localPath, time.Now())
	w := s.client.Bucket(s.bucket).Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType(localPath)
	w.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return Uploaded{}, fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return Uploaded{}, fmt.Errorf("upload close: %w", err)
	}
	return Uploaded{
		URL:        fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name),
		ObjectName: name,
	}, nil
}

func (s *GCSStore) Delete(ctx context.Context, rawURL string) error {
	name, err := ObjectNameFromGCSURL(s.bucket, rawURL)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

// ObjectNameFromGCSURL accepts storage.googleapis.com/<bucket>/<object> and
// <bucket>.storage.googleapis.com/<object> URLs.
func ObjectNameFromGCSURL(bucket, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	host := strings.ToLower(u.Host)
	path := strings.TrimPrefix(u.Path, "/")

	switch host {
	case "storage.googleapis.com":
		prefix := bucket + "/"
		if !strings.HasPrefix(path, prefix) || path == prefix {
			return "", fmt.Errorf("url bucket mismatch")
		}
		return strings.TrimPrefix(path, prefix), nil
	case strings.ToLower(bucket) + ".storage.googleapis.com":
		if path == "" {
			return "", fmt.Errorf("missing object path")
		}
		return path, nil
	}
	return "", fmt.Errorf("not a gcs public url")
}
