package media

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/clipnest/backend/apperr"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fileHeader(t *testing.T, name string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write(body)
	w.Close()

	req, _ := http.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestValidator(t *testing.T) {
	v := NewValidator([]string{".png", "jpg", ".mp4"}, []string{"image/png", "image/jpeg", "video/mp4"}, 1<<20)

	mt, err := v.ValidateImage(fileHeader(t, "avatar.PNG", pngHeader))
	if err != nil || mt != "image/png" {
		t.Fatalf("ValidateImage = %q, %v", mt, err)
	}

	tests := []struct {
		name string
		file string
		body []byte
	}{
		{"bad extension", "script.sh", pngHeader},
		{"spoofed content", "avatar.png", []byte("#!/bin/sh\necho hi\n")},
		{"too large", "big.png", append(pngHeader, bytes.Repeat([]byte{0}, 2<<20)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Validate(fileHeader(t, tt.file, tt.body)); !apperr.Is(err, apperr.InvalidArgument) {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
		})
	}

	if _, err := v.ValidateVideo(fileHeader(t, "clip.png", pngHeader)); !apperr.Is(err, apperr.InvalidArgument) {
		t.Fatalf("image accepted as video: %v", err)
	}
}

func TestObjectNameFromGCSURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"https://storage.googleapis.com/media/uploads/a.png", "uploads/a.png", false},
		{"https://media.storage.googleapis.com/uploads/a.png", "uploads/a.png", false},
		{"https://storage.googleapis.com/other/uploads/a.png", "", true},
		{"https://example.com/uploads/a.png", "", true},
	}
	for _, tt := range tests {
		got, err := ObjectNameFromGCSURL("media", tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ObjectNameFromGCSURL(%q) = %q, %v", tt.raw, got, err)
		}
	}
}

func TestObjectNameFromR2URL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"https://files.example.com/media/uploads/a.png", "uploads/a.png", false},
		{"https://pub-123.r2.dev/uploads/a.png", "", true},
		{"https://evil.example.com/media/uploads/a.png", "", true},
		{"https://files.example.com/other/uploads/a.png", "", true},
		{"https://files.example.com/media/", "", true},
		{"https://files.example.com/media/../secret", "", true},
		{"ftp://files.example.com/a.png", "", true},
	}
	for _, tt := range tests {
		got, err := ObjectNameFromR2URL("https://files.example.com/", "media", tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ObjectNameFromR2URL(%q) = %q, %v", tt.raw, got, err)
		}
	}
	if _, err := ObjectNameFromR2URL("", "media", "https://files.example.com/media/a.png"); err == nil {
		t.Error("expected error without a public domain")
	}
}

type failingStore struct{ deletes int }

func (f *failingStore) Upload(context.Context, string) (Uploaded, error) { return Uploaded{}, nil }
func (f *failingStore) Delete(context.Context, string) error {
	f.deletes++
	return errors.New("unavailable")
}

func TestCleanupSkipsEmptyAndSwallowsErrors(t *testing.T) {
	store := &failingStore{}
	Cleanup(store, nil)(context.Background(), "", "https://a/b", "  ", "https://a/c")
	if store.deletes != 2 {
		t.Fatalf("deletes = %d, want 2", store.deletes)
	}
}

func TestUploadMultipartSpoolsFile(t *testing.T) {
	store := NewMemory()
	up, err := UploadMultipart(context.Background(), store, fileHeader(t, "avatar.png", pngHeader))
	if err != nil {
		t.Fatalf("UploadMultipart: %v", err)
	}
	if !strings.HasPrefix(up.URL, "memory://uploads/") || !strings.HasSuffix(up.ObjectName, ".png") {
		t.Fatalf("unexpected upload %+v", up)
	}
	if len(store.Uploads()) != 1 {
		t.Fatal("expected one recorded upload")
	}
	if _, err := Noop().Upload(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("noop upload should fail, got %v", err)
	}
}
