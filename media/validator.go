package media

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/clipnest/backend/apperr"
)

// Validator checks multipart uploads against size, extension and sniffed
// content type allowlists.
type Validator struct {
	allowedExt  map[string]bool
	allowedMime map[string]bool
	maxSize     int64
}

func NewValidator(extensions, mimeTypes []string, maxSize int64) *Validator {
	v := &Validator{
		allowedExt:  make(map[string]bool),
		allowedMime: make(map[string]bool),
		maxSize:     maxSize,
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		v.allowedExt[ext] = true
	}
	for _, m := range mimeTypes {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			v.allowedMime[m] = true
		}
	}
	return v
}

// Validate returns the sniffed MIME type of fh.
func (v *Validator) Validate(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", apperr.InvalidArgumentf("file is required")
	}
	if v.maxSize > 0 && fh.Size > v.maxSize {
		return "", apperr.InvalidArgumentf("file too large (max %d MB)", v.maxSize>>20)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !v.allowedExt[ext] {
		return "", apperr.InvalidArgumentf("invalid file extension %q", ext)
	}

	f, err := fh.Open()
	if err != nil {
		return "", apperr.Internalf(err, "failed to read upload")
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", apperr.InvalidArgumentf("failed to read file header")
	}

	detected := strings.ToLower(http.DetectContentType(buf[:n]))
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}
	if !v.allowedMime[detected] {
		return "", apperr.InvalidArgumentf("invalid file type %q", detected)
	}
	return detected, nil
}

// ValidateImage is Validate restricted to image types.
func (v *Validator) ValidateImage(fh *multipart.FileHeader) (string, error) {
	mt, err := v.Validate(fh)
	if err != nil {
		return "", err
	}
	if !IsImage(mt) {
		return "", apperr.InvalidArgumentf("%s must be an image", fh.Filename)
	}
	return mt, nil
}

// ValidateVideo is Validate restricted to video types.
func (v *Validator) ValidateVideo(fh *multipart.FileHeader) (string, error) {
	mt, err := v.Validate(fh)
	if err != nil {
		return "", err
	}
	if !IsVideo(mt) {
		return "", apperr.InvalidArgumentf("%s must be a video", fh.Filename)
	}
	return mt, nil
}

func IsImage(mimeType string) bool { return strings.HasPrefix(mimeType, "image/") }
func IsVideo(mimeType string) bool { return strings.HasPrefix(mimeType, "video/") }
