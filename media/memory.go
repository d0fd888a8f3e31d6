package media

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// Memory is a Store that only records calls. Tests and local runs use it.
type Memory struct {
	mu      sync.Mutex
	uploads []Uploaded
	deleted []string
	// Duration is reported for every upload when set.
	Duration *float64
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Upload(_ context.Context, localPath string) (Uploaded, error) {
	if _, err := os.Stat(localPath); err != nil {
		return Uploaded{}, err
	}
	name := objectName(filepath.Base(localPath), time.Now())
	up := Uploaded{URL: "memory://" + name, ObjectName: name, Duration: m.Duration}
	m.mu.Lock()
	m.uploads = append(m.uploads, up)
	m.mu.Unlock()
	return up, nil
}

func (m *Memory) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, url)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Uploads() []Uploaded {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.uploads)
}

func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.deleted)
}
