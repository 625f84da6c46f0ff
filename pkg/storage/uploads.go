package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// UploadStore persists uploaded assignment and submission files on disk.
// References follow the "<unixMillis>_<originalName>" convention so existing
// clients can keep deriving download URLs from the stored name.
type UploadStore struct {
	baseDir string
	now     func() time.Time
}

// NewUploadStore ensures the base directory exists and returns a handle.
func NewUploadStore(baseDir string) (*UploadStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &UploadStore{baseDir: baseDir, now: time.Now}, nil
}

// Put writes the payload and returns the stable reference for it.
func (s *UploadStore) Put(data []byte, originalName string) (string, error) {
	ref := fmt.Sprintf("%d_%s", s.now().UnixMilli(), filepath.Base(originalName))
	path := filepath.Join(s.baseDir, ref)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload %s: %w", ref, err)
	}
	return ref, nil
}

// Open returns a read-only handle for a stored upload.
func (s *UploadStore) Open(ref string) (*os.File, error) {
	file, err := os.Open(filepath.Join(s.baseDir, filepath.Base(ref)))
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", ref, err)
	}
	return file, nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *UploadStore) Path(ref string) string {
	return filepath.Join(s.baseDir, filepath.Base(ref))
}
