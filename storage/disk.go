package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"duo-chat/errors"
)

// DiskBlobStore writes attachment bytes under a single uploads directory.
// Stored names are time based, with an atomic counter as a tie breaker so
// two attachments saved in the same millisecond never collide. The caller
// never picks the stored name; it only gets the reference back.
type DiskBlobStore struct {
	dir string
	log *slog.Logger
	seq atomic.Uint64
}

func NewDiskBlobStore(dir string, log *slog.Logger) (*DiskBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob store dir: %w", err)
	}
	return &DiskBlobStore{dir: dir, log: log}, nil
}

// Save persists the bytes and returns the stored reference. The extension
// comes from the declared name; when the name carries none, the content is
// sniffed instead so the serving layer can still pick a content type.
func (s *DiskBlobStore) Save(name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		ext = mimetype.Detect(data).Extension()
	}

	ref := fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), s.seq.Add(1), ext)
	path := filepath.Join(s.dir, ref)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob write: %w", err)
	}

	s.log.Debug("Blob saved", "ref", ref, "bytes", len(data))
	return ref, nil
}

// Open resolves a stored reference back to its bytes.
func (s *DiskBlobStore) Open(ref string) ([]byte, error) {
	// References are bare file names; anything path-like is hostile input.
	if ref == "" || filepath.Base(ref) != ref {
		return nil, errors.ErrBlobOutsideStore
	}
	return os.ReadFile(filepath.Join(s.dir, ref))
}

// Dir exposes the uploads directory for the static file handler.
func (s *DiskBlobStore) Dir() string {
	return s.dir
}
