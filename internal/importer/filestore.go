package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/domain"
)

const uploadDateLayout = "20060102"

// SavedFile describes an upload written to disk
type SavedFile struct {
	Path string
	// SHA256 is the lower-case hex digest of the bytes written
	SHA256 string
	Size   int64
}

// FileStore persists uploads under a dated directory
type FileStore struct {
	root  string
	fs    adapter.FileSystem
	clock adapter.Clock
}

func NewFileStore(root string, fs adapter.FileSystem, clock adapter.Clock) *FileStore {
	return &FileStore{root: root, fs: fs, clock: clock}
}

// Save writes r to {root}/{yyyyMMdd}/{name}_{ulid}{ext} and hashes it on the way.
// An empty body is rejected and leaves nothing behind.
func (s *FileStore) Save(ctx context.Context, name string, r io.Reader) (*SavedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	dir := filepath.Join(s.root, now.Format(uploadDateLayout))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	ext := filepath.Ext(filepath.Base(name))
	stem := safeName(strings.TrimSuffix(filepath.Base(name), ext))
	final := filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, ulid.MustNewDefault(now).String(), ext))

	tmp, err := s.fs.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	tmpPath := tmp.Name()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && size == 0 {
		err = domain.ErrEmptyUpload
	}
	if err != nil {
		_ = s.fs.Remove(tmpPath)
		return nil, fmt.Errorf("failed to save upload %s: %w", name, err)
	}

	if err := s.fs.Rename(tmpPath, final); err != nil {
		_ = s.fs.Remove(tmpPath)
		return nil, fmt.Errorf("failed to move upload into place: %w", err)
	}

	return &SavedFile{
		Path:   final,
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
		Size:   size,
	}, nil
}

// safeName replaces characters that are not valid in file names
func safeName(stem string) string {
	stem = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(stem))
	if stem == "" {
		return "upload"
	}
	return stem
}
