package converter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/providingshelter/ingest/internal/format"
)

// extractedDir is the sibling directory receiving archive members
const extractedDir = "extracted"

// ZipConverter extracts archive members next to the archive and produces no JSON.
// Members are written to a scratch directory that replaces the previous
// extraction only when every member was written.
type ZipConverter struct{}

func NewZipConverter() *ZipConverter { return &ZipConverter{} }

func (c *ZipConverter) Name() string { return "ZIP (extract-only)" }

func (c *ZipConverter) CanHandle(rc Context) bool {
	return rc.Format == format.ZIP
}

func (c *ZipConverter) Convert(ctx context.Context, rc Context) (*string, error) {
	zr, err := zip.OpenReader(rc.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	parent := filepath.Dir(rc.LocalPath)
	scratch, err := os.MkdirTemp(parent, extractedDir+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := extractMember(scratch, f); err != nil {
			return nil, err
		}
	}

	target := filepath.Join(parent, extractedDir)
	if err := os.RemoveAll(target); err != nil {
		return nil, fmt.Errorf("failed to remove previous extraction: %w", err)
	}
	if err := os.Rename(scratch, target); err != nil {
		return nil, fmt.Errorf("failed to move extraction into place: %w", err)
	}

	return nil, nil
}

func extractMember(dir string, f *zip.File) error {
	name := filepath.FromSlash(f.Name)
	if !filepath.IsLocal(name) {
		return fmt.Errorf("archive member %q escapes the extraction directory", f.Name)
	}
	dest := filepath.Join(dir, name)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open member %s: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec,G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil { //nolint:gosec,G110
		_ = out.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return out.Close()
}
