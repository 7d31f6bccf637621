// Package libreoffice converts legacy spreadsheets to XLSX with a headless
// LibreOffice subprocess.
package libreoffice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/logger"
)

const (
	// EnvSofficePath overrides the configured executable when the configured one is missing
	EnvSofficePath = "LIBREOFFICE_PATH"

	DefaultWaitTimeout = 90 * time.Second
)

// targets are tried in order until one produces an output file
var targets = []string{
	"xlsx",
	"xlsx:Calc MS Excel 2007 XML",
	"xlsx:Calc Office Open XML",
}

// executables are searched in PATH when no explicit path resolves
var executables = []string{"soffice", "libreoffice"}

// DocumentConverter converts a spreadsheet to XLSX
//
//go:generate mockgen -source=converter.go -destination=../mocks/libreoffice.go -package=mocks -mock_names=DocumentConverter=MockDocumentConverter
type DocumentConverter interface {
	// ConvertToXLSX converts src and returns the path of the XLSX file written next to it
	ConvertToXLSX(ctx context.Context, src string) (string, error)
}

// Config holds the converter configuration
type Config struct {
	// SofficePath is the preferred executable
	SofficePath string
	// WaitTimeout bounds every conversion attempt
	WaitTimeout time.Duration
}

type converter struct {
	cfg    Config
	runner adapter.CommandRunner
	fs     adapter.FileSystem
}

// NewConverter creates a LibreOffice backed DocumentConverter
func NewConverter(cfg Config, runner adapter.CommandRunner, fs adapter.FileSystem) DocumentConverter {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	return &converter{cfg: cfg, runner: runner, fs: fs}
}

// ConvertToXLSX copies src into a scratch directory beside it, runs soffice
// with an isolated profile and moves the result to src with an .xlsx extension.
// An existing file at the destination is replaced.
func (c *converter) ConvertToXLSX(ctx context.Context, src string) (string, error) {
	if _, err := c.fs.Stat(src); err != nil {
		return "", fmt.Errorf("source spreadsheet: %w", err)
	}

	soffice, err := c.resolveSoffice()
	if err != nil {
		return "", err
	}

	work, err := c.fs.MkdirTemp(filepath.Dir(src), ".lo-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() {
		if err := c.fs.RemoveAll(work); err != nil {
			logger.WarnCtx(ctx, "Failed to remove conversion work directory", zap.String("dir", work), zap.Error(err))
		}
	}()

	profile := filepath.Join(work, "profile")
	if err := c.fs.MkdirAll(profile, 0o755); err != nil {
		return "", fmt.Errorf("failed to create profile directory: %w", err)
	}

	in, err := c.copyInput(work, src)
	if err != nil {
		return "", err
	}
	out := strings.TrimSuffix(in, filepath.Ext(in)) + ".xlsx"

	profileURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(profile)}).String()

	var (
		lastStdout, lastStderr []byte
		lastErr                error
		converted              bool
	)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		args := []string{
			"--headless", "--nologo", "--norestore", "--nolockcheck", "--nodefault",
			"-env:UserInstallation=" + profileURL,
			"--convert-to", target,
			"--outdir", work,
			in,
		}

		runCtx, cancel := context.WithTimeout(ctx, c.cfg.WaitTimeout)
		lastStdout, lastStderr, lastErr = c.runner.Run(runCtx, work, soffice, args...)
		cancel()

		if _, err := c.fs.Stat(out); err == nil {
			converted = true
			break
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		logger.DebugCtx(ctx, "Conversion attempt produced no output",
			zap.String("src", src),
			zap.String("target", target),
			zap.ByteString("stderr", lastStderr),
			zap.Error(lastErr),
		)
	}

	if !converted {
		err := fmt.Errorf("%w: %s\nSTDOUT:\n%s\nSTDERR:\n%s", domain.ErrConversionFailed, src, lastStdout, lastStderr)
		if lastErr != nil {
			err = fmt.Errorf("%w (last run: %v)", err, lastErr)
		}
		logger.ErrorCtx(ctx, err, zap.String("soffice", soffice))
		return "", err
	}

	dst := strings.TrimSuffix(src, filepath.Ext(src)) + ".xlsx"
	if err := c.fs.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	if err := c.fs.Rename(out, dst); err != nil {
		return "", fmt.Errorf("failed to move converted workbook: %w", err)
	}

	logger.InfoCtx(ctx, "Converted spreadsheet", zap.String("src", src), zap.String("dst", dst))

	return dst, nil
}

// resolveSoffice returns the configured path, then LIBREOFFICE_PATH, then the
// first executable found in PATH
func (c *converter) resolveSoffice() (string, error) {
	for _, candidate := range []string{c.cfg.SofficePath, os.Getenv(EnvSofficePath)} {
		if candidate == "" {
			continue
		}
		if info, err := c.fs.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	for _, name := range executables {
		if p, err := c.runner.LookPath(name); err == nil && p != "" {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: set libreoffice.soffice_path or %s", domain.ErrSofficeNotFound, EnvSofficePath)
}

// copyInput copies src into dir under an ASCII name that keeps its extension
func (c *converter) copyInput(dir, src string) (string, error) {
	r, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open source spreadsheet: %w", err)
	}
	defer r.Close()

	w, err := c.fs.CreateTemp(dir, "in-*"+strings.ToLower(filepath.Ext(src)))
	if err != nil {
		return "", fmt.Errorf("failed to create input copy: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to copy source spreadsheet: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close input copy: %w", err)
	}
	return w.Name(), nil
}
