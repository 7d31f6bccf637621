package downloader

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/logger"
)

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	Method     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d", e.Method, e.StatusCode)
}

// DownloadResult is a started download. The body is decoded lazily while it is read.
type DownloadResult struct {
	reader          io.Reader
	body            io.ReadCloser
	statusCode      int
	contentType     string
	contentEncoding string
	disposition     string
	etag            string
	lastModified    string
	wireSize        int64
	fs              adapter.FileSystem
}

// Reader returns the decoded body stream
func (d *DownloadResult) Reader() io.Reader {
	return d.reader
}

// StatusCode returns the HTTP status of the GET
func (d *DownloadResult) StatusCode() int {
	return d.statusCode
}

// ContentType returns the content type of the downloaded file
func (d *DownloadResult) ContentType() string {
	return d.contentType
}

// ContentEncoding returns the content coding the server applied
func (d *DownloadResult) ContentEncoding() string {
	return d.contentEncoding
}

// ETag returns the ETag response header
func (d *DownloadResult) ETag() string {
	return d.etag
}

// LastModified returns the Last-Modified response header
func (d *DownloadResult) LastModified() string {
	return d.lastModified
}

// WireSize returns the encoded size announced by the server (-1 if unknown)
func (d *DownloadResult) WireSize() int64 {
	return d.wireSize
}

// FileName returns the file name from Content-Disposition, or "" when absent
func (d *DownloadResult) FileName() string {
	if d.disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(d.disposition)
	if err != nil {
		return ""
	}
	return filepath.Base(params["filename"])
}

// AsFile saves the decoded body to path through a temporary file in the same
// directory, so a failed download never leaves a partial file at path.
// It returns the number of decoded bytes written.
func (d *DownloadResult) AsFile(path string) (int64, error) {
	dir := filepath.Dir(path)
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := d.fs.CreateTemp(dir, ".download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := file.Name()

	written, err := io.Copy(file, d.reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = d.fs.Remove(tmpPath)
		return 0, fmt.Errorf("failed to write to file: %w", err)
	}

	if err := d.fs.Rename(tmpPath, path); err != nil {
		_ = d.fs.Remove(tmpPath)
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}

	logger.Debug("Saved download to file",
		zap.String("path", path),
		zap.Int64("bytes", written),
	)

	return written, nil
}

// Close closes the underlying response body
func (d *DownloadResult) Close() error {
	if d.body != nil {
		return d.body.Close()
	}
	return nil
}

// Downloader defines the interface for downloading remote resources
//
//go:generate mockgen -source=downloader.go -destination=../mocks/downloader.go -package=mocks -mock_names=Downloader=MockDownloader
type Downloader interface {
	// Download starts a GET and returns a streaming, decoded body.
	// Non-2xx responses return a *StatusError.
	Download(ctx context.Context, url string) (*DownloadResult, error)
}

type downloader struct {
	httpClient adapter.HTTPClient
	fs         adapter.FileSystem
}

func NewDownloader(httpClient adapter.HTTPClient, fs adapter.FileSystem) Downloader {
	return &downloader{
		httpClient: httpClient,
		fs:         fs,
	}
}

// Download starts a GET and returns a streaming, decoded body
func (d *downloader) Download(ctx context.Context, url string) (*DownloadResult, error) {
	logger.Debug("Downloading file", zap.String("url", url))

	resp, err := d.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err), zap.String("url", url))
		}
		return nil, &StatusError{Method: http.MethodGet, StatusCode: resp.StatusCode}
	}

	encoding := resp.Header.Get("Content-Encoding")
	reader, err := Decode(encoding, resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	result := &DownloadResult{
		reader:          reader,
		body:            resp.Body,
		statusCode:      resp.StatusCode,
		contentType:     resp.Header.Get("Content-Type"),
		contentEncoding: encoding,
		disposition:     resp.Header.Get("Content-Disposition"),
		etag:            resp.Header.Get("ETag"),
		lastModified:    resp.Header.Get("Last-Modified"),
		wireSize:        contentLength(resp),
		fs:              d.fs,
	}

	logger.Debug("Download started",
		zap.String("url", url),
		zap.String("contentType", result.contentType),
		zap.String("contentEncoding", encoding),
		zap.Int64("contentLength", result.wireSize),
	)

	return result, nil
}

// contentLength prefers the header because the transport resets
// resp.ContentLength when it decodes transparently.
func contentLength(resp *http.Response) int64 {
	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return resp.ContentLength
}
