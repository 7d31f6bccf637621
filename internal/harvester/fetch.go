package harvester

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/converter"
	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/downloader"
	"github.com/providingshelter/ingest/internal/format"
	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/store"
	"github.com/providingshelter/ingest/internal/store/schema"
	"github.com/providingshelter/ingest/internal/types"
)

// skippedPrefix starts the Error of every skip attempt
const skippedPrefix = "skipped: "

// headers holds the response metadata recorded on an attempt
type headers struct {
	contentType     string
	contentEncoding string
	etag            string
	lastModified    *time.Time
	wireSize        int64
}

// processResource gates, downloads, normalizes and records one resource.
// It returns the manifest status. The error is only set when ctx is done.
func (h *Harvester) processResource(ctx context.Context, r schema.DatasetResource, downloadUnknown bool) (domain.ResourceStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rawURL := r.URL()
	formatTag := format.Resolve(types.SafeString(r.Format), rawURL)

	decision := h.policy.Decide(formatTag, downloadUnknown)
	if !decision.Fetch {
		return h.skip(ctx, r, formatTag, decision.Reason), nil
	}
	if rawURL == "" {
		return h.skip(ctx, r, formatTag, domain.ErrNoURL.Error()), nil
	}

	attempt := &schema.FetchAttempt{
		DatasetID:      r.DatasetID,
		ResourceKey:    r.ResourceKey,
		FetchedAt:      h.clock.Now(),
		DetectedFormat: optional(formatTag),
	}

	input, err := h.fetch(ctx, r, rawURL, formatTag, attempt)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.WarnCtx(ctx, "Resource fetch failed",
			zap.String("datasetID", r.DatasetID),
			zap.String("resourceKey", r.ResourceKey),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		attempt.Ok = false
		attempt.Error = types.StringPtr(err.Error())
		input = store.RecordFetchInput{Attempt: attempt, Status: domain.ResourceStatusError}
	}

	return h.record(ctx, input), nil
}

func (h *Harvester) skip(ctx context.Context, r schema.DatasetResource, formatTag, reason string) domain.ResourceStatus {
	logger.DebugCtx(ctx, "Skipping resource",
		zap.String("datasetID", r.DatasetID),
		zap.String("resourceKey", r.ResourceKey),
		zap.String("format", formatTag),
		zap.String("reason", reason),
	)

	return h.record(ctx, store.RecordFetchInput{
		Attempt: &schema.FetchAttempt{
			DatasetID:      r.DatasetID,
			ResourceKey:    r.ResourceKey,
			FetchedAt:      h.clock.Now(),
			DetectedFormat: optional(formatTag),
			Ok:             false,
			Error:          types.StringPtr(skippedPrefix + reason),
		},
		Status: domain.ResourceStatusSkipped,
	})
}

// record persists the outcome and returns the status that was written
func (h *Harvester) record(ctx context.Context, input store.RecordFetchInput) domain.ResourceStatus {
	if err := h.store.RecordFetch(ctx, input); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record fetch: %w", err),
			zap.String("datasetID", input.Attempt.DatasetID),
			zap.String("resourceKey", input.Attempt.ResourceKey),
		)
		return domain.ResourceStatusError
	}
	return input.Status
}

// fetch runs HEAD, GET, normalization and the storage decision. Fields of
// attempt are filled as they become known so a failure still records them.
func (h *Harvester) fetch(ctx context.Context, r schema.DatasetResource, rawURL, formatTag string, attempt *schema.FetchAttempt) (store.RecordFetchInput, error) {
	meta, err := h.head(ctx, rawURL, attempt)
	if err != nil {
		return store.RecordFetchInput{}, err
	}

	if err := ctx.Err(); err != nil {
		return store.RecordFetchInput{}, err
	}
	dl, err := h.downloader.Download(ctx, rawURL)
	if err != nil {
		var statusErr *downloader.StatusError
		if errors.As(err, &statusErr) {
			attempt.HTTPStatus = types.IntPtr(statusErr.StatusCode)
		}
		return store.RecordFetchInput{}, err
	}
	defer dl.Close()

	attempt.HTTPStatus = types.IntPtr(dl.StatusCode())
	meta.merge(headers{
		contentType:     dl.ContentType(),
		contentEncoding: dl.ContentEncoding(),
		etag:            dl.ETag(),
		lastModified:    parseHTTPTime(dl.LastModified()),
		wireSize:        dl.WireSize(),
	})
	meta.apply(attempt)

	savedPath := filepath.Join(h.cfg.RootPath, r.DatasetID, r.ResourceKey, fileName(dl.FileName(), rawURL, r.ResourceKey))
	saved, err := dl.AsFile(savedPath)
	if err != nil {
		return store.RecordFetchInput{}, err
	}
	attempt.SavedPath = &savedPath
	attempt.SavedSizeBytes = types.Int64Ptr(saved)

	// blank and generic container tags are refined from the saved bytes
	if formatTag == "" || h.policy.IsContainer(formatTag) {
		if sniffed := format.DetectFile(savedPath); sniffed != "" || formatTag == "" {
			formatTag = sniffed
			attempt.DetectedFormat = optional(formatTag)
		}
	}

	outcome := h.converters.TryConvert(ctx, converter.Context{
		DatasetID:   r.DatasetID,
		ResourceKey: r.ResourceKey,
		SourceURL:   rawURL,
		ContentType: meta.contentType,
		Format:      formatTag,
		LocalPath:   savedPath,
	})
	attempt.Converter = types.StringPtr(outcome.Converter)

	content, err := h.buildContent(r, outcome.JSON, savedPath, attempt.WireSizeBytes, saved)
	if err != nil {
		return store.RecordFetchInput{}, err
	}

	attempt.Ok = true
	return store.RecordFetchInput{
		Attempt: attempt,
		Status:  domain.ResourceStatusOK,
		Telemetry: &store.ResourceTelemetry{
			WireSizeBytes:  attempt.WireSizeBytes,
			SavedSizeBytes: attempt.SavedSizeBytes,
			LastModified:   meta.lastModified,
			ETag:           optional(meta.etag),
		},
		Content: content,
	}, nil
}

// head issues the HEAD request. Method-not-allowed is tolerated.
func (h *Harvester) head(ctx context.Context, rawURL string, attempt *schema.FetchAttempt) (*headers, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := h.httpClient.Head(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("HEAD: %w", err)
	}
	if err := resp.Body.Close(); err != nil {
		logger.Warn("failed to close response body", zap.Error(err), zap.String("url", rawURL))
	}

	if resp.StatusCode == http.StatusMethodNotAllowed {
		return &headers{wireSize: -1}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		attempt.HTTPStatus = types.IntPtr(resp.StatusCode)
		return nil, &downloader.StatusError{Method: http.MethodHead, StatusCode: resp.StatusCode}
	}

	meta := &headers{
		contentType:     resp.Header.Get("Content-Type"),
		contentEncoding: resp.Header.Get("Content-Encoding"),
		etag:            resp.Header.Get("ETag"),
		lastModified:    parseHTTPTime(resp.Header.Get("Last-Modified")),
		wireSize:        -1,
	}
	if v := resp.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			meta.wireSize = n
		}
	}
	return meta, nil
}

// merge prefers the values of the GET response
func (m *headers) merge(get headers) {
	if get.contentType != "" {
		m.contentType = get.contentType
	}
	if get.contentEncoding != "" {
		m.contentEncoding = get.contentEncoding
	}
	if get.etag != "" {
		m.etag = get.etag
	}
	if get.lastModified != nil {
		m.lastModified = get.lastModified
	}
	if get.wireSize >= 0 {
		m.wireSize = get.wireSize
	}
}

func (m *headers) apply(attempt *schema.FetchAttempt) {
	attempt.ContentType = optional(m.contentType)
	attempt.ContentEncoding = optional(m.contentEncoding)
	attempt.ETag = optional(m.etag)
	attempt.LastModified = m.lastModified
	if m.wireSize >= 0 {
		attempt.WireSizeBytes = types.Int64Ptr(m.wireSize)
	}
}

// buildContent stores the JSON inline when it fits under the ceiling and
// falls back to a reference to the saved file otherwise.
func (h *Harvester) buildContent(r schema.DatasetResource, json *string, savedPath string, wireSize *int64, saved int64) (*schema.ResourceContent, error) {
	content := &schema.ResourceContent{
		DatasetID:      r.DatasetID,
		ResourceKey:    r.ResourceKey,
		WireSizeBytes:  wireSize,
		SavedSizeBytes: types.Int64Ptr(saved),
		ConvertedAt:    h.clock.Now(),
	}

	if json != nil && int64(len(*json)) <= h.cfg.InlineMaxBytes {
		sum := sha256.Sum256([]byte(*json))
		content.StorageMode = domain.StorageModeInline
		content.ContentJSON = json
		content.JSONSizeBytes = types.Int64Ptr(int64(len(*json)))
		content.ContentHash = strings.ToUpper(hex.EncodeToString(sum[:]))
		return content, nil
	}

	hash, err := hashFile(savedPath)
	if err != nil {
		return nil, err
	}
	content.StorageMode = domain.StorageModeFile
	content.ContentPath = types.StringPtr(savedPath)
	content.ContentHash = hash
	return content, nil
}

func hashFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("failed to open saved file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash saved file: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(hasher.Sum(nil))), nil
}

func parseHTTPTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// fileName picks the saved file name: Content-Disposition, then the last URL
// segment, then the resource key.
func fileName(disposition, rawURL, fallback string) string {
	if name := sanitizeFileName(disposition); name != "" {
		return name
	}
	if u, err := url.Parse(rawURL); err == nil {
		seg := path.Base(u.Path)
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		if name := sanitizeFileName(seg); name != "" {
			return name
		}
	}
	return fallback
}

func sanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f:
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(name))

	switch strings.Trim(name, "_") {
	case "", ".", "..":
		return ""
	}
	return name
}
