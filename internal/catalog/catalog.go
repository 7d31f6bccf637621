// Package catalog synchronizes the portal's dataset catalog into catalog_entries.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/downloader"
	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/store"
	"github.com/providingshelter/ingest/internal/store/schema"
	"github.com/providingshelter/ingest/internal/types"
)

// Source modes
const (
	ModeHTTP = "http"
	ModeFile = "file"
)

const (
	// DefaultBatchSize is used when the configured batch size is not positive
	DefaultBatchSize = 500

	// KeyLastFullSync and KeyLastDeltaSync hold the RFC 3339 time of the last finished run
	KeyLastFullSync  = "catalog:last_full_sync"
	KeyLastDeltaSync = "catalog:last_delta_sync"

	defaultFallbackCSVURL = "https://data.gov.tw/datasets/export/csv"
	pageURLFormat         = "https://data.gov.tw/dataset/%s"
)

var formatJSONParam = regexp.MustCompile(`(?i)format=json`)

// Config holds the catalog source configuration
type Config struct {
	Mode           string
	FullURL        string
	DeltaURL       string
	FallbackCSVURL string
	LocalPath      string
	BatchSize      int
}

// RunOptions controls one synchronization run
type RunOptions struct {
	// Delta selects the delta URL instead of the full export
	Delta bool
	// Known maps lower-cased dataset IDs to their stored spelling.
	// When nil it is loaded from the store.
	Known map[string]string
}

// Result summarizes a synchronization run
type Result struct {
	Inserted int
	Updated  int
	// Skipped counts rows without a dataset ID
	Skipped int
	// Affected counts rows written to the store
	Affected int
	// Known is the key map after the run, including the inserted keys
	Known map[string]string
}

// Syncer reads the catalog export and upserts it in batches
type Syncer struct {
	cfg        Config
	store      store.Store
	httpClient adapter.HTTPClient
	clock      adapter.Clock
}

// NewSyncer creates a catalog syncer
func NewSyncer(cfg Config, st store.Store, httpClient adapter.HTTPClient, clock adapter.Clock) *Syncer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeHTTP
	}
	return &Syncer{
		cfg:        cfg,
		store:      st,
		httpClient: httpClient,
		clock:      clock,
	}
}

// Run performs one full or delta synchronization
func (s *Syncer) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	start := s.clock.Now()

	known := opts.Known
	if known == nil {
		var err error
		known, err = s.store.ListCatalogKeys(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog keys: %w", err)
		}
	}

	w := &batchWriter{
		store:     s.store,
		batchSize: s.cfg.BatchSize,
		known:     known,
		now:       s.clock.Now,
	}

	var err error
	switch s.cfg.Mode {
	case ModeFile:
		err = s.readFile(ctx, w.add)
	case ModeHTTP:
		err = s.readHTTP(ctx, s.sourceURL(opts.Delta), w.add)
	default:
		err = fmt.Errorf("unsupported catalog mode %q", s.cfg.Mode)
	}
	if err == nil {
		err = w.flush(ctx)
	}
	if err != nil {
		return nil, err
	}

	key := KeyLastFullSync
	if opts.Delta {
		key = KeyLastDeltaSync
	}
	if err := s.store.SetKeyValue(ctx, key, s.clock.Now().UTC().Format(time.RFC3339)); err != nil {
		logger.WarnCtx(ctx, "Failed to record catalog sync time", zap.String("key", key), zap.Error(err))
	}

	result := &Result{
		Inserted: w.inserted,
		Updated:  w.updated,
		Skipped:  w.skipped,
		Affected: w.affected,
		Known:    known,
	}

	logger.InfoCtx(ctx, "Catalog sync finished",
		zap.Bool("delta", opts.Delta),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("affected", result.Affected),
		zap.Duration("duration", s.clock.Since(start)),
	)

	return result, nil
}

func (s *Syncer) sourceURL(delta bool) string {
	if delta {
		return s.cfg.DeltaURL
	}
	return s.cfg.FullURL
}

func (s *Syncer) readFile(ctx context.Context, fn rowFunc) error {
	f, err := os.Open(s.cfg.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	logger.InfoCtx(ctx, "Reading catalog from file", zap.String("path", s.cfg.LocalPath))
	return readJSONArray(ctx, f, fn)
}

func (s *Syncer) readHTTP(ctx context.Context, rawURL string, fn rowFunc) error {
	if rawURL == "" {
		return errors.New("catalog url is not configured")
	}

	resp, body, err := s.open(ctx, rawURL)
	if err != nil {
		return err
	}

	kind := detectPayload(resp.Header.Get("Content-Type"), rawURL)
	if kind == payloadUnknown {
		_ = resp.Body.Close()
		fallback := fallbackCSVURL(rawURL, s.cfg.FallbackCSVURL)
		logger.WarnCtx(ctx, "Unrecognized catalog payload, falling back to CSV",
			zap.String("url", rawURL),
			zap.String("contentType", resp.Header.Get("Content-Type")),
			zap.String("fallback", fallback),
		)

		resp, body, err = s.open(ctx, fallback)
		if err != nil {
			return err
		}
		kind = payloadCSV
	}
	defer resp.Body.Close()

	if kind == payloadJSON {
		return readJSONArray(ctx, body, fn)
	}
	return readCSV(ctx, body, fn)
}

// open performs the GET and returns the response with a decoded body reader
func (s *Syncer) open(ctx context.Context, rawURL string) (*http.Response, io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	logger.InfoCtx(ctx, "Fetching catalog", zap.String("url", rawURL))
	resp, err := s.httpClient.Get(ctx, rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, nil, &downloader.StatusError{Method: http.MethodGet, StatusCode: resp.StatusCode}
	}

	body, err := downloader.Decode(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, nil, err
	}
	return resp, body, nil
}

type payloadKind int

const (
	payloadUnknown payloadKind = iota
	payloadJSON
	payloadCSV
)

// detectPayload decides the payload shape from the media type, then the URL
func detectPayload(contentType, rawURL string) payloadKind {
	media := strings.ToLower(contentType)
	suffix := strings.ToLower(urlPath(rawURL))

	switch {
	case strings.Contains(media, "json") || strings.HasSuffix(suffix, "/json"):
		return payloadJSON
	case strings.Contains(media, "csv") || strings.Contains(media, "text/plain") || strings.HasSuffix(suffix, "/csv"):
		return payloadCSV
	default:
		return payloadUnknown
	}
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.TrimRight(u.Path, "/")
}

// fallbackCSVURL derives the CSV export URL from a JSON export URL
func fallbackCSVURL(rawURL, configured string) string {
	if u, err := url.Parse(rawURL); err == nil {
		p := strings.TrimRight(u.Path, "/")
		if strings.HasSuffix(strings.ToLower(p), "/json") {
			u.Path = p[:len(p)-len("/json")] + "/csv"
			return u.String()
		}
	}
	if formatJSONParam.MatchString(rawURL) {
		return formatJSONParam.ReplaceAllString(rawURL, "format=csv")
	}
	if configured != "" {
		return configured
	}
	return defaultFallbackCSVURL
}

// toEntry maps a catalog row through the field aliases.
// Rows without a dataset ID return nil.
func toEntry(row map[string]any) *schema.CatalogEntry {
	id := types.FirstString(row, "資料集識別碼", "dataset_id")
	if id == "" {
		return nil
	}

	return &schema.CatalogEntry{
		DatasetID:            id,
		Title:                types.FirstString(row, "資料集名稱", "title"),
		ProviderAttribute:    types.FirstString(row, "資料提供屬性"),
		ServiceCategory:      types.FirstString(row, "服務分類"),
		QualityCheck:         types.FirstString(row, "品質檢測"),
		FileFormats:          types.NormalizeList(types.FirstString(row, "檔案格式")),
		DownloadURLs:         types.FirstString(row, "資料下載網址"),
		Encoding:             types.NormalizeList(types.FirstString(row, "編碼格式")),
		PublishMethod:        types.FirstString(row, "資料集上架方式"),
		Description:          types.FirstString(row, "資料集描述", "description"),
		MainFieldDescription: types.FirstString(row, "主要欄位說明"),
		Provider:             types.FirstString(row, "提供機關", "organization"),
		UpdateFrequency:      types.FirstString(row, "更新頻率"),
		License:              types.FirstString(row, "授權方式", "license"),
		RelatedURLs:          types.FirstString(row, "相關網址"),
		Pricing:              types.FirstString(row, "計費方式"),
		ContactName:          types.FirstString(row, "提供機關聯絡人姓名"),
		ContactPhone:         types.FirstString(row, "提供機關聯絡人電話"),
		OnShelfDate:          types.FirstString(row, "上架日期", "issued"),
		SourceUpdatedAt:      types.FirstString(row, "詮釋資料更新時間", "modified"),
		Note:                 types.FirstString(row, "備註"),
		PageURL:              fmt.Sprintf(pageURLFormat, url.PathEscape(id)),
		Raw:                  datatypes.JSONMap(row),
	}
}

// batchWriter splits rows into insert and update batches by the known-keys map
type batchWriter struct {
	store     store.Store
	batchSize int
	known     map[string]string
	now       func() time.Time

	inserts  []*schema.CatalogEntry
	updates  []*schema.CatalogEntry
	pending  map[string]*schema.CatalogEntry
	inserted int
	updated  int
	skipped  int
	affected int
}

func (w *batchWriter) add(ctx context.Context, row map[string]any) error {
	entry := toEntry(row)
	if entry == nil {
		w.skipped++
		return nil
	}

	key := strings.ToLower(entry.DatasetID)
	now := w.now()
	entry.ImportedAt = now
	entry.UpdatedAt = now

	if w.pending == nil {
		w.pending = make(map[string]*schema.CatalogEntry)
	}
	// A key repeated before the flush replaces the queued row in place
	if queued, ok := w.pending[key]; ok {
		entry.DatasetID = queued.DatasetID
		*queued = *entry
		w.updated++
		return nil
	}

	if stored, ok := w.known[key]; ok {
		entry.DatasetID = stored
		w.updates = append(w.updates, entry)
		w.updated++
	} else {
		w.known[key] = entry.DatasetID
		w.inserts = append(w.inserts, entry)
		w.inserted++
	}
	w.pending[key] = entry

	if len(w.inserts) >= w.batchSize || len(w.updates) >= w.batchSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *batchWriter) flush(ctx context.Context) error {
	if len(w.inserts) == 0 && len(w.updates) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, batch := range [][]*schema.CatalogEntry{w.inserts, w.updates} {
		if len(batch) == 0 {
			continue
		}
		if err := w.store.UpsertCatalogEntries(ctx, batch); err != nil {
			return fmt.Errorf("failed to write catalog batch: %w", err)
		}
		w.affected += len(batch)
	}

	logger.DebugCtx(ctx, "Flushed catalog batch",
		zap.Int("inserts", len(w.inserts)),
		zap.Int("updates", len(w.updates)),
		zap.Int("affected", w.affected),
	)

	w.inserts = nil
	w.updates = nil
	w.pending = nil
	return nil
}
