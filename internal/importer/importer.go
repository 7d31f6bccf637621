// Package importer accepts cross-tab spreadsheet uploads and turns them into
// an import record with its facts.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/citycode"
	"github.com/providingshelter/ingest/internal/crosstab"
	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/libreoffice"
	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/messaging"
	"github.com/providingshelter/ingest/internal/store"
	"github.com/providingshelter/ingest/internal/store/schema"
)

// Upload is a spreadsheet submitted for import
type Upload struct {
	FileName string
	Body     io.Reader
}

// Result reports the outcome of an import
type Result struct {
	ImportID string
	// Duplicate is set when the same bytes were imported before; ImportID is
	// then the earlier import
	Duplicate  bool
	RawRows    int
	ParsedRows int
}

// Orchestrator runs the upload pipeline: save, deduplicate, convert, parse,
// persist and schedule the city-code resync
type Orchestrator struct {
	files     *FileStore
	store     store.Store
	converter libreoffice.DocumentConverter
	parser    *crosstab.Parser
	resolver  *citycode.Resolver
	resyncer  *citycode.Resyncer
	publisher messaging.Publisher
	clock     adapter.Clock
}

func NewOrchestrator(
	files *FileStore,
	st store.Store,
	converter libreoffice.DocumentConverter,
	parser *crosstab.Parser,
	resolver *citycode.Resolver,
	resyncer *citycode.Resyncer,
	publisher messaging.Publisher,
	clock adapter.Clock,
) *Orchestrator {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Orchestrator{
		files:     files,
		store:     st,
		converter: converter,
		parser:    parser,
		resolver:  resolver,
		resyncer:  resyncer,
		publisher: publisher,
		clock:     clock,
	}
}

// Import stores the upload and imports it unless identical bytes were already
// imported. The record and every fact are written in one transaction; on any
// failure nothing is committed and the stored copy is removed.
func (o *Orchestrator) Import(ctx context.Context, upload Upload) (*Result, error) {
	if upload.Body == nil {
		return nil, domain.ErrEmptyUpload
	}

	log := logger.FromContext(ctx).With(zap.String("fileName", upload.FileName))

	saved, err := o.files.Save(ctx, upload.FileName, upload.Body)
	if err != nil {
		return nil, err
	}

	existing, err := o.store.GetCrossTabImportByHash(ctx, saved.SHA256)
	if err != nil {
		o.discard(ctx, saved.Path)
		return nil, fmt.Errorf("failed to look up import by hash: %w", err)
	}
	if existing != nil {
		o.discard(ctx, saved.Path)
		log.Info("Upload already imported",
			zap.String("importID", existing.ID),
			zap.String("sha256", saved.SHA256),
		)
		return duplicateResult(existing), nil
	}

	workbook, err := o.workbookPath(ctx, saved.Path)
	if err != nil {
		o.discard(ctx, saved.Path)
		return nil, err
	}

	sheet, err := crosstab.OpenSheet(workbook)
	if err != nil {
		o.discard(ctx, saved.Path, workbook)
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(upload.FileName), filepath.Ext(upload.FileName))
	parsed, err := o.parser.Parse(ctx, sheet, title)
	if err != nil {
		o.discard(ctx, saved.Path, workbook)
		return nil, fmt.Errorf("failed to parse %s: %w", upload.FileName, err)
	}

	record := &schema.CrossTabImport{
		SourceFileName:  upload.FileName,
		StoredPath:      saved.Path,
		FileHashSHA256:  saved.SHA256,
		CrossTableTitle: parsed.Title,
		CategoryType:    parsed.CategoryType,
		PeriodYearStart: parsed.PeriodStart,
		PeriodYearEnd:   parsed.PeriodEnd,
		RawRowCount:     parsed.RawRowCount,
		ParsedRowCount:  parsed.ParsedRowCount,
		ImportedAt:      o.clock.Now(),
	}
	facts := o.facts(ctx, parsed.Items)

	if err := o.store.CreateCrossTabImport(ctx, record, facts); err != nil {
		// a concurrent upload of the same bytes may have won the unique hash
		if winner, lookupErr := o.store.GetCrossTabImportByHash(ctx, saved.SHA256); lookupErr == nil && winner != nil {
			o.discard(ctx, saved.Path, workbook)
			return duplicateResult(winner), nil
		}
		o.discard(ctx, saved.Path, workbook)
		return nil, fmt.Errorf("failed to persist import: %w", err)
	}

	o.resyncer.Trigger(ctx)

	if err := o.publisher.PublishImportCompleted(ctx, &domain.ImportCompletedEvent{
		ImportID:       record.ID,
		SourceFileName: record.SourceFileName,
		FileHash:       record.FileHashSHA256,
		ParsedRowCount: record.ParsedRowCount,
		PeriodStart:    record.PeriodYearStart,
		PeriodEnd:      record.PeriodYearEnd,
	}); err != nil {
		log.Warn("Failed to publish import event", zap.String("importID", record.ID), zap.Error(err))
	}

	log.Info("Import completed",
		zap.String("importID", record.ID),
		zap.Int("rawRows", parsed.RawRowCount),
		zap.Int("parsedRows", parsed.ParsedRowCount),
	)

	return &Result{
		ImportID:   record.ID,
		RawRows:    parsed.RawRowCount,
		ParsedRows: parsed.ParsedRowCount,
	}, nil
}

// workbookPath returns an XLSX path for the stored upload, converting other
// spreadsheet formats first
func (o *Orchestrator) workbookPath(ctx context.Context, stored string) (string, error) {
	if strings.EqualFold(filepath.Ext(stored), ".xlsx") {
		return stored, nil
	}
	converted, err := o.converter.ConvertToXLSX(ctx, stored)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", filepath.Base(stored), err)
	}
	return converted, nil
}

// facts maps parsed items to rows with normalized city names. The city code
// is filled when the registry already knows the city; the resync fills the rest.
func (o *Orchestrator) facts(ctx context.Context, items []crosstab.Item) []schema.CrossTabFact {
	now := o.clock.Now()
	facts := make([]schema.CrossTabFact, 0, len(items))
	for _, it := range items {
		code, name, err := o.resolver.Resolve(ctx, it.CityName)
		if err != nil {
			logger.WarnCtx(ctx, "City code lookup failed", zap.String("city", it.CityName), zap.Error(err))
		}
		facts = append(facts, schema.CrossTabFact{
			Year:         it.Year,
			CityCode:     code,
			CityName:     name,
			Nationality:  it.Nationality,
			CategoryType: it.CategoryType,
			CategoryKey:  it.CategoryKey,
			CategoryName: it.CategoryName,
			Count:        it.Count,
			IsTotalRow:   it.IsTotalRow,
			CreatedAt:    now,
		})
	}
	return facts
}

// discard removes files written for an upload that was not imported
func (o *Orchestrator) discard(ctx context.Context, paths ...string) {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		if err := o.files.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnCtx(ctx, "Failed to remove upload file", zap.String("path", p), zap.Error(err))
		}
	}
}

func duplicateResult(existing *schema.CrossTabImport) *Result {
	return &Result{
		ImportID:   existing.ID,
		Duplicate:  true,
		RawRows:    existing.RawRowCount,
		ParsedRows: existing.ParsedRowCount,
	}
}
