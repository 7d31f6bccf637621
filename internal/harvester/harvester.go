// Package harvester walks dataset manifests, downloads the allowed resources
// and stores their normalized content together with fetch telemetry.
package harvester

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/converter"
	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/downloader"
	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/messaging"
	"github.com/providingshelter/ingest/internal/registry"
	"github.com/providingshelter/ingest/internal/store"
)

const (
	DefaultDetailURLTemplate = "https://data.gov.tw/api/v2/rest/dataset/%s"
	DefaultProgressEvery     = 50
)

// Config holds the harvester configuration
type Config struct {
	// RootPath is the directory under which resources are saved
	RootPath string
	// InlineMaxBytes is the largest normalized JSON stored in the database
	InlineMaxBytes int64
	// DetailURLTemplate takes the dataset ID as its only verb
	DetailURLTemplate string
	// Concurrency is the number of datasets harvested at once
	Concurrency   int
	ProgressEvery int
}

// RunOptions selects the datasets of a batch run
type RunOptions struct {
	// DatasetIDs, when set, is harvested as given
	DatasetIDs []string
	// Keyword restricts the run to datasets whose title contains it
	Keyword string
	// DownloadUnknown fetches and measures resources whose format is blank or
	// not allowed. Denied formats are never fetched.
	DownloadUnknown bool
	// Concurrency overrides the configured value when positive
	Concurrency int
}

// Summary counts the outcomes of a batch run
type Summary struct {
	Datasets  int
	Processed int
	Skipped   int
	Failed    int
}

// Harvester downloads and normalizes dataset resources
type Harvester struct {
	cfg        Config
	store      store.Store
	httpClient adapter.HTTPClient
	downloader downloader.Downloader
	converters *converter.Registry
	policy     registry.FormatPolicy
	publisher  messaging.Publisher
	clock      adapter.Clock
}

// New creates a harvester
func New(
	cfg Config,
	st store.Store,
	httpClient adapter.HTTPClient,
	dl downloader.Downloader,
	converters *converter.Registry,
	policy registry.FormatPolicy,
	publisher messaging.Publisher,
	clock adapter.Clock,
) *Harvester {
	if cfg.DetailURLTemplate == "" {
		cfg.DetailURLTemplate = DefaultDetailURLTemplate
	}
	if cfg.InlineMaxBytes <= 0 {
		cfg.InlineMaxBytes = domain.DefaultInlineMaxBytes
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}

	return &Harvester{
		cfg:        cfg,
		store:      st,
		httpClient: httpClient,
		downloader: dl,
		converters: converters,
		policy:     policy,
		publisher:  publisher,
		clock:      clock,
	}
}

// Run harvests every selected dataset. Per-dataset failures are logged and
// counted; only a failure to select datasets or a canceled context is returned.
func (h *Harvester) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	ids, err := h.selectDatasets(ctx, opts)
	if err != nil {
		return nil, err
	}

	concurrency := h.cfg.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}

	logger.InfoCtx(ctx, "Starting harvest",
		zap.Int("datasets", len(ids)),
		zap.String("keyword", opts.Keyword),
		zap.Bool("downloadUnknown", opts.DownloadUnknown),
		zap.Int("concurrency", concurrency),
	)

	start := h.clock.Now()
	summary := &Summary{}
	var mu sync.Mutex

	pool := pond.NewPool(concurrency, pond.WithContext(ctx))
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}

		n := i + 1
		if n == 1 || n%h.cfg.ProgressEvery == 0 {
			logger.InfoCtx(ctx, "Harvest progress",
				zap.Int("current", n),
				zap.Int("total", len(ids)),
				zap.String("datasetID", id),
			)
		}

		pool.Submit(func() {
			event, err := h.HarvestDataset(ctx, id, opts.DownloadUnknown)

			mu.Lock()
			defer mu.Unlock()
			summary.Datasets++
			if err != nil {
				summary.Failed++
				return
			}
			summary.Processed += event.Succeeded
			summary.Skipped += event.Skipped
			summary.Failed += event.Failed
		})
	}
	pool.StopAndWait()

	logger.InfoCtx(ctx, "Harvest finished",
		zap.Int("datasets", summary.Datasets),
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", h.clock.Since(start)),
	)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (h *Harvester) selectDatasets(ctx context.Context, opts RunOptions) ([]string, error) {
	if len(opts.DatasetIDs) > 0 {
		return opts.DatasetIDs, nil
	}
	if opts.Keyword != "" {
		ids, err := h.store.ListDatasetIDsByTitleKeyword(ctx, opts.Keyword)
		if err != nil {
			return nil, fmt.Errorf("failed to list datasets by keyword: %w", err)
		}
		return ids, nil
	}
	ids, err := h.store.ListDatasetIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return ids, nil
}

// HarvestDataset refreshes the manifest of one dataset and attempts each of
// its resources in key order. A manifest failure is logged and the stored
// manifest is still processed.
func (h *Harvester) HarvestDataset(ctx context.Context, datasetID string, downloadUnknown bool) (*domain.DatasetHarvestedEvent, error) {
	start := h.clock.Now()

	if _, err := h.UpsertManifest(ctx, datasetID); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, domain.ErrDetailNotFound) {
			logger.WarnCtx(ctx, "Dataset detail not found", zap.String("datasetID", datasetID), zap.Error(err))
		} else {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to upsert manifest: %w", err), zap.String("datasetID", datasetID))
		}
	}

	resources, err := h.store.ListDatasetResources(ctx, datasetID)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("datasetID", datasetID))
		return nil, fmt.Errorf("failed to list resources of %s: %w", datasetID, err)
	}

	event := &domain.DatasetHarvestedEvent{
		DatasetID: datasetID,
		Resources: len(resources),
	}
	for _, r := range resources {
		status, err := h.processResource(ctx, r, downloadUnknown)
		if err != nil {
			// only a canceled context stops the dataset
			return nil, err
		}
		switch status {
		case domain.ResourceStatusOK:
			event.Succeeded++
		case domain.ResourceStatusSkipped:
			event.Skipped++
		default:
			event.Failed++
		}
	}

	duration := h.clock.Since(start)
	event.DurationMs = duration.Milliseconds()

	if event.Failed > 0 {
		logger.WarnCtx(ctx, "Dataset finished with errors",
			zap.String("datasetID", datasetID),
			zap.Int("failed", event.Failed),
			zap.Duration("duration", duration),
		)
	} else {
		logger.InfoCtx(ctx, "Dataset done",
			zap.String("datasetID", datasetID),
			zap.Int("resources", event.Resources),
			zap.Duration("duration", duration),
		)
	}

	if err := h.publisher.PublishDatasetHarvested(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish harvest event", zap.String("datasetID", datasetID), zap.Error(err))
	}

	return event, nil
}
