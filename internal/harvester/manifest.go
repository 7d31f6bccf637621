package harvester

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/store/schema"
	"github.com/providingshelter/ingest/internal/types"
)

// UpsertManifest fetches the dataset detail document and upserts one manifest
// row per listed resource. It returns the number of rows written.
func (h *Harvester) UpsertManifest(ctx context.Context, datasetID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	detailURL := fmt.Sprintf(h.cfg.DetailURLTemplate, url.PathEscape(datasetID))
	var root map[string]any
	if err := h.httpClient.GetJSON(ctx, detailURL, &root); err != nil {
		return 0, fmt.Errorf("failed to fetch dataset detail: %w", err)
	}
	if root == nil {
		return 0, fmt.Errorf("%w: empty document", domain.ErrDetailNotFound)
	}

	if success, ok := root["success"].(bool); ok && !success {
		return 0, fmt.Errorf("%w: %s", domain.ErrDetailNotFound, types.FirstString(root, "message"))
	}

	dataset := types.FirstObject(root, "result")
	if dataset == nil {
		dataset = root
	}

	entries := types.FindArray(dataset, "distribution", "distributions", "resources")
	if len(entries) == 0 {
		logger.InfoCtx(ctx, "Dataset lists no resources", zap.String("datasetID", datasetID))
		return 0, nil
	}

	var english []any
	if en := types.FirstObject(dataset, "en"); en != nil {
		english = types.FirstArray(en, "resources")
	}

	now := h.clock.Now()
	resources := make([]*schema.DatasetResource, 0, len(entries))
	for idx, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		resources = append(resources, manifestRow(datasetID, idx, obj, englishEntry(english, idx), now))
	}

	if err := h.store.UpsertDatasetResources(ctx, resources); err != nil {
		return 0, fmt.Errorf("failed to upsert manifest: %w", err)
	}

	logger.DebugCtx(ctx, "Upserted dataset manifest",
		zap.String("datasetID", datasetID),
		zap.Int("resources", len(resources)),
	)

	return len(resources), nil
}

func englishEntry(english []any, idx int) map[string]any {
	if idx >= len(english) {
		return nil
	}
	obj, _ := english[idx].(map[string]any)
	return obj
}

func manifestRow(datasetID string, idx int, obj, en map[string]any, now time.Time) *schema.DatasetResource {
	format := types.FirstString(obj, "resourceFormat", "format", "filetype")
	mediaType := types.FirstString(obj, "resourceMediaType", "mediaType", "mimetype", "type")
	accessURL := types.FirstString(obj, "resourceAccessUrl", "accessURL", "accessUrl", "url", "landingPage")
	downloadURL := types.FirstString(obj, "resourceDownloadUrl", "downloadURL", "downloadUrl", "href")

	target := downloadURL
	if target == "" {
		target = accessURL
	}

	return &schema.DatasetResource{
		DatasetID:     datasetID,
		ResourceKey:   ResourceKey(datasetID, idx),
		ResourceID:    optional(types.FirstString(obj, "resourceId", "identifier", "id")),
		Title:         optional(types.FirstString(obj, "resourceDescription", "title", "name", "resourceName")),
		Description:   optional(types.FirstString(obj, "resourceDescription", "description", "note")),
		DescriptionEn: optional(types.FirstString(en, "description", "note")),
		FieldDesc:     optional(types.FirstString(obj, "fieldDesc", "resourceField", "fields", "schema")),
		FieldDescEn:   optional(types.FirstString(en, "fieldDesc", "fields", "schema")),
		Format:        optional(format),
		MediaType:     optional(mediaType),
		AccessURL:     optional(accessURL),
		DownloadURL:   optional(downloadURL),
		IsAPILike:     IsAPILike(format, mediaType, target),
		Status:        domain.ResourceStatusUnknown,
		UpdatedAt:     now,
	}
}

// ResourceKey returns the manifest key of the idx-th resource of a dataset
func ResourceKey(datasetID string, idx int) string {
	return fmt.Sprintf("%s_%d", datasetID, idx)
}

// IsAPILike reports whether a resource looks like a service endpoint rather than a file
func IsAPILike(format, mediaType, rawURL string) bool {
	u := strings.ToLower(rawURL)
	f := strings.ToLower(format)
	m := strings.ToLower(mediaType)
	return strings.Contains(u, "/api/") ||
		strings.Contains(u, "?format=json") ||
		strings.Contains(f, "api") ||
		strings.Contains(f, "json") ||
		strings.Contains(m, "json") ||
		strings.Contains(m, "xml")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
