package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays under
// PostgreSQL's limit of 65535 parameters per statement.
//
// Example with headroom of 1000:
//   - CatalogEntry: 26 fields → (65,535 - 1,000) / 26 = 2,482 records/batch
//   - CrossTabFact: 13 fields → (65,535 - 1,000) / 13 = 4,964 records/batch
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000 // Total parameter headroom for batch-level overhead

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

const (
	catalogEntryFields = 26
	crossTabFactFields = 13
	resourceFields     = 19
)

// =============================================================================
// Catalog
// =============================================================================

// ListCatalogKeys returns every catalog dataset ID keyed by its lower-cased form
func (s *pgStore) ListCatalogKeys(ctx context.Context) (map[string]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&schema.CatalogEntry{}).Pluck("dataset_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list catalog keys: %w", err)
	}

	keys := make(map[string]string, len(ids))
	for _, id := range ids {
		keys[strings.ToLower(id)] = id
	}
	return keys, nil
}

// UpsertCatalogEntries inserts or updates catalog entries by dataset ID
// Existing rows keep their id and imported_at
func (s *pgStore) UpsertCatalogEntries(ctx context.Context, entries []*schema.CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
	}

	batchSize := calculateSafeBatchSize(len(entries), catalogEntryFields)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "dataset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"provider_attribute",
			"service_category",
			"quality_check",
			"file_formats",
			"download_urls",
			"encoding",
			"publish_method",
			"description",
			"main_field_description",
			"provider",
			"update_frequency",
			"license",
			"related_urls",
			"pricing",
			"contact_name",
			"contact_phone",
			"on_shelf_date",
			"source_updated_at",
			"note",
			"page_url",
			"raw",
			"updated_at",
		}),
	}).CreateInBatches(entries, batchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert catalog entries: %w", err)
	}

	return nil
}

// ListDatasetIDs returns every catalog dataset ID in ascending order
func (s *pgStore) ListDatasetIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&schema.CatalogEntry{}).
		Order("dataset_id ASC").
		Pluck("dataset_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset ids: %w", err)
	}
	return ids, nil
}

// ListDatasetIDsByTitleKeyword returns dataset IDs whose title contains keyword
func (s *pgStore) ListDatasetIDsByTitleKeyword(ctx context.Context, keyword string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&schema.CatalogEntry{}).
		Where("title LIKE ?", "%"+escapeLike(keyword)+"%").
		Order("dataset_id ASC").
		Pluck("dataset_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset ids by keyword: %w", err)
	}
	return ids, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// =============================================================================
// Resources
// =============================================================================

// UpsertDatasetResources inserts or refreshes manifest rows
// Status and download telemetry are owned by RecordFetch and never overwritten here
func (s *pgStore) UpsertDatasetResources(ctx context.Context, resources []*schema.DatasetResource) error {
	if len(resources) == 0 {
		return nil
	}

	batchSize := calculateSafeBatchSize(len(resources), resourceFields)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "dataset_id"}, {Name: "resource_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"resource_id",
			"title",
			"description",
			"description_en",
			"field_desc",
			"field_desc_en",
			"format",
			"media_type",
			"access_url",
			"download_url",
			"is_api_like",
			"updated_at",
		}),
	}).CreateInBatches(resources, batchSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert dataset resources: %w", err)
	}

	return nil
}

// ListDatasetResources returns the manifest of a dataset ordered by resource key
func (s *pgStore) ListDatasetResources(ctx context.Context, datasetID string) ([]schema.DatasetResource, error) {
	var resources []schema.DatasetResource
	err := s.db.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("length(resource_key) ASC, resource_key ASC").
		Find(&resources).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset resources: %w", err)
	}
	return resources, nil
}

// RecordFetch appends the attempt and applies status, telemetry and content in one transaction
func (s *pgStore) RecordFetch(ctx context.Context, input RecordFetchInput) error {
	if input.Attempt == nil {
		return errors.New("fetch attempt is required")
	}
	attempt := input.Attempt
	if attempt.Ok != (attempt.Error == nil) {
		return fmt.Errorf("fetch attempt for %s must set error exactly when not ok", attempt.ResourceKey)
	}
	if c := input.Content; c != nil && (c.ContentJSON == nil) == (c.ContentPath == nil) {
		return fmt.Errorf("content for %s must set exactly one of json and path", c.ResourceKey)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Append to the fetch log
		if err := tx.Create(attempt).Error; err != nil {
			return fmt.Errorf("failed to create fetch attempt: %w", err)
		}

		// 2. Update the manifest row
		updates := map[string]interface{}{
			"status":     input.Status,
			"updated_at": time.Now(),
		}
		if t := input.Telemetry; t != nil {
			updates["last_known_wire_size_bytes"] = t.WireSizeBytes
			updates["last_known_saved_size_bytes"] = t.SavedSizeBytes
			updates["last_modified"] = t.LastModified
			updates["etag"] = t.ETag
		}
		result := tx.Model(&schema.DatasetResource{}).
			Where("dataset_id = ? AND resource_key = ?", attempt.DatasetID, attempt.ResourceKey).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update resource status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			logger.WarnCtx(ctx, "Fetch recorded for a resource missing from the manifest",
				zap.String("datasetID", attempt.DatasetID),
				zap.String("resourceKey", attempt.ResourceKey))
		}

		// 3. Replace the normalized content
		if input.Content != nil {
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "dataset_id"}, {Name: "resource_key"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"storage_mode",
					"content_json",
					"content_path",
					"content_hash",
					"json_size_bytes",
					"wire_size_bytes",
					"saved_size_bytes",
					"converted_at",
				}),
			}).Create(input.Content).Error
			if err != nil {
				return fmt.Errorf("failed to upsert resource content: %w", err)
			}
		}

		return nil
	})
}

// ListFetchAttempts returns the fetch log of a resource, oldest first
func (s *pgStore) ListFetchAttempts(ctx context.Context, datasetID, resourceKey string) ([]schema.FetchAttempt, error) {
	var attempts []schema.FetchAttempt
	err := s.db.WithContext(ctx).
		Where("dataset_id = ? AND resource_key = ?", datasetID, resourceKey).
		Order("id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list fetch attempts: %w", err)
	}
	return attempts, nil
}

// GetResourceContent returns the normalized content of a resource
func (s *pgStore) GetResourceContent(ctx context.Context, datasetID, resourceKey string) (*schema.ResourceContent, error) {
	var content schema.ResourceContent
	err := s.db.WithContext(ctx).
		Where("dataset_id = ? AND resource_key = ?", datasetID, resourceKey).
		First(&content).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resource content: %w", err)
	}
	return &content, nil
}

// =============================================================================
// Cross-tab imports
// =============================================================================

// GetCrossTabImportByHash returns the import with the given file hash
func (s *pgStore) GetCrossTabImportByHash(ctx context.Context, hash string) (*schema.CrossTabImport, error) {
	var record schema.CrossTabImport
	err := s.db.WithContext(ctx).Where("file_hash_sha256 = ?", hash).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cross-tab import by hash: %w", err)
	}
	return &record, nil
}

// CreateCrossTabImport writes an import record and its facts in one transaction
func (s *pgStore) CreateCrossTabImport(ctx context.Context, record *schema.CrossTabImport, facts []schema.CrossTabFact) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create cross-tab import: %w", err)
		}

		if len(facts) == 0 {
			return nil
		}
		for i := range facts {
			facts[i].ImportID = record.ID
			if facts[i].ID == "" {
				facts[i].ID = uuid.NewString()
			}
		}

		batchSize := calculateSafeBatchSize(len(facts), crossTabFactFields)
		if err := tx.CreateInBatches(facts, batchSize).Error; err != nil {
			return fmt.Errorf("failed to create cross-tab facts: %w", err)
		}

		return nil
	})
}

// ListCrossTabFacts returns the facts of an import
func (s *pgStore) ListCrossTabFacts(ctx context.Context, importID string) ([]schema.CrossTabFact, error) {
	var facts []schema.CrossTabFact
	err := s.db.WithContext(ctx).
		Where("import_id = ?", importID).
		Order("year ASC, city_name ASC, nationality ASC, is_total_row ASC, category_key ASC").
		Find(&facts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cross-tab facts: %w", err)
	}
	return facts, nil
}

// =============================================================================
// City codes
// =============================================================================

// UpsertCityCodes inserts or updates city code registry rows
func (s *pgStore) UpsertCityCodes(ctx context.Context, codes []schema.CityCode) error {
	if len(codes) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "city_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"city_name", "resource_url"}),
	}).Create(&codes).Error
	if err != nil {
		return fmt.Errorf("failed to upsert city codes: %w", err)
	}
	return nil
}

// GetCurrentCityCode returns the current code row for a normalized city name
func (s *pgStore) GetCurrentCityCode(ctx context.Context, cityName string) (*schema.CityCode, error) {
	var code schema.CityCode
	err := s.db.WithContext(ctx).
		Where("city_name = ? AND is_current = TRUE", cityName).
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current city code: %w", err)
	}
	return &code, nil
}

// rankCityCodesCTE ranks the codes of each city name, numerically largest first
const rankCityCodesCTE = `
WITH ranked AS (
    SELECT city_code,
           city_name,
           ROW_NUMBER() OVER (
               PARTITION BY city_name
               ORDER BY CASE WHEN city_code ~ '^[0-9]{1,18}$' THEN city_code::BIGINT ELSE -1 END DESC,
                        city_code DESC
           ) AS rn
    FROM city_codes
)`

const updateCurrentCityCodesSQL = rankCityCodesCTE + `
UPDATE city_codes AS c
   SET is_current = (r.rn = 1)
  FROM ranked AS r
 WHERE c.city_code = r.city_code
   AND c.is_current IS DISTINCT FROM (r.rn = 1)`

const propagateCityCodesSQL = `
UPDATE crosstab_facts AS f
   SET city_code = c.city_code
  FROM city_codes AS c
 WHERE c.is_current = TRUE
   AND c.city_name = f.city_name
   AND f.city_code <> c.city_code`

// SyncCurrentCityCodes recomputes the current code per city and propagates it onto facts
func (s *pgStore) SyncCurrentCityCodes(ctx context.Context) (CityCodeSyncResult, error) {
	var result CityCodeSyncResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		codes := tx.Exec(updateCurrentCityCodesSQL)
		if codes.Error != nil {
			return fmt.Errorf("failed to update current city codes: %w", codes.Error)
		}
		result.UpdatedCodes = codes.RowsAffected

		facts := tx.Exec(propagateCityCodesSQL)
		if facts.Error != nil {
			return fmt.Errorf("failed to propagate city codes: %w", facts.Error)
		}
		result.UpdatedFacts = facts.RowsAffected

		return nil
	})
	if err != nil {
		return CityCodeSyncResult{}, err
	}

	return result, nil
}

// =============================================================================
// Key-value store
// =============================================================================

// SetKeyValue sets a key-value pair in the key-value store
func (s *pgStore) SetKeyValue(ctx context.Context, key string, value string) error {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set key-value: %w", err)
	}

	return nil
}

// GetKeyValue retrieves a value by key from the key-value store
func (s *pgStore) GetKeyValue(ctx context.Context, key string) (string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key-value: %w", err)
	}

	return kv.Value, nil
}
