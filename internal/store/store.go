package store

import (
	"context"
	"time"

	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/store/schema"
)

// ResourceTelemetry carries download headers copied onto the manifest row
type ResourceTelemetry struct {
	WireSizeBytes  *int64
	SavedSizeBytes *int64
	LastModified   *time.Time
	ETag           *string
}

// RecordFetchInput is one harvest outcome for a resource
type RecordFetchInput struct {
	// Attempt is appended to the fetch log
	Attempt *schema.FetchAttempt
	// Status is written to the manifest row
	Status domain.ResourceStatus
	// Telemetry, when set, replaces the manifest's last known download headers
	Telemetry *ResourceTelemetry
	// Content, when set, replaces the resource's normalized content
	Content *schema.ResourceContent
}

// CityCodeSyncResult reports the rows changed by a city-code resync
type CityCodeSyncResult struct {
	UpdatedCodes int64
	UpdatedFacts int64
}

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// ListCatalogKeys returns every catalog dataset ID keyed by its lower-cased form
	ListCatalogKeys(ctx context.Context) (map[string]string, error)
	// UpsertCatalogEntries inserts or updates catalog entries by dataset ID
	UpsertCatalogEntries(ctx context.Context, entries []*schema.CatalogEntry) error
	// ListDatasetIDs returns every catalog dataset ID in ascending order
	ListDatasetIDs(ctx context.Context) ([]string, error)
	// ListDatasetIDsByTitleKeyword returns dataset IDs whose title contains keyword
	ListDatasetIDsByTitleKeyword(ctx context.Context, keyword string) ([]string, error)

	// UpsertDatasetResources inserts or refreshes manifest rows; status and telemetry are preserved
	UpsertDatasetResources(ctx context.Context, resources []*schema.DatasetResource) error
	// ListDatasetResources returns the manifest of a dataset ordered by resource key
	ListDatasetResources(ctx context.Context, datasetID string) ([]schema.DatasetResource, error)
	// RecordFetch appends the attempt and applies status, telemetry and content in one transaction
	RecordFetch(ctx context.Context, input RecordFetchInput) error
	// ListFetchAttempts returns the fetch log of a resource, oldest first
	ListFetchAttempts(ctx context.Context, datasetID, resourceKey string) ([]schema.FetchAttempt, error)
	// GetResourceContent returns the normalized content of a resource
	GetResourceContent(ctx context.Context, datasetID, resourceKey string) (*schema.ResourceContent, error)

	// GetCrossTabImportByHash returns the import with the given file hash
	GetCrossTabImportByHash(ctx context.Context, hash string) (*schema.CrossTabImport, error)
	// CreateCrossTabImport writes an import record and its facts in one transaction
	CreateCrossTabImport(ctx context.Context, record *schema.CrossTabImport, facts []schema.CrossTabFact) error
	// ListCrossTabFacts returns the facts of an import
	ListCrossTabFacts(ctx context.Context, importID string) ([]schema.CrossTabFact, error)

	// UpsertCityCodes inserts or updates city code registry rows
	UpsertCityCodes(ctx context.Context, codes []schema.CityCode) error
	// GetCurrentCityCode returns the current code row for a normalized city name
	GetCurrentCityCode(ctx context.Context, cityName string) (*schema.CityCode, error)
	// SyncCurrentCityCodes recomputes the current code per city and propagates it onto facts
	SyncCurrentCityCodes(ctx context.Context) (CityCodeSyncResult, error)

	// SetKeyValue sets a key-value pair in the key-value store
	SetKeyValue(ctx context.Context, key string, value string) error
	// GetKeyValue retrieves a value by key from the key-value store
	GetKeyValue(ctx context.Context, key string) (string, error)
}
