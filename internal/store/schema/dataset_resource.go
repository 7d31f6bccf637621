package schema

import (
	"time"

	"github.com/providingshelter/ingest/internal/domain"
)

// DatasetResource represents the dataset_resources table - the resource manifest of a dataset
type DatasetResource struct {
	DatasetID string `gorm:"column:dataset_id;primaryKey;type:text"`
	// ResourceKey is "{datasetID}_{ordinal}" with a 0-based ordinal
	ResourceKey string `gorm:"column:resource_key;primaryKey;type:text"`

	ResourceID    *string `gorm:"column:resource_id;type:text"`
	Title         *string `gorm:"column:title;type:text"`
	Description   *string `gorm:"column:description;type:text"`
	DescriptionEn *string `gorm:"column:description_en;type:text"`
	FieldDesc     *string `gorm:"column:field_desc;type:text"`
	FieldDescEn   *string `gorm:"column:field_desc_en;type:text"`
	Format        *string `gorm:"column:format;type:text"`
	MediaType     *string `gorm:"column:media_type;type:text"`
	AccessURL     *string `gorm:"column:access_url;type:text"`
	DownloadURL   *string `gorm:"column:download_url;type:text"`
	IsAPILike     bool    `gorm:"column:is_api_like;not null;default:false"`

	Status domain.ResourceStatus `gorm:"column:status;not null;type:text;default:'unknown'"`

	// Telemetry from the last successful download
	LastKnownWireSizeBytes  *int64     `gorm:"column:last_known_wire_size_bytes"`
	LastKnownSavedSizeBytes *int64     `gorm:"column:last_known_saved_size_bytes"`
	LastModified            *time.Time `gorm:"column:last_modified;type:timestamptz"`
	ETag                    *string    `gorm:"column:etag;type:text"`

	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the DatasetResource model
func (DatasetResource) TableName() string {
	return "dataset_resources"
}

// URL returns the download URL, falling back to the access URL
func (r *DatasetResource) URL() string {
	if r.DownloadURL != nil && *r.DownloadURL != "" {
		return *r.DownloadURL
	}
	if r.AccessURL != nil {
		return *r.AccessURL
	}
	return ""
}

// FetchAttempt represents the dataset_resource_fetches table - one append-only row per attempt
type FetchAttempt struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DatasetID   string    `gorm:"column:dataset_id;not null;type:text;index:idx_fetches_resource,priority:1"`
	ResourceKey string    `gorm:"column:resource_key;not null;type:text;index:idx_fetches_resource,priority:2"`
	FetchedAt   time.Time `gorm:"column:fetched_at;not null;type:timestamptz"`

	HTTPStatus      *int       `gorm:"column:http_status"`
	ContentType     *string    `gorm:"column:content_type;type:text"`
	ContentEncoding *string    `gorm:"column:content_encoding;type:text"`
	ETag            *string    `gorm:"column:etag;type:text"`
	LastModified    *time.Time `gorm:"column:last_modified;type:timestamptz"`
	WireSizeBytes   *int64     `gorm:"column:wire_size_bytes"`
	SavedPath       *string    `gorm:"column:saved_path;type:text"`
	SavedSizeBytes  *int64     `gorm:"column:saved_size_bytes"`
	DetectedFormat  *string    `gorm:"column:detected_format;type:text"`
	Converter       *string    `gorm:"column:converter;type:text"`

	// Ok is true exactly when Error is nil
	Ok    bool    `gorm:"column:ok;not null"`
	Error *string `gorm:"column:error;type:text"`
}

// TableName specifies the table name for the FetchAttempt model
func (FetchAttempt) TableName() string {
	return "dataset_resource_fetches"
}

// ResourceContent represents the dataset_resource_contents table - the latest normalized content of a resource
type ResourceContent struct {
	DatasetID   string `gorm:"column:dataset_id;primaryKey;type:text"`
	ResourceKey string `gorm:"column:resource_key;primaryKey;type:text"`

	StorageMode domain.StorageMode `gorm:"column:storage_mode;not null;type:text"`
	// Exactly one of ContentJSON and ContentPath is set
	ContentJSON *string `gorm:"column:content_json;type:text"`
	ContentPath *string `gorm:"column:content_path;type:text"`
	// ContentHash is the upper-case hex SHA-256 of the stored payload
	ContentHash string `gorm:"column:content_hash;not null;type:text"`

	JSONSizeBytes  *int64 `gorm:"column:json_size_bytes"`
	WireSizeBytes  *int64 `gorm:"column:wire_size_bytes"`
	SavedSizeBytes *int64 `gorm:"column:saved_size_bytes"`

	ConvertedAt time.Time `gorm:"column:converted_at;not null;type:timestamptz"`
}

// TableName specifies the table name for the ResourceContent model
func (ResourceContent) TableName() string {
	return "dataset_resource_contents"
}
