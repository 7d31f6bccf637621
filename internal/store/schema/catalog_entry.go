package schema

import (
	"time"

	"gorm.io/datatypes"
)

// CatalogEntry represents the catalog_entries table - one row per dataset listed by the portal catalog
type CatalogEntry struct {
	// ID is the internal database primary key
	ID string `gorm:"column:id;primaryKey;type:uuid"`
	// DatasetID is the portal's natural key; unique
	DatasetID string `gorm:"column:dataset_id;not null;type:text;uniqueIndex:idx_catalog_entries_dataset_id"`

	Title                string `gorm:"column:title;not null;type:text;default:''"`
	ProviderAttribute    string `gorm:"column:provider_attribute;not null;type:text;default:''"`
	ServiceCategory      string `gorm:"column:service_category;not null;type:text;default:''"`
	QualityCheck         string `gorm:"column:quality_check;not null;type:text;default:''"`
	FileFormats          string `gorm:"column:file_formats;not null;type:text;default:''"`
	DownloadURLs         string `gorm:"column:download_urls;not null;type:text;default:''"`
	Encoding             string `gorm:"column:encoding;not null;type:text;default:''"`
	PublishMethod        string `gorm:"column:publish_method;not null;type:text;default:''"`
	Description          string `gorm:"column:description;not null;type:text;default:''"`
	MainFieldDescription string `gorm:"column:main_field_description;not null;type:text;default:''"`
	Provider             string `gorm:"column:provider;not null;type:text;default:''"`
	UpdateFrequency      string `gorm:"column:update_frequency;not null;type:text;default:''"`
	License              string `gorm:"column:license;not null;type:text;default:''"`
	RelatedURLs          string `gorm:"column:related_urls;not null;type:text;default:''"`
	Pricing              string `gorm:"column:pricing;not null;type:text;default:''"`
	ContactName          string `gorm:"column:contact_name;not null;type:text;default:''"`
	ContactPhone         string `gorm:"column:contact_phone;not null;type:text;default:''"`
	OnShelfDate          string `gorm:"column:on_shelf_date;not null;type:text;default:''"`
	SourceUpdatedAt      string `gorm:"column:source_updated_at;not null;type:text;default:''"`
	Note                 string `gorm:"column:note;not null;type:text;default:''"`
	PageURL              string `gorm:"column:page_url;not null;type:text;default:''"`

	// Raw is the untouched source row
	Raw datatypes.JSONMap `gorm:"column:raw;type:jsonb"`

	ImportedAt time.Time `gorm:"column:imported_at;not null;default:now();type:timestamptz"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the CatalogEntry model
func (CatalogEntry) TableName() string {
	return "catalog_entries"
}
