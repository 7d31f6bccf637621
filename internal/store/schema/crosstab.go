package schema

import (
	"time"

	"github.com/providingshelter/ingest/internal/domain"
)

// CrossTabImport represents the crosstab_imports table - one row per accepted upload
type CrossTabImport struct {
	ID             string `gorm:"column:id;primaryKey;type:uuid"`
	SourceFileName string `gorm:"column:source_file_name;not null;type:text"`
	StoredPath     string `gorm:"column:stored_path;not null;type:text"`
	// FileHashSHA256 is the lower-case hex SHA-256 of the uploaded bytes; unique
	FileHashSHA256  string              `gorm:"column:file_hash_sha256;not null;type:text;uniqueIndex:idx_crosstab_imports_hash"`
	CrossTableTitle string              `gorm:"column:cross_table_title;not null;type:text"`
	CategoryType    domain.CategoryType `gorm:"column:category_type;not null;type:text"`
	PeriodYearStart *int                `gorm:"column:period_year_start"`
	PeriodYearEnd   *int                `gorm:"column:period_year_end"`
	RawRowCount     int                 `gorm:"column:raw_row_count;not null"`
	ParsedRowCount  int                 `gorm:"column:parsed_row_count;not null"`
	ImportedAt      time.Time           `gorm:"column:imported_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the CrossTabImport model
func (CrossTabImport) TableName() string {
	return "crosstab_imports"
}

// CrossTabFact represents the crosstab_facts table - one count per
// (year, city, nationality, category) cell of an import
type CrossTabFact struct {
	ID       string `gorm:"column:id;primaryKey;type:uuid"`
	ImportID string `gorm:"column:import_id;not null;type:uuid;index:idx_crosstab_facts_import_id"`
	Year     int    `gorm:"column:year;not null"`
	// CityCode is empty until the city-code resync fills it
	CityCode     string              `gorm:"column:city_code;not null;type:text;default:''"`
	CityName     string              `gorm:"column:city_name;not null;type:text;index:idx_crosstab_facts_city_name"`
	Nationality  domain.Nationality  `gorm:"column:nationality;not null"`
	CategoryType domain.CategoryType `gorm:"column:category_type;not null;type:text"`
	CategoryKey  string              `gorm:"column:category_key;not null;type:text"`
	CategoryName string              `gorm:"column:category_name;not null;type:text"`
	Count        int                 `gorm:"column:count;not null"`
	IsTotalRow   bool                `gorm:"column:is_total_row;not null;default:false"`
	CreatedAt    time.Time           `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the CrossTabFact model
func (CrossTabFact) TableName() string {
	return "crosstab_facts"
}
