package schema

// CityCode represents the city_codes table - registry of administrative city codes.
// A city may have several historical codes; the numerically largest is current.
type CityCode struct {
	CityCode    string  `gorm:"column:city_code;primaryKey;type:text"`
	CityName    string  `gorm:"column:city_name;not null;type:text;index:idx_city_codes_city_name"`
	ResourceURL *string `gorm:"column:resource_url;type:text"`
	IsCurrent   *bool   `gorm:"column:is_current"`
}

// TableName specifies the table name for the CityCode model
func (CityCode) TableName() string {
	return "city_codes"
}
