package domain

import (
	"fmt"
	"strings"
)

// ResourceStatus is the manifest status of a dataset resource
type ResourceStatus string

const (
	ResourceStatusUnknown ResourceStatus = "unknown"
	ResourceStatusOK      ResourceStatus = "ok"
	ResourceStatusSkipped ResourceStatus = "skipped"
	ResourceStatusError   ResourceStatus = "error"
)

// StorageMode tells where normalized content lives
type StorageMode string

const (
	StorageModeInline StorageMode = "inline"
	StorageModeFile   StorageMode = "file"
)

// CategoryType is the kind of column dimension of a cross-tab
type CategoryType string

const CategoryTypeIndustry CategoryType = "industry"

// Nationality is the closed set of nationality codes found in cross-tab rows
type Nationality int

const (
	NationalityUnknown      Nationality = 0
	NationalityIndonesia    Nationality = 1
	NationalityThailand     Nationality = 2
	NationalityVietnam      Nationality = 3
	NationalityPhilippines  Nationality = 4
	NationalityMalaysia     Nationality = 5
	NationalityOtherCountry Nationality = 9
)

var nationalityNames = map[Nationality]string{
	NationalityUnknown:      "unknown",
	NationalityIndonesia:    "indonesia",
	NationalityThailand:     "thailand",
	NationalityVietnam:      "vietnam",
	NationalityPhilippines:  "philippines",
	NationalityMalaysia:     "malaysia",
	NationalityOtherCountry: "other_country",
}

// String returns the lower snake case name of the nationality
func (n Nationality) String() string {
	if name, ok := nationalityNames[n]; ok {
		return name
	}
	return fmt.Sprintf("nationality(%d)", int(n))
}

// nationalityLabels is ordered; the first label contained in the cell wins.
// English labels are lower case and matched against the lower-cased cell.
var nationalityLabels = []struct {
	label string
	code  Nationality
}{
	{"印尼", NationalityIndonesia},
	{"泰國", NationalityThailand},
	{"越南", NationalityVietnam},
	{"菲律賓", NationalityPhilippines},
	{"馬來西亞", NationalityMalaysia},
	{"其他", NationalityOtherCountry},
	{"indonesia", NationalityIndonesia},
	{"thailand", NationalityThailand},
	{"vietnam", NationalityVietnam},
	{"viet nam", NationalityVietnam},
	{"philippines", NationalityPhilippines},
	{"malaysia", NationalityMalaysia},
	{"other", NationalityOtherCountry},
}

// ParseNationality maps a free-text nationality cell to a Nationality.
// Matching is by containment and ignores case; unknown labels return false.
func ParseNationality(s string) (Nationality, bool) {
	s = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "－", "-")))
	if s == "" {
		return NationalityUnknown, false
	}
	for _, l := range nationalityLabels {
		if strings.Contains(s, l.label) {
			return l.code, true
		}
	}
	return NationalityUnknown, false
}

// NormalizeCityName folds the variant 台 to the canonical 臺
func NormalizeCityName(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "台", "臺")
}

// ImportCompletedEvent is published after a cross-tab import commits
type ImportCompletedEvent struct {
	ImportID       string `json:"import_id"`
	SourceFileName string `json:"source_file_name"`
	FileHash       string `json:"file_hash"`
	ParsedRowCount int    `json:"parsed_row_count"`
	PeriodStart    *int   `json:"period_start,omitempty"`
	PeriodEnd      *int   `json:"period_end,omitempty"`
}

// DatasetHarvestedEvent is published after every resource of a dataset was attempted
type DatasetHarvestedEvent struct {
	DatasetID  string `json:"dataset_id"`
	Resources  int    `json:"resources"`
	Succeeded  int    `json:"succeeded"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
}
