// Package crosstab parses the nationality by industry cross-tab workbooks
// published for foreign victims into flat count facts.
package crosstab

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/logger"
)

const (
	// headerScanLimit bounds the rows and columns searched for header labels
	headerScanLimit = 30
	// periodScanRows is the number of leading rows searched for the period caption
	periodScanRows = 5

	labelYear        = "年份"
	labelCity        = "縣市"
	labelNationality = "國籍別"
	labelCategory    = "行業別"
	labelPeriod      = "統計期間"
)

var (
	totalLabels = []string{"總計", "合計"}
	yearPattern = regexp.MustCompile(`\d{4}`)

	industryKeys = map[string]string{
		"製造業":    "Ind_Manufacturing",
		"營造業":    "Ind_Construction",
		"家庭幫傭":   "Ind_Housemaid",
		"家庭看護":   "Ind_Caregiver",
		"養護機構看護": "Ind_NursingHomeCare",
		"不詳":     "Ind_Unknown",
		"其他":     "Ind_Other",
	}
)

// Item is one parsed count
type Item struct {
	Year         int
	CityName     string
	Nationality  domain.Nationality
	CategoryType domain.CategoryType
	CategoryKey  string
	CategoryName string
	Count        int
	IsTotalRow   bool
}

// ParseResult is the outcome of parsing one cross-tab sheet
type ParseResult struct {
	// Title is the source file name without its extension
	Title        string
	CategoryType domain.CategoryType
	PeriodStart  *int
	PeriodEnd    *int
	// RawRowCount counts every row visited below the header
	RawRowCount int
	// ParsedRowCount is the number of items
	ParsedRowCount int
	Items          []Item
}

// Parser reads nationality by industry cross-tabs
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses the first worksheet of the XLSX workbook at path
func (p *Parser) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	sheet, err := OpenSheet(path)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return p.Parse(ctx, sheet, title)
}

// header locates the label cells of a cross-tab
type header struct {
	keyRow, categoryRow                   int
	colYear, colCity, colNation, colLabel int
	categories                            []category
	totalCol                              int
}

type category struct {
	col  int
	name string
}

// Parse walks the sheet below its header and emits one item per category
// cell plus one total item per data row when a total column exists.
func (p *Parser) Parse(ctx context.Context, sheet Sheet, title string) (*ParseResult, error) {
	h, err := findHeader(sheet)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Title:        title,
		CategoryType: domain.CategoryTypeIndustry,
	}
	result.PeriodStart, result.PeriodEnd = findPeriod(sheet)

	var curYear, curCity, curNation string
	for r := max(h.keyRow, h.categoryRow) + 1; r <= sheet.Rows(); r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.RawRowCount++

		yearS := carry(sheet.Cell(r, h.colYear), curYear)
		cityS := carry(sheet.Cell(r, h.colCity), curCity)
		natS := carry(sheet.Cell(r, h.colNation), curNation)

		if yearS == "" && cityS == "" && natS == "" && h.valuesBlank(sheet, r) {
			break
		}

		if yearS != "" {
			curYear = yearS
		}
		if cityS != "" {
			curCity = cityS
		}
		if natS != "" {
			curNation = natS
		}
		if curYear == "" || curCity == "" || curNation == "" {
			continue
		}
		if isTotalLabel(curCity) || isTotalLabel(curNation) {
			continue
		}

		year, err := strconv.Atoi(curYear)
		if err != nil {
			continue
		}
		nationality, ok := domain.ParseNationality(curNation)
		if !ok {
			logger.DebugCtx(ctx, "Skipping row with unknown nationality",
				zap.Int("row", r),
				zap.String("nationality", curNation),
			)
			continue
		}

		for _, c := range h.categories {
			result.Items = append(result.Items, Item{
				Year:         year,
				CityName:     curCity,
				Nationality:  nationality,
				CategoryType: domain.CategoryTypeIndustry,
				CategoryKey:  IndustryKey(c.name),
				CategoryName: c.name,
				Count:        ParseCount(sheet.Raw(r, c.col), sheet.Cell(r, c.col)),
			})
		}
		if h.totalCol > 0 {
			result.Items = append(result.Items, Item{
				Year:         year,
				CityName:     curCity,
				Nationality:  nationality,
				CategoryType: domain.CategoryTypeIndustry,
				CategoryKey:  domain.CategoryKeyTotal,
				CategoryName: domain.CategoryNameTotal,
				Count:        ParseCount(sheet.Raw(r, h.totalCol), sheet.Cell(r, h.totalCol)),
				IsTotalRow:   true,
			})
		}
	}

	result.ParsedRowCount = len(result.Items)
	if result.PeriodStart == nil && len(result.Items) > 0 {
		lo, hi := result.Items[0].Year, result.Items[0].Year
		for _, it := range result.Items[1:] {
			lo, hi = min(lo, it.Year), max(hi, it.Year)
		}
		result.PeriodStart, result.PeriodEnd = &lo, &hi
	}

	logger.DebugCtx(ctx, "Parsed cross-tab",
		zap.String("title", title),
		zap.Int("categories", len(h.categories)),
		zap.Bool("hasTotal", h.totalCol > 0),
		zap.Int("rawRows", result.RawRowCount),
		zap.Int("items", result.ParsedRowCount),
	)

	return result, nil
}

func findHeader(sheet Sheet) (*header, error) {
	h := &header{}
	for r := 1; r <= min(headerScanLimit, sheet.Rows()); r++ {
		for c := 1; c <= min(headerScanLimit, sheet.Cols()); c++ {
			switch sheet.Cell(r, c) {
			case labelYear:
				h.keyRow, h.colYear = r, c
			case labelCity:
				h.keyRow, h.colCity = r, c
			case labelNationality:
				h.keyRow, h.colNation = r, c
			case labelCategory:
				h.categoryRow, h.colLabel = r, c
			}
		}
	}

	var missing []string
	for _, l := range []struct {
		label string
		col   int
	}{
		{labelYear, h.colYear},
		{labelCity, h.colCity},
		{labelNationality, h.colNation},
		{labelCategory, h.colLabel},
	} {
		if l.col == 0 {
			missing = append(missing, l.label)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrHeaderNotFound, strings.Join(missing, ", "))
	}

	for c := h.colLabel + 1; c <= sheet.Cols(); c++ {
		name := sheet.Cell(h.categoryRow, c)
		if name == "" {
			continue
		}
		if isExactTotal(name) {
			h.totalCol = c
			break
		}
		h.categories = append(h.categories, category{col: c, name: name})
	}

	return h, nil
}

// valuesBlank reports whether every category and total cell of row r is empty
func (h *header) valuesBlank(sheet Sheet, r int) bool {
	for _, c := range h.categories {
		if strings.TrimSpace(sheet.Raw(r, c.col)) != "" {
			return false
		}
	}
	if h.totalCol > 0 && strings.TrimSpace(sheet.Raw(r, h.totalCol)) != "" {
		return false
	}
	return true
}

// findPeriod reads the first two four-digit years of the period caption
func findPeriod(sheet Sheet) (*int, *int) {
	var start, end *int
	for r := 1; r <= min(periodScanRows, sheet.Rows()); r++ {
		for c := 1; c <= sheet.Cols(); c++ {
			s := sheet.Cell(r, c)
			if !strings.Contains(s, labelPeriod) {
				continue
			}
			years := yearPattern.FindAllString(s, -1)
			if len(years) < 2 {
				continue
			}
			from, _ := strconv.Atoi(years[0])
			to, _ := strconv.Atoi(years[1])
			start, end = &from, &to
		}
	}
	return start, end
}

func carry(value, current string) string {
	if value == "" {
		return current
	}
	return value
}

func isExactTotal(s string) bool {
	for _, l := range totalLabels {
		if s == l {
			return true
		}
	}
	return false
}

func isTotalLabel(s string) bool {
	for _, l := range totalLabels {
		if strings.Contains(s, l) {
			return true
		}
	}
	return false
}

// ParseCount converts a count cell to an integer: the raw numeric value
// rounded, else the displayed text as an integer, else the displayed text as
// a rounded decimal, else zero.
func ParseCount(raw, display string) int {
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(math.RoundToEven(f))
	}
	display = strings.ReplaceAll(strings.TrimSpace(display), ",", "")
	if n, err := strconv.Atoi(display); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(display, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(math.RoundToEven(f))
	}
	return 0
}

// IndustryKey returns the stable key of an industry column label
func IndustryKey(name string) string {
	if key, ok := industryKeys[name]; ok {
		return key
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, name)
	if cleaned == "" {
		return "Ind_Unknown"
	}
	return "Ind_" + cleaned
}
