package crosstab

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is a read-only view over one worksheet. Rows and columns are 1-based.
type Sheet interface {
	// Rows returns the last used row number
	Rows() int
	// Cols returns the last used column number
	Cols() int
	// Cell returns the trimmed displayed value. A cell covered by a merged
	// range yields the value of the range's top-left cell.
	Cell(row, col int) string
	// Raw returns the unformatted value of the cell itself, without merge resolution
	Raw(row, col int) string
}

type coord struct {
	row, col int
}

// workbookSheet is a Sheet loaded from the first worksheet of an XLSX file
type workbookSheet struct {
	display [][]string
	raw     [][]string
	merged  map[coord]coord
	rows    int
	cols    int
}

// OpenSheet loads the first worksheet of the workbook at path
func OpenSheet(path string) (Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	name := sheets[0]

	display, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read raw values of sheet %s: %w", name, err)
	}

	s := &workbookSheet{
		display: display,
		raw:     raw,
		merged:  make(map[coord]coord),
	}
	displayRows, displayCols := extent(display)
	rawRows, rawCols := extent(raw)
	s.rows, s.cols = max(displayRows, rawRows), max(displayCols, rawCols)

	merges, err := f.GetMergeCells(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged cells of sheet %s: %w", name, err)
	}
	for _, m := range merges {
		startCol, startRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			continue
		}
		top := coord{row: startRow, col: startCol}
		for r := startRow; r <= min(endRow, s.rows); r++ {
			for c := startCol; c <= min(endCol, s.cols); c++ {
				if r == startRow && c == startCol {
					continue
				}
				s.merged[coord{row: r, col: c}] = top
			}
		}
	}

	return s, nil
}

// extent returns the last row that has any cell and the widest row
func extent(grid [][]string) (int, int) {
	rows, cols := 0, 0
	for i, row := range grid {
		if len(row) > 0 {
			rows = i + 1
		}
		cols = max(cols, len(row))
	}
	return rows, cols
}

func (s *workbookSheet) Rows() int { return s.rows }

func (s *workbookSheet) Cols() int { return s.cols }

func (s *workbookSheet) Cell(row, col int) string {
	if top, ok := s.merged[coord{row: row, col: col}]; ok {
		row, col = top.row, top.col
	}
	return strings.TrimSpace(at(s.display, row, col))
}

func (s *workbookSheet) Raw(row, col int) string {
	return at(s.raw, row, col)
}

func at(grid [][]string, row, col int) string {
	if row < 1 || row > len(grid) {
		return ""
	}
	cells := grid[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}
