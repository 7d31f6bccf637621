package converter

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/format"
)

// xlsCharset is handed to the compound-file reader; BIFF5 cell bytes are
// decoded afterwards by the workbook's code page
const xlsCharset = "utf-8"

// xlsCodePages maps BIFF CODEPAGE record values to their decoders.
// Unlisted code pages fall back to Big5, the portal's legacy encoding.
var xlsCodePages = map[uint16]encoding.Encoding{
	932:  japanese.ShiftJIS,
	936:  simplifiedchinese.GBK,
	949:  korean.EUCKR,
	950:  traditionalchinese.Big5,
	1250: charmap.Windows1250,
	1251: charmap.Windows1251,
	1252: charmap.Windows1252,
}

// WorkbookConverter reads the first sheet of an XLS or XLSX workbook.
// Row 1 holds the headers; blank cells become null.
type WorkbookConverter struct {
	json adapter.JSON
}

func NewWorkbookConverter(json adapter.JSON) *WorkbookConverter {
	return &WorkbookConverter{json: json}
}

func (c *WorkbookConverter) Name() string { return "Excel (XLS/XLSX)" }

func (c *WorkbookConverter) CanHandle(rc Context) bool {
	return rc.Format == format.XLS || rc.Format == format.XLSX
}

func (c *WorkbookConverter) Convert(ctx context.Context, rc Context) (*string, error) {
	var (
		rows []*object
		err  error
	)
	if rc.Format == format.XLS && !isZipFile(rc.LocalPath) {
		rows, err = readXLS(ctx, rc.LocalPath)
	} else {
		rows, err = readXLSX(ctx, rc.LocalPath)
	}
	if err != nil {
		return nil, err
	}

	return marshalString(c.json, rows)
}

func readXLSX(ctx context.Context, path string) ([]*object, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []*object{}, nil
	}

	it, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	defer it.Close()

	var (
		keys []string
		rows = make([]*object, 0, 64)
	)
	for it.Next() && len(rows) < maxPreviewRows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cells, err := it.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if keys == nil {
			keys = headerKeys(cells)
			continue
		}
		rows = append(rows, tableRow(keys, cells, true))
	}

	return rows, nil
}

func readXLS(ctx context.Context, path string) ([]*object, error) {
	f, err := os.Open(path) //nolint:gosec,G304
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb, err := xls.OpenReader(f, xlsCharset)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return []*object{}, nil
	}
	sheet := wb.GetSheet(0)
	if sheet == nil || sheet.MaxRow == 0 {
		return []*object{}, nil
	}

	// ReadAllCells walks sheets in order; bounding it by the first sheet's
	// row count keeps it on that sheet.
	cells := wb.ReadAllCells(min(int(sheet.MaxRow)+1, maxPreviewRows+1))
	if len(cells) == 0 {
		return []*object{}, nil
	}
	decodeXLSCells(cells, wb.Codepage)

	keys := headerKeys(cells[0])
	rows := make([]*object, 0, len(cells)-1)
	for _, record := range cells[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows = append(rows, tableRow(keys, record, true))
	}

	return rows, nil
}

// decodeXLSCells re-decodes in place every cell that is not valid UTF-8.
// BIFF8 strings are already Unicode; BIFF5 strings arrive as code page bytes.
func decodeXLSCells(cells [][]string, codepage uint16) {
	enc, ok := xlsCodePages[codepage]
	if !ok {
		enc = traditionalchinese.Big5
	}
	dec := enc.NewDecoder()
	for _, row := range cells {
		for i, v := range row {
			if utf8.ValidString(v) {
				continue
			}
			if decoded, err := dec.String(v); err == nil {
				row[i] = decoded
			}
		}
	}
}

// isZipFile reports whether the file starts with a zip local header,
// which catches XLSX payloads published with an .xls extension
func isZipFile(path string) bool {
	f, err := os.Open(path) //nolint:gosec,G304
	if err != nil {
		return false
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := f.Read(magic); err != nil {
		return false
	}
	return string(magic) == "PK\x03\x04"
}
