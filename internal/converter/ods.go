package converter

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/format"
)

const (
	odsTableNS = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
	odsTextNS  = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"

	// maxODSRows caps the parsed data rows of a sheet
	maxODSRows = 100000
	// maxODSColumns caps a row after repeated cells are expanded
	maxODSColumns = 16384
)

// ODSConverter reads the first table of an OpenDocument spreadsheet
type ODSConverter struct {
	json adapter.JSON
}

func NewODSConverter(json adapter.JSON) *ODSConverter {
	return &ODSConverter{json: json}
}

func (c *ODSConverter) Name() string { return "ODS" }

func (c *ODSConverter) CanHandle(rc Context) bool {
	return rc.Format == format.ODS
}

func (c *ODSConverter) Convert(ctx context.Context, rc Context) (*string, error) {
	zr, err := zip.OpenReader(rc.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	var content *zip.File
	for _, f := range zr.File {
		if f.Name == "content.xml" {
			content = f
			break
		}
	}
	if content == nil {
		return nil, nil
	}

	part, err := content.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open content.xml: %w", err)
	}
	defer part.Close()

	table, found, err := readODSTable(ctx, part)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if len(table) == 0 {
		return marshalString(c.json, []any{})
	}

	keys := headerKeys(table[0])
	rows := make([]*object, 0, len(table)-1)
	for _, cells := range table[1:] {
		rows = append(rows, tableRow(keys, cells, false))
	}

	return marshalString(c.json, rows)
}

// odsRowReader accumulates rows of the first table.
// Runs of empty cells and empty rows are held back and only materialized
// when a non-empty cell or row follows, so trailing style-only runs vanish.
type odsRowReader struct {
	rows         [][]string
	pendingRows  int
	row          []string
	pendingCells int
}

func (r *odsRowReader) full() bool {
	return len(r.rows) > maxODSRows
}

func (r *odsRowReader) addCell(value string, repeat int) {
	if value == "" {
		r.pendingCells += repeat
		return
	}
	for ; r.pendingCells > 0 && len(r.row) < maxODSColumns; r.pendingCells-- {
		r.row = append(r.row, "")
	}
	r.pendingCells = 0
	for i := 0; i < repeat && len(r.row) < maxODSColumns; i++ {
		r.row = append(r.row, value)
	}
}

func (r *odsRowReader) endRow(repeat int) {
	row := r.row
	r.row, r.pendingCells = nil, 0
	if len(row) == 0 {
		r.pendingRows += repeat
		return
	}
	for ; r.pendingRows > 0 && !r.full(); r.pendingRows-- {
		r.rows = append(r.rows, nil)
	}
	r.pendingRows = 0
	for i := 0; i < repeat && !r.full(); i++ {
		r.rows = append(r.rows, row)
	}
}

// readODSTable returns the rows of the first table:table element.
// The first row is the header; at most maxODSRows data rows follow.
func readODSTable(ctx context.Context, r io.Reader) ([][]string, bool, error) {
	dec := xml.NewDecoder(r)

	var (
		found      bool
		tableDepth int // nesting of table:table elements, 0 outside the first table
		rowRepeat  int
		cellRepeat int
		inCell     bool
		paraDepth  int
		paraIndex  int
		cellText   strings.Builder
		reader     odsRowReader
	)

	for !reader.full() {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, false, fmt.Errorf("failed to parse content.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == odsTableNS && t.Name.Local == "table" {
				if found && tableDepth == 0 {
					// A second top-level table; the first one is complete
					return reader.rows, true, nil
				}
				found = true
				tableDepth++
				continue
			}
			if tableDepth != 1 {
				continue
			}
			switch {
			case t.Name.Space == odsTableNS && t.Name.Local == "table-row":
				rowRepeat = repeatAttr(t, "number-rows-repeated")
			case t.Name.Space == odsTableNS && (t.Name.Local == "table-cell" || t.Name.Local == "covered-table-cell"):
				cellRepeat = repeatAttr(t, "number-columns-repeated")
				inCell, paraIndex = true, 0
				cellText.Reset()
			case inCell && t.Name.Space == odsTextNS && t.Name.Local == "p":
				paraDepth++
				paraIndex++
			case inCell && paraIndex == 1 && t.Name.Space == odsTextNS && t.Name.Local == "s":
				cellText.WriteString(strings.Repeat(" ", max(attrInt(t, odsTextNS, "c"), 1)))
			case inCell && paraIndex == 1 && t.Name.Space == odsTextNS && t.Name.Local == "tab":
				cellText.WriteByte('\t')
			case inCell && paraIndex == 1 && t.Name.Space == odsTextNS && t.Name.Local == "line-break":
				cellText.WriteByte('\n')
			}

		case xml.EndElement:
			if t.Name.Space == odsTableNS && t.Name.Local == "table" {
				tableDepth--
				if tableDepth == 0 {
					reader.endRowIfOpen()
					return reader.rows, true, nil
				}
				continue
			}
			if tableDepth != 1 {
				continue
			}
			switch {
			case t.Name.Space == odsTableNS && t.Name.Local == "table-row":
				reader.endRow(rowRepeat)
			case t.Name.Space == odsTableNS && (t.Name.Local == "table-cell" || t.Name.Local == "covered-table-cell"):
				reader.addCell(cellText.String(), cellRepeat)
				inCell = false
			case inCell && t.Name.Space == odsTextNS && t.Name.Local == "p":
				paraDepth--
			}

		case xml.CharData:
			// Only the first paragraph of a cell is its value
			if inCell && paraDepth > 0 && paraIndex == 1 {
				cellText.Write(t)
			}
		}
	}

	return reader.rows, found, nil
}

func (r *odsRowReader) endRowIfOpen() {
	if len(r.row) > 0 {
		r.endRow(1)
	}
}

func repeatAttr(e xml.StartElement, local string) int {
	return max(attrInt(e, odsTableNS, local), 1)
}

func attrInt(e xml.StartElement, space, local string) int {
	for _, a := range e.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			n, err := strconv.Atoi(a.Value)
			if err != nil {
				return 0
			}
			return n
		}
	}
	return 0
}
