package converter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/format"
)

var csvDelimiters = []rune{',', ';', '\t', '|'}

// CSVConverter reads delimited text with a header row
type CSVConverter struct {
	json adapter.JSON
}

// NewCSVConverter creates a delimited text converter
func NewCSVConverter(json adapter.JSON) *CSVConverter {
	return &CSVConverter{json: json}
}

func (c *CSVConverter) Name() string { return "CSV" }

func (c *CSVConverter) CanHandle(rc Context) bool {
	return rc.Format == format.CSV || rc.Format == format.TXT
}

func (c *CSVConverter) Convert(ctx context.Context, rc Context) (*string, error) {
	r, closer, err := openText(rc.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer closer.Close()

	cr := csv.NewReader(r)
	cr.Comma = pickDelimiter(firstLine(r), csvDelimiters)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return marshalString(c.json, []any{})
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	keys := headerKeys(header)

	rows := make([]*object, 0, 64)
	for len(rows) < maxPreviewRows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		for i := range record {
			record[i] = trimSpace(record[i])
		}
		rows = append(rows, tableRow(keys, record, false))
	}

	return marshalString(c.json, rows)
}

var sniffDelimiters = []rune{'\t', ',', ';', '|'}

// TextSniffConverter splits plain text lines on the most frequent delimiter of the header line
type TextSniffConverter struct {
	json adapter.JSON
}

// NewTextSniffConverter creates a line-sniffing text converter
func NewTextSniffConverter(json adapter.JSON) *TextSniffConverter {
	return &TextSniffConverter{json: json}
}

func (c *TextSniffConverter) Name() string { return "TXT (sniff)" }

func (c *TextSniffConverter) CanHandle(rc Context) bool {
	return rc.Format == format.TXT
}

func (c *TextSniffConverter) Convert(ctx context.Context, rc Context) (*string, error) {
	r, closer, err := openText(rc.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer closer.Close()

	var (
		keys  []string
		delim string
		rows  = make([]*object, 0, 64)
	)
	for len(rows) < maxPreviewRows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := r.ReadString('\n')
		if line == "" && err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read line: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")

		if keys == nil {
			delim = string(pickDelimiter(line, sniffDelimiters))
			keys = headerKeys(strings.Split(line, delim))
			continue
		}
		rows = append(rows, tableRow(keys, strings.Split(line, delim), false))
	}

	return marshalString(c.json, rows)
}
