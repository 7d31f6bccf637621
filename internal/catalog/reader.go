package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// rowFunc receives one decoded catalog row
type rowFunc func(ctx context.Context, row map[string]any) error

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// readJSONArray streams the elements of a top-level JSON array.
// Elements that are not objects are ignored.
func readJSONArray(ctx context.Context, r io.Reader, fn rowFunc) error {
	dec := json.NewDecoder(skipBOM(r))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read catalog payload: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return errors.New("catalog payload is not a JSON array")
	}

	for dec.More() {
		var elem any
		if err := dec.Decode(&elem); err != nil {
			return fmt.Errorf("failed to decode catalog row: %w", err)
		}
		row, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		if err := fn(ctx, row); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read end of catalog payload: %w", err)
	}
	return nil
}

// readCSV reads a comma separated export with a header row.
// Malformed records are skipped; values are trimmed.
func readCSV(ctx context.Context, r io.Reader, fn rowFunc) error {
	cr := csv.NewReader(skipBOM(r))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read catalog header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return fmt.Errorf("failed to read catalog record: %w", err)
		}

		row := make(map[string]any, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			} else {
				row[name] = nil
			}
		}
		if err := fn(ctx, row); err != nil {
			return err
		}
	}
}
