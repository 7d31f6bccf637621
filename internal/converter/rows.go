package converter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/providingshelter/ingest/internal/adapter"
)

// object is a JSON object that keeps its keys in insertion order
type object struct {
	keys   []string
	values map[string]any
}

func newObject(capacity int) *object {
	return &object{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

// set adds or replaces a key; a replaced key keeps its first position
func (o *object) set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, o.values[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// headerKeys trims header cells and names blank ones colN
func headerKeys(cells []string) []string {
	keys := make([]string, len(cells))
	for i, c := range cells {
		keys[i] = headerKey(c, i)
	}
	return keys
}

func headerKey(cell string, idx int) string {
	key := trimSpace(cell)
	if key == "" {
		return fmt.Sprintf("col%d", idx+1)
	}
	return key
}

// tableRow builds a row object from header keys; absent cells become null
func tableRow(keys []string, cells []string, blankAsNull bool) *object {
	row := newObject(len(keys))
	for i, k := range keys {
		if i >= len(cells) || (blankAsNull && cells[i] == "") {
			row.set(k, nil)
			continue
		}
		row.set(k, cells[i])
	}
	return row
}

func marshalString(j adapter.JSON, v any) (*string, error) {
	b, err := j.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json: %w", err)
	}
	s := string(b)
	return &s, nil
}
