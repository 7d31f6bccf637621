package converter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/converter"
	"github.com/providingshelter/ingest/internal/logger"
)

func init() {
	_ = logger.Initialize(logger.Config{Debug: true})
}

type stubConverter struct {
	name   string
	format string
	json   *string
	err    error
	panic  bool
	calls  int
}

func (s *stubConverter) Name() string { return s.name }

func (s *stubConverter) CanHandle(rc converter.Context) bool { return rc.Format == s.format }

func (s *stubConverter) Convert(context.Context, converter.Context) (*string, error) {
	s.calls++
	if s.panic {
		panic("boom")
	}
	return s.json, s.err
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestRegistry_TryConvert(t *testing.T) {
	ctx := context.Background()
	out := `[{"a":"1"}]`

	t.Run("first match wins", func(t *testing.T) {
		first := &stubConverter{name: "first", format: "CSV", json: &out}
		second := &stubConverter{name: "second", format: "CSV"}
		reg := converter.NewRegistry(first, second)

		outcome := reg.TryConvert(ctx, converter.Context{Format: "CSV"})
		assert.Equal(t, "first", outcome.Converter)
		require.NotNil(t, outcome.JSON)
		assert.Equal(t, out, *outcome.JSON)
		assert.Equal(t, 1, first.calls)
		assert.Equal(t, 0, second.calls)
	})

	t.Run("no match reports none", func(t *testing.T) {
		reg := converter.NewRegistry(&stubConverter{name: "csv", format: "CSV"})
		outcome := reg.TryConvert(ctx, converter.Context{Format: "PDF"})
		assert.Equal(t, "(none)", outcome.Converter)
		assert.Nil(t, outcome.JSON)
	})

	t.Run("error reports failed", func(t *testing.T) {
		reg := converter.NewRegistry(&stubConverter{name: "csv", format: "CSV", err: errors.New("bad")})
		outcome := reg.TryConvert(ctx, converter.Context{Format: "CSV"})
		assert.Equal(t, "csv (failed)", outcome.Converter)
		assert.Nil(t, outcome.JSON)
	})

	t.Run("panic reports failed", func(t *testing.T) {
		reg := converter.NewRegistry(&stubConverter{name: "csv", format: "CSV", panic: true})
		outcome := reg.TryConvert(ctx, converter.Context{Format: "CSV"})
		assert.Equal(t, "csv (failed)", outcome.Converter)
		assert.Nil(t, outcome.JSON)
	})
}

func TestNewDefaultRegistry_Order(t *testing.T) {
	reg := converter.NewDefaultRegistry(adapter.NewJSON())
	assert.Equal(t, []string{
		"CSV",
		"JSON",
		"XML",
		"Excel (XLS/XLSX)",
		"ODS",
		"RSS/CAP",
		"TXT (sniff)",
		"GEOJSON",
		"ZIP (extract-only)",
	}, reg.Names())
}

func TestNewDefaultRegistry_Dispatch(t *testing.T) {
	reg := converter.NewDefaultRegistry(adapter.NewJSON())
	ctx := context.Background()

	tests := []struct {
		name        string
		format      string
		contentType string
		expected    string
	}{
		{name: "csv", format: "CSV", expected: "CSV"},
		{name: "txt goes to csv first", format: "TXT", expected: "CSV"},
		{name: "json by content type", format: "", contentType: "application/json; charset=utf-8", expected: "JSON"},
		{name: "xml by content type", format: "", contentType: "text/xml", expected: "XML"},
		{name: "geojson", format: "GEOJSON", expected: "GEOJSON"},
		{name: "pdf unsupported", format: "PDF", expected: "(none)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "data", []byte("a,b\n1,2\n"))
			outcome := reg.TryConvert(ctx, converter.Context{Format: tt.format, ContentType: tt.contentType, LocalPath: path})
			assert.Contains(t, outcome.Converter, tt.expected)
		})
	}
}
