package downloader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/providingshelter/ingest/internal/adapter"
)

func compress(t *testing.T, coding string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch coding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "br":
		w = brotli.NewWriter(&buf)
	case "zlib":
		w = zlib.NewWriter(&buf)
	case "flate":
		w, err = flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
	}
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	payload := []byte(`{"名稱":"測試","value":1}`)

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{name: "identity", encoding: "", body: payload},
		{name: "gzip", encoding: "gzip", body: compress(t, "gzip", payload)},
		{name: "brotli", encoding: "br", body: compress(t, "br", payload)},
		{name: "zlib deflate", encoding: "deflate", body: compress(t, "zlib", payload)},
		{name: "raw deflate", encoding: "deflate", body: compress(t, "flate", payload)},
		{name: "stacked", encoding: "gzip, br", body: compress(t, "br", compress(t, "gzip", payload))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Decode(tt.encoding, bytes.NewReader(tt.body))
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}

	t.Run("unknown coding", func(t *testing.T) {
		_, err := Decode("compress", bytes.NewReader(nil))
		assert.Error(t, err)
	})
}

func TestDownload_SavesDecodedBody(t *testing.T) {
	payload := []byte("a,b\n1,2\n")
	wire := compress(t, "gzip", payload)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, adapter.AcceptEncoding, r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Length", strconv.Itoa(len(wire)))
		w.Header().Set("Content-Disposition", `attachment; filename="report.csv"`)
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(wire)
	}))
	defer server.Close()

	d := NewDownloader(adapter.NewHTTPClient(adapter.HTTPOptions{Timeout: 5 * time.Second}), adapter.NewFileSystem())
	result, err := d.Download(context.Background(), server.URL+"/files/1")
	require.NoError(t, err)
	defer func() { _ = result.Close() }()

	assert.Equal(t, http.StatusOK, result.StatusCode())
	assert.Equal(t, "text/csv", result.ContentType())
	assert.Equal(t, "gzip", result.ContentEncoding())
	assert.Equal(t, "report.csv", result.FileName())
	assert.Equal(t, `"v1"`, result.ETag())
	assert.Equal(t, int64(len(wire)), result.WireSize())

	path := filepath.Join(t.TempDir(), "nested", "report.csv")
	written, err := result.AsFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), written)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, saved)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be renamed away")
}

func TestDownload_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := NewDownloader(adapter.NewHTTPClient(adapter.HTTPOptions{Timeout: 5 * time.Second}), adapter.NewFileSystem())
	_, err := d.Download(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 404, statusErr.StatusCode)
	assert.Equal(t, "GET 404", statusErr.Error())
}
