package catalog

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/downloader"
	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/mocks"
	"github.com/providingshelter/ingest/internal/store/schema"
)

var fixedNow = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

const catalogJSON = `[
  {"資料集識別碼": "A001", "資料集名稱": "移工人數", "檔案格式": "CSV;json;CSV", "編碼格式": "UTF-8 BIG5", "提供機關": "勞動部"},
  {"資料集識別碼": 10017, "資料集名稱": "產業別統計", "授權方式": "政府資料開放授權條款"},
  {"資料集名稱": "沒有識別碼"},
  "not an object"
]`

type syncerMocks struct {
	ctrl  *gomock.Controller
	store *mocks.MockStore
	clock *mocks.MockClock
}

func setupSyncer(t *testing.T, cfg Config) (*Syncer, *syncerMocks) {
	t.Helper()
	require.NoError(t, logger.Initialize(logger.Config{Debug: true}))

	ctrl := gomock.NewController(t)
	m := &syncerMocks{
		ctrl:  ctrl,
		store: mocks.NewMockStore(ctrl),
		clock: mocks.NewMockClock(ctrl),
	}
	m.clock.EXPECT().Now().Return(fixedNow).AnyTimes()
	m.clock.EXPECT().Since(gomock.Any()).Return(time.Second).AnyTimes()

	httpClient := adapter.NewHTTPClient(adapter.HTTPOptions{Timeout: 5 * time.Second})
	return NewSyncer(cfg, m.store, httpClient, m.clock), m
}

// captureUpserts records every batch handed to the store
func captureUpserts(m *syncerMocks) *[][]*schema.CatalogEntry {
	var batches [][]*schema.CatalogEntry
	m.store.EXPECT().UpsertCatalogEntries(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entries []*schema.CatalogEntry) error {
			batch := make([]*schema.CatalogEntry, len(entries))
			copy(batch, entries)
			batches = append(batches, batch)
			return nil
		}).AnyTimes()
	return &batches
}

func TestSyncer_Run_FullJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer server.Close()

	syncer, m := setupSyncer(t, Config{Mode: ModeHTTP, FullURL: server.URL + "/datasets/export/json", BatchSize: 500})

	m.store.EXPECT().ListCatalogKeys(gomock.Any()).Return(map[string]string{"a001": "a001"}, nil)
	batches := captureUpserts(m)
	m.store.EXPECT().SetKeyValue(gomock.Any(), KeyLastFullSync, "2025-03-01T08:00:00Z").Return(nil)

	result, err := syncer.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Affected)
	assert.Equal(t, map[string]string{"a001": "a001", "10017": "10017"}, result.Known)

	// inserts are flushed before updates
	require.Len(t, *batches, 2)
	inserted := (*batches)[0][0]
	assert.Equal(t, "10017", inserted.DatasetID)
	assert.Equal(t, "產業別統計", inserted.Title)
	assert.Equal(t, "政府資料開放授權條款", inserted.License)
	assert.Equal(t, "https://data.gov.tw/dataset/10017", inserted.PageURL)

	updated := (*batches)[1][0]
	assert.Equal(t, "a001", updated.DatasetID, "stored spelling of the key is kept")
	assert.Equal(t, "CSV;json", updated.FileFormats)
	assert.Equal(t, "UTF-8;BIG5", updated.Encoding)
	assert.Equal(t, "勞動部", updated.Provider)
	assert.Equal(t, "移工人數", updated.Raw["資料集名稱"])
	assert.Equal(t, fixedNow, updated.UpdatedAt)
}

func TestSyncer_Run_BatchesAndDuplicates(t *testing.T) {
	rows := `[
	  {"dataset_id": "1", "title": "one"},
	  {"dataset_id": "2", "title": "two"},
	  {"dataset_id": "2", "title": "two again"},
	  {"dataset_id": "3", "title": "three"}
	]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rows))
	}))
	defer server.Close()

	syncer, m := setupSyncer(t, Config{Mode: ModeHTTP, FullURL: server.URL, BatchSize: 2})

	m.store.EXPECT().ListCatalogKeys(gomock.Any()).Return(map[string]string{}, nil)
	batches := captureUpserts(m)
	m.store.EXPECT().SetKeyValue(gomock.Any(), KeyLastFullSync, gomock.Any()).Return(nil)

	result, err := syncer.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	// the final flush writes the pending insert before the pending update
	require.Len(t, *batches, 3)
	assert.Len(t, (*batches)[0], 2)
	assert.Equal(t, "3", (*batches)[1][0].DatasetID)
	assert.Equal(t, "two again", (*batches)[2][0].Title, "a key repeated after its flush is an update")
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 4, result.Affected)
}

func TestSyncer_Run_DeltaWithKnownKeysAndGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(`[{"dataset_id": "A001", "title": "changed"}]`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	syncer, m := setupSyncer(t, Config{Mode: ModeHTTP, DeltaURL: server.URL + "/changed?format=json"})

	batches := captureUpserts(m)
	m.store.EXPECT().SetKeyValue(gomock.Any(), KeyLastDeltaSync, gomock.Any()).Return(nil)

	known := map[string]string{"a001": "A001"}
	result, err := syncer.Run(context.Background(), RunOptions{Delta: true, Known: known})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, *batches, 1)
	assert.Equal(t, "changed", (*batches)[0][0].Title)
}

func TestSyncer_Run_FallsBackToCSV(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		switch r.URL.Query().Get("format") {
		case "json":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		case "csv":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("\xEF\xBB\xBF資料集識別碼 ,資料集名稱,檔案格式\n6564, 外籍勞工 ,CSV、XML\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	syncer, m := setupSyncer(t, Config{Mode: ModeHTTP, FullURL: server.URL + "/datasets/export?format=json"})

	m.store.EXPECT().ListCatalogKeys(gomock.Any()).Return(map[string]string{}, nil)
	batches := captureUpserts(m)
	m.store.EXPECT().SetKeyValue(gomock.Any(), KeyLastFullSync, gomock.Any()).Return(nil)

	result, err := syncer.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"format=json", "format=csv"}, queries)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, *batches, 1)
	assert.Equal(t, "6564", (*batches)[0][0].DatasetID)
	assert.Equal(t, "外籍勞工", (*batches)[0][0].Title)
	assert.Equal(t, "CSV;XML", (*batches)[0][0].FileFormats)
}

func TestSyncer_Run_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o600))

	syncer, m := setupSyncer(t, Config{Mode: ModeFile, LocalPath: path})

	m.store.EXPECT().ListCatalogKeys(gomock.Any()).Return(map[string]string{}, nil)
	batches := captureUpserts(m)
	m.store.EXPECT().SetKeyValue(gomock.Any(), KeyLastFullSync, gomock.Any()).Return(nil)

	result, err := syncer.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, *batches, 1)
	assert.Len(t, (*batches)[0], 2)
}

func TestSyncer_Run_Errors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		syncer, m := setupSyncer(t, Config{Mode: ModeHTTP, FullURL: server.URL + "/json"})
		m.store.EXPECT().ListCatalogKeys(gomock.Any()).Return(map[string]string{}, nil)

		_, err := syncer.Run(context.Background(), RunOptions{})
		var statusErr *downloader.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	})

	t.Run("canceled context writes nothing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(catalogJSON))
		}))
		defer server.Close()

		syncer, _ := setupSyncer(t, Config{Mode: ModeHTTP, FullURL: server.URL})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := syncer.Run(ctx, RunOptions{Known: map[string]string{}})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("payload is not an array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"success": true}`), 0o600))

		syncer, _ := setupSyncer(t, Config{Mode: ModeFile, LocalPath: path})
		_, err := syncer.Run(context.Background(), RunOptions{Known: map[string]string{}})
		assert.Error(t, err)
	})
}

func TestDetectPayload(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		expected    payloadKind
	}{
		{name: "json media type", contentType: "application/json", url: "https://x/export", expected: payloadJSON},
		{name: "json url", contentType: "application/octet-stream", url: "https://x/export/json", expected: payloadJSON},
		{name: "csv media type", contentType: "text/csv; charset=utf-8", url: "https://x/export", expected: payloadCSV},
		{name: "plain text", contentType: "text/plain", url: "https://x/export", expected: payloadCSV},
		{name: "csv url", contentType: "", url: "https://x/export/CSV/", expected: payloadCSV},
		{name: "html", contentType: "text/html", url: "https://x/export?format=json", expected: payloadUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detectPayload(tt.contentType, tt.url))
		})
	}
}

func TestFallbackCSVURL(t *testing.T) {
	assert.Equal(t, "https://data.gov.tw/datasets/export/csv",
		fallbackCSVURL("https://data.gov.tw/datasets/export/json", ""))
	assert.Equal(t, "https://data.gov.tw/api/front/dataset/changed/export?format=csv",
		fallbackCSVURL("https://data.gov.tw/api/front/dataset/changed/export?FORMAT=Json", ""))
	assert.Equal(t, "https://mirror/catalog.csv",
		fallbackCSVURL("https://data.gov.tw/catalog", "https://mirror/catalog.csv"))
	assert.Equal(t, defaultFallbackCSVURL, fallbackCSVURL("https://data.gov.tw/catalog", ""))
}

func TestReadCSV_ShortRecords(t *testing.T) {
	var rows []map[string]any
	err := readCSV(context.Background(), strings.NewReader("a,b,c\n1,2\n"), func(_ context.Context, row map[string]any) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]any{"a": "1", "b": "2", "c": nil}, rows[0])
}
