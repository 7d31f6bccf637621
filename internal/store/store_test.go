package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/store/schema"
	"github.com/providingshelter/ingest/internal/types"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func buildTestCatalogEntry(datasetID, title string) *schema.CatalogEntry {
	return &schema.CatalogEntry{
		DatasetID:   datasetID,
		Title:       title,
		FileFormats: "CSV;JSON",
		Provider:    "勞動部",
		Raw:         datatypes.JSONMap{"資料集識別碼": datasetID, "資料集名稱": title},
	}
}

func buildTestResource(datasetID string, ordinal int, format, url string) *schema.DatasetResource {
	return &schema.DatasetResource{
		DatasetID:   datasetID,
		ResourceKey: fmt.Sprintf("%s_%d", datasetID, ordinal),
		Title:       types.StringPtr(fmt.Sprintf("resource %d", ordinal)),
		Format:      types.StringPtr(format),
		DownloadURL: types.StringPtr(url),
	}
}

func buildTestFacts(cityName string, count int) []schema.CrossTabFact {
	facts := make([]schema.CrossTabFact, 0, count)
	for i := range count {
		facts = append(facts, schema.CrossTabFact{
			Year:         2023,
			CityName:     cityName,
			Nationality:  domain.NationalityVietnam,
			CategoryType: domain.CategoryTypeIndustry,
			CategoryKey:  fmt.Sprintf("Ind_Sector%d", i),
			CategoryName: fmt.Sprintf("行業%d", i),
			Count:        100 + i,
		})
	}
	return facts
}

// =============================================================================
// Test: Catalog
// =============================================================================

func testCatalogEntries(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("upsert inserts then updates by dataset id", func(t *testing.T) {
		err := store.UpsertCatalogEntries(ctx, []*schema.CatalogEntry{
			buildTestCatalogEntry("A100", "外籍移工人數"),
			buildTestCatalogEntry("b200", "產業移工"),
		})
		require.NoError(t, err)

		keys, err := store.ListCatalogKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, "A100", keys["a100"])
		assert.Equal(t, "b200", keys["b200"])

		updated := buildTestCatalogEntry("A100", "外籍移工人數(更新)")
		require.NoError(t, store.UpsertCatalogEntries(ctx, []*schema.CatalogEntry{updated}))

		ids, err := store.ListDatasetIDsByTitleKeyword(ctx, "更新")
		require.NoError(t, err)
		assert.Equal(t, []string{"A100"}, ids)

		all, err := store.ListDatasetIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"A100", "b200"}, all)
	})

	t.Run("keyword is matched literally", func(t *testing.T) {
		require.NoError(t, store.UpsertCatalogEntries(ctx, []*schema.CatalogEntry{
			buildTestCatalogEntry("C300", "100%達成率"),
		}))

		ids, err := store.ListDatasetIDsByTitleKeyword(ctx, "%")
		require.NoError(t, err)
		assert.Equal(t, []string{"C300"}, ids)
	})

	t.Run("empty upsert is a no-op", func(t *testing.T) {
		require.NoError(t, store.UpsertCatalogEntries(ctx, nil))
	})
}

// =============================================================================
// Test: Resources
// =============================================================================

func testDatasetResources(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("upsert preserves status and telemetry", func(t *testing.T) {
		res := buildTestResource("D1", 0, "CSV", "https://example.com/a.csv")
		require.NoError(t, store.UpsertDatasetResources(ctx, []*schema.DatasetResource{res}))

		listed, err := store.ListDatasetResources(ctx, "D1")
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, domain.ResourceStatusUnknown, listed[0].Status)

		wire := int64(42)
		err = store.RecordFetch(ctx, RecordFetchInput{
			Attempt: &schema.FetchAttempt{
				DatasetID:   "D1",
				ResourceKey: "D1_0",
				FetchedAt:   time.Now(),
				Ok:          true,
			},
			Status:    domain.ResourceStatusOK,
			Telemetry: &ResourceTelemetry{WireSizeBytes: &wire, ETag: types.StringPtr(`"abc"`)},
		})
		require.NoError(t, err)

		refreshed := buildTestResource("D1", 0, "JSON", "https://example.com/a.json")
		require.NoError(t, store.UpsertDatasetResources(ctx, []*schema.DatasetResource{refreshed}))

		listed, err = store.ListDatasetResources(ctx, "D1")
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, domain.ResourceStatusOK, listed[0].Status)
		assert.Equal(t, "JSON", types.SafeString(listed[0].Format))
		require.NotNil(t, listed[0].LastKnownWireSizeBytes)
		assert.Equal(t, int64(42), *listed[0].LastKnownWireSizeBytes)
		assert.Equal(t, `"abc"`, types.SafeString(listed[0].ETag))
	})

	t.Run("resources are ordered by ordinal", func(t *testing.T) {
		var resources []*schema.DatasetResource
		for i := 11; i >= 0; i-- {
			resources = append(resources, buildTestResource("D2", i, "CSV", fmt.Sprintf("https://example.com/%d.csv", i)))
		}
		require.NoError(t, store.UpsertDatasetResources(ctx, resources))

		listed, err := store.ListDatasetResources(ctx, "D2")
		require.NoError(t, err)
		require.Len(t, listed, 12)
		assert.Equal(t, "D2_0", listed[0].ResourceKey)
		assert.Equal(t, "D2_2", listed[2].ResourceKey)
		assert.Equal(t, "D2_11", listed[11].ResourceKey)
	})
}

// =============================================================================
// Test: RecordFetch
// =============================================================================

func testRecordFetch(t *testing.T, store Store) {
	ctx := context.Background()
	require.NoError(t, store.UpsertDatasetResources(ctx, []*schema.DatasetResource{
		buildTestResource("F1", 0, "JSON", "https://example.com/a.json"),
	}))

	t.Run("inline content then file content replaces it", func(t *testing.T) {
		payload := `[{"a":"1"}]`
		err := store.RecordFetch(ctx, RecordFetchInput{
			Attempt: &schema.FetchAttempt{
				DatasetID:      "F1",
				ResourceKey:    "F1_0",
				FetchedAt:      time.Now(),
				HTTPStatus:     types.IntPtr(200),
				DetectedFormat: types.StringPtr("JSON"),
				Converter:      types.StringPtr("json"),
				Ok:             true,
			},
			Status: domain.ResourceStatusOK,
			Content: &schema.ResourceContent{
				DatasetID:   "F1",
				ResourceKey: "F1_0",
				StorageMode: domain.StorageModeInline,
				ContentJSON: &payload,
				ContentHash: "ABC",
				ConvertedAt: time.Now(),
			},
		})
		require.NoError(t, err)

		content, err := store.GetResourceContent(ctx, "F1", "F1_0")
		require.NoError(t, err)
		require.NotNil(t, content)
		assert.Equal(t, domain.StorageModeInline, content.StorageMode)
		assert.Equal(t, payload, types.SafeString(content.ContentJSON))
		assert.Nil(t, content.ContentPath)

		err = store.RecordFetch(ctx, RecordFetchInput{
			Attempt: &schema.FetchAttempt{
				DatasetID:   "F1",
				ResourceKey: "F1_0",
				FetchedAt:   time.Now(),
				Ok:          true,
			},
			Status: domain.ResourceStatusOK,
			Content: &schema.ResourceContent{
				DatasetID:   "F1",
				ResourceKey: "F1_0",
				StorageMode: domain.StorageModeFile,
				ContentPath: types.StringPtr("/data/F1/F1_0/a.json"),
				ContentHash: "DEF",
				ConvertedAt: time.Now(),
			},
		})
		require.NoError(t, err)

		content, err = store.GetResourceContent(ctx, "F1", "F1_0")
		require.NoError(t, err)
		require.NotNil(t, content)
		assert.Equal(t, domain.StorageModeFile, content.StorageMode)
		assert.Nil(t, content.ContentJSON)
		assert.Equal(t, "DEF", content.ContentHash)

		attempts, err := store.ListFetchAttempts(ctx, "F1", "F1_0")
		require.NoError(t, err)
		assert.Len(t, attempts, 2)
	})

	t.Run("failed attempt keeps previous content", func(t *testing.T) {
		err := store.RecordFetch(ctx, RecordFetchInput{
			Attempt: &schema.FetchAttempt{
				DatasetID:   "F1",
				ResourceKey: "F1_0",
				FetchedAt:   time.Now(),
				HTTPStatus:  types.IntPtr(404),
				Ok:          false,
				Error:       types.StringPtr("GET 404"),
			},
			Status: domain.ResourceStatusError,
		})
		require.NoError(t, err)

		listed, err := store.ListDatasetResources(ctx, "F1")
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, domain.ResourceStatusError, listed[0].Status)

		content, err := store.GetResourceContent(ctx, "F1", "F1_0")
		require.NoError(t, err)
		assert.NotNil(t, content)

		attempts, err := store.ListFetchAttempts(ctx, "F1", "F1_0")
		require.NoError(t, err)
		require.NotEmpty(t, attempts)
		last := attempts[len(attempts)-1]
		assert.False(t, last.Ok)
		assert.Equal(t, "GET 404", types.SafeString(last.Error))
	})

	t.Run("ok with error is rejected", func(t *testing.T) {
		err := store.RecordFetch(ctx, RecordFetchInput{
			Attempt: &schema.FetchAttempt{
				DatasetID:   "F1",
				ResourceKey: "F1_0",
				FetchedAt:   time.Now(),
				Ok:          true,
				Error:       types.StringPtr("boom"),
			},
			Status: domain.ResourceStatusOK,
		})
		assert.Error(t, err)
	})

	t.Run("content with both json and path is rejected", func(t *testing.T) {
		err := store.RecordFetch(ctx, RecordFetchInput{
			Attempt: &schema.FetchAttempt{
				DatasetID:   "F1",
				ResourceKey: "F1_0",
				FetchedAt:   time.Now(),
				Ok:          true,
			},
			Status: domain.ResourceStatusOK,
			Content: &schema.ResourceContent{
				DatasetID:   "F1",
				ResourceKey: "F1_0",
				StorageMode: domain.StorageModeInline,
				ContentJSON: types.StringPtr("{}"),
				ContentPath: types.StringPtr("/tmp/x"),
				ContentHash: "X",
				ConvertedAt: time.Now(),
			},
		})
		assert.Error(t, err)
	})

	t.Run("missing content returns nil", func(t *testing.T) {
		content, err := store.GetResourceContent(ctx, "F1", "F1_99")
		require.NoError(t, err)
		assert.Nil(t, content)
	})
}

// =============================================================================
// Test: Cross-tab imports
// =============================================================================

func testCrossTabImports(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create import with facts", func(t *testing.T) {
		record := &schema.CrossTabImport{
			SourceFileName:  "移工.xlsx",
			StoredPath:      "/uploads/移工_01H.xlsx",
			FileHashSHA256:  "deadbeef",
			CrossTableTitle: "產業及社福移工人數",
			CategoryType:    domain.CategoryTypeIndustry,
			PeriodYearStart: types.IntPtr(2023),
			PeriodYearEnd:   types.IntPtr(2023),
			RawRowCount:     10,
			ParsedRowCount:  3,
		}
		require.NoError(t, store.CreateCrossTabImport(ctx, record, buildTestFacts("臺北市", 3)))
		require.NotEmpty(t, record.ID)

		found, err := store.GetCrossTabImportByHash(ctx, "deadbeef")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, record.ID, found.ID)
		assert.Equal(t, 3, found.ParsedRowCount)

		facts, err := store.ListCrossTabFacts(ctx, record.ID)
		require.NoError(t, err)
		require.Len(t, facts, 3)
		assert.Equal(t, "", facts[0].CityCode)
		assert.Equal(t, domain.NationalityVietnam, facts[0].Nationality)
	})

	t.Run("duplicate hash fails", func(t *testing.T) {
		record := &schema.CrossTabImport{
			SourceFileName:  "copy.xlsx",
			StoredPath:      "/uploads/copy.xlsx",
			FileHashSHA256:  "feedface",
			CrossTableTitle: "t",
			CategoryType:    domain.CategoryTypeIndustry,
		}
		require.NoError(t, store.CreateCrossTabImport(ctx, record, nil))

		// Nested transactions run as savepoints, so the outer test transaction survives
		dup := &schema.CrossTabImport{
			SourceFileName:  "copy2.xlsx",
			StoredPath:      "/uploads/copy2.xlsx",
			FileHashSHA256:  "feedface",
			CrossTableTitle: "t",
			CategoryType:    domain.CategoryTypeIndustry,
		}
		assert.Error(t, store.CreateCrossTabImport(ctx, dup, nil))
	})

	t.Run("unknown hash returns nil", func(t *testing.T) {
		found, err := store.GetCrossTabImportByHash(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

// =============================================================================
// Test: City codes
// =============================================================================

func testCityCodes(t *testing.T, store Store) {
	ctx := context.Background()

	record := &schema.CrossTabImport{
		SourceFileName:  "cities.xlsx",
		StoredPath:      "/uploads/cities.xlsx",
		FileHashSHA256:  "c1c1",
		CrossTableTitle: "t",
		CategoryType:    domain.CategoryTypeIndustry,
	}
	require.NoError(t, store.CreateCrossTabImport(ctx, record, append(buildTestFacts("臺北市", 2), buildTestFacts("桃園市", 1)...)))

	require.NoError(t, store.UpsertCityCodes(ctx, []schema.CityCode{
		{CityCode: "63000", CityName: "臺北市"},
		{CityCode: "10001", CityName: "臺北市"},
		{CityCode: "9", CityName: "臺北市"},
		{CityCode: "68000", CityName: "桃園市"},
		{CityCode: "10003", CityName: "桃園市", IsCurrent: types.BoolPtr(true)},
	}))

	t.Run("sync marks largest code current and fills facts", func(t *testing.T) {
		result, err := store.SyncCurrentCityCodes(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.UpdatedFacts)
		assert.Equal(t, int64(5), result.UpdatedCodes)

		current, err := store.GetCurrentCityCode(ctx, "臺北市")
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, "63000", current.CityCode)

		current, err = store.GetCurrentCityCode(ctx, "桃園市")
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, "68000", current.CityCode)

		facts, err := store.ListCrossTabFacts(ctx, record.ID)
		require.NoError(t, err)
		for _, f := range facts {
			switch f.CityName {
			case "臺北市":
				assert.Equal(t, "63000", f.CityCode)
			case "桃園市":
				assert.Equal(t, "68000", f.CityCode)
			}
		}
	})

	t.Run("second sync changes nothing", func(t *testing.T) {
		result, err := store.SyncCurrentCityCodes(ctx)
		require.NoError(t, err)
		assert.Equal(t, CityCodeSyncResult{}, result)
	})

	t.Run("unknown city returns nil", func(t *testing.T) {
		current, err := store.GetCurrentCityCode(ctx, "火星市")
		require.NoError(t, err)
		assert.Nil(t, current)
	})
}

// =============================================================================
// Test: Key-value store
// =============================================================================

func testKeyValueStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("set and get key-value", func(t *testing.T) {
		key := "catalog:last_full_sync"
		value := "2026-10-01T00:00:00Z"

		err := store.SetKeyValue(ctx, key, value)
		require.NoError(t, err)

		retrievedValue, err := store.GetKeyValue(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, retrievedValue)
	})

	t.Run("get non-existent key returns empty string", func(t *testing.T) {
		value, err := store.GetKeyValue(ctx, "nonexistent:key")
		require.NoError(t, err)
		assert.Equal(t, "", value)
	})

	t.Run("update existing key", func(t *testing.T) {
		key := "catalog:last_delta_sync"

		require.NoError(t, store.SetKeyValue(ctx, key, "value1"))
		require.NoError(t, store.SetKeyValue(ctx, key, "value2"))

		value, err := store.GetKeyValue(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "value2", value)
	})
}

// RunStoreTests runs all store tests against the given implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"CatalogEntries", testCatalogEntries},
		{"DatasetResources", testDatasetResources},
		{"RecordFetch", testRecordFetch},
		{"CrossTabImports", testCrossTabImports},
		{"CityCodes", testCityCodes},
		{"KeyValueStore", testKeyValueStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
