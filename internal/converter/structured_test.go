package converter_test

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/converter"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestXMLConverter_Convert(t *testing.T) {
	conv := converter.NewXMLConverter(adapter.NewJSON())
	ctx := context.Background()

	doc := `<?xml version="1.0" encoding="UTF-8"?>
<root version="2">
  <item id="1"><name>甲</name><tag>x</tag><tag>y</tag></item>
  <item id="2"><name>乙</name></item>
  <note lang="zh">備註</note>
  <empty/>
</root>`
	path := writeFile(t, "data.xml", []byte(doc))

	out, err := conv.Convert(ctx, converter.Context{Format: "XML", LocalPath: path})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t,
		`{"@version":"2","item":[{"@id":"1","name":"甲","tag":["x","y"]},{"@id":"2","name":"乙"}],"note":{"@lang":"zh","#text":"備註"},"empty":""}`,
		*out)
}

func TestXMLConverter_Malformed(t *testing.T) {
	conv := converter.NewXMLConverter(adapter.NewJSON())
	path := writeFile(t, "data.xml", []byte("not xml at all"))

	_, err := conv.Convert(context.Background(), converter.Context{Format: "XML", LocalPath: path})
	assert.Error(t, err)
}

func TestPassthroughConverters(t *testing.T) {
	ctx := context.Background()
	content := `{"type":"FeatureCollection","features":[]}`
	path := writeFile(t, "data.geojson", []byte(content))

	out, err := converter.NewGeoJSONConverter().Convert(ctx, converter.Context{Format: "GEOJSON", LocalPath: path})
	require.NoError(t, err)
	assert.Equal(t, content, *out)

	out, err = converter.NewJSONConverter().Convert(ctx, converter.Context{Format: "JSON", LocalPath: path})
	require.NoError(t, err)
	assert.Equal(t, content, *out)
}

func TestWorkbookConverter_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"縣市", "", "人數"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"臺北市", "x", 10}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"高雄市"}))
	other, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NotZero(t, other)
	require.NoError(t, f.SetCellValue("Other", "A1", "ignored"))

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))

	conv := converter.NewWorkbookConverter(adapter.NewJSON())
	out, err := conv.Convert(context.Background(), converter.Context{Format: "XLSX", LocalPath: path})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, `[{"縣市":"臺北市","col2":"x","人數":"10"},{"縣市":"高雄市","col2":null,"人數":null}]`, *out)
}

func TestWorkbookConverter_XLSXNamedXLS(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"a"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"1"}))

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))
	renamed := strings.TrimSuffix(path, ".xlsx") + ".xls"
	require.NoError(t, os.Rename(path, renamed))

	conv := converter.NewWorkbookConverter(adapter.NewJSON())
	out, err := conv.Convert(context.Background(), converter.Context{Format: "XLS", LocalPath: renamed})
	require.NoError(t, err)
	assert.Equal(t, `[{"a":"1"}]`, *out)
}

const odsContent = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content
    xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
    xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"
    xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
  <office:body><office:spreadsheet>
    <table:table table:name="Sheet1">
      <table:table-row>
        <table:table-cell><text:p>年份</text:p></table:table-cell>
        <table:table-cell/>
        <table:table-cell><text:p>數量</text:p></table:table-cell>
        <table:table-cell table:number-columns-repeated="16000"/>
      </table:table-row>
      <table:table-row table:number-rows-repeated="2">
        <table:table-cell><text:p>2023</text:p></table:table-cell>
        <table:table-cell table:number-columns-repeated="2"><text:p>A<text:s text:c="2"/>B</text:p><text:p>ignored</text:p></table:table-cell>
      </table:table-row>
      <table:table-row table:number-rows-repeated="1048570">
        <table:table-cell table:number-columns-repeated="1024"/>
      </table:table-row>
    </table:table>
    <table:table table:name="Sheet2">
      <table:table-row><table:table-cell><text:p>other</text:p></table:table-cell></table:table-row>
    </table:table>
  </office:spreadsheet></office:body>
</office:document-content>`

func TestODSConverter_Convert(t *testing.T) {
	conv := converter.NewODSConverter(adapter.NewJSON())
	ctx := context.Background()

	t.Run("first table with repeats expanded", func(t *testing.T) {
		path := writeFile(t, "data.ods", zipBytes(t, map[string]string{"content.xml": odsContent}))
		out, err := conv.Convert(ctx, converter.Context{Format: "ODS", LocalPath: path})
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t,
			`[{"年份":"2023","col2":"A  B","數量":"A  B"},{"年份":"2023","col2":"A  B","數量":"A  B"}]`,
			*out)
	})

	t.Run("missing content part yields nothing", func(t *testing.T) {
		path := writeFile(t, "data.ods", zipBytes(t, map[string]string{"meta.xml": "<x/>"}))
		out, err := conv.Convert(ctx, converter.Context{Format: "ODS", LocalPath: path})
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("not an archive fails", func(t *testing.T) {
		path := writeFile(t, "data.ods", []byte("plain"))
		_, err := conv.Convert(ctx, converter.Context{Format: "ODS", LocalPath: path})
		assert.Error(t, err)
	})
}

func TestFeedConverter_Convert(t *testing.T) {
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>警報</title>
  <item><title>豪雨特報</title><description>北部地區</description>
    <link>https://example.com/a</link><pubDate>Mon, 02 Jan 2023 15:04:05 +0000</pubDate></item>
  <item><title>無日期</title></item>
</channel></rss>`
	path := writeFile(t, "feed.xml", []byte(rss))

	conv := converter.NewFeedConverter(adapter.NewJSON())
	out, err := conv.Convert(context.Background(), converter.Context{Format: "RSS", LocalPath: path})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.JSONEq(t, `[
		{"title":"豪雨特報","summary":"北部地區","publishDate":"2023-01-02T15:04:05Z","links":["https://example.com/a"]},
		{"title":"無日期","summary":null,"publishDate":null,"links":[]}
	]`, *out)
}

func TestZipConverter_Convert(t *testing.T) {
	conv := converter.NewZipConverter()
	ctx := context.Background()

	t.Run("extracts members and returns no json", func(t *testing.T) {
		path := writeFile(t, "bundle.zip", zipBytes(t, map[string]string{
			"a.csv":     "x\n1\n",
			"sub/b.txt": "hello",
		}))

		out, err := conv.Convert(ctx, converter.Context{Format: "ZIP", LocalPath: path})
		require.NoError(t, err)
		assert.Nil(t, out)

		dir := filepath.Join(filepath.Dir(path), "extracted")
		b, err := os.ReadFile(filepath.Join(dir, "sub", "b.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(b))
		assert.FileExists(t, filepath.Join(dir, "a.csv"))
	})

	t.Run("path traversal leaves nothing behind", func(t *testing.T) {
		path := writeFile(t, "evil.zip", zipBytes(t, map[string]string{
			"ok.txt":        "fine",
			"../escape.txt": "bad",
		}))

		_, err := conv.Convert(ctx, converter.Context{Format: "ZIP", LocalPath: path})
		require.Error(t, err)

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "evil.zip", entries[0].Name())
	})
}
