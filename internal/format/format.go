// Package format normalizes declared resource formats and guesses them from
// URLs, content types and file content.
package format

import (
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/logger"
)

// Format tags used by the converters and the format policy
const (
	CSV     = "CSV"
	TXT     = "TXT"
	JSON    = "JSON"
	GeoJSON = "GEOJSON"
	XML     = "XML"
	XLS     = "XLS"
	XLSX    = "XLSX"
	ODS     = "ODS"
	RSS     = "RSS"
	CAP     = "CAP"
	ZIP     = "ZIP"
)

// Normalize trims and upper-cases a declared format tag
func Normalize(declared string) string {
	return strings.ToUpper(strings.TrimSpace(declared))
}

// GuessFromURL returns the upper-cased extension of the last path segment of
// rawURL, or "" when there is none or the URL cannot be parsed.
func GuessFromURL(rawURL string) string {
	if strings.TrimSpace(rawURL) == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	seg := path.Base(u.Path)
	dot := strings.LastIndex(seg, ".")
	if dot <= 0 || dot == len(seg)-1 {
		return ""
	}
	return strings.ToUpper(seg[dot+1:])
}

// Resolve returns the declared format when present, else the URL guess
func Resolve(declared, rawURL string) string {
	if f := Normalize(declared); f != "" {
		return f
	}
	return GuessFromURL(rawURL)
}

// mimeFormats maps detected MIME types to format tags
var mimeFormats = map[string]string{
	"text/csv":                  CSV,
	"text/tab-separated-values": TXT,
	"text/plain":                TXT,
	"application/json":          JSON,
	"application/geo+json":      GeoJSON,
	"application/xml":           XML,
	"text/xml":                  XML,
	"application/rss+xml":       RSS,
	"application/vnd.ms-excel":  XLS,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": XLSX,
	"application/vnd.oasis.opendocument.spreadsheet":                    ODS,
	"application/zip": ZIP,
}

// FromMIME maps a MIME type (parameters ignored) to a format tag, or ""
func FromMIME(mime string) string {
	m := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(m, ";"); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return mimeFormats[m]
}

// DetectFile sniffs the saved file's content and returns its format tag, or ""
func DetectFile(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		logger.Warn("Failed to detect mime type", zap.String("path", path), zap.Error(err))
		return ""
	}
	for m := mtype; m != nil; m = m.Parent() {
		if f := FromMIME(m.String()); f != "" {
			return f
		}
	}
	return ""
}
