package converter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/logger"
)

// maxPreviewRows bounds the data rows emitted by the tabular converters
const maxPreviewRows = 1000

// Context describes one downloaded resource handed to a converter
type Context struct {
	DatasetID   string
	ResourceKey string
	SourceURL   string
	// ContentType is the declared media type from the response headers
	ContentType string
	// Format is the normalized format tag, e.g. "CSV"
	Format string
	// LocalPath is the saved, decompressed file
	LocalPath string
}

// Converter turns one resource format into JSON text
type Converter interface {
	// Name identifies the converter in fetch telemetry
	Name() string
	// CanHandle reports whether the converter accepts the resource
	CanHandle(rc Context) bool
	// Convert returns the JSON text, or nil when the converter produces no content
	Convert(ctx context.Context, rc Context) (*string, error)
}

// Outcome is the result of a registry dispatch
type Outcome struct {
	// Converter is the converter name, "(none)" or "<name> (failed)"
	Converter string
	JSON      *string
}

// Registry dispatches a resource to the first converter that can handle it
type Registry struct {
	converters []Converter
}

// NewRegistry creates a registry that tries converters in the given order
func NewRegistry(converters ...Converter) *Registry {
	return &Registry{converters: converters}
}

// NewDefaultRegistry creates the registry used by the harvester
func NewDefaultRegistry(json adapter.JSON) *Registry {
	return NewRegistry(
		NewCSVConverter(json),
		NewJSONConverter(),
		NewXMLConverter(json),
		NewWorkbookConverter(json),
		NewODSConverter(json),
		NewFeedConverter(json),
		// CSV claims TXT first; the sniffer only serves registries built without it
		NewTextSniffConverter(json),
		NewGeoJSONConverter(),
		NewZipConverter(),
	)
}

// Names returns the converter names in dispatch order
func (r *Registry) Names() []string {
	names := make([]string, len(r.converters))
	for i, c := range r.converters {
		names[i] = c.Name()
	}
	return names
}

// TryConvert runs the first matching converter.
// A converter failure is logged and reported in the outcome, never returned.
func (r *Registry) TryConvert(ctx context.Context, rc Context) Outcome {
	var conv Converter
	for _, c := range r.converters {
		if c.CanHandle(rc) {
			conv = c
			break
		}
	}
	if conv == nil {
		logger.InfoCtx(ctx, "No converter for resource",
			zap.String("format", rc.Format),
			zap.String("url", rc.SourceURL))
		return Outcome{Converter: domain.ConverterNone}
	}

	json, err := safeConvert(ctx, conv, rc)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("converter %s failed: %w", conv.Name(), err),
			zap.String("datasetID", rc.DatasetID),
			zap.String("resourceKey", rc.ResourceKey))
		return Outcome{Converter: conv.Name() + " (failed)"}
	}

	return Outcome{Converter: conv.Name(), JSON: json}
}

func safeConvert(ctx context.Context, conv Converter, rc Context) (json *string, err error) {
	defer func() {
		if p := recover(); p != nil {
			json = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return conv.Convert(ctx, rc)
}
