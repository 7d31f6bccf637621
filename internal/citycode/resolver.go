package citycode

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/domain"
	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/store"
	"github.com/providingshelter/ingest/internal/store/schema"
	"github.com/providingshelter/ingest/internal/types"
)

// Resolver looks up the current code of a city name. Lookups are cached for
// the life of the resolver.
type Resolver struct {
	store store.Store

	mu    sync.Mutex
	cache map[string]*schema.CityCode
}

func NewResolver(st store.Store) *Resolver {
	return &Resolver{
		store: st,
		cache: make(map[string]*schema.CityCode),
	}
}

// Resolve normalizes raw and returns its current code and canonical name.
// The code is empty when the registry has no current code for the city.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, string, error) {
	name := domain.NormalizeCityName(raw)
	if name == "" {
		return "", raw, nil
	}

	r.mu.Lock()
	hit, ok := r.cache[name]
	r.mu.Unlock()

	if !ok {
		var err error
		hit, err = r.store.GetCurrentCityCode(ctx, name)
		if err != nil {
			return "", name, fmt.Errorf("failed to resolve city %s: %w", name, err)
		}
		r.mu.Lock()
		r.cache[name] = hit
		r.mu.Unlock()
	}

	if hit == nil {
		return "", name, nil
	}
	return hit.CityCode, hit.CityName, nil
}

// Load upserts registry rows read from a delimited file with a header row.
// Recognized columns are the code, the city name and an optional resource URL.
func Load(ctx context.Context, st store.Store, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read city code header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF"))
	}

	var codes []schema.CityCode
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read city code row: %w", err)
		}

		row := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}

		code := types.FirstString(row, "city_code", "cityCode", "代碼", "縣市代碼", "code")
		name := domain.NormalizeCityName(types.FirstString(row, "city_name", "cityName", "名稱", "縣市名稱", "name"))
		if code == "" || name == "" {
			logger.DebugCtx(ctx, "Skipping incomplete city code row", zap.Strings("record", record))
			continue
		}
		entry := schema.CityCode{CityCode: code, CityName: name}
		if u := types.FirstString(row, "resource_url", "resourceUrl", "url"); u != "" {
			entry.ResourceURL = &u
		}
		codes = append(codes, entry)
	}

	if len(codes) == 0 {
		return 0, nil
	}
	if err := st.UpsertCityCodes(ctx, codes); err != nil {
		return 0, fmt.Errorf("failed to upsert city codes: %w", err)
	}
	return len(codes), nil
}
