// Package citycode maintains the city-code registry and the codes carried by
// cross-tab facts.
package citycode

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/store"
)

// Resyncer recomputes the current code of every city and copies it onto facts
type Resyncer struct {
	store   store.Store
	pool    pond.Pool
	pending atomic.Bool
}

// NewResyncer creates a resyncer with a single background worker
func NewResyncer(st store.Store) *Resyncer {
	return &Resyncer{
		store: st,
		pool:  pond.NewPool(1),
	}
}

// Sync makes the numerically largest code of each city name current and
// rewrites the code of every fact whose city code differs from it
func (r *Resyncer) Sync(ctx context.Context) (store.CityCodeSyncResult, error) {
	if err := ctx.Err(); err != nil {
		return store.CityCodeSyncResult{}, err
	}

	result, err := r.store.SyncCurrentCityCodes(ctx)
	if err != nil {
		return store.CityCodeSyncResult{}, fmt.Errorf("failed to sync city codes: %w", err)
	}

	logger.InfoCtx(ctx, "City codes synced",
		zap.Int64("updatedCodes", result.UpdatedCodes),
		zap.Int64("updatedFacts", result.UpdatedFacts),
	)
	return result, nil
}

// Trigger schedules a Sync in the background. A failure is logged only.
// Triggers arriving while a sync is still queued are folded into it.
// The sync outlives ctx; only its values are kept.
func (r *Resyncer) Trigger(ctx context.Context) {
	if !r.pending.CompareAndSwap(false, true) {
		logger.DebugCtx(ctx, "City code resync already queued")
		return
	}

	ctx = context.WithoutCancel(ctx)
	r.pool.Submit(func() {
		r.pending.Store(false)
		if _, err := r.Sync(ctx); err != nil {
			logger.ErrorCtx(ctx, err)
		}
	})
}

// Wait blocks until every triggered sync has finished and stops the worker.
// Trigger must not be called afterwards.
func (r *Resyncer) Wait() {
	r.pool.StopAndWait()
}
