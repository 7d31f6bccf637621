package citycode_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/providingshelter/ingest/internal/citycode"
	"github.com/providingshelter/ingest/internal/logger"
	"github.com/providingshelter/ingest/internal/mocks"
	"github.com/providingshelter/ingest/internal/store"
	"github.com/providingshelter/ingest/internal/store/schema"
	"github.com/providingshelter/ingest/internal/types"
)

func setupStore(t *testing.T) (*gomock.Controller, *mocks.MockStore) {
	t.Helper()
	require.NoError(t, logger.Initialize(logger.Config{Debug: true}))
	ctrl := gomock.NewController(t)
	return ctrl, mocks.NewMockStore(ctrl)
}

func TestResyncer_Sync(t *testing.T) {
	ctrl, st := setupStore(t)
	defer ctrl.Finish()

	st.EXPECT().SyncCurrentCityCodes(gomock.Any()).
		Return(store.CityCodeSyncResult{UpdatedCodes: 22, UpdatedFacts: 140}, nil)

	r := citycode.NewResyncer(st)
	defer r.Wait()

	result, err := r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(22), result.UpdatedCodes)
	assert.Equal(t, int64(140), result.UpdatedFacts)
}

func TestResyncer_Sync_Error(t *testing.T) {
	ctrl, st := setupStore(t)
	defer ctrl.Finish()

	st.EXPECT().SyncCurrentCityCodes(gomock.Any()).
		Return(store.CityCodeSyncResult{}, errors.New("deadlock detected"))

	r := citycode.NewResyncer(st)
	defer r.Wait()

	_, err := r.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
}

func TestResyncer_Sync_Canceled(t *testing.T) {
	ctrl, st := setupStore(t)
	defer ctrl.Finish()

	r := citycode.NewResyncer(st)
	defer r.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Sync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResyncer_Trigger(t *testing.T) {
	t.Run("runs in background", func(t *testing.T) {
		ctrl, st := setupStore(t)
		defer ctrl.Finish()

		var calls atomic.Int32
		st.EXPECT().SyncCurrentCityCodes(gomock.Any()).
			DoAndReturn(func(ctx context.Context) (store.CityCodeSyncResult, error) {
				calls.Add(1)
				return store.CityCodeSyncResult{UpdatedCodes: 1}, nil
			})

		r := citycode.NewResyncer(st)
		r.Trigger(context.Background())
		r.Wait()

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("failure is not returned", func(t *testing.T) {
		ctrl, st := setupStore(t)
		defer ctrl.Finish()

		st.EXPECT().SyncCurrentCityCodes(gomock.Any()).
			Return(store.CityCodeSyncResult{}, errors.New("connection reset"))

		r := citycode.NewResyncer(st)
		r.Trigger(context.Background())
		r.Wait()
	})

	t.Run("outlives the caller context", func(t *testing.T) {
		ctrl, st := setupStore(t)
		defer ctrl.Finish()

		var ctxErr error
		st.EXPECT().SyncCurrentCityCodes(gomock.Any()).
			DoAndReturn(func(ctx context.Context) (store.CityCodeSyncResult, error) {
				ctxErr = ctx.Err()
				return store.CityCodeSyncResult{UpdatedFacts: 3}, nil
			})

		r := citycode.NewResyncer(st)
		ctx, cancel := context.WithCancel(context.Background())
		r.Trigger(ctx)
		cancel()
		r.Wait()

		assert.NoError(t, ctxErr)
	})

	t.Run("queued triggers fold", func(t *testing.T) {
		ctrl, st := setupStore(t)
		defer ctrl.Finish()

		started := make(chan struct{})
		release := make(chan struct{})
		var calls atomic.Int32
		st.EXPECT().SyncCurrentCityCodes(gomock.Any()).
			DoAndReturn(func(ctx context.Context) (store.CityCodeSyncResult, error) {
				if calls.Add(1) == 1 {
					close(started)
					<-release
				}
				return store.CityCodeSyncResult{}, nil
			}).
			Times(2)

		r := citycode.NewResyncer(st)
		r.Trigger(context.Background())
		<-started

		// the first sync is running; these three share one queued run
		r.Trigger(context.Background())
		r.Trigger(context.Background())
		r.Trigger(context.Background())
		close(release)
		r.Wait()

		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestResolver_Resolve(t *testing.T) {
	ctrl, st := setupStore(t)
	defer ctrl.Finish()

	st.EXPECT().GetCurrentCityCode(gomock.Any(), "臺北市").
		Return(&schema.CityCode{CityCode: "63000", CityName: "臺北市", IsCurrent: types.BoolPtr(true)}, nil).
		Times(1)
	st.EXPECT().GetCurrentCityCode(gomock.Any(), "臺東縣").Return(nil, nil).Times(1)
	st.EXPECT().GetCurrentCityCode(gomock.Any(), "臺南市").Return(nil, errors.New("timeout"))

	r := citycode.NewResolver(st)
	ctx := context.Background()

	code, name, err := r.Resolve(ctx, " 台北市 ")
	require.NoError(t, err)
	assert.Equal(t, "63000", code)
	assert.Equal(t, "臺北市", name)

	// served from cache
	code, _, err = r.Resolve(ctx, "臺北市")
	require.NoError(t, err)
	assert.Equal(t, "63000", code)

	code, name, err = r.Resolve(ctx, "台東縣")
	require.NoError(t, err)
	assert.Empty(t, code)
	assert.Equal(t, "臺東縣", name)
	_, _, err = r.Resolve(ctx, "臺東縣")
	require.NoError(t, err)

	_, name, err = r.Resolve(ctx, "台南市")
	require.Error(t, err)
	assert.Equal(t, "臺南市", name)

	code, name, err = r.Resolve(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, code)
	assert.Equal(t, "  ", name)
}

func TestLoad(t *testing.T) {
	ctrl, st := setupStore(t)
	defer ctrl.Finish()

	input := "\uFEFF代碼,名稱,url\n" +
		"63000,台北市,https://example.org/63000\n" +
		"A,臺北市,\n" +
		",新北市,\n" +
		"66000,臺中市\n"

	var got []schema.CityCode
	st.EXPECT().UpsertCityCodes(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, codes []schema.CityCode) error {
			got = codes
			return nil
		})

	n, err := citycode.Load(context.Background(), st, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, got, 3)
	assert.Equal(t, "63000", got[0].CityCode)
	assert.Equal(t, "臺北市", got[0].CityName)
	require.NotNil(t, got[0].ResourceURL)
	assert.Equal(t, "https://example.org/63000", *got[0].ResourceURL)
	assert.Nil(t, got[1].ResourceURL)
	assert.Equal(t, "66000", got[2].CityCode)
	assert.Nil(t, got[0].IsCurrent)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		ctrl, st := setupStore(t)
		defer ctrl.Finish()

		_, err := citycode.Load(context.Background(), st, strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		ctrl, st := setupStore(t)
		defer ctrl.Finish()

		n, err := citycode.Load(context.Background(), st, strings.NewReader("city_code,city_name\n"))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl, st := setupStore(t)
		defer ctrl.Finish()

		st.EXPECT().UpsertCityCodes(gomock.Any(), gomock.Any()).Return(errors.New("unique violation"))

		_, err := citycode.Load(context.Background(), st, strings.NewReader("city_code,city_name\n1,a\n"))
		require.Error(t, err)
	})
}
