package dataset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidanagua/marine-indicators-service/internal/domain"
)

func readyDataset(t *testing.T, data []domain.Record) *Dataset {
	t.Helper()
	ds := newDataset(testConfig())
	require.True(t, ds.beginLoad())
	ds.completeLoad(domain.Metadata{Citation: "cit"}, data, time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	return ds
}

func TestDataset_InitialState(t *testing.T) {
	ds := newDataset(testConfig())

	state, loadErr := ds.State()
	assert.Equal(t, StateIdle, state)
	assert.Empty(t, loadErr)

	_, err := ds.Data()
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = ds.ApplyFilter(2000, 2024)
	assert.ErrorIs(t, err, ErrNotLoaded)

	md := ds.Metadata()
	assert.Equal(t, testConfig().Description, md.Description, "placeholder description until the first fetch")

	snap := ds.Snapshot()
	assert.Nil(t, snap.LoadedAt)
	assert.Zero(t, snap.RecordCount)
}

func TestDataset_BeginLoadBlocksSecondLoad(t *testing.T) {
	ds := newDataset(testConfig())

	assert.True(t, ds.beginLoad())
	assert.False(t, ds.beginLoad(), "only one load in flight per dataset")

	state, _ := ds.State()
	assert.Equal(t, StateLoading, state)
}

func TestDataset_BeginLoadAllowedAfterFailure(t *testing.T) {
	ds := newDataset(testConfig())
	require.True(t, ds.beginLoad())
	ds.failLoad("boom")

	state, loadErr := ds.State()
	assert.Equal(t, StateFailed, state)
	assert.Equal(t, "boom", loadErr)

	assert.True(t, ds.beginLoad(), "a failed dataset can be retried")
}

func TestDataset_FailLoadClearsData(t *testing.T) {
	ds := readyDataset(t, []domain.Record{
		{Entity: "Brazil", Year: 2010, Values: map[string]float64{"coverage": 42.5}},
	})

	require.True(t, ds.beginLoad())
	ds.failLoad("host unreachable")

	_, err := ds.Data()
	assert.ErrorIs(t, err, ErrNotLoaded)

	snap := ds.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "host unreachable", snap.Error)
	assert.Zero(t, snap.RecordCount)
}

func TestDataset_ApplyFilter(t *testing.T) {
	ds := readyDataset(t, []domain.Record{
		{Entity: "A", Year: 2001, Values: map[string]float64{"coverage": 10}},
		{Entity: "A", Year: 2002, Values: map[string]float64{"coverage": 20}},
		{Entity: "B", Year: 2010, Values: map[string]float64{"coverage": 30}},
	})

	res, err := ds.ApplyFilter(2001, 2002)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, map[string]float64{"A": 15}, res.Averages)

	// Narrowing again starts from the full data, not the previous filter.
	res, err = ds.ApplyFilter(2010, 2010)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "B", res.Records[0].Entity)
}

func TestDataset_Snapshot(t *testing.T) {
	loadedAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	ds := newDataset(testConfig())
	require.True(t, ds.beginLoad())
	ds.completeLoad(
		domain.Metadata{Description: "desc", Citation: "cit"},
		[]domain.Record{{Entity: "Brazil", Year: 2010, Values: map[string]float64{"coverage": 42.5}}},
		loadedAt,
	)

	snap := ds.Snapshot()
	assert.Equal(t, "marine-protected-areas", snap.Key)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, 1, snap.RecordCount)
	assert.Equal(t, "cit", snap.Metadata.Citation)
	require.NotNil(t, snap.LoadedAt)
	assert.Equal(t, loadedAt, *snap.LoadedAt)
}

func TestStore_AllPreservesOrder(t *testing.T) {
	first := testConfig()
	second := testConfig()
	second.Key = "ocean-health-index"
	third := testConfig()
	third.Key = "coastal-eutrophication"

	store := NewStore([]domain.DatasetConfig{first, second, third})

	var keys []string
	for _, ds := range store.All() {
		keys = append(keys, ds.Config().Key)
	}
	assert.Equal(t, []string{"marine-protected-areas", "ocean-health-index", "coastal-eutrophication"}, keys)
}

func TestStore_Get(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})

	ds, ok := store.Get("marine-protected-areas")
	require.True(t, ok)
	assert.Equal(t, "marine-protected-areas", ds.Config().Key)

	_, ok = store.Get("nope")
	assert.False(t, ok)
}

func TestStore_CheckReadiness(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	ctx := context.Background()

	assert.Error(t, store.CheckReadiness(ctx), "not ready before any load")

	ds, _ := store.Get("marine-protected-areas")
	require.True(t, ds.beginLoad())
	ds.failLoad("boom")
	assert.Error(t, store.CheckReadiness(ctx), "a failed load does not make the service ready")

	require.True(t, ds.beginLoad())
	ds.completeLoad(domain.Metadata{}, nil, time.Now())
	assert.NoError(t, store.CheckReadiness(ctx), "one ready dataset is enough")
}
