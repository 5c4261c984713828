package dataset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidanagua/marine-indicators-service/internal/domain"
	"github.com/vidanagua/marine-indicators-service/internal/observability"
)

const testCSV = "Entity,Code,Year,Coverage\n" +
	" Brazil ,BRA,2010,42.5\n" +
	",,2011,10\n" +
	"Chile,CHL,1850,7\n" +
	"Peru,PER,2012,abc\n"

func testConfig() domain.DatasetConfig {
	return domain.DatasetConfig{
		Key:          "marine-protected-areas",
		Label:        "Áreas Marinhas Protegidas",
		CSVPath:      "marine-protected-areas.csv",
		MetadataPath: "marine-protected-areas.metadata.json",
		Columns:      map[string]string{"Coverage": "coverage"},
		MinYear:      2000,
		MaxYear:      2024,
		Indicator:    "coverage",
		Description:  "Porcentagem de áreas marinhas protegidas",
	}
}

// --- mocks ---

type mockCSVFetcher struct {
	mu      sync.Mutex
	text    string
	err     error
	calls   int
	release chan struct{} // when set, FetchCSV blocks until closed
}

func (m *mockCSVFetcher) FetchCSV(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.release != nil {
		<-m.release
	}
	return m.text, m.err
}

type mockMetadataFetcher struct {
	doc domain.MetadataDocument
	err error
}

func (m *mockMetadataFetcher) FetchMetadata(_ context.Context, _ string) (domain.MetadataDocument, error) {
	return m.doc, m.err
}

type mockPublisher struct {
	key      string
	loadedAt time.Time
	records  []domain.Record
	err      error
	calls    int
}

func (m *mockPublisher) PublishRecords(_ context.Context, key string, loadedAt time.Time, records []domain.Record) error {
	m.calls++
	m.key = key
	m.loadedAt = loadedAt
	m.records = records
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLoader(store *Store, csvF CSVFetcher, metaF MetadataFetcher, pub RecordPublisher) *Loader {
	return NewLoader(store, csvF, metaF, pub, discardLogger(), observability.NewMetricsForTesting())
}

// --- tests ---

func TestLoader_Load_Success(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	store := NewStore([]domain.DatasetConfig{testConfig()})
	meta := &mockMetadataFetcher{doc: domain.MetadataDocument{
		Subtitle: "Share of territorial waters protected",
		Citation: "UNEP-WCMC (2024)",
	}}
	l := newTestLoader(store, &mockCSVFetcher{text: testCSV}, meta, nil)

	require.NoError(t, l.Load(context.Background(), "marine-protected-areas"))

	ds, _ := store.Get("marine-protected-areas")
	state, loadErr := ds.State()
	assert.Equal(t, StateReady, state)
	assert.Empty(t, loadErr)

	data, err := ds.Data()
	require.NoError(t, err)
	require.Len(t, data, 2, "sentinel-entity and out-of-bounds rows are dropped")
	assert.Equal(t, domain.Record{Entity: "Brazil", Year: 2010, Values: map[string]float64{"coverage": 42.5}}, data[0])
	assert.Equal(t, "Peru", data[1].Entity)
	assert.Equal(t, 0.0, data[1].Value("coverage"), "unparsable value defaults to zero, row kept")

	md := ds.Metadata()
	assert.Equal(t, "Share of territorial waters protected", md.Description)
	assert.Equal(t, "UNEP-WCMC (2024)", md.Citation)
	assert.False(t, md.Fallback)

	snap := ds.Snapshot()
	require.NotNil(t, snap.LoadedAt)
	assert.Equal(t, fakeClock.Now(), *snap.LoadedAt)
}

func TestLoader_Load_MetadataFailureIsNonFatal(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	meta := &mockMetadataFetcher{err: errors.New("metadata host down")}
	l := newTestLoader(store, &mockCSVFetcher{text: testCSV}, meta, nil)

	require.NoError(t, l.Load(context.Background(), "marine-protected-areas"))

	ds, _ := store.Get("marine-protected-areas")
	state, _ := ds.State()
	assert.Equal(t, StateReady, state, "CSV path is independent of the metadata path")

	md := ds.Metadata()
	assert.Equal(t, "Fonte: marine-protected-areas", md.Citation)
	assert.Equal(t, "Porcentagem de áreas marinhas protegidas", md.Description)
	assert.True(t, md.Fallback)
	assert.Contains(t, md.FallbackReason, "metadata host down")
}

func TestLoader_Load_PartialMetadataFallsBackPerField(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	meta := &mockMetadataFetcher{doc: domain.MetadataDocument{Subtitle: "Only a subtitle"}}
	l := newTestLoader(store, &mockCSVFetcher{text: testCSV}, meta, nil)

	require.NoError(t, l.Load(context.Background(), "marine-protected-areas"))

	ds, _ := store.Get("marine-protected-areas")
	md := ds.Metadata()
	assert.Equal(t, "Only a subtitle", md.Description)
	assert.Equal(t, "Fonte: marine-protected-areas", md.Citation)
	assert.False(t, md.Fallback)
}

func TestLoader_Load_CSVFetchFailureIsFatal(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	l := newTestLoader(store, &mockCSVFetcher{err: errors.New("connection refused")}, &mockMetadataFetcher{}, nil)

	err := l.Load(context.Background(), "marine-protected-areas")
	require.Error(t, err)

	ds, _ := store.Get("marine-protected-areas")
	state, loadErr := ds.State()
	assert.Equal(t, StateFailed, state)
	assert.Contains(t, loadErr, "connection refused")

	_, err = ds.Data()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestLoader_Load_MalformedCSVIsFatal(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	l := newTestLoader(store, &mockCSVFetcher{text: ""}, &mockMetadataFetcher{}, nil)

	err := l.Load(context.Background(), "marine-protected-areas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse csv")
}

func TestLoader_Load_UnknownKey(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	l := newTestLoader(store, &mockCSVFetcher{text: testCSV}, &mockMetadataFetcher{}, nil)

	err := l.Load(context.Background(), "no-such-dataset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dataset")
}

func TestLoader_Load_RejectsConcurrentLoad(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	release := make(chan struct{})
	csvF := &mockCSVFetcher{text: testCSV, release: release}
	l := newTestLoader(store, csvF, &mockMetadataFetcher{}, nil)

	done := make(chan error, 1)
	go func() { done <- l.Load(context.Background(), "marine-protected-areas") }()

	// Wait until the first load is holding the loading state.
	require.Eventually(t, func() bool {
		ds, _ := store.Get("marine-protected-areas")
		state, _ := ds.State()
		return state == StateLoading
	}, time.Second, 5*time.Millisecond)

	err := l.Load(context.Background(), "marine-protected-areas")
	assert.ErrorIs(t, err, ErrLoadInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestLoader_Load_ReplacesDataWholesale(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	csvF := &mockCSVFetcher{text: testCSV}
	l := newTestLoader(store, csvF, &mockMetadataFetcher{}, nil)

	require.NoError(t, l.Load(context.Background(), "marine-protected-areas"))

	csvF.text = "Entity,Year,Coverage\nArgentina,2015,12.0\n"
	require.NoError(t, l.Load(context.Background(), "marine-protected-areas"))

	ds, _ := store.Get("marine-protected-areas")
	data, err := ds.Data()
	require.NoError(t, err)
	require.Len(t, data, 1, "re-invoking replaces data, no incremental merge")
	assert.Equal(t, "Argentina", data[0].Entity)
}

func TestLoader_Load_PublishesRecords(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	pub := &mockPublisher{}
	l := newTestLoader(store, &mockCSVFetcher{text: testCSV}, &mockMetadataFetcher{}, pub)

	require.NoError(t, l.Load(context.Background(), "marine-protected-areas"))

	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, "marine-protected-areas", pub.key)
	assert.Len(t, pub.records, 2)
}

func TestLoader_Load_PublishFailureIsNonFatal(t *testing.T) {
	store := NewStore([]domain.DatasetConfig{testConfig()})
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	l := newTestLoader(store, &mockCSVFetcher{text: testCSV}, &mockMetadataFetcher{}, pub)

	require.NoError(t, l.Load(context.Background(), "marine-protected-areas"))

	ds, _ := store.Get("marine-protected-areas")
	state, _ := ds.State()
	assert.Equal(t, StateReady, state)
}

func TestLoader_LoadAll(t *testing.T) {
	second := testConfig()
	second.Key = "ocean-health-index"
	second.CSVPath = "ocean-health-index.csv"

	store := NewStore([]domain.DatasetConfig{testConfig(), second})
	l := newTestLoader(store, &mockCSVFetcher{text: testCSV}, &mockMetadataFetcher{}, nil)

	l.LoadAll(context.Background())

	for _, ds := range store.All() {
		state, _ := ds.State()
		assert.Equal(t, StateReady, state, ds.Config().Key)
	}
	assert.NoError(t, store.CheckReadiness(context.Background()))
}

func TestParseCSV(t *testing.T) {
	t.Run("header defines fields, blank lines skipped", func(t *testing.T) {
		raws, err := parseCSV("Entity,Year\n\nBrazil,2010\n\nChile,2011\n")
		require.NoError(t, err)
		require.Len(t, raws, 2)
		assert.Equal(t, "Brazil", raws[0]["Entity"])
		assert.Equal(t, "2011", raws[1]["Year"])
	})

	t.Run("short rows leave fields absent", func(t *testing.T) {
		raws, err := parseCSV("Entity,Year,Coverage\nBrazil,2010\n")
		require.NoError(t, err)
		require.Len(t, raws, 1)
		_, ok := raws[0]["Coverage"]
		assert.False(t, ok)
	})

	t.Run("header whitespace trimmed", func(t *testing.T) {
		raws, err := parseCSV(" Entity , Year \nBrazil,2010\n")
		require.NoError(t, err)
		assert.Equal(t, "Brazil", raws[0]["Entity"])
	})

	t.Run("empty input is an error", func(t *testing.T) {
		_, err := parseCSV("")
		require.Error(t, err)
	})
}
