package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vidanagua/marine-indicators-service/internal/domain"
	"github.com/vidanagua/marine-indicators-service/internal/observability"
)

// CSVFetcher retrieves a CSV resource as raw text.
type CSVFetcher interface {
	FetchCSV(ctx context.Context, path string) (string, error)
}

// MetadataFetcher retrieves a metadata document.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, path string) (domain.MetadataDocument, error)
}

// RecordPublisher pushes freshly loaded records to downstream consumers.
type RecordPublisher interface {
	PublishRecords(ctx context.Context, datasetKey string, loadedAt time.Time, records []domain.Record) error
}

// Loader orchestrates the fetch-parse-normalize cycle for each dataset.
type Loader struct {
	store     *Store
	csv       CSVFetcher
	metadata  MetadataFetcher
	publisher RecordPublisher // nil disables publishing
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewLoader creates a Loader. Pass a nil publisher to disable Kafka
// publishing.
func NewLoader(store *Store, csvFetcher CSVFetcher, metadataFetcher MetadataFetcher, publisher RecordPublisher, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		store:     store,
		csv:       csvFetcher,
		metadata:  metadataFetcher,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Load fetches, parses, and normalizes one dataset, replacing its data
// wholesale on success. A metadata failure is non-fatal and falls back to
// default text; a CSV fetch or parse failure fails the load for this dataset
// only. Returns ErrLoadInProgress when a load for the same key is already in
// flight.
func (l *Loader) Load(ctx context.Context, key string) error {
	ds, ok := l.store.Get(key)
	if !ok {
		return fmt.Errorf("unknown dataset %q", key)
	}
	if !ds.beginLoad() {
		return ErrLoadInProgress
	}

	start := clock.Now()
	cfg := ds.Config()

	meta := l.fetchMetadata(ctx, cfg)

	text, err := l.csv.FetchCSV(ctx, cfg.CSVPath)
	if err != nil {
		return l.fail(ds, fmt.Errorf("fetch csv: %w", err))
	}

	raws, err := parseCSV(text)
	if err != nil {
		return l.fail(ds, fmt.Errorf("parse csv: %w", err))
	}

	kept, droppedEntity, droppedYear := domain.NormalizeRows(raws, cfg)
	loadedAt := clock.Now()
	ds.completeLoad(meta, kept, loadedAt)

	l.metrics.DatasetLoads.WithLabelValues(cfg.Key, "success").Inc()
	l.metrics.RecordsLoaded.WithLabelValues(cfg.Key).Add(float64(len(kept)))
	l.metrics.RecordsDropped.WithLabelValues(cfg.Key, "entity").Add(float64(droppedEntity))
	l.metrics.RecordsDropped.WithLabelValues(cfg.Key, "year").Add(float64(droppedYear))
	l.metrics.LoadDuration.WithLabelValues(cfg.Key).Observe(clock.Since(start).Seconds())
	l.metrics.DatasetReady.WithLabelValues(cfg.Key).Set(1)

	l.logger.Info("dataset loaded",
		"dataset", cfg.Key,
		"records", len(kept),
		"dropped_entity", droppedEntity,
		"dropped_year", droppedYear,
	)

	l.publish(ctx, cfg.Key, loadedAt, kept)
	return nil
}

// LoadAsync triggers a load in the background. Loads are not cancellable
// once started, so the background load runs detached from any request
// context.
func (l *Loader) LoadAsync(key string) {
	go func() {
		if err := l.Load(context.Background(), key); err != nil {
			l.logger.Error("background load failed", "dataset", key, "error", err)
		}
	}()
}

// LoadAll loads every dataset concurrently and waits for all of them.
// Dataset loads are independent; one failure does not affect the others.
func (l *Loader) LoadAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, ds := range l.store.All() {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := l.Load(ctx, key); err != nil {
				l.logger.Error("dataset load failed", "dataset", key, "error", err)
			}
		}(ds.Config().Key)
	}
	wg.Wait()
}

// fetchMetadata fetches citation/description text, falling back to defaults
// on any failure or absent field. The failure reason is surfaced on the
// returned Metadata for display; loading continues either way.
func (l *Loader) fetchMetadata(ctx context.Context, cfg domain.DatasetConfig) domain.Metadata {
	meta := domain.Metadata{}

	doc, err := l.metadata.FetchMetadata(ctx, cfg.MetadataPath)
	if err != nil {
		meta.Fallback = true
		meta.FallbackReason = err.Error()
		l.logger.Warn("metadata fetch failed, using fallback text",
			"dataset", cfg.Key, "error", err)
		l.metrics.MetadataFallbacks.WithLabelValues(cfg.Key).Inc()
	}

	meta.Description = doc.Subtitle
	meta.Citation = doc.Citation
	if meta.Description == "" {
		meta.Description = cfg.Description
	}
	if meta.Description == "" {
		meta.Description = "Descrição não disponível"
	}
	if meta.Citation == "" {
		meta.Citation = "Fonte: " + cfg.Key
	}
	return meta
}

func (l *Loader) fail(ds *Dataset, err error) error {
	cfg := ds.Config()
	ds.failLoad(err.Error())
	l.metrics.DatasetLoads.WithLabelValues(cfg.Key, "error").Inc()
	l.metrics.DatasetReady.WithLabelValues(cfg.Key).Set(0)
	l.logger.Error("dataset load failed", "dataset", cfg.Key, "error", err)
	return err
}

// publish pushes the loaded records downstream. Publish failures are
// non-fatal for the load.
func (l *Loader) publish(ctx context.Context, key string, loadedAt time.Time, records []domain.Record) {
	if l.publisher == nil || len(records) == 0 {
		return
	}
	if err := l.publisher.PublishRecords(ctx, key, loadedAt, records); err != nil {
		l.metrics.PublishErrors.Inc()
		l.logger.Warn("record publish failed", "dataset", key, "error", err)
		return
	}
	l.metrics.RecordsPublished.WithLabelValues(key).Add(float64(len(records)))
}

// parseCSV parses raw CSV text into header-keyed records. The first line
// defines the field names; blank lines are skipped. Rows shorter than the
// header leave the missing fields empty, which the normalizer defaults.
func parseCSV(text string) ([]map[string]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var raws []map[string]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		raw := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				raw[h] = row[i]
			}
		}
		raws = append(raws, raw)
	}
	return raws, nil
}
