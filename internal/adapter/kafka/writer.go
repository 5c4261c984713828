// Package kafka publishes loaded indicator records to a sink topic for
// downstream consumers. Publishing is optional and enabled by configuration.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/vidanagua/marine-indicators-service/internal/config"
	"github.com/vidanagua/marine-indicators-service/internal/domain"
)

// Writer produces messages to a Kafka topic.
// It implements dataset.RecordPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishRecords serializes and publishes one load's records to the sink
// topic in a single WriteMessages call for efficiency.
func (w *Writer) PublishRecords(ctx context.Context, datasetKey string, loadedAt time.Time, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(datasetKey, loadedAt, records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// recordEnvelope is the wire shape of one published record.
type recordEnvelope struct {
	Dataset string             `json:"dataset"`
	Entity  string             `json:"entity"`
	Year    int                `json:"year"`
	Values  map[string]float64 `json:"values"`
}

// serializeToMessage marshals a Record into a Kafka message. Messages are
// keyed by dataset so each dataset's records stay on one partition.
func serializeToMessage(datasetKey string, loadedAt time.Time, record domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(recordEnvelope{
		Dataset: datasetKey,
		Entity:  record.Entity,
		Year:    record.Year,
		Values:  record.Values,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize indicator record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(datasetKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "dataset", Value: []byte(datasetKey)},
			{Key: "loaded_at", Value: []byte(loadedAt.Format(time.RFC3339))},
		},
	}, nil
}
