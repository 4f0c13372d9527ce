package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/dankkom/inmet-bdmep-data/internal/config"
	"github.com/dankkom/inmet-bdmep-data/internal/domain"
	"github.com/dankkom/inmet-bdmep-data/internal/observability"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one JSON message per observation to a Kafka topic.
type Publisher struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}
	return &Publisher{writer: w, batchSize: cfg.BatchSize, logger: logger, metrics: metrics}
}

// Publish sends every row of d in WriteMessages calls of at most batchSize
// messages. Messages are keyed by station so a station's rows stay ordered
// within one partition.
func (p *Publisher) Publish(ctx context.Context, runID string, d domain.Dataset) error {
	batchSize := p.batchSize
	if batchSize <= 0 {
		batchSize = len(d.Rows)
	}

	for start := 0; start < len(d.Rows); start += batchSize {
		end := min(start+batchSize, len(d.Rows))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, o := range d.Rows[start:end] {
			msg, err := serializeToMessage(runID, o)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish observations: %w", err)
		}
		p.metrics.RowsPublished.Add(float64(len(msgs)))
	}

	p.logger.Debug("observations published", "run_id", runID, "rows", len(d.Rows))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// ObservationMessage is the JSON payload of one published observation.
type ObservationMessage struct {
	StationID    string              `json:"codigo_wmo"`
	Station      string              `json:"estacao,omitempty"`
	State        string              `json:"uf,omitempty"`
	Timestamp    time.Time           `json:"data_hora"`
	Measurements map[string]*float64 `json:"medicoes"`
	Passthrough  map[string]string   `json:"extras,omitempty"`
}

// NewObservationMessage flattens an observation into its message form.
// Missing measurements are explicit nulls.
func NewObservationMessage(o domain.Observation) ObservationMessage {
	msg := ObservationMessage{
		StationID:    o.StationID(),
		Timestamp:    o.Timestamp,
		Measurements: make(map[string]*float64, domain.MeasurementCount),
	}
	if o.Station != nil {
		msg.Station = o.Station.Name
		msg.State = o.Station.State
	}
	for i, v := range o.Values {
		msg.Measurements[domain.Measurement(i).String()] = v
	}
	if len(o.Passthrough) > 0 {
		msg.Passthrough = make(map[string]string, len(o.Passthrough))
		for _, c := range o.Passthrough {
			msg.Passthrough[c.Name] = c.Value
		}
	}
	return msg
}

// serializeToMessage marshals an observation into a Kafka message.
func serializeToMessage(runID string, o domain.Observation) (kafkago.Message, error) {
	data, err := json.Marshal(NewObservationMessage(o))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(o.StationID()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "observed_at", Value: []byte(o.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
