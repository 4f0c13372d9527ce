package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dankkom/inmet-bdmep-data/internal/domain"
	"github.com/dankkom/inmet-bdmep-data/internal/observability"
)

type fakeWriter struct {
	batches [][]kafkago.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, msgs)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testPublisher(w messageWriter, batchSize int) (*Publisher, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return &Publisher{
		writer:    w,
		batchSize: batchSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:   m,
	}, m
}

func observation(hour int) domain.Observation {
	v := float64(hour)
	o := domain.Observation{
		Timestamp: time.Date(2020, time.March, 5, hour, 0, 0, 0, time.UTC),
		Station:   &domain.StationMetadata{WMOCode: "A001", Name: "BRASILIA", State: "DF"},
	}
	o.Values[domain.TemperaturaAr] = &v
	return o
}

func TestSerializeToMessage(t *testing.T) {
	o := observation(13)
	o.Passthrough = []domain.Column{{Name: "EXTRA", Value: "x"}}

	msg, err := serializeToMessage("run-1", o)
	require.NoError(t, err)

	assert.Equal(t, []byte("A001"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "observed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2020-03-05T13:00:00Z"), msg.Headers[1].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "A001", decoded["codigo_wmo"])
	assert.Equal(t, "2020-03-05T13:00:00Z", decoded["data_hora"])

	measurements := decoded["medicoes"].(map[string]any)
	assert.Len(t, measurements, domain.MeasurementCount)
	assert.InDelta(t, 13.0, measurements["temperatura_ar"], 0)
	assert.Contains(t, measurements, "precipitacao")
	assert.Nil(t, measurements["precipitacao"])
	assert.Equal(t, map[string]any{"EXTRA": "x"}, decoded["extras"])
}

func TestPublisher_Batches(t *testing.T) {
	w := &fakeWriter{}
	p, m := testPublisher(w, 2)

	d := domain.Dataset{Rows: []domain.Observation{observation(0), observation(1), observation(2), observation(3), observation(4)}}
	require.NoError(t, p.Publish(context.Background(), "run-1", d))

	require.Len(t, w.batches, 3)
	assert.Len(t, w.batches[0], 2)
	assert.Len(t, w.batches[2], 1)
	assert.InDelta(t, 5, testutil.ToFloat64(m.RowsPublished), 0)
}

func TestPublisher_Empty(t *testing.T) {
	w := &fakeWriter{}
	p, _ := testPublisher(w, 0)

	require.NoError(t, p.Publish(context.Background(), "run-1", domain.Dataset{}))
	assert.Empty(t, w.batches)
}

func TestPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p, m := testPublisher(w, 10)

	err := p.Publish(context.Background(), "run-1", domain.Dataset{Rows: []domain.Observation{observation(0)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Zero(t, testutil.ToFloat64(m.RowsPublished))
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p, _ := testPublisher(w, 1)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
