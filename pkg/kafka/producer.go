// Package kafka wraps segmentio/kafka-go with a JSON event producer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/utafrali/StoreRatingsGo/pkg/logger"
)

// ProducerConfig holds Kafka producer settings.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// Producer publishes JSON-encoded events to a Kafka topic.
type Producer struct {
	writer *kafkago.Writer
	source string
	logger *slog.Logger
}

// NewProducer creates a Kafka producer for the given topic. The source name
// is stamped on every published event envelope.
func NewProducer(cfg ProducerConfig, source string, l *slog.Logger) *Producer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: batchTimeout,
		RequiredAcks: kafkago.RequireOne,
	}

	return &Producer{
		writer: writer,
		source: source,
		logger: l,
	}
}

// Publish sends an event keyed by the given key. Events for the same key land
// on the same partition, preserving per-entity ordering.
func (p *Producer) Publish(ctx context.Context, eventType, key string, payload any) error {
	event := NewEvent(eventType, p.source, payload)
	event.CorrelationID = logger.CorrelationIDFromContext(ctx)

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", eventType, err)
	}

	msg := kafkago.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing event %s: %w", eventType, err)
	}

	p.logger.InfoContext(ctx, "event published",
		slog.String("event_type", eventType),
		slog.String("event_id", event.ID),
		slog.String("key", key),
	)
	return nil
}

// Ping verifies at least one broker is reachable.
func (p *Producer) Ping(ctx context.Context) error {
	brokers := strings.Split(p.writer.Addr.String(), ",")
	var lastErr error
	for _, broker := range brokers {
		dialer := &net.Dialer{}
		conn, err := dialer.DialContext(ctx, "tcp", strings.TrimSpace(broker))
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		return nil
	}
	return fmt.Errorf("no kafka broker reachable: %w", lastErr)
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
