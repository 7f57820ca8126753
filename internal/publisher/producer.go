// Package publisher writes metric update events onto the ingestion topics.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/timestats/internal/consumer"
	"example.com/timestats/internal/stats"
)

// Writer is the subset of kafka.Writer used per topic.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer lazily manages writers per topic.
type KafkaProducer struct {
	newWriter func(topic string) Writer
	mu        sync.Mutex
	writers   map[string]Writer
}

// NewKafkaProducer creates a KafkaProducer for brokers.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return newProducer(func(topic string) Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		}
	})
}

func newProducer(newWriter func(topic string) Writer) *KafkaProducer {
	return &KafkaProducer{
		newWriter: newWriter,
		writers:   make(map[string]Writer),
	}
}

// PublishMetric validates update and writes it to topic as a metric_updated event.
// Messages are keyed by the lowercased title so one category stays on one partition.
func (p *KafkaProducer) PublishMetric(ctx context.Context, topic string, update stats.MetricUpdate) error {
	if err := update.Validate(); err != nil {
		return fmt.Errorf("invalid metric update: %w", err)
	}
	value, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode metric update: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strings.ToLower(update.Title)),
		Value: value,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: consumer.EventTypeHeader, Value: []byte(consumer.EventMetricUpdated)},
		},
	}
	if err := p.writerForTopic(topic).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaProducer) writerForTopic(topic string) Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}
	writer := p.newWriter(topic)
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
