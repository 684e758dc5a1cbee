package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Emitter publishes an event payload to a topic. Implementations must be
// safe for concurrent use.
type Emitter interface {
	Emit(ctx context.Context, topic, eventType, key string, payload interface{}) error
}

// Noop discards every event. Used in tests and when Kafka is not configured.
type Noop struct{}

// Emit performs no action.
func (Noop) Emit(context.Context, string, string, string, interface{}) error { return nil }

// KafkaEmitter lazily manages writers per topic and frames payloads as JSON
// with an event_type header.
type KafkaEmitter struct {
	brokers []string
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaEmitter creates a KafkaEmitter.
func NewKafkaEmitter(brokers []string) *KafkaEmitter {
	return &KafkaEmitter{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// Emit JSON-encodes the payload and writes it to the topic, creating a
// writer if necessary.
func (p *KafkaEmitter) Emit(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	return p.writerForTopic(topic).WriteMessages(ctx, msg)
}

func (p *KafkaEmitter) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	p.writers[topic] = writer
	return writer
}

// Close releases all writers.
func (p *KafkaEmitter) Close() error {
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
