package kafka

import (
	"encoding/json"
	"fmt"
	"sync"

	"ledger-api/internal/logging"

	"github.com/IBM/sarama"
)

// Producer wraps a sarama.SyncProducer for best-effort JSON event
// publishing.
type Producer struct {
	producer sarama.SyncProducer
	config   *Config
	mu       sync.RWMutex
	closed   bool
}

// NewProducer dials the configured brokers and returns a ready producer.
func NewProducer(config *Config) (*Producer, error) {
	saramaConfig, err := config.ToSaramaConfig()
	if err != nil {
		return nil, fmt.Errorf("build sarama config: %w", err)
	}

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	logging.Info("kafka producer initialized", map[string]any{
		"brokers":   config.Brokers,
		"client_id": config.ClientID,
	})

	return &Producer{producer: producer, config: config}, nil
}

// PublishEvent JSON-encodes event and sends it synchronously to topic,
// keyed by key (used for partition affinity, e.g. account id).
func (p *Producer) PublishEvent(topic, key string, event any) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return fmt.Errorf("kafka producer is closed")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send message to kafka: %w", err)
	}

	logging.Debug("event published", map[string]any{
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
		"key":       key,
	})
	return nil
}

// Close shuts down the underlying producer. Idempotent.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

// IsHealthy reports whether the producer has not been closed.
func (p *Producer) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}
