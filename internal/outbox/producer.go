package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/config"
)

// ProducerConfig tunes the Kafka writers used to publish journal events.
type ProducerConfig struct {
	Brokers      []string
	ClientID     string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// ProducerConfigFrom extracts the producer settings from the service configuration.
func ProducerConfigFrom(cfg config.Config) ProducerConfig {
	return ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		ClientID:     cfg.KafkaClientID,
		BatchTimeout: cfg.KafkaBatchTimeout,
		WriteTimeout: cfg.KafkaWriteTimeout,
	}
}

// KafkaProducer keeps one writer per topic. Entries are keyed by slot time, so
// the hash balancer sends every entry for a slot to the same partition.
type KafkaProducer struct {
	cfg       ProducerConfig
	transport *kafka.Transport

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	closed  bool
}

// NewKafkaProducer creates a KafkaProducer. Writers connect on first use.
func NewKafkaProducer(cfg ProducerConfig) *KafkaProducer {
	return &KafkaProducer{
		cfg:       cfg,
		transport: &kafka.Transport{ClientID: cfg.ClientID},
		writers:   make(map[string]*kafka.Writer),
	}
}

var errProducerClosed = errors.New("kafka producer is closed")

// WriteMessages publishes msgs to topic. An empty batch is a no-op.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	writer, err := p.writerForTopic(topic)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writerForTopic(topic string) (*kafka.Writer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errProducerClosed
	}
	if w, ok := p.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.cfg.Brokers...),
		Topic:                  topic,
		Transport:              p.transport,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           p.cfg.BatchTimeout,
		WriteTimeout:           p.cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	p.writers[topic] = w
	return w, nil
}

// Close flushes and releases every writer. Later writes fail.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.writers, topic)
	}
	p.transport.CloseIdleConnections()
	return errors.Join(errs...)
}
