//go:build kafka
// +build kafka

package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/pennyflow/pennyflow/pkg/domain/events"
	"github.com/pennyflow/pennyflow/pkg/eventbus"
)

// KafkaBusConfig holds configuration for the Kafka event bus.
type KafkaBusConfig struct {
	GroupID     string
	TopicPrefix string
}

// DefaultKafkaBusConfig returns the default Kafka bus configuration.
func DefaultKafkaBusConfig() *KafkaBusConfig {
	return &KafkaBusConfig{
		GroupID:     "pennyflow",
		TopicPrefix: "pennyflow.events",
	}
}

// KafkaBus implements eventbus.Bus on a Kafka cluster, one topic per event
// type. It is the transport for multi-instance deployments where due-event
// fan-out must be partitioned across consumers.
type KafkaBus struct {
	brokers []string
	writer  *kafka.Writer
	config  *KafkaBusConfig

	handlersMtx sync.RWMutex
	handlers    map[string][]eventbus.HandlerFunc

	readersMtx sync.Mutex
	readers    map[string]*kafka.Reader

	logger *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a Kafka-backed event bus.
// brokers is a comma-separated list, e.g. "localhost:9092,localhost:9093".
func NewWithKafka(brokers string, logger *slog.Logger, config *KafkaBusConfig) (*KafkaBus, error) {
	parsed := parseBrokers(brokers)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if config == nil {
		config = DefaultKafkaBusConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsed...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}

	_, cancel := context.WithCancel(context.Background())
	return &KafkaBus{
		brokers:  parsed,
		writer:   writer,
		config:   config,
		handlers: make(map[string][]eventbus.HandlerFunc),
		readers:  make(map[string]*kafka.Reader),
		logger:   logger.With("bus", "kafka"),
		cancel:   cancel,
	}, nil
}

func (b *KafkaBus) topic(eventType string) string {
	return b.config.TopicPrefix + "." + eventType
}

// Emit publishes the event to its type's topic, keyed so that events for the
// same type land on a stable partition.
func (b *KafkaBus) Emit(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(envelope{Type: e.Type(), Payload: mustJSON(e)})
	if err != nil {
		return fmt.Errorf("kafka event bus: marshal failed: %w", err)
	}
	err = b.writer.WriteMessages(ctx, kafka.Message{
		Topic: b.topic(e.Type()),
		Key:   []byte(e.Type()),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("kafka event bus: emit failed: %w", err)
	}
	return nil
}

// Register subscribes a handler and starts a consumer-group reader for the
// event type's topic if one is not already running.
func (b *KafkaBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, running := b.readers[eventType]; running {
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: b.brokers,
		GroupID: b.config.GroupID,
		Topic:   b.topic(eventType),
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go b.consume(eventType, reader)
}

func (b *KafkaBus) consume(eventType string, reader *kafka.Reader) {
	defer b.wg.Done()
	ctx := context.Background()
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			b.logger.Error("read failed", "topic", reader.Config().Topic, "error", err)
			return
		}

		var env envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			b.logger.Error("failed to decode envelope", "topic", reader.Config().Topic, "error", err)
			continue
		}
		factory, ok := events.EventTypes[env.Type]
		if !ok {
			b.logger.Warn("unknown event type", "type", env.Type)
			continue
		}
		event := factory()
		if err := json.Unmarshal(env.Payload, event); err != nil {
			b.logger.Error("failed to decode event", "type", env.Type, "error", err)
			continue
		}

		b.handlersMtx.RLock()
		handlers := b.handlers[eventType]
		b.handlersMtx.RUnlock()
		for _, handler := range handlers {
			if err := handler(ctx, event); err != nil {
				b.logger.Error("handler failed", "type", env.Type, "error", err)
			}
		}
	}
}

// Close stops all readers and the writer.
func (b *KafkaBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	return b.writer.Close()
}

func parseBrokers(brokers string) []string {
	var out []string
	for _, broker := range strings.Split(brokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			out = append(out, broker)
		}
	}
	return out
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

var _ eventbus.Bus = (*KafkaBus)(nil)
