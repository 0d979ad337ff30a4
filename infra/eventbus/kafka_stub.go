//go:build !kafka
// +build !kafka

package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pennyflow/pennyflow/pkg/domain/events"
	"github.com/pennyflow/pennyflow/pkg/eventbus"
)

type KafkaBusConfig struct {
	GroupID     string
	TopicPrefix string
}

func DefaultKafkaBusConfig() *KafkaBusConfig {
	return &KafkaBusConfig{GroupID: "pennyflow", TopicPrefix: "pennyflow.events"}
}

type KafkaBus struct{}

func NewWithKafka(brokers string, logger *slog.Logger, config *KafkaBusConfig) (*KafkaBus, error) {
	return nil, fmt.Errorf("kafka event bus: build with -tags kafka to enable")
}

func (b *KafkaBus) Register(eventType string, handler eventbus.HandlerFunc) {}

func (b *KafkaBus) Emit(ctx context.Context, e events.Event) error {
	return fmt.Errorf("kafka event bus: build with -tags kafka to enable")
}

func (b *KafkaBus) Close() error { return nil }

var _ eventbus.Bus = (*KafkaBus)(nil)
