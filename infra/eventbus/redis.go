package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pennyflow/pennyflow/pkg/domain/events"
	"github.com/pennyflow/pennyflow/pkg/eventbus"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBus implements eventbus.Bus on top of a Redis stream with a consumer
// group, giving the scheduler a durable at-least-once work queue that
// survives process restarts.
type RedisBus struct {
	client        *redis.Client
	stream        string
	group         string
	typeFactories map[string]func() events.Event
	logger        *slog.Logger
}

// NewWithRedis creates a Redis Streams backed event bus.
// url is a Redis connection URL (e.g. "redis://localhost:6379").
func NewWithRedis(url, stream, group string, logger *slog.Logger) (*RedisBus, error) {
	if url == "" || stream == "" || group == "" {
		return nil, fmt.Errorf("redis event bus: url, stream, and group are required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}

	bus := &RedisBus{
		client:        client,
		stream:        stream,
		group:         group,
		typeFactories: events.EventTypes,
		logger:        logger.With("bus", "redis"),
	}

	_ = client.XGroupCreateMkStream(context.Background(), stream, group, "0")
	return bus, nil
}

// Emit publishes an event to the stream.
func (b *RedisBus) Emit(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis event bus: marshal failed: %w", err)
	}
	env, err := json.Marshal(envelope{Type: e.Type(), Payload: data})
	if err != nil {
		return fmt.Errorf("redis event bus: envelope marshal failed: %w", err)
	}

	if _, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(env)},
	}).Result(); err != nil {
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	return nil
}

// Register starts a consumer for the stream and group, calling handler for
// every decoded event of the given type. Messages are acknowledged after the
// handler returns, failed or not: bounded retry is the dispatch shell's job.
func (b *RedisBus) Register(eventType string, handler eventbus.HandlerFunc) {
	consumer := fmt.Sprintf("consumer-%s-%d", eventType, time.Now().UnixNano())
	b.logger.Info("registering handler", "event_type", eventType, "consumer", consumer)

	go func() {
		ctx := context.Background()
		for {
			res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    b.group,
				Consumer: consumer,
				Streams:  []string{b.stream, ">"},
				Count:    1,
				Block:    5 * time.Second,
			}).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) {
					b.logger.Error("error reading from stream", "error", err, "consumer", consumer)
				}
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range res {
				for _, msg := range stream.Messages {
					b.dispatch(ctx, eventType, msg, handler)
				}
			}
		}
	}()
}

func (b *RedisBus) dispatch(ctx context.Context, eventType string, msg redis.XMessage, handler eventbus.HandlerFunc) {
	defer b.client.XAck(ctx, b.stream, b.group, msg.ID)

	raw, ok := msg.Values["event"].(string)
	if !ok {
		b.logger.Warn("malformed stream entry", "id", msg.ID)
		return
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		b.logger.Error("failed to decode envelope", "id", msg.ID, "error", err)
		return
	}
	if env.Type != eventType {
		return
	}

	factory, ok := b.typeFactories[env.Type]
	if !ok {
		b.logger.Warn("unknown event type", "type", env.Type)
		return
	}
	event := factory()
	if err := json.Unmarshal(env.Payload, event); err != nil {
		b.logger.Error("failed to decode event", "type", env.Type, "error", err)
		return
	}

	if err := handler(ctx, event); err != nil {
		b.logger.Error("handler failed", "type", env.Type, "error", err)
	}
}

// Close releases the underlying Redis connection.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

var _ eventbus.Bus = (*RedisBus)(nil)
