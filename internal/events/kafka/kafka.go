// Package kafka publishes and consumes expense events on a Kafka topic.
// Messages are keyed by owner so one user's events stay ordered within a
// partition.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"expenses/internal/events"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	topic  string
}

var (
	_ events.Publisher = (*Publisher)(nil)
	_ events.Consumer  = (*Consumer)(nil)
)

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		topic: topic,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev events.ExpenseEvent) error {
	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Owner),
		Value: body,
		Time:  ev.Timestamp,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("produce message to %s: %w", p.topic, err)
	}

	slog.DebugContext(ctx, "Produced expense event",
		"topic", p.topic,
		"type", ev.Type,
		"expense_id", ev.ExpenseID)
	return nil
}

func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
	}
}

// Consume fetches events until ctx is cancelled. An offset is committed
// only after the handler succeeds or the message is found to be malformed;
// a failing handler stops consumption so the message is redelivered to
// the group on restart.
func (c *Consumer) Consume(ctx context.Context, handler events.Handler) error {
	slog.InfoContext(ctx, "Started consuming expense events from kafka")
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		ev, err := events.FromJSON(m.Value)
		if err != nil {
			slog.ErrorContext(ctx, "Dropping malformed expense event",
				"error", err,
				"partition", m.Partition,
				"offset", m.Offset)
		} else if err := handler(ctx, ev); err != nil {
			return fmt.Errorf("handle %s for %s: %w", ev.Type, ev.ExpenseID, err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("commit offset %d: %w", m.Offset, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
