// Package kafka appends order lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/segmentio/kafka-go"
)

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Changelog struct {
	writer kafkaMessageWriter
}

// NewChangelog creates a writer keyed by order id, so every event of one order lands on
// the same partition. brokers is a comma-separated list of host:port.
func NewChangelog(brokers, topic string) *Changelog {
	var addrs []string
	for _, a := range strings.Split(brokers, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			addrs = append(addrs, a)
		}
	}
	return &Changelog{writer: &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func newChangelogWith(w kafkaMessageWriter) *Changelog {
	return &Changelog{writer: w}
}

func (c *Changelog) AppendOrderEvent(ctx context.Context, event interfaces.OrderEvent) error {
	b, err := json.Marshal(&event)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := c.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event.OrderID), Value: b}); err != nil {
		return fmt.Errorf("failed to append order event: %w", err)
	}
	return nil
}

func (c *Changelog) Close() error {
	return c.writer.Close()
}

// Nop drops events; used when no brokers are configured.
type Nop struct{}

func (Nop) AppendOrderEvent(context.Context, interfaces.OrderEvent) error { return nil }
func (Nop) Close() error                                                  { return nil }
