package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/atelier/internal/domain"
)

// Change feed (Adapter/RabbitMQ)
type ChangePublisher interface {
	PublishChange(ctx context.Context, event domain.ChangeEvent) error
}

type ChangeFeed interface {
	// Subscribe delivers change events for key until ctx is cancelled, then closes the channel.
	Subscribe(ctx context.Context, key domain.CollectionKey) (<-chan domain.ChangeEvent, error)
}

type ChangeHandler func(ctx context.Context, body []byte) error

type ChangeConsumer interface {
	// Consume delivers raw change messages routed with key until ctx is cancelled,
	// reconnecting on failures. bound is called every time the queue is (re)bound.
	Consume(ctx context.Context, key domain.CollectionKey, handler ChangeHandler, bound func()) error
}

// Order changelog (Adapter/Kafka)
type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order_created"
	OrderEventStatusChanged OrderEventType = "order_status_changed"
)

type OrderEvent struct {
	Type       OrderEventType `json:"type"`
	OrderID    string         `json:"order_id"`
	OldStatus  domain.Status  `json:"old_status,omitempty"`
	NewStatus  domain.Status  `json:"new_status"`
	TotalPrice float64        `json:"total_price"`
	DiningMode string         `json:"dining_mode,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type OrderChangelog interface {
	AppendOrderEvent(ctx context.Context, event OrderEvent) error
}
