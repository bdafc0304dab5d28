package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
)

const defaultBindTimeout = 10 * time.Second

// ChangeFeed turns raw change messages into typed events per collection.
type ChangeFeed struct {
	consumer    interfaces.ChangeConsumer
	logger      logger.Logger
	bindTimeout time.Duration
}

func NewChangeFeed(consumer interfaces.ChangeConsumer, logger logger.Logger) *ChangeFeed {
	return &ChangeFeed{
		consumer:    consumer,
		logger:      logger,
		bindTimeout: defaultBindTimeout,
	}
}

// Subscribe returns once the queue for key is bound, so no change committed after
// the call returns can be missed. A re-bind after a broker failure emits OpResync.
func (f *ChangeFeed) Subscribe(ctx context.Context, key domain.CollectionKey) (<-chan domain.ChangeEvent, error) {
	ctx, cancel := context.WithCancel(ctx)

	out := make(chan domain.ChangeEvent, 16)
	bound := make(chan struct{})
	stopped := make(chan error, 1)

	go func() {
		defer close(out)
		defer cancel()

		first := true
		err := f.consumer.Consume(ctx, key, func(ctx context.Context, body []byte) error {
			event, err := f.decode(key, body)
			if err != nil {
				return err
			}
			return send(ctx, out, event)
		}, func() {
			if first {
				first = false
				close(bound)
				return
			}
			_ = send(ctx, out, domain.ChangeEvent{Collection: key, Op: domain.OpResync, At: time.Now().UTC()})
		})
		stopped <- err
	}()

	timer := time.NewTimer(f.bindTimeout)
	defer timer.Stop()

	select {
	case <-bound:
		return out, nil
	case err := <-stopped:
		return nil, fmt.Errorf("change feed for %s stopped: %w", key, err)
	case <-timer.C:
		cancel()
		return nil, fmt.Errorf("change feed for %s: bind timed out after %s", key, f.bindTimeout)
	}
}

func (f *ChangeFeed) decode(key domain.CollectionKey, body []byte) (domain.ChangeEvent, error) {
	var event domain.ChangeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		f.logger.Error("message_parse_failed", "Failed to parse change event", "",
			map[string]interface{}{"collection": string(key)}, err)
		return event, err
	}
	if event.Collection != key {
		return event, fmt.Errorf("change event for %q routed to %q", event.Collection, key)
	}

	f.logger.Debug("change_received", fmt.Sprintf("Received %s for %s", event.Op, key), "",
		map[string]interface{}{
			"collection":  string(key),
			"document_id": event.DocumentID,
		})
	return event, nil
}

func send(ctx context.Context, out chan<- domain.ChangeEvent, event domain.ChangeEvent) error {
	select {
	case out <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
