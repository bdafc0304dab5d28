package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn   Connection
	logger logger.Logger
	delay  time.Duration
}

func NewConsumer(conn Connection, log logger.Logger) interfaces.ChangeConsumer {
	return &consumer{conn: conn, logger: log, delay: reconnectDelay}
}

func (c *consumer) Consume(ctx context.Context, key domain.CollectionKey, handler interfaces.ChangeHandler, bound func()) error {
	for {
		err := c.consumeWithReconnect(ctx, key, handler, bound)

		// Если контекст отменен или соединение закрыто намеренно - выходим
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		c.logger.Warn("consumer_disconnected",
			fmt.Sprintf("Change consumer for %s disconnected, reconnecting", key), "",
			map[string]interface{}{"collection": string(key), "retry_in": c.delay.String()}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
			// Продолжаем попытки переподключения
		}
	}
}

func (c *consumer) consumeWithReconnect(ctx context.Context, key domain.CollectionKey, handler interfaces.ChangeHandler, bound func()) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	// Отслеживаем закрытие канала
	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(collectionsExchange, exchangeKind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Temporary exclusive queue per subscription
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, string(key), collectionsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	if bound != nil {
		bound()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Warn("change_handle_failed", "Failed to handle change message", "",
					map[string]interface{}{"collection": string(key)}, err)
			}
		}
	}
}
