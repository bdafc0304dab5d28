// Package fulfillment issues order status transitions for staff. It keeps no order
// state of its own: the current status is always read from the latest snapshot.
package fulfillment

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/YelzhanWeb/atelier/internal/metrics"
)

type Service struct {
	orders  interfaces.OrderLookup
	writer  interfaces.OrderStatusWriter
	metrics *metrics.Registry
	logger  logger.Logger
}

func NewService(orders interfaces.OrderLookup, writer interfaces.OrderStatusWriter, metrics *metrics.Registry, logger logger.Logger) *Service {
	return &Service{
		orders:  orders,
		writer:  writer,
		metrics: metrics,
		logger:  logger,
	}
}

// Transition moves the order to status to. Re-issuing the current status is a no-op;
// any move outside the transition table is refused before reaching storage.
func (s *Service) Transition(ctx context.Context, orderID string, to domain.Status) error {
	order, ok := s.orders.FindOrder(orderID)
	if !ok {
		s.record(to, "not_found")
		return fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
	}

	current := order.Status
	if current == to {
		s.record(to, "noop")
		return nil
	}

	if !domain.CanTransition(current, to) {
		s.record(to, "rejected")
		s.logger.Debug("transition_rejected", fmt.Sprintf("Order %s cannot move from %s to %s", orderID, current, to), orderID, nil)
		return fmt.Errorf("order %s from %s to %s: %w", orderID, current, to, domain.ErrInvalidStatusTransition)
	}

	if err := s.writer.UpdateOrderStatus(ctx, orderID, current, to); err != nil {
		s.record(to, "error")
		s.logger.Error("status_update_failed", "Failed to update order status", orderID, map[string]interface{}{
			"old_status": current,
			"new_status": to,
		}, err)
		return err
	}

	s.record(to, "ok")
	s.logger.Info("status_updated", fmt.Sprintf("Order %s: %s -> %s", orderID, current, to), orderID, nil)
	return nil
}

func (s *Service) Confirm(ctx context.Context, orderID string) error {
	return s.Transition(ctx, orderID, domain.StatusConfirmed)
}

func (s *Service) Cancel(ctx context.Context, orderID string) error {
	return s.Transition(ctx, orderID, domain.StatusCancelled)
}

func (s *Service) Ship(ctx context.Context, orderID string) error {
	return s.Transition(ctx, orderID, domain.StatusShipped)
}

func (s *Service) Deliver(ctx context.Context, orderID string) error {
	return s.Transition(ctx, orderID, domain.StatusDelivered)
}

// Action is a button offered to staff for an order in a given status.
type Action struct {
	Label string        `json:"label"`
	To    domain.Status `json:"to"`
}

var actionLabels = map[domain.Status]string{
	domain.StatusConfirmed: "Confirm",
	domain.StatusCancelled: "Cancel",
	domain.StatusShipped:   "Ship",
	domain.StatusDelivered: "Mark delivered",
}

// NextActions lists the transitions available from status; terminal statuses have none.
func NextActions(status domain.Status) []Action {
	var actions []Action
	for _, to := range domain.NextStatuses(status) {
		actions = append(actions, Action{Label: actionLabels[to], To: to})
	}
	return actions
}

// Badge is the dashboard label for a status.
func Badge(status domain.Status) string {
	switch status {
	case domain.StatusPending:
		return "Pending"
	case domain.StatusConfirmed:
		return "Confirmed"
	case domain.StatusShipped:
		return "Shipped"
	case domain.StatusDelivered:
		return "Delivered"
	case domain.StatusCancelled:
		return "Cancelled"
	}
	return string(status)
}

func (s *Service) record(to domain.Status, outcome string) {
	s.metrics.StatusTransitions.WithLabelValues(string(to), outcome).Inc()
}
