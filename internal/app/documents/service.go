// Package documents is the single write path into the live document store: every
// committed write is followed by a change event so subscribers re-materialize.
package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/YelzhanWeb/atelier/internal/metrics"
	"github.com/google/uuid"
)

type Repositories struct {
	Products  interfaces.ProductRepository
	Suppliers interfaces.SupplierRepository
	Orders    interfaces.OrderRepository
	Inventory interfaces.InventoryRepository
	Settings  interfaces.SettingsRepository
}

type Service struct {
	repos     Repositories
	publisher interfaces.ChangePublisher
	changelog interfaces.OrderChangelog
	metrics   *metrics.Registry
	logger    logger.Logger
	now       func() time.Time
}

func NewService(
	repos Repositories,
	publisher interfaces.ChangePublisher,
	changelog interfaces.OrderChangelog,
	metrics *metrics.Registry,
	logger logger.Logger,
) *Service {
	return &Service{
		repos:     repos,
		publisher: publisher,
		changelog: changelog,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder persists an order built by checkout. The order is never modified afterwards
// except for its status.
func (s *Service) CreateOrder(ctx context.Context, order *domain.Order) error {
	if err := s.repos.Orders.Create(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", "",
			map[string]interface{}{"order_id": order.ID}, err)
		return err
	}
	s.logger.Debug("order_received", "Order created in DB", "", map[string]interface{}{
		"order_id":    order.ID,
		"total_price": order.TotalPrice,
	})

	s.publish(ctx, domain.CollectionOrders, order.ID, domain.OpCreate)
	s.appendEvent(ctx, interfaces.OrderEvent{
		Type:       interfaces.OrderEventCreated,
		OrderID:    order.ID,
		NewStatus:  order.Status,
		TotalPrice: order.TotalPrice,
		DiningMode: string(order.DiningMode),
		Timestamp:  order.Date,
	})
	return nil
}

// UpdateOrderStatus writes to only if the stored status is a legal predecessor. An order
// already at to is left alone and nothing is published.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, current, to domain.Status) error {
	changed, err := s.repos.Orders.UpdateStatus(ctx, id, to, domain.Predecessors(to))
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if !changed {
		s.logger.Debug("status_unchanged", fmt.Sprintf("Order %s already %s", id, to), "", nil)
		return nil
	}

	s.publish(ctx, domain.CollectionOrders, id, domain.OpUpdate)
	s.appendEvent(ctx, interfaces.OrderEvent{
		Type:      interfaces.OrderEventStatusChanged,
		OrderID:   id,
		OldStatus: current,
		NewStatus: to,
		Timestamp: s.now(),
	})
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = s.now()

	if err := s.repos.Products.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.CollectionProducts, p.ID, domain.OpCreate)
	return &p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, p domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repos.Products.Update(ctx, &p); err != nil {
		return err
	}
	s.publish(ctx, domain.CollectionProducts, p.ID, domain.OpUpdate)
	return nil
}

func (s *Service) SetProductPromoted(ctx context.Context, id string, promoted bool) error {
	p, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.IsPromoted = promoted
	if err := s.repos.Products.Update(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, domain.CollectionProducts, id, domain.OpUpdate)
	return nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repos.Products.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, domain.CollectionProducts, id, domain.OpDelete)
	return nil
}

func (s *Service) RegisterSupplier(ctx context.Context, in domain.Supplier) (*domain.Supplier, error) {
	supplier, err := domain.NewSupplier(in)
	if err != nil {
		return nil, err
	}
	if supplier.ID == "" {
		supplier.ID = uuid.NewString()
	}
	if err := s.repos.Suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.CollectionSuppliers, supplier.ID, domain.OpCreate)
	return supplier, nil
}

func (s *Service) SetSupplierVerified(ctx context.Context, id string, verified bool) error {
	supplier, err := s.repos.Suppliers.FindByID(ctx, id)
	if err != nil {
		return err
	}
	supplier.Verified = verified
	if err := s.repos.Suppliers.Update(ctx, supplier); err != nil {
		return err
	}
	s.publish(ctx, domain.CollectionSuppliers, id, domain.OpUpdate)
	return nil
}

func (s *Service) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.UpdatedAt = s.now()

	if err := s.repos.Inventory.Create(ctx, &item); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.CollectionInventory, item.ID, domain.OpCreate)
	return &item, nil
}

func (s *Service) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	item.UpdatedAt = s.now()
	if err := s.repos.Inventory.Update(ctx, &item); err != nil {
		return err
	}
	s.publish(ctx, domain.CollectionInventory, item.ID, domain.OpUpdate)
	return nil
}

func (s *Service) DeleteInventoryItem(ctx context.Context, id string) error {
	if err := s.repos.Inventory.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, domain.CollectionInventory, id, domain.OpDelete)
	return nil
}

// SaveSettings merges the given options into the stored document.
func (s *Service) SaveSettings(ctx context.Context, settings domain.AppSettings) error {
	if err := s.repos.Settings.Upsert(ctx, settings); err != nil {
		return err
	}
	s.publish(ctx, domain.CollectionSettings, "general", domain.OpUpsert)
	return nil
}

// EnsureSettings writes defaults only when no settings document exists yet.
func (s *Service) EnsureSettings(ctx context.Context, defaults domain.AppSettings) error {
	if err := s.repos.Settings.CreateIfAbsent(ctx, defaults); err != nil {
		return err
	}
	s.publish(ctx, domain.CollectionSettings, "general", domain.OpCreate)
	return nil
}

// publish failures are logged only: the write is already committed and the next
// change (or a feed resync) brings subscribers up to date.
func (s *Service) publish(ctx context.Context, key domain.CollectionKey, id string, op domain.ChangeOp) {
	err := s.publisher.PublishChange(ctx, domain.ChangeEvent{
		Collection: key,
		DocumentID: id,
		Op:         op,
		At:         s.now(),
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish change", "", map[string]interface{}{
			"collection":  string(key),
			"document_id": id,
		}, err)
	}
	s.metrics.ChangesPublished.WithLabelValues(string(key), outcome).Inc()
}

func (s *Service) appendEvent(ctx context.Context, event interfaces.OrderEvent) {
	if err := s.changelog.AppendOrderEvent(ctx, event); err != nil {
		s.logger.Warn("changelog_append_failed", "Failed to append order event", "",
			map[string]interface{}{"order_id": event.OrderID, "type": string(event.Type)}, err)
	}
}
