package interfaces

import (
	"context"

	"github.com/YelzhanWeb/atelier/internal/domain"
)

// Repositories (Adapter/Postgres). Each List materializes a full collection in its
// snapshot order.
type ProductRepository interface {
	ListNewestFirst(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

type SupplierRepository interface {
	ListAll(ctx context.Context) ([]domain.Supplier, error)
	FindByID(ctx context.Context, id string) (*domain.Supplier, error)
	Create(ctx context.Context, supplier *domain.Supplier) error
	Update(ctx context.Context, supplier *domain.Supplier) error
}

type OrderRepository interface {
	ListNewestFirst(ctx context.Context) ([]domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	Create(ctx context.Context, order *domain.Order) error
	// UpdateStatus writes to only when the stored status is one of from or already to.
	// changed is false when the order already had status to.
	UpdateStatus(ctx context.Context, id string, to domain.Status, from []domain.Status) (changed bool, err error)
}

type InventoryRepository interface {
	ListByName(ctx context.Context) ([]domain.InventoryItem, error)
	Create(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	Delete(ctx context.Context, id string) error
}

type SettingsRepository interface {
	// Get returns domain.ErrDocumentNotFound when the singleton is absent.
	Get(ctx context.Context) (*domain.AppSettings, error)
	Upsert(ctx context.Context, settings domain.AppSettings) error
	CreateIfAbsent(ctx context.Context, settings domain.AppSettings) error
}

type SessionRepository interface {
	CreateAnonymous(ctx context.Context, id string) error
}
