package documents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/adapter/memory"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/YelzhanWeb/atelier/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChangelog struct {
	mu     sync.Mutex
	events []interfaces.OrderEvent
	err    error
}

func (c *recordingChangelog) AppendOrderEvent(_ context.Context, e interfaces.OrderEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return c.err
}

type fixture struct {
	svc       *Service
	store     *memory.Store
	bus       *memory.Bus
	changelog *recordingChangelog
	metrics   *metrics.Registry
}

func newFixture() *fixture {
	store := memory.NewStore()
	bus := memory.NewBus()
	cl := &recordingChangelog{}
	reg := metrics.NewRegistry()
	svc := NewService(Repositories{
		Products:  store.Products(),
		Suppliers: store.Suppliers(),
		Orders:    store.Orders(),
		Inventory: store.Inventory(),
		Settings:  store.Settings(),
	}, bus, cl, reg, logger.Nop())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, store: store, bus: bus, changelog: cl, metrics: reg}
}

func pendingOrder(id string) *domain.Order {
	return &domain.Order{
		ID:         id,
		Quantity:   2,
		TotalPrice: 3000,
		Status:     domain.StatusPending,
		DiningMode: domain.DiningModeTakeaway,
		Date:       time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
	}
}

func TestCreateOrder_PublishesAndAppends(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.CreateOrder(ctx, pendingOrder("o1")))

	stored, err := f.store.Orders().FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, stored.TotalPrice)

	published := f.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, domain.CollectionOrders, published[0].Collection)
	assert.Equal(t, domain.OpCreate, published[0].Op)

	require.Len(t, f.changelog.events, 1)
	assert.Equal(t, interfaces.OrderEventCreated, f.changelog.events[0].Type)
	assert.Equal(t, "EMPORTE", f.changelog.events[0].DiningMode)
}

func TestCreateOrder_PublishFailureIsNotReturned(t *testing.T) {
	f := newFixture()
	f.bus.FailPublish(errors.New("broker unreachable"))

	require.NoError(t, f.svc.CreateOrder(context.Background(), pendingOrder("o1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ChangesPublished.WithLabelValues("Commandes", "error")))
}

func TestCreateOrder_ChangelogFailureIsNotReturned(t *testing.T) {
	f := newFixture()
	f.changelog.err = errors.New("kafka down")

	assert.NoError(t, f.svc.CreateOrder(context.Background(), pendingOrder("o1")))
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.CreateOrder(ctx, pendingOrder("o1")))

	require.NoError(t, f.svc.UpdateOrderStatus(ctx, "o1", domain.StatusPending, domain.StatusConfirmed))
	stored, _ := f.store.Orders().FindByID(ctx, "o1")
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	assert.Len(t, f.bus.Published(), 2)

	t.Run("repeat is a no-op", func(t *testing.T) {
		require.NoError(t, f.svc.UpdateOrderStatus(ctx, "o1", domain.StatusPending, domain.StatusConfirmed))
		assert.Len(t, f.bus.Published(), 2)
		assert.Len(t, f.changelog.events, 2)
	})

	t.Run("stale write is refused", func(t *testing.T) {
		err := f.svc.UpdateOrderStatus(ctx, "o1", domain.StatusPending, domain.StatusCancelled)
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	})
}

func TestProducts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateProduct(ctx, domain.Product{Name: " ", Price: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	p, err := f.svc.CreateProduct(ctx, domain.Product{Name: "Lasagnes", Price: 1500})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, f.svc.now(), p.CreatedAt)

	require.NoError(t, f.svc.SetProductPromoted(ctx, p.ID, true))
	stored, err := f.store.Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPromoted)

	require.NoError(t, f.svc.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, p.ID), domain.ErrDocumentNotFound)

	ops := []domain.ChangeOp{}
	for _, e := range f.bus.Published() {
		ops = append(ops, e.Op)
	}
	assert.Equal(t, []domain.ChangeOp{domain.OpCreate, domain.OpUpdate, domain.OpDelete}, ops)
}

func TestSuppliers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.svc.RegisterSupplier(ctx, domain.Supplier{Email: "awa@example.ci", Rating: 1, Verified: true})
	require.NoError(t, err)
	assert.Equal(t, "New business", s.Name)
	assert.False(t, s.Verified)
	assert.Equal(t, 5.0, s.Rating)

	require.NoError(t, f.svc.SetSupplierVerified(ctx, s.ID, true))
	stored, err := f.store.Suppliers().FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.Verified)
}

func TestInventory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateInventoryItem(ctx, domain.InventoryItem{Name: "Farine", Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInventoryItem)

	item, err := f.svc.CreateInventoryItem(ctx, domain.InventoryItem{Name: "Farine", Quantity: 10, Threshold: 5})
	require.NoError(t, err)

	item.Quantity = 4
	require.NoError(t, f.svc.UpdateInventoryItem(ctx, *item))
	items, err := f.store.Inventory().ListByName(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsLow())

	require.NoError(t, f.svc.DeleteInventoryItem(ctx, item.ID))
}

func TestSettings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.SaveSettings(ctx, domain.AppSettings{AppName: "Chez Awa", Currency: "XOF"}))
	require.NoError(t, f.svc.EnsureSettings(ctx, domain.DefaultSettings()))

	got, err := f.store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Chez Awa", got.AppName)

	last := f.bus.Published()[len(f.bus.Published())-1]
	assert.Equal(t, domain.CollectionSettings, last.Collection)
}
