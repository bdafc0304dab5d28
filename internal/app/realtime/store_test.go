package realtime

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/clock"
	"github.com/YelzhanWeb/atelier/internal/adapter/kafka"
	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/adapter/memory"
	"github.com/YelzhanWeb/atelier/internal/app/alert"
	"github.com/YelzhanWeb/atelier/internal/app/checkout"
	"github.com/YelzhanWeb/atelier/internal/app/documents"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentity struct {
	id  string
	err error
}

func (f fakeIdentity) SignInAnonymously(context.Context) (string, error) { return f.id, f.err }

// settingsWriter mimics the documents service: write, then publish.
type settingsWriter struct {
	store *memory.Store
	bus   *memory.Bus
	calls int
	mu    sync.Mutex
}

func (w *settingsWriter) EnsureSettings(ctx context.Context, defaults domain.AppSettings) error {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()
	if err := w.store.Settings().CreateIfAbsent(ctx, defaults); err != nil {
		return err
	}
	return w.bus.PublishChange(ctx, domain.ChangeEvent{Collection: domain.CollectionSettings, Op: domain.OpCreate})
}

type harness struct {
	store  *memory.Store
	bus    *memory.Bus
	writer *settingsWriter
	logs   *syncWriter
	rt     *Store
}

func newHarness(identity fakeIdentity) *harness {
	store := memory.NewStore()
	bus := memory.NewBus()
	logs := &syncWriter{buf: &bytes.Buffer{}}
	writer := &settingsWriter{store: store, bus: bus}
	rt := NewStore(Sources{
		Products:  store.Products(),
		Suppliers: store.Suppliers(),
		Orders:    store.Orders(),
		Inventory: store.Inventory(),
		Settings:  store.Settings(),
	}, bus, identity, writer, domain.DefaultSettings(), metrics.NewRegistry(), logger.NewWithWriter("test", logs))
	rt.retryDelay = 10 * time.Millisecond
	return &harness{store: store, bus: bus, writer: writer, logs: logs, rt: rt}
}

type syncWriter struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	h.rt.Start(context.Background())
	t.Cleanup(h.rt.Close)
	select {
	case <-h.rt.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("store never became ready")
	}
}

func (h *harness) addOrder(t *testing.T, id string, at time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.Orders().Create(ctx, &domain.Order{
		ID: id, Date: at, Status: domain.StatusPending, TotalPrice: 1500, Quantity: 1,
		PaymentDetails: &domain.PaymentDetails{Method: domain.PaymentCashOnDelivery},
	}))
	require.NoError(t, h.bus.PublishChange(ctx, domain.ChangeEvent{Collection: domain.CollectionOrders, DocumentID: id}))
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestStore_InitialSnapshots(t *testing.T) {
	h := newHarness(fakeIdentity{id: "session-1"})
	ctx := context.Background()
	require.NoError(t, h.store.Products().Create(ctx, &domain.Product{ID: "p1", Name: "Penne", CreatedAt: t0}))
	require.NoError(t, h.store.Products().Create(ctx, &domain.Product{ID: "p2", Name: "Gnocchi", CreatedAt: t0.Add(time.Hour)}))
	require.NoError(t, h.store.Inventory().Create(ctx, &domain.InventoryItem{ID: "i1", Name: "Tomates"}))
	require.NoError(t, h.store.Inventory().Create(ctx, &domain.InventoryItem{ID: "i2", Name: "Basilic"}))

	h.start(t)

	products := h.rt.Products.Current()
	require.Len(t, products, 2)
	assert.Equal(t, "p2", products[0].ID)

	inventory := h.rt.Inventory.Current()
	require.Len(t, inventory, 2)
	assert.Equal(t, "Basilic", inventory[0].Name)

	assert.Empty(t, h.rt.Orders.Current())
	assert.Equal(t, "session-1", h.rt.SessionID())
}

func TestStore_ChangesReemitFullSnapshotsInOrder(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.start(t)

	var (
		mu    sync.Mutex
		sizes []int
	)
	h.rt.Orders.Listen(func(orders []domain.Order) {
		mu.Lock()
		sizes = append(sizes, len(orders))
		mu.Unlock()
	})

	h.addOrder(t, "a", t0)
	assert.Eventually(t, func() bool { return len(h.rt.Orders.Current()) == 1 }, time.Second, 5*time.Millisecond)
	h.addOrder(t, "b", t0.Add(time.Minute))
	assert.Eventually(t, func() bool { return len(h.rt.Orders.Current()) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, "b", h.rt.Orders.Current()[0].ID)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, sizes)
	for i := 1; i < len(sizes); i++ {
		assert.GreaterOrEqual(t, sizes[i], sizes[i-1])
	}
	assert.Equal(t, 2, sizes[len(sizes)-1])
}

func TestStore_FailedSubscriptionDoesNotBlockOthers(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.bus.FailSubscribe(domain.CollectionOrders, errors.New("permission denied"))
	require.NoError(t, h.store.Products().Create(context.Background(), &domain.Product{ID: "p1", CreatedAt: t0}))

	h.start(t)

	assert.Empty(t, h.rt.Orders.Current())
	assert.ErrorContains(t, h.rt.Orders.Err(), "permission denied")
	assert.Len(t, h.rt.Products.Current(), 1)
	assert.NoError(t, h.rt.Products.Err())
	assert.Contains(t, h.logs.String(), "subscription_failed")
}

func TestStore_SubscriptionRetriedUntilFeedAccepts(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.bus.FailSubscribe(domain.CollectionOrders, errors.New("dial tcp: i/o timeout"))
	h.addOrder(t, "a", t0)

	h.start(t)
	assert.Empty(t, h.rt.Orders.Current())
	assert.Error(t, h.rt.Orders.Err())

	h.bus.FailSubscribe(domain.CollectionOrders, nil)

	assert.Eventually(t, func() bool { return len(h.rt.Orders.Current()) == 1 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, h.rt.Orders.Err())

	h.addOrder(t, "b", t0.Add(time.Minute))
	assert.Eventually(t, func() bool { return len(h.rt.Orders.Current()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestStore_FailedQueryKeepsSliceEmpty(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.store.FailReads(domain.CollectionInventory, errors.New("index missing"))

	h.start(t)

	assert.Empty(t, h.rt.Inventory.Current())
	assert.Error(t, h.rt.Inventory.Err())

	t.Run("recovers on the next change", func(t *testing.T) {
		h.store.FailReads(domain.CollectionInventory, nil)
		require.NoError(t, h.store.Inventory().Create(context.Background(), &domain.InventoryItem{ID: "i", Name: "Farine"}))
		require.NoError(t, h.bus.PublishChange(context.Background(), domain.ChangeEvent{Collection: domain.CollectionInventory}))

		assert.Eventually(t, func() bool { return len(h.rt.Inventory.Current()) == 1 }, time.Second, 5*time.Millisecond)
		assert.NoError(t, h.rt.Inventory.Err())
	})
}

func TestStore_IdentityErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		warning bool
	}{
		{"not configured", domain.ErrIdentityNotConfigured, false},
		{"not allowed", domain.ErrIdentityNotAllowed, false},
		{"network", errors.New("dial tcp: connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(fakeIdentity{err: tt.err})
			h.start(t)

			assert.Empty(t, h.rt.SessionID())
			assert.Equal(t, tt.warning, strings.Contains(h.logs.String(), "identity_failed"))
		})
	}
}

func TestStore_SettingsDefaultsCreatedOnce(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.start(t)

	assert.Equal(t, "Atelier des pates", h.rt.Settings.Current().AppName)
	assert.Eventually(t, h.rt.SettingsExist, time.Second, 5*time.Millisecond)

	h.writer.mu.Lock()
	defer h.writer.mu.Unlock()
	assert.Equal(t, 1, h.writer.calls)
}

func TestStore_SettingsMergedOverDefaults(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	require.NoError(t, h.store.Settings().Upsert(context.Background(), domain.AppSettings{AppName: "Chez Awa", ServiceFees: 200}))

	h.start(t)

	got := h.rt.Settings.Current()
	assert.Equal(t, "Chez Awa", got.AppName)
	assert.Equal(t, "FCFA", got.Currency)
	assert.Equal(t, 200.0, got.ServiceFees)

	h.writer.mu.Lock()
	defer h.writer.mu.Unlock()
	assert.Zero(t, h.writer.calls)
}

func TestStore_CurrentReturnsCopies(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.addOrder(t, "a", t0)
	h.start(t)

	orders := h.rt.Orders.Current()
	require.Len(t, orders, 1)
	orders[0].Status = domain.StatusCancelled
	orders[0].PaymentDetails.Method = domain.PaymentMobileMoney

	again := h.rt.Orders.Current()
	assert.Equal(t, domain.StatusPending, again[0].Status)
	assert.Equal(t, domain.PaymentCashOnDelivery, again[0].PaymentDetails.Method)
}

func TestStore_FindOrder(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.addOrder(t, "a", t0)
	h.start(t)

	o, ok := h.rt.FindOrder("a")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, o.Status)

	_, ok = h.rt.FindOrder("missing")
	assert.False(t, ok)
}

func TestStore_CloseStopsDelivery(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.start(t)

	var (
		mu    sync.Mutex
		calls int
	)
	h.rt.Orders.Listen(func([]domain.Order) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	h.rt.Close()
	h.addOrder(t, "late", t0)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
}

func TestCollection_ListenCancel(t *testing.T) {
	c := newCollection(domain.CollectionProducts, []domain.Product{}, cloneProducts)
	var got [][]domain.Product
	stop := c.Listen(func(p []domain.Product) { got = append(got, p) })

	c.set([]domain.Product{{ID: "a"}})
	stop()
	c.set([]domain.Product{{ID: "b"}})

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0][0].ID)
}

// documents returns the write path the storefront uses, over the harness store and bus.
func (h *harness) documents() *documents.Service {
	return documents.NewService(documents.Repositories{
		Products:  h.store.Products(),
		Suppliers: h.store.Suppliers(),
		Orders:    h.store.Orders(),
		Inventory: h.store.Inventory(),
		Settings:  h.store.Settings(),
	}, h.bus, kafka.Nop{}, metrics.NewRegistry(), logger.Nop())
}

var tagliatelle = domain.Product{ID: "p1", Name: "Tagliatelles", Price: 2500, SupplierID: "s1"}

func placeOrder(t *testing.T, m *checkout.Machine, mode domain.DiningMode, method domain.PaymentMethod, provider domain.PaymentProvider) string {
	t.Helper()
	location := "Plateau"
	if mode == domain.DiningModeOnSite {
		location = checkout.OnSiteLocation
	}
	require.NoError(t, m.Open(tagliatelle, 2, mode))
	require.NoError(t, m.SetBuyer(domain.Buyer{Name: "Awa", Contact: "0700000000", Location: location}))
	require.True(t, m.Proceed())
	require.NoError(t, m.SelectPayment(method, provider))

	out, err := m.Submit(context.Background())
	require.NoError(t, err)
	select {
	case outcome := <-out:
		require.NoError(t, outcome.Err)
		return outcome.Order.ID
	case <-time.After(2 * time.Second):
		t.Fatal("commit never finished")
		return ""
	}
}

func TestStore_CheckoutOrderReadBack(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.start(t)
	m := checkout.NewMachine(h.documents(), clock.NewManual(), 6*time.Second, metrics.NewRegistry(), logger.Nop())

	t.Run("cash on site", func(t *testing.T) {
		id := placeOrder(t, m, domain.DiningModeOnSite, domain.PaymentCashOnDelivery, "")

		var order domain.Order
		require.Eventually(t, func() bool {
			var ok bool
			order, ok = h.rt.FindOrder(id)
			return ok
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, domain.DiningModeOnSite, order.DiningMode)
		assert.Equal(t, domain.StatusPending, order.Status)
		assert.Equal(t, 5000.0, order.TotalPrice)
		assert.Equal(t, checkout.OnSiteLocation, order.ShippingAddress)
		require.NotNil(t, order.PaymentDetails)
		assert.Equal(t, domain.PaymentCashOnDelivery, order.PaymentDetails.Method)
		assert.Empty(t, order.PaymentDetails.Provider)
		assert.Empty(t, order.PaymentDetails.TransactionID)
	})

	t.Run("mobile money takeaway", func(t *testing.T) {
		next := checkout.NewMachine(h.documents(), clock.NewManual(), 6*time.Second, metrics.NewRegistry(), logger.Nop())
		id := placeOrder(t, next, domain.DiningModeTakeaway, domain.PaymentMobileMoney, domain.ProviderMTN)

		require.Eventually(t, func() bool { return len(h.rt.Orders.Current()) == 2 }, time.Second, 5*time.Millisecond)
		order, ok := h.rt.FindOrder(id)
		require.True(t, ok)

		assert.Equal(t, domain.DiningModeTakeaway, order.DiningMode)
		require.NotNil(t, order.PaymentDetails)
		assert.Equal(t, domain.PaymentMobileMoney, order.PaymentDetails.Method)
		assert.Equal(t, domain.ProviderMTN, order.PaymentDetails.Provider)
		assert.NotEmpty(t, order.PaymentDetails.TransactionID)
	})
}

type recordingCues struct {
	mu    sync.Mutex
	kinds []domain.CueKind
}

func (c *recordingCues) Trigger(kind domain.CueKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds = append(c.kinds, kind)
}

func (c *recordingCues) triggered() []domain.CueKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.CueKind(nil), c.kinds...)
}

func TestStore_CheckoutCommitRaisesOrderAlert(t *testing.T) {
	h := newHarness(fakeIdentity{id: "s"})
	h.addOrder(t, "existing", t0)

	cues := &recordingCues{}
	engine := alert.NewEngine(clock.NewManual(), alert.Display{Order: 20 * time.Second, Stock: 8 * time.Second},
		func() string { return h.rt.Settings.Current().Currency }, metrics.NewRegistry(), logger.Nop())
	engine.SetCues(cues)
	h.rt.Orders.Listen(engine.ObserveOrders)

	h.start(t)
	_, shown := engine.Current()
	assert.False(t, shown)
	assert.Empty(t, cues.triggered())

	m := checkout.NewMachine(h.documents(), clock.NewManual(), 6*time.Second, metrics.NewRegistry(), logger.Nop())
	placeOrder(t, m, domain.DiningModeTakeaway, domain.PaymentCashOnDelivery, "")

	require.Eventually(t, func() bool { return len(cues.triggered()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.CueKind{domain.CueOrder}, cues.triggered())

	a, shown := engine.Current()
	require.True(t, shown)
	assert.Equal(t, domain.AlertOrder, a.Kind)
	assert.Equal(t, domain.NewOrderMessage(5000, "FCFA"), a.Message)
}
