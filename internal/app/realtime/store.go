// Package realtime keeps live snapshots of the five collections the dashboard and
// storefront read from. Each collection is materialized by its own goroutine: subscribe
// to the change feed, query once, then re-query on every change.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/YelzhanWeb/atelier/internal/metrics"
)

type Sources struct {
	Products  interfaces.ProductRepository
	Suppliers interfaces.SupplierRepository
	Orders    interfaces.OrderRepository
	Inventory interfaces.InventoryRepository
	Settings  interfaces.SettingsRepository
}

// SettingsWriter creates the settings document when none exists.
type SettingsWriter interface {
	EnsureSettings(ctx context.Context, defaults domain.AppSettings) error
}

type Store struct {
	sources  Sources
	feed     interfaces.ChangeFeed
	identity interfaces.IdentityProvider
	writer   SettingsWriter
	defaults domain.AppSettings
	metrics  *metrics.Registry
	logger   logger.Logger
	// retryDelay spaces subscribe attempts after the feed refused one.
	retryDelay time.Duration

	Settings  *Collection[domain.AppSettings]
	Products  *Collection[[]domain.Product]
	Suppliers *Collection[[]domain.Supplier]
	Orders    *Collection[[]domain.Order]
	Inventory *Collection[[]domain.InventoryItem]

	settingsMu     sync.Mutex
	settingsExists bool
	ensureOnce     sync.Once

	startOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	ready     chan struct{}
	sessionID string
}

const defaultRetryDelay = 5 * time.Second

func NewStore(
	sources Sources,
	feed interfaces.ChangeFeed,
	identity interfaces.IdentityProvider,
	writer SettingsWriter,
	defaults domain.AppSettings,
	metrics *metrics.Registry,
	logger logger.Logger,
) *Store {
	return &Store{
		sources:    sources,
		feed:       feed,
		identity:   identity,
		writer:     writer,
		defaults:   defaults,
		metrics:    metrics,
		logger:     logger,
		retryDelay: defaultRetryDelay,
		Settings:   newCollection(domain.CollectionSettings, defaults, same[domain.AppSettings]),
		Products:   newCollection(domain.CollectionProducts, []domain.Product{}, cloneProducts),
		Suppliers:  newCollection(domain.CollectionSuppliers, []domain.Supplier{}, cloneSlice[domain.Supplier]),
		Orders:     newCollection(domain.CollectionOrders, []domain.Order{}, cloneOrders),
		Inventory:  newCollection(domain.CollectionInventory, []domain.InventoryItem{}, cloneSlice[domain.InventoryItem]),
		ready:      make(chan struct{}),
	}
}

// Start establishes the anonymous identity and opens every subscription. It never
// fails: identity and subscription errors are logged and the affected slice stays
// empty. Start returns without waiting for snapshots; see Ready.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.signIn(ctx)

		ctx, cancel := context.WithCancel(ctx)
		s.cancel = cancel

		s.wg.Add(5)
		go subscribe(ctx, s, s.Settings, s.loadSettings, func(domain.AppSettings) int { return s.settingsCount() })
		go subscribe(ctx, s, s.Products, s.sources.Products.ListNewestFirst, lenOf[domain.Product])
		go subscribe(ctx, s, s.Suppliers, s.sources.Suppliers.ListAll, lenOf[domain.Supplier])
		go subscribe(ctx, s, s.Orders, s.sources.Orders.ListNewestFirst, lenOf[domain.Order])
		go subscribe(ctx, s, s.Inventory, s.sources.Inventory.ListByName, lenOf[domain.InventoryItem])

		go func() {
			for _, done := range []<-chan struct{}{
				s.Settings.Resolved(), s.Products.Resolved(), s.Suppliers.Resolved(),
				s.Orders.Resolved(), s.Inventory.Resolved(),
			} {
				select {
				case <-done:
				case <-ctx.Done():
					return
				}
			}
			close(s.ready)
			s.logger.Info("store_ready", "All collections resolved", "", nil)
		}()
	})
}

func (s *Store) signIn(ctx context.Context) {
	if s.identity == nil {
		return
	}
	id, err := s.identity.SignInAnonymously(ctx)
	switch {
	case err == nil:
		s.sessionID = id
		s.logger.Debug("identity_established", "Anonymous session established", id, nil)
	case errors.Is(err, domain.ErrIdentityNotConfigured), errors.Is(err, domain.ErrIdentityNotAllowed):
	default:
		s.logger.Warn("identity_failed", "Anonymous sign-in failed, continuing without identity", "", nil, err)
	}
}

// SessionID is empty when no anonymous session could be established.
func (s *Store) SessionID() string { return s.sessionID }

// Ready is closed once every collection delivered its first snapshot or failed.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// Close tears down all subscriptions together and waits for them to stop.
func (s *Store) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// FindOrder reads the latest orders snapshot.
func (s *Store) FindOrder(id string) (domain.Order, bool) {
	var (
		found domain.Order
		ok    bool
	)
	s.Orders.view(func(orders []domain.Order) {
		for _, o := range orders {
			if o.ID == id {
				found, ok = cloneOrder(o), true
				return
			}
		}
	})
	return found, ok
}

// SettingsExist reports whether the settings document has been observed in storage.
func (s *Store) SettingsExist() bool {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settingsExists
}

func (s *Store) settingsCount() int {
	if s.SettingsExist() {
		return 1
	}
	return 0
}

// loadSettings overlays the stored document on the defaults. The first time the
// document is seen missing it is created once with the defaults, best effort.
func (s *Store) loadSettings(ctx context.Context) (domain.AppSettings, error) {
	stored, err := s.sources.Settings.Get(ctx)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		s.setSettingsExists(false)
		s.ensureOnce.Do(func() {
			if s.writer == nil {
				return
			}
			if err := s.writer.EnsureSettings(ctx, s.defaults); err != nil {
				s.logger.Warn("settings_init_failed", "Failed to create default settings", "", nil, err)
			}
		})
		return s.defaults, nil
	}
	if err != nil {
		return domain.AppSettings{}, err
	}

	s.setSettingsExists(true)
	return domain.MergeSettings(s.defaults, *stored), nil
}

func (s *Store) setSettingsExists(v bool) {
	s.settingsMu.Lock()
	s.settingsExists = v
	s.settingsMu.Unlock()
}

func subscribe[T any](ctx context.Context, s *Store, c *Collection[T], load func(context.Context) (T, error), size func(T) int) {
	defer s.wg.Done()

	key := string(c.Key())
	events, err := s.feed.Subscribe(ctx, c.Key())
	for err != nil {
		// The slice stays empty until a subscription is in place.
		s.logger.Warn("subscription_failed", "Failed to subscribe to "+key, "",
			map[string]interface{}{"collection": key, "retry_in": s.retryDelay.String()}, err)
		s.metrics.SubscriptionErrors.WithLabelValues(key).Inc()
		c.fail(err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.retryDelay):
		}
		events, err = s.feed.Subscribe(ctx, c.Key())
	}

	refresh := func() {
		v, err := load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("snapshot_failed", "Failed to materialize "+key, "",
				map[string]interface{}{"collection": key}, err)
			s.metrics.SubscriptionErrors.WithLabelValues(key).Inc()
			c.fail(err)
			return
		}
		s.metrics.Snapshots.WithLabelValues(key).Inc()
		s.metrics.CollectionSize.WithLabelValues(key).Set(float64(size(v)))
		c.set(v)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			// Queued events collapse into one re-query: every snapshot is complete.
			drain(events)
			refresh()
		}
	}
}

func drain(events <-chan domain.ChangeEvent) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func lenOf[E any](v []E) int { return len(v) }

// Snapshot is a copy of every collection at one point in time. Collections are read
// one after another, so two collections may reflect different change events.
type Snapshot struct {
	Settings  domain.AppSettings     `json:"settings"`
	Products  []domain.Product       `json:"products"`
	Suppliers []domain.Supplier      `json:"suppliers"`
	Orders    []domain.Order         `json:"orders"`
	Inventory []domain.InventoryItem `json:"inventory"`
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Settings:  s.Settings.Current(),
		Products:  s.Products.Current(),
		Suppliers: s.Suppliers.Current(),
		Orders:    s.Orders.Current(),
		Inventory: s.Inventory.Current(),
	}
}
