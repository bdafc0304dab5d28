// Package memory is a thread-safe in-process document store and change bus. It backs
// `--store memory` runs and the package tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
)

type Store struct {
	mu        sync.RWMutex
	products  map[string]domain.Product
	suppliers []domain.Supplier
	orders    map[string]domain.Order
	inventory map[string]domain.InventoryItem
	settings  *domain.AppSettings
	sessions  map[string]struct{}
	failures  map[domain.CollectionKey]error
}

func NewStore() *Store {
	return &Store{
		products:  make(map[string]domain.Product),
		orders:    make(map[string]domain.Order),
		inventory: make(map[string]domain.InventoryItem),
		sessions:  make(map[string]struct{}),
		failures:  make(map[domain.CollectionKey]error),
	}
}

// FailReads makes every read of key return err until cleared with a nil err.
func (s *Store) FailReads(key domain.CollectionKey, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

func (s *Store) readErr(key domain.CollectionKey) error {
	return s.failures[key]
}

func (s *Store) Products() interfaces.ProductRepository    { return productRepo{s} }
func (s *Store) Suppliers() interfaces.SupplierRepository  { return supplierRepo{s} }
func (s *Store) Orders() interfaces.OrderRepository        { return orderRepo{s} }
func (s *Store) Inventory() interfaces.InventoryRepository { return inventoryRepo{s} }
func (s *Store) Settings() interfaces.SettingsRepository   { return settingsRepo{s} }
func (s *Store) Sessions() interfaces.SessionRepository    { return sessionRepo{s} }

type productRepo struct{ s *Store }

func (r productRepo) ListNewestFirst(ctx context.Context) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.readErr(domain.CollectionProducts); err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, cloneProduct(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r productRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r productRepo) Create(ctx context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r productRepo) Update(ctx context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.products[p.ID]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	updated := cloneProduct(*p)
	updated.CreatedAt = old.CreatedAt
	r.s.products[p.ID] = updated
	return nil
}

func (r productRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.s.products, id)
	return nil
}

func cloneProduct(p domain.Product) domain.Product {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}

type supplierRepo struct{ s *Store }

// ListAll keeps insertion order.
func (r supplierRepo) ListAll(ctx context.Context) ([]domain.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.readErr(domain.CollectionSuppliers); err != nil {
		return nil, err
	}
	return append([]domain.Supplier{}, r.s.suppliers...), nil
}

func (r supplierRepo) FindByID(ctx context.Context, id string) (*domain.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sup, ok := domain.FindSupplier(r.s.suppliers, id)
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &sup, nil
}

func (r supplierRepo) Create(ctx context.Context, sup *domain.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.suppliers = append(r.s.suppliers, *sup)
	return nil
}

func (r supplierRepo) Update(ctx context.Context, sup *domain.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.suppliers {
		if r.s.suppliers[i].ID == sup.ID {
			r.s.suppliers[i] = *sup
			return nil
		}
	}
	return domain.ErrDocumentNotFound
}

type orderRepo struct{ s *Store }

func (r orderRepo) ListNewestFirst(ctx context.Context) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.readErr(domain.CollectionOrders); err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		out = append(out, cloneOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (r orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r orderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r orderRepo) UpdateStatus(ctx context.Context, id string, to domain.Status, from []domain.Status) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	if o.Status == to {
		return false, nil
	}
	for _, s := range from {
		if o.Status == s {
			o.Status = to
			r.s.orders[id] = o
			return true, nil
		}
	}
	return false, domain.ErrInvalidStatusTransition
}

func cloneOrder(o domain.Order) domain.Order {
	if o.PaymentDetails != nil {
		pd := *o.PaymentDetails
		o.PaymentDetails = &pd
	}
	return o
}

type inventoryRepo struct{ s *Store }

func (r inventoryRepo) ListByName(ctx context.Context) ([]domain.InventoryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.readErr(domain.CollectionInventory); err != nil {
		return nil, err
	}

	out := make([]domain.InventoryItem, 0, len(r.s.inventory))
	for _, it := range r.s.inventory {
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r inventoryRepo) Create(ctx context.Context, it *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.inventory[it.ID] = *it
	return nil
}

func (r inventoryRepo) Update(ctx context.Context, it *domain.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.inventory[it.ID]; !ok {
		return domain.ErrDocumentNotFound
	}
	r.s.inventory[it.ID] = *it
	return nil
}

func (r inventoryRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.inventory[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.s.inventory, id)
	return nil
}

type settingsRepo struct{ s *Store }

func (r settingsRepo) Get(ctx context.Context) (*domain.AppSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.readErr(domain.CollectionSettings); err != nil {
		return nil, err
	}
	if r.s.settings == nil {
		return nil, domain.ErrDocumentNotFound
	}
	out := *r.s.settings
	return &out, nil
}

func (r settingsRepo) Upsert(ctx context.Context, settings domain.AppSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings = &settings
	return nil
}

func (r settingsRepo) CreateIfAbsent(ctx context.Context, settings domain.AppSettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.settings == nil {
		r.s.settings = &settings
	}
	return nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) CreateAnonymous(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[id] = struct{}{}
	return nil
}
