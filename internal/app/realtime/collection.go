package realtime

import (
	"sync"

	"github.com/YelzhanWeb/atelier/internal/domain"
)

// Collection holds the latest snapshot of one subscription. Listeners run on the
// subscription goroutine, one snapshot at a time, in arrival order.
type Collection[T any] struct {
	key   domain.CollectionKey
	clone func(T) T

	mu        sync.RWMutex
	current   T
	err       error
	listeners []*listener[T]
	nextID    int

	resolveOnce sync.Once
	resolved    chan struct{}
}

type listener[T any] struct {
	id int
	fn func(T)
}

func newCollection[T any](key domain.CollectionKey, initial T, clone func(T) T) *Collection[T] {
	return &Collection[T]{
		key:      key,
		clone:    clone,
		current:  initial,
		resolved: make(chan struct{}),
	}
}

func (c *Collection[T]) Key() domain.CollectionKey { return c.key }

// Current returns a copy of the latest snapshot.
func (c *Collection[T]) Current() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clone(c.current)
}

// Err is the last subscription or query error, cleared by the next good snapshot.
func (c *Collection[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Resolved is closed after the first snapshot or the first failure.
func (c *Collection[T]) Resolved() <-chan struct{} {
	return c.resolved
}

// Listen registers fn for every future snapshot. The returned func removes it.
func (c *Collection[T]) Listen(fn func(T)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, &listener[T]{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Collection[T]) view(fn func(T)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.current)
}

func (c *Collection[T]) set(v T) {
	c.mu.Lock()
	c.current = v
	c.err = nil
	listeners := append([]*listener[T](nil), c.listeners...)
	c.mu.Unlock()

	c.resolve()
	for _, l := range listeners {
		l.fn(c.clone(v))
	}
}

// fail keeps the previous snapshot.
func (c *Collection[T]) fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.resolve()
}

func (c *Collection[T]) resolve() {
	c.resolveOnce.Do(func() { close(c.resolved) })
}

func cloneSlice[E any](v []E) []E {
	if v == nil {
		return nil
	}
	return append([]E(nil), v...)
}

func cloneProducts(v []domain.Product) []domain.Product {
	out := cloneSlice(v)
	for i := range out {
		out[i].Tags = cloneSlice(out[i].Tags)
	}
	return out
}

func cloneOrder(o domain.Order) domain.Order {
	if o.PaymentDetails != nil {
		pd := *o.PaymentDetails
		o.PaymentDetails = &pd
	}
	return o
}

func cloneOrders(v []domain.Order) []domain.Order {
	out := cloneSlice(v)
	for i := range out {
		out[i] = cloneOrder(out[i])
	}
	return out
}

func same[T any](v T) T { return v }
