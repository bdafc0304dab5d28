package memory

import (
	"context"
	"sync"

	"github.com/YelzhanWeb/atelier/internal/domain"
)

// Bus fans change events out to every subscriber of the event's collection.
type Bus struct {
	mu        sync.Mutex
	subs      map[domain.CollectionKey]map[chan domain.ChangeEvent]struct{}
	failures  map[domain.CollectionKey]error
	published []domain.ChangeEvent
	pubErr    error
}

func NewBus() *Bus {
	return &Bus{
		subs:     make(map[domain.CollectionKey]map[chan domain.ChangeEvent]struct{}),
		failures: make(map[domain.CollectionKey]error),
	}
}

// FailSubscribe makes Subscribe(key) return err.
func (b *Bus) FailSubscribe(key domain.CollectionKey, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[key] = err
}

// FailPublish makes every PublishChange return err; nil restores publishing.
func (b *Bus) FailPublish(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pubErr = err
}

func (b *Bus) Published() []domain.ChangeEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ChangeEvent(nil), b.published...)
}

func (b *Bus) PublishChange(ctx context.Context, event domain.ChangeEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubErr != nil {
		return b.pubErr
	}
	b.published = append(b.published, event)
	for ch := range b.subs[event.Collection] {
		select {
		case ch <- event:
		default:
			// Subscriber is behind; one queued event already forces a re-query.
		}
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, key domain.CollectionKey) (<-chan domain.ChangeEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failures[key]; err != nil {
		return nil, err
	}

	ch := make(chan domain.ChangeEvent, 64)
	if b.subs[key] == nil {
		b.subs[key] = make(map[chan domain.ChangeEvent]struct{})
	}
	b.subs[key][ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[key], ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}
