package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/atelier/internal/domain"
)

// OrderCreator is the asynchronous create-order operation checkout commits through.
type OrderCreator interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
}

// OrderStatusWriter issues a single status write keyed by order id.
type OrderStatusWriter interface {
	UpdateOrderStatus(ctx context.Context, id string, current, to domain.Status) error
}

// IdentityProvider establishes an anonymous session with the backing service.
// It returns domain.ErrIdentityNotConfigured or domain.ErrIdentityNotAllowed when
// anonymous sessions are unavailable.
type IdentityProvider interface {
	SignInAnonymously(ctx context.Context) (string, error)
}

// OrderLookup reads the latest observed order snapshot.
type OrderLookup interface {
	FindOrder(id string) (domain.Order, bool)
}

// Preferences persists small operator flags.
type Preferences interface {
	GetBool(key string) (value bool, found bool, err error)
	SetBool(key string, value bool) error
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

// AlertNotifier receives banner changes for live dashboards.
type AlertNotifier interface {
	AlertRaised(alert domain.Alert)
	AlertCleared()
}

// ToneSink renders tones scheduled on an audio context.
type ToneSink interface {
	PlayTone(tone domain.Tone)
}
