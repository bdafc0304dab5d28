// Package alert turns snapshot changes into operator alerts. Only growth of the order
// list counts as a new order; stock alerts repeat only when their message changes.
package alert

import (
	"sync"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/YelzhanWeb/atelier/internal/metrics"
)

// Cue plays the audible signal for an alert.
type Cue interface {
	Trigger(kind domain.CueKind)
}

type Display struct {
	// Order of zero keeps order alerts until dismissed.
	Order time.Duration
	Stock time.Duration
}

type Engine struct {
	scheduler interfaces.Scheduler
	display   Display
	currency  func() string
	metrics   *metrics.Registry
	logger    logger.Logger
	now       func() time.Time

	mu         sync.Mutex
	cues       Cue
	notifiers  []interfaces.AlertNotifier
	current    *domain.Alert
	generation uint64
	timer      interfaces.Timer
	baselined  bool
	lastOrders int
	// seq orders banner changes; it advances with every raise and clear.
	seq uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func NewEngine(
	scheduler interfaces.Scheduler,
	display Display,
	currency func() string,
	metrics *metrics.Registry,
	logger logger.Logger,
	notifiers ...interfaces.AlertNotifier,
) *Engine {
	return &Engine{
		scheduler: scheduler,
		display:   display,
		currency:  currency,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		notifiers: notifiers,
	}
}

// SetCues attaches the audio signal once it exists.
func (e *Engine) SetCues(c Cue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cues = c
}

// ObserveOrders compares the snapshot size with the previous one. The first snapshot
// only sets the baseline.
func (e *Engine) ObserveOrders(orders []domain.Order) {
	currency := e.currency()

	e.mu.Lock()
	prev, baselined := e.lastOrders, e.baselined
	e.lastOrders = len(orders)
	e.baselined = true

	if !baselined || len(orders) <= prev {
		e.mu.Unlock()
		return
	}

	a := domain.Alert{
		Kind:     domain.AlertOrder,
		Message:  domain.NewOrderMessage(orders[0].TotalPrice, currency),
		Severity: domain.SeverityInfo,
		RaisedAt: e.now(),
	}
	e.show(a, e.display.Order)
	seq := e.nextSeq()
	cues := e.cues
	e.mu.Unlock()

	e.raised(seq, a, map[string]interface{}{"orders": len(orders), "previous": prev})
	if cues != nil {
		cues.Trigger(domain.CueOrder)
	}
}

// ObserveInventory raises a stock alert while any item is low, unless the same
// message is already displayed.
func (e *Engine) ObserveInventory(items []domain.InventoryItem) {
	low := domain.LowStock(items)
	if len(low) == 0 {
		return
	}
	message := domain.StockMessage(len(low))

	e.mu.Lock()
	if e.current != nil && e.current.Message == message {
		e.mu.Unlock()
		e.metrics.AlertsSuppressed.WithLabelValues(string(domain.AlertStock)).Inc()
		return
	}

	a := domain.Alert{
		Kind:     domain.AlertStock,
		Message:  message,
		Severity: domain.SeverityCritical,
		RaisedAt: e.now(),
	}
	e.show(a, e.display.Stock)
	seq := e.nextSeq()
	cues := e.cues
	e.mu.Unlock()

	e.raised(seq, a, map[string]interface{}{"low_items": len(low)})
	if cues != nil {
		cues.Trigger(domain.CueStock)
	}
}

// Confirm displays a short notice without any cue.
func (e *Engine) Confirm(message string, d time.Duration) {
	a := domain.Alert{
		Kind:     domain.AlertNotice,
		Message:  message,
		Severity: domain.SeverityInfo,
		RaisedAt: e.now(),
	}

	e.mu.Lock()
	e.show(a, d)
	seq := e.nextSeq()
	e.mu.Unlock()

	e.raised(seq, a, nil)
}

// Dismiss clears the displayed alert. Baselines are kept.
func (e *Engine) Dismiss() {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return
	}
	e.generation++
	e.stopTimer()
	e.current = nil
	seq := e.nextSeq()
	e.mu.Unlock()

	e.cleared(seq)
}

func (e *Engine) Current() (domain.Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return domain.Alert{}, false
	}
	return *e.current, true
}

// show expects e.mu to be held. It replaces the displayed alert and arms its expiry.
func (e *Engine) show(a domain.Alert, d time.Duration) {
	e.generation++
	e.stopTimer()
	e.current = &a

	if d <= 0 {
		return
	}
	gen := e.generation
	e.timer = e.scheduler.AfterFunc(d, func() { e.expire(gen) })
}

func (e *Engine) expire(gen uint64) {
	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return
	}
	e.current = nil
	e.timer = nil
	seq := e.nextSeq()
	e.mu.Unlock()

	e.cleared(seq)
}

func (e *Engine) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// nextSeq expects e.mu to be held.
func (e *Engine) nextSeq() uint64 {
	e.seq++
	return e.seq
}

func (e *Engine) raised(seq uint64, a domain.Alert, details map[string]interface{}) {
	e.metrics.AlertsRaised.WithLabelValues(string(a.Kind)).Inc()
	e.logger.Info("alert_raised", a.Message, "", details)
	e.deliver(seq, func(n interfaces.AlertNotifier) { n.AlertRaised(a) })
}

func (e *Engine) cleared(seq uint64) {
	e.deliver(seq, func(n interfaces.AlertNotifier) { n.AlertCleared() })
}

// deliver hands a banner change to the notifiers unless a later one already went out,
// so the last delivered change always matches Current.
func (e *Engine) deliver(seq uint64, fn func(interfaces.AlertNotifier)) bool {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	if seq <= e.delivered {
		e.logger.Debug("alert_notification_skipped", "Newer banner change already delivered", "",
			map[string]interface{}{"seq": seq, "delivered": e.delivered})
		return false
	}
	e.delivered = seq
	for _, n := range e.notifiers {
		fn(n)
	}
	return true
}
