package alert

import (
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/clock"
	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/YelzhanWeb/atelier/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCues struct {
	mu    sync.Mutex
	kinds []domain.CueKind
}

func (c *recordingCues) Trigger(kind domain.CueKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds = append(c.kinds, kind)
}

type recordingNotifier struct {
	raised  []domain.Alert
	cleared int
}

func (n *recordingNotifier) AlertRaised(a domain.Alert) { n.raised = append(n.raised, a) }
func (n *recordingNotifier) AlertCleared()              { n.cleared++ }

type fixture struct {
	engine   *Engine
	clock    *clock.Manual
	cues     *recordingCues
	notifier *recordingNotifier
	metrics  *metrics.Registry
}

func newFixture(display Display) *fixture {
	f := &fixture{
		clock:    clock.NewManual(),
		cues:     &recordingCues{},
		notifier: &recordingNotifier{},
		metrics:  metrics.NewRegistry(),
	}
	f.engine = NewEngine(f.clock, display, func() string { return "FCFA" }, f.metrics, logger.Nop(), f.notifier)
	f.engine.SetCues(f.cues)
	return f
}

func orders(totals ...float64) []domain.Order {
	out := make([]domain.Order, len(totals))
	for i, t := range totals {
		out[i] = domain.Order{ID: string(rune('a' + i)), TotalPrice: t}
	}
	return out
}

func TestObserveOrders_BaselineIsSilent(t *testing.T) {
	f := newFixture(Display{Stock: 8 * time.Second})

	f.engine.ObserveOrders(orders(1000, 2000, 3000))

	_, shown := f.engine.Current()
	assert.False(t, shown)
	assert.Empty(t, f.cues.kinds)
}

func TestObserveOrders_GrowthRaisesNewestTotal(t *testing.T) {
	f := newFixture(Display{Stock: 8 * time.Second})
	f.engine.ObserveOrders(orders(1000, 2000, 3000))

	f.engine.ObserveOrders(orders(12500, 1000, 2000, 3000))

	a, shown := f.engine.Current()
	require.True(t, shown)
	assert.Equal(t, domain.AlertOrder, a.Kind)
	assert.Equal(t, domain.SeverityInfo, a.Severity)
	assert.Equal(t, "NEW ORDER: 12 500 FCFA", a.Message)
	assert.Equal(t, []domain.CueKind{domain.CueOrder}, f.cues.kinds)
	require.Len(t, f.notifier.raised, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AlertsRaised.WithLabelValues("order")))
}

func TestObserveOrders_NonGrowthIsSilent(t *testing.T) {
	f := newFixture(Display{Stock: 8 * time.Second})
	f.engine.ObserveOrders(orders(1, 2, 3))

	f.engine.ObserveOrders(orders(1, 2, 3))
	f.engine.ObserveOrders(orders(1, 2))
	assert.Empty(t, f.cues.kinds)

	// 2 → 3 after a shrink is growth again.
	f.engine.ObserveOrders(orders(9, 1, 2))
	assert.Equal(t, []domain.CueKind{domain.CueOrder}, f.cues.kinds)
}

func TestObserveOrders_ZeroDisplayStaysUntilDismissed(t *testing.T) {
	f := newFixture(Display{Stock: 8 * time.Second})
	f.engine.ObserveOrders(nil)
	f.engine.ObserveOrders(orders(500))

	f.clock.Advance(time.Hour)
	_, shown := f.engine.Current()
	assert.True(t, shown)
	assert.Zero(t, f.clock.Pending())

	f.engine.Dismiss()
	_, shown = f.engine.Current()
	assert.False(t, shown)
	assert.Equal(t, 1, f.notifier.cleared)

	// Dismiss keeps the baseline: the same snapshot again is not growth.
	f.engine.ObserveOrders(orders(500))
	assert.Len(t, f.cues.kinds, 1)
}

func TestObserveOrders_ExpiresAfterDisplay(t *testing.T) {
	f := newFixture(Display{Order: 10 * time.Second, Stock: 8 * time.Second})
	f.engine.ObserveOrders(nil)
	f.engine.ObserveOrders(orders(500))

	f.clock.Advance(9 * time.Second)
	_, shown := f.engine.Current()
	assert.True(t, shown)

	f.clock.Advance(time.Second)
	_, shown = f.engine.Current()
	assert.False(t, shown)
	assert.Equal(t, 1, f.notifier.cleared)
}

func TestObserveInventory_DedupAndExpiry(t *testing.T) {
	f := newFixture(Display{Stock: 8 * time.Second})
	items := []domain.InventoryItem{
		{Name: "Flour", Quantity: 2, Threshold: 5},
		{Name: "Oil", Quantity: 10, Threshold: 5},
	}

	f.engine.ObserveInventory(items)
	a, shown := f.engine.Current()
	require.True(t, shown)
	assert.Equal(t, domain.AlertStock, a.Kind)
	assert.Equal(t, domain.SeverityCritical, a.Severity)
	assert.Equal(t, domain.StockMessage(1), a.Message)

	f.engine.ObserveInventory(items)
	assert.Equal(t, []domain.CueKind{domain.CueStock}, f.cues.kinds)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AlertsSuppressed.WithLabelValues("stock")))

	f.clock.Advance(8 * time.Second)
	_, shown = f.engine.Current()
	assert.False(t, shown)

	f.engine.ObserveInventory(items)
	assert.Len(t, f.cues.kinds, 2)
}

func TestObserveInventory_NothingLow(t *testing.T) {
	f := newFixture(Display{Stock: 8 * time.Second})
	f.engine.ObserveInventory([]domain.InventoryItem{{Name: "Oil", Quantity: 10, Threshold: 5}})

	_, shown := f.engine.Current()
	assert.False(t, shown)
	assert.Empty(t, f.cues.kinds)
}

func TestShow_ReplacedAlertTimerDoesNotClearNewer(t *testing.T) {
	f := newFixture(Display{Order: 20 * time.Second, Stock: 8 * time.Second})
	f.engine.ObserveOrders(nil)

	f.engine.ObserveInventory([]domain.InventoryItem{{Name: "Flour", Quantity: 0, Threshold: 1}})
	f.clock.Advance(5 * time.Second)
	f.engine.ObserveOrders(orders(750))

	f.clock.Advance(5 * time.Second)
	a, shown := f.engine.Current()
	require.True(t, shown)
	assert.Equal(t, domain.AlertOrder, a.Kind)
	assert.Zero(t, f.notifier.cleared)
}

func TestConfirm_ShowsNoticeWithoutCue(t *testing.T) {
	f := newFixture(Display{Stock: 8 * time.Second})

	f.engine.Confirm("Sound enabled!", 2*time.Second)
	a, shown := f.engine.Current()
	require.True(t, shown)
	assert.Equal(t, domain.AlertNotice, a.Kind)
	assert.Empty(t, f.cues.kinds)

	f.clock.Advance(2 * time.Second)
	_, shown = f.engine.Current()
	assert.False(t, shown)
}

func TestDeliver_SkipsOlderBannerChanges(t *testing.T) {
	f := newFixture(Display{Order: 20 * time.Second, Stock: 8 * time.Second})
	f.engine.ObserveOrders(nil)
	f.engine.ObserveOrders(orders(500))
	f.engine.ObserveInventory([]domain.InventoryItem{{Name: "Farine", Quantity: 1, Threshold: 5}})
	require.Len(t, f.notifier.raised, 2)

	// A raise that lost the race to the stock alert arrives late.
	stale := domain.Alert{Kind: domain.AlertOrder, Message: "NEW ORDER: 500 FCFA"}
	assert.False(t, f.engine.deliver(1, func(n interfaces.AlertNotifier) { n.AlertRaised(stale) }))

	require.Len(t, f.notifier.raised, 2)
	current, shown := f.engine.Current()
	require.True(t, shown)
	assert.Equal(t, current.Message, f.notifier.raised[1].Message)
}

func TestConcurrentObservers_LastNotificationMatchesCurrent(t *testing.T) {
	for i := 0; i < 50; i++ {
		f := newFixture(Display{Order: 20 * time.Second, Stock: 8 * time.Second})
		f.engine.ObserveOrders(nil)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.engine.ObserveOrders(orders(750))
		}()
		go func() {
			defer wg.Done()
			f.engine.ObserveInventory([]domain.InventoryItem{{Name: "Tomates", Quantity: 0, Threshold: 2}})
		}()
		wg.Wait()

		current, shown := f.engine.Current()
		require.True(t, shown)
		require.NotEmpty(t, f.notifier.raised)
		assert.Equal(t, current.Message, f.notifier.raised[len(f.notifier.raised)-1].Message)
	}
}
