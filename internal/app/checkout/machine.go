// Package checkout turns a product selection into a committed order. A Machine walks
// one customer through DETAILS, PAYMENT, PROCESSING and SUCCESS; the commit itself runs
// asynchronously and its outcome is applied only if the machine still waits for it.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/YelzhanWeb/atelier/internal/metrics"
	"github.com/google/uuid"
)

type State string

const (
	StateClosed     State = "CLOSED"
	StateDetails    State = "DETAILS"
	StatePayment    State = "PAYMENT"
	StateProcessing State = "PROCESSING"
	StateSuccess    State = "SUCCESS"
)

// OnSiteLocation prefills the location for customers eating in.
const OnSiteLocation = "Restaurant - Sur Place"

const defaultCommitError = "An error occurred while saving your order."

var (
	ErrCancelNotAllowed = errors.New("checkout cannot be cancelled while the order is being placed")
	ErrWrongState       = errors.New("action not allowed in the current checkout step")
	ErrInvalidProvider  = errors.New("mobile money requires a provider")
	ErrInvalidMethod    = errors.New("unknown payment method")
)

// Outcome is delivered once per Submit, whether or not the machine applied it.
type Outcome struct {
	Order *domain.Order
	Err   error
}

// View is a read-only copy of the machine for rendering.
type View struct {
	State    State                  `json:"state"`
	Product  domain.Product         `json:"product"`
	Quantity int                    `json:"quantity"`
	Mode     domain.DiningMode      `json:"diningMode"`
	Buyer    domain.Buyer           `json:"buyer"`
	Method   domain.PaymentMethod   `json:"paymentMethod"`
	Provider domain.PaymentProvider `json:"paymentProvider,omitempty"`
	Total    float64                `json:"total"`
	Error    string                 `json:"error,omitempty"`
	OrderID  string                 `json:"orderId,omitempty"`
}

type Machine struct {
	creator   interfaces.OrderCreator
	scheduler interfaces.Scheduler
	dismiss   time.Duration
	metrics   *metrics.Registry
	logger    logger.Logger

	now   func() time.Time
	newID func() string
	txnID func() string

	mu       sync.Mutex
	alive    bool
	attempt  uint64
	state    State
	product  domain.Product
	quantity int
	mode     domain.DiningMode
	buyer    domain.Buyer
	method   domain.PaymentMethod
	provider domain.PaymentProvider
	errMsg   string
	timer    interfaces.Timer
	// placed is the id of the last committed order. It survives auto-close until the next Open.
	placed string
}

func NewMachine(
	creator interfaces.OrderCreator,
	scheduler interfaces.Scheduler,
	successDismiss time.Duration,
	metrics *metrics.Registry,
	logger logger.Logger,
) *Machine {
	return &Machine{
		creator:   creator,
		scheduler: scheduler,
		dismiss:   successDismiss,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		txnID:     func() string { return fmt.Sprintf("TXN-%06d", rand.IntN(1000000)) },
		alive:     true,
		state:     StateClosed,
	}
}

// Open starts a checkout for quantity units of product. The quantity is fixed from here on.
func (m *Machine) Open(product domain.Product, quantity int, mode domain.DiningMode) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if !mode.Valid() {
		return domain.ErrInvalidDiningMode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.alive || m.state != StateClosed {
		return ErrWrongState
	}

	m.reset()
	m.placed = ""
	m.state = StateDetails
	m.product = product
	m.quantity = quantity
	m.mode = mode
	if mode == domain.DiningModeOnSite {
		m.buyer.Location = OnSiteLocation
	}
	return nil
}

func (m *Machine) SetBuyer(buyer domain.Buyer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateDetails {
		return ErrWrongState
	}
	m.buyer = buyer
	m.errMsg = ""
	return nil
}

// CanProceed is the DETAILS guard: name, contact and location non-empty after trimming.
func (m *Machine) CanProceed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buyer.Complete()
}

// Proceed moves DETAILS to PAYMENT. It reports false without side effects when the
// guard fails or the machine is elsewhere.
func (m *Machine) Proceed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateDetails || !m.buyer.Complete() {
		return false
	}
	m.state = StatePayment
	return true
}

func (m *Machine) Back() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePayment {
		return false
	}
	m.state = StateDetails
	return true
}

func (m *Machine) SelectPayment(method domain.PaymentMethod, provider domain.PaymentProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePayment {
		return ErrWrongState
	}
	switch method {
	case domain.PaymentMobileMoney:
		if !provider.Valid() {
			return ErrInvalidProvider
		}
		m.provider = provider
	case domain.PaymentCashOnDelivery:
	default:
		return ErrInvalidMethod
	}
	m.method = method
	m.errMsg = ""
	return nil
}

// Submit builds the order and commits it exactly once in the background. The returned
// channel yields the outcome; a commit cannot be cancelled once started.
func (m *Machine) Submit(ctx context.Context) (<-chan Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePayment {
		return nil, ErrWrongState
	}

	order, err := domain.NewOrder(m.newID(), m.product, m.quantity, m.buyer, m.payment(), m.mode, m.now())
	if err != nil {
		return nil, err
	}

	m.state = StateProcessing
	m.errMsg = ""
	m.attempt++

	out := make(chan Outcome, 1)
	go m.commit(context.WithoutCancel(ctx), m.attempt, order, out)

	m.logger.Debug("checkout_submitted", "Order submitted", order.ID, map[string]interface{}{
		"product_id":  order.ProductID,
		"quantity":    order.Quantity,
		"total_price": order.TotalPrice,
		"method":      string(m.method),
	})
	return out, nil
}

func (m *Machine) payment() domain.PaymentDetails {
	if m.method == domain.PaymentMobileMoney {
		return domain.PaymentDetails{
			Method:        domain.PaymentMobileMoney,
			Provider:      m.provider,
			TransactionID: m.txnID(),
		}
	}
	return domain.PaymentDetails{Method: domain.PaymentCashOnDelivery}
}

func (m *Machine) commit(ctx context.Context, attempt uint64, order *domain.Order, out chan<- Outcome) {
	start := time.Now()
	err := m.creator.CreateOrder(ctx, order)
	m.metrics.CheckoutLatency.Observe(time.Since(start).Seconds())

	m.apply(attempt, order, err)
	out <- Outcome{Order: order, Err: err}
	close(out)
}

func (m *Machine) apply(attempt uint64, order *domain.Order, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.alive || m.attempt != attempt || m.state != StateProcessing {
		m.metrics.CheckoutCommits.WithLabelValues("discarded").Inc()
		m.logger.Debug("checkout_outcome_discarded", "Commit finished after checkout closed", order.ID, nil)
		return
	}

	if err != nil {
		m.metrics.CheckoutCommits.WithLabelValues("failure").Inc()
		m.logger.Error("checkout_commit_failed", "Failed to place order", order.ID, nil, err)
		m.state = StatePayment
		m.errMsg = err.Error()
		if strings.TrimSpace(m.errMsg) == "" {
			m.errMsg = defaultCommitError
		}
		return
	}

	m.metrics.CheckoutCommits.WithLabelValues("success").Inc()
	m.logger.Info("order_placed", fmt.Sprintf("Order %s placed", order.ID), order.ID, map[string]interface{}{
		"total_price": order.TotalPrice,
	})
	m.state = StateSuccess
	m.placed = order.ID
	m.timer = m.scheduler.AfterFunc(m.dismiss, func() { m.autoClose(attempt) })
}

func (m *Machine) autoClose(attempt uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.alive && m.attempt == attempt && m.state == StateSuccess {
		m.reset()
	}
}

// Cancel abandons the checkout from DETAILS or PAYMENT without any external effect.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateDetails, StatePayment:
		m.reset()
		return nil
	case StateClosed:
		return nil
	}
	return ErrCancelNotAllowed
}

// Close tears the machine down for good. A commit still in flight completes, but its
// outcome is not applied.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.alive = false
	m.reset()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Total is unit price times quantity; fees are never added.
func (m *Machine) Total() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total()
}

func (m *Machine) total() float64 {
	return m.product.Price * float64(m.quantity)
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		State:    m.state,
		Product:  m.product,
		Quantity: m.quantity,
		Mode:     m.mode,
		Buyer:    m.buyer,
		Method:   m.method,
		Total:    m.total(),
		Error:    m.errMsg,
	}
	if m.method == domain.PaymentMobileMoney {
		v.Provider = m.provider
	}
	v.OrderID = m.placed
	return v
}

// reset expects m.mu to be held.
func (m *Machine) reset() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.state = StateClosed
	m.product = domain.Product{}
	m.quantity = 0
	m.mode = ""
	m.buyer = domain.Buyer{}
	m.method = domain.PaymentMobileMoney
	m.provider = domain.ProviderOrange
	m.errMsg = ""
}

// CashLabel is how cash payment is presented for the dining mode.
func CashLabel(mode domain.DiningMode) string {
	if mode == domain.DiningModeOnSite {
		return "At the counter"
	}
	return "On delivery"
}
