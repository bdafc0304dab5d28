package domain

import (
	"errors"
	"strings"
	"time"
)

// Order is the immutable record created once by checkout. Only Status changes afterwards.
type Order struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	Quantity        int             `json:"quantity"`
	TotalPrice      float64         `json:"totalPrice"`
	ShippingFees    float64         `json:"shippingFees"`
	ServiceFees     float64         `json:"serviceFees"`
	SupplierID      string          `json:"supplierId"`
	CustomerName    string          `json:"customerName"`
	CustomerContact string          `json:"customerContact"`
	Status          Status          `json:"status"`
	Date            time.Time       `json:"date"`
	ShippingAddress string          `json:"shippingAddress"`
	PaymentDetails  *PaymentDetails `json:"paymentDetails,omitempty"`
	DiningMode      DiningMode      `json:"diningMode"`
}

// PaymentDetails is recorded with the order; nothing is actually charged.
// Provider and TransactionID are only set for mobile money.
type PaymentDetails struct {
	Method        PaymentMethod   `json:"method"`
	Provider      PaymentProvider `json:"provider,omitempty"`
	PhoneNumber   string          `json:"phoneNumber,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
}

// Buyer holds the customer fields collected during checkout.
type Buyer struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Location string `json:"location"`
}

// Complete reports whether every buyer field is non-empty after trimming.
func (b Buyer) Complete() bool {
	return strings.TrimSpace(b.Name) != "" &&
		strings.TrimSpace(b.Contact) != "" &&
		strings.TrimSpace(b.Location) != ""
}

// NewOrder snapshots the product into a PENDING order. The total is unit price × quantity;
// fee fields stay at zero.
func NewOrder(id string, product Product, quantity int, buyer Buyer, payment PaymentDetails, mode DiningMode, now time.Time) (*Order, error) {
	if id == "" {
		return nil, errors.New("order id is required")
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if !buyer.Complete() {
		return nil, ErrIncompleteBuyer
	}
	if !mode.Valid() {
		return nil, ErrInvalidDiningMode
	}

	order := &Order{
		ID:              id,
		ProductID:       product.ID,
		ProductName:     product.Name,
		Quantity:        quantity,
		TotalPrice:      product.Price * float64(quantity),
		SupplierID:      product.SupplierID,
		CustomerName:    strings.TrimSpace(buyer.Name),
		CustomerContact: strings.TrimSpace(buyer.Contact),
		ShippingAddress: strings.TrimSpace(buyer.Location),
		Status:          StatusPending,
		Date:            now,
		DiningMode:      mode,
	}
	p := payment
	order.PaymentDetails = &p

	return order, nil
}

// CanTransitionTo checks if the order can transition to the new status
func (o *Order) CanTransitionTo(newStatus Status) bool {
	return CanTransition(o.Status, newStatus)
}

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether from → to is an edge of the fulfillment machine.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable in one step.
func NextStatuses(from Status) []Status {
	next := validTransitions[from]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// Predecessors returns every status from which to is reachable in one step.
func Predecessors(to Status) []Status {
	var out []Status
	for from, next := range validTransitions {
		for _, s := range next {
			if s == to {
				out = append(out, from)
			}
		}
	}
	return out
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	next, ok := validTransitions[s]
	return ok && len(next) == 0
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidQuantity         = errors.New("quantity must be at least 1")
	ErrIncompleteBuyer         = errors.New("buyer name, contact and location are required")
	ErrInvalidDiningMode       = errors.New("invalid dining mode")
	ErrDocumentNotFound        = errors.New("document not found")
	ErrIdentityNotConfigured   = errors.New("anonymous identity is not configured")
	ErrIdentityNotAllowed      = errors.New("anonymous identity is not allowed")
)
