package http

import (
	"net/http"
	"strings"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/app/checkout"
	"github.com/YelzhanWeb/atelier/internal/app/realtime"
	"github.com/YelzhanWeb/atelier/internal/domain"
)

// SnapshotReader exposes the latest live collections.
type SnapshotReader interface {
	Snapshot() realtime.Snapshot
}

// CheckoutHandler drives one checkout Machine per storefront session.
type CheckoutHandler struct {
	snapshots SnapshotReader
	sessions  *checkout.Registry
	logger    logger.Logger
}

func NewCheckoutHandler(snapshots SnapshotReader, sessions *checkout.Registry, logger logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		snapshots: snapshots,
		sessions:  sessions,
		logger:    logger,
	}
}

type OpenCheckoutRequest struct {
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
	DiningMode string `json:"diningMode"`
}

type BuyerRequest struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Location string `json:"location"`
}

type PaymentRequest struct {
	Method   string `json:"method"`
	Provider string `json:"provider,omitempty"`
}

type CheckoutResponse struct {
	SessionID string        `json:"sessionId"`
	Checkout  checkout.View `json:"checkout"`
	CashLabel string        `json:"cashLabel,omitempty"`
}

func validateOpenCheckoutRequest(req OpenCheckoutRequest) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(req.ProductID) == "" {
		errors = append(errors, ValidationError{
			Field:   "productId",
			Message: "product id is required",
		})
	}
	if req.Quantity < 1 {
		errors = append(errors, ValidationError{
			Field:   "quantity",
			Message: "quantity must be at least 1",
		})
	}
	if !domain.DiningMode(req.DiningMode).Valid() {
		errors = append(errors, ValidationError{
			Field:   "diningMode",
			Message: "dining mode must be one of: EMPORTE, SUR_PLACE",
		})
	}
	return errors
}

// Open starts a checkout session for a product from the current catalog snapshot.
func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if validationErrors := validateOpenCheckoutRequest(req); len(validationErrors) > 0 {
		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	snap := h.snapshots.Snapshot()
	if snap.Settings.IsMaintenanceMode {
		respondError(w, "The shop is under maintenance", http.StatusServiceUnavailable, nil)
		return
	}
	product, ok := findProduct(snap.Products, req.ProductID)
	if !ok {
		respondError(w, "Product not found", http.StatusNotFound, nil)
		return
	}

	id, m := h.sessions.Create()
	if err := m.Open(product, req.Quantity, domain.DiningMode(req.DiningMode)); err != nil {
		h.sessions.Remove(id)
		respondServiceError(w, err)
		return
	}

	h.logger.Debug("checkout_opened", "Checkout session opened", RequestID(r.Context()), map[string]interface{}{
		"session_id": id,
		"product_id": product.ID,
		"quantity":   req.Quantity,
	})
	respondJSON(w, http.StatusCreated, h.response(id, m))
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.machine(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.response(id, m))
}

// Cancel abandons the checkout and ends the session.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.machine(w, r)
	if !ok {
		return
	}
	if err := m.Cancel(); err != nil {
		respondServiceError(w, err)
		return
	}
	h.sessions.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandler) SetBuyer(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req BuyerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := m.SetBuyer(domain.Buyer{Name: req.Name, Contact: req.Contact, Location: req.Location}); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.response(id, m))
}

func (h *CheckoutHandler) Proceed(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.machine(w, r)
	if !ok {
		return
	}
	if !m.Proceed() {
		if m.State() != checkout.StateDetails {
			respondServiceError(w, checkout.ErrWrongState)
			return
		}
		respondError(w, "Validation failed", http.StatusUnprocessableEntity, []ValidationError{{
			Field:   "buyer",
			Message: "name, contact and location are required",
		}})
		return
	}
	respondJSON(w, http.StatusOK, h.response(id, m))
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.machine(w, r)
	if !ok {
		return
	}
	if !m.Back() {
		respondServiceError(w, checkout.ErrWrongState)
		return
	}
	respondJSON(w, http.StatusOK, h.response(id, m))
}

func (h *CheckoutHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.machine(w, r)
	if !ok {
		return
	}
	var req PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	err := m.SelectPayment(domain.PaymentMethod(req.Method), domain.PaymentProvider(req.Provider))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.response(id, m))
}

// Submit places the order and waits for the commit while the client is connected.
// A client that goes away gets 202 and can poll the session.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, m, ok := h.machine(w, r)
	if !ok {
		return
	}
	outcome, err := m.Submit(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	select {
	case <-outcome:
	case <-r.Context().Done():
	}

	resp := h.response(id, m)
	status := http.StatusOK
	switch resp.Checkout.State {
	case checkout.StateProcessing:
		status = http.StatusAccepted
	case checkout.StatePayment:
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, resp)
}

func (h *CheckoutHandler) machine(w http.ResponseWriter, r *http.Request) (string, *checkout.Machine, bool) {
	id := r.PathValue("id")
	m, ok := h.sessions.Get(id)
	if !ok {
		respondError(w, "Checkout session not found", http.StatusNotFound, nil)
		return "", nil, false
	}
	return id, m, true
}

func (h *CheckoutHandler) response(id string, m *checkout.Machine) CheckoutResponse {
	v := m.View()
	resp := CheckoutResponse{SessionID: id, Checkout: v}
	if v.Mode != "" {
		resp.CashLabel = checkout.CashLabel(v.Mode)
	}
	return resp
}

func findProduct(products []domain.Product, id string) (domain.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}
