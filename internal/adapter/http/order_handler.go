package http

import (
	"context"
	"net/http"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/app/fulfillment"
	"github.com/YelzhanWeb/atelier/internal/domain"
)

// StatusTransitioner moves an order along the fulfillment machine.
type StatusTransitioner interface {
	Transition(ctx context.Context, orderID string, to domain.Status) error
}

type OrderHandler struct {
	snapshots   SnapshotReader
	transitions StatusTransitioner
	logger      logger.Logger
}

func NewOrderHandler(snapshots SnapshotReader, transitions StatusTransitioner, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		snapshots:   snapshots,
		transitions: transitions,
		logger:      logger,
	}
}

type OrderResponse struct {
	domain.Order
	Badge   string               `json:"badge"`
	Actions []fulfillment.Action `json:"actions"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListOrders returns the latest orders snapshot, newest first.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.snapshots.Snapshot().Orders

	resp := make([]OrderResponse, len(orders))
	for i, o := range orders {
		actions := fulfillment.NextActions(o.Status)
		if actions == nil {
			actions = []fulfillment.Action{}
		}
		resp[i] = OrderResponse{
			Order:   o,
			Badge:   fulfillment.Badge(o.Status),
			Actions: actions,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	to := domain.Status(req.Status)
	if !to.Valid() {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{{
			Field:   "status",
			Message: "status must be one of: PENDING, CONFIRMED, SHIPPED, DELIVERED, CANCELLED",
		}})
		return
	}

	if err := h.transitions.Transition(r.Context(), orderID, to); err != nil {
		h.logger.Debug("status_update_refused", err.Error(), RequestID(r.Context()), map[string]interface{}{
			"order_id":   orderID,
			"new_status": to,
		})
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats summarizes the current snapshots for the overview page.
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Snapshot()
	respondJSON(w, http.StatusOK, domain.ComputeStats(snap.Orders, snap.Inventory, snap.Suppliers))
}
