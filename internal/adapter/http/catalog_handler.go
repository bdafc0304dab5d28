package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
	"github.com/YelzhanWeb/atelier/internal/domain"
)

// DocumentWriter is the write path for catalog, supplier, inventory and settings documents.
type DocumentWriter interface {
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) error
	SetProductPromoted(ctx context.Context, id string, promoted bool) error
	DeleteProduct(ctx context.Context, id string) error
	RegisterSupplier(ctx context.Context, s domain.Supplier) (*domain.Supplier, error)
	SetSupplierVerified(ctx context.Context, id string, verified bool) error
	CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, id string) error
	SaveSettings(ctx context.Context, settings domain.AppSettings) error
}

type CatalogHandler struct {
	snapshots SnapshotReader
	writer    DocumentWriter
	logger    logger.Logger
}

func NewCatalogHandler(snapshots SnapshotReader, writer DocumentWriter, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		snapshots: snapshots,
		writer:    writer,
		logger:    logger,
	}
}

type ToggleRequest struct {
	Value bool `json:"value"`
}

// ListProducts filters the catalog by the q and category query parameters.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := domain.FilterProducts(h.snapshots.Snapshot().Products, q.Get("q"), q.Get("category"))
	respondJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.snapshots.Snapshot().Settings)
}

func (h *CatalogHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.AppSettings
	if err := decodeJSON(r, &settings); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.writer.SaveSettings(r.Context(), settings); err != nil {
		h.fail(r, "settings_save_failed", err)
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	created, err := h.writer.CreateProduct(r.Context(), p)
	if err != nil {
		h.fail(r, "product_create_failed", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	p.ID = r.PathValue("id")
	if err := h.writer.UpdateProduct(r.Context(), p); err != nil {
		h.fail(r, "product_update_failed", err)
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) PromoteProduct(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.writer.SetProductPromoted(r.Context(), r.PathValue("id"), req.Value); err != nil {
		h.fail(r, "product_promote_failed", err)
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.writer.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		h.fail(r, "product_delete_failed", err)
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSuppliers never exposes stored passwords.
func (h *CatalogHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers := h.snapshots.Snapshot().Suppliers
	for i := range suppliers {
		suppliers[i].Password = ""
	}
	respondJSON(w, http.StatusOK, suppliers)
}

func (h *CatalogHandler) RegisterSupplier(w http.ResponseWriter, r *http.Request) {
	var s domain.Supplier
	if err := decodeJSON(r, &s); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if strings.TrimSpace(s.Name) == "" && strings.TrimSpace(s.Email) == "" {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{{
			Field:   "name",
			Message: "supplier name or email is required",
		}})
		return
	}
	created, err := h.writer.RegisterSupplier(r.Context(), s)
	if err != nil {
		h.fail(r, "supplier_register_failed", err)
		respondServiceError(w, err)
		return
	}
	created.Password = ""
	respondJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) VerifySupplier(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := h.writer.SetSupplierVerified(r.Context(), r.PathValue("id"), req.Value); err != nil {
		h.fail(r, "supplier_verify_failed", err)
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type InventoryResponse struct {
	domain.InventoryItem
	Low bool `json:"low"`
}

func (h *CatalogHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items := h.snapshots.Snapshot().Inventory
	resp := make([]InventoryResponse, len(items))
	for i, item := range items {
		resp[i] = InventoryResponse{InventoryItem: item, Low: item.IsLow()}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var item domain.InventoryItem
	if err := decodeJSON(r, &item); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	created, err := h.writer.CreateInventoryItem(r.Context(), item)
	if err != nil {
		h.fail(r, "inventory_create_failed", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var item domain.InventoryItem
	if err := decodeJSON(r, &item); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	item.ID = r.PathValue("id")
	if err := h.writer.UpdateInventoryItem(r.Context(), item); err != nil {
		h.fail(r, "inventory_update_failed", err)
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	if err := h.writer.DeleteInventoryItem(r.Context(), r.PathValue("id")); err != nil {
		h.fail(r, "inventory_delete_failed", err)
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) fail(r *http.Request, action string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Error(action, "Document write failed", RequestID(r.Context()), map[string]interface{}{
			"path": r.URL.Path,
		}, err)
	}
}
