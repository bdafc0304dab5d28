package domain

import (
	"errors"
	"strings"
	"time"
)

// Product is a catalog entry. Orders snapshot its name and price at creation.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Category     string    `json:"category"`
	SupplierID   string    `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	ImageURL     string    `json:"imageUrl"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"createdAt"`
	IsPromoted   bool      `json:"isPromoted"`
}

// CategoryAll disables the category filter.
const CategoryAll = "all"

// FilterProducts keeps products whose name, description, supplier name or tags contain term
// (case-insensitive) and whose category matches.
func FilterProducts(products []Product, term, category string) []Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		if term != "" && !p.matches(term) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (p Product) matches(term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.SupplierName), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// InventoryItem is a raw material tracked by the operator.
type InventoryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	Threshold float64   `json:"threshold"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsLow is inclusive: an item exactly at its threshold is low.
func (i InventoryItem) IsLow() bool {
	return i.Quantity <= i.Threshold
}

// LowStock returns the items at or below their threshold, preserving order.
func LowStock(items []InventoryItem) []InventoryItem {
	var low []InventoryItem
	for _, item := range items {
		if item.IsLow() {
			low = append(low, item)
		}
	}
	return low
}

var (
	ErrInvalidProduct       = errors.New("product name is required and price must not be negative")
	ErrInvalidInventoryItem = errors.New("inventory item name is required and quantities must not be negative")
)

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" || p.Price < 0 {
		return ErrInvalidProduct
	}
	return nil
}

func (i InventoryItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" || i.Quantity < 0 || i.Threshold < 0 {
		return ErrInvalidInventoryItem
	}
	return nil
}
