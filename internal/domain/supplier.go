package domain

import (
	"errors"
	"strings"
)

// Supplier is a supplier or staff account. Only used as a lookup table by checkout.
type Supplier struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	Verified    bool    `json:"verified"`
	IsAvailable bool    `json:"isAvailable"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Address     string  `json:"address,omitempty"`
	Password    string  `json:"password,omitempty"`
}

const (
	defaultSupplierName     = "New business"
	defaultSupplierCategory = "Sales"
	defaultSupplierRating   = 5.0
)

// NewSupplier creates a self-registered supplier: unverified, available, top rating.
func NewSupplier(s Supplier) (*Supplier, error) {
	if strings.TrimSpace(s.Email) == "" && strings.TrimSpace(s.Name) == "" {
		return nil, errors.New("supplier name or email is required")
	}

	out := s
	if strings.TrimSpace(out.Name) == "" {
		out.Name = defaultSupplierName
	}
	if out.Category == "" {
		out.Category = defaultSupplierCategory
	}
	out.Rating = defaultSupplierRating
	out.Verified = false
	out.IsAvailable = true
	return &out, nil
}

// FindSupplier returns the supplier with the given id.
func FindSupplier(suppliers []Supplier, id string) (Supplier, bool) {
	for _, s := range suppliers {
		if s.ID == id {
			return s, true
		}
	}
	return Supplier{}, false
}
