package http

import (
	"net/http"

	"github.com/YelzhanWeb/atelier/internal/adapter/logger"
)

// Storefront is the customer-facing API.
type Storefront struct {
	Catalog  *CatalogHandler
	Checkout *CheckoutHandler
}

func (s Storefront) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", s.Catalog.ListProducts)
	mux.HandleFunc("GET /settings", s.Catalog.GetSettings)

	mux.HandleFunc("POST /checkout/sessions", s.Checkout.Open)
	mux.HandleFunc("GET /checkout/sessions/{id}", s.Checkout.Get)
	mux.HandleFunc("DELETE /checkout/sessions/{id}", s.Checkout.Cancel)
	mux.HandleFunc("PUT /checkout/sessions/{id}/buyer", s.Checkout.SetBuyer)
	mux.HandleFunc("POST /checkout/sessions/{id}/proceed", s.Checkout.Proceed)
	mux.HandleFunc("POST /checkout/sessions/{id}/back", s.Checkout.Back)
	mux.HandleFunc("PUT /checkout/sessions/{id}/payment", s.Checkout.SelectPayment)
	mux.HandleFunc("POST /checkout/sessions/{id}/submit", s.Checkout.Submit)
	return mux
}

// Dashboard is the operator API. Live and Metrics are mounted when set.
type Dashboard struct {
	Catalog *CatalogHandler
	Orders  *OrderHandler
	Alerts  *AlertHandler
	Live    http.Handler
	Metrics http.Handler
}

func (d Dashboard) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", d.Orders.ListOrders)
	mux.HandleFunc("POST /orders/{id}/status", d.Orders.UpdateStatus)
	mux.HandleFunc("GET /stats", d.Orders.Stats)

	mux.HandleFunc("GET /products", d.Catalog.ListProducts)
	mux.HandleFunc("POST /products", d.Catalog.CreateProduct)
	mux.HandleFunc("PUT /products/{id}", d.Catalog.UpdateProduct)
	mux.HandleFunc("DELETE /products/{id}", d.Catalog.DeleteProduct)
	mux.HandleFunc("POST /products/{id}/promote", d.Catalog.PromoteProduct)

	mux.HandleFunc("GET /suppliers", d.Catalog.ListSuppliers)
	mux.HandleFunc("POST /suppliers", d.Catalog.RegisterSupplier)
	mux.HandleFunc("POST /suppliers/{id}/verify", d.Catalog.VerifySupplier)

	mux.HandleFunc("GET /inventory", d.Catalog.ListInventory)
	mux.HandleFunc("POST /inventory", d.Catalog.CreateInventoryItem)
	mux.HandleFunc("PUT /inventory/{id}", d.Catalog.UpdateInventoryItem)
	mux.HandleFunc("DELETE /inventory/{id}", d.Catalog.DeleteInventoryItem)

	mux.HandleFunc("GET /settings", d.Catalog.GetSettings)
	mux.HandleFunc("PUT /settings", d.Catalog.SaveSettings)

	mux.HandleFunc("GET /alerts", d.Alerts.Current)
	mux.HandleFunc("POST /alerts/dismiss", d.Alerts.Dismiss)
	mux.HandleFunc("GET /audio", d.Alerts.SoundState)
	mux.HandleFunc("POST /audio/enable", d.Alerts.EnableSound)
	mux.HandleFunc("POST /audio/disable", d.Alerts.DisableSound)

	if d.Live != nil {
		mux.Handle("GET /ws", d.Live)
	}
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}
	return mux
}

// Wrap applies the logging and recovery middleware.
func Wrap(h http.Handler, log logger.Logger) http.Handler {
	handler := LoggingMiddleware(log)(h)
	return RecoveryMiddleware(log)(handler)
}
