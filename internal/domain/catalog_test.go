package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterProducts(t *testing.T) {
	products := []Product{
		{ID: "1", Name: "Carbonara", Category: "Pasta", Tags: []string{"creamy"}},
		{ID: "2", Name: "Bissap", Category: "Drinks", SupplierName: "Maison Awa"},
		{ID: "3", Name: "Lasagne", Category: "Pasta", Description: "Oven baked, creamy"},
	}

	ids := func(ps []Product) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterProducts(products, "", CategoryAll)))
	assert.Equal(t, []string{"1", "3"}, ids(FilterProducts(products, "CREAMY", "")))
	assert.Equal(t, []string{"2"}, ids(FilterProducts(products, "awa", CategoryAll)))
	assert.Equal(t, []string{"3"}, ids(FilterProducts(products, "oven", "Pasta")))
	assert.Empty(t, FilterProducts(products, "creamy", "Drinks"))
}

func TestLowStock_IsInclusive(t *testing.T) {
	items := []InventoryItem{
		{Name: "Eggs", Quantity: 5, Threshold: 5},
		{Name: "Flour", Quantity: 6, Threshold: 5},
		{Name: "Tomatoes", Quantity: 0, Threshold: 2},
	}

	low := LowStock(items)
	assert.Len(t, low, 2)
	assert.Equal(t, "Eggs", low[0].Name)
	assert.Equal(t, "Tomatoes", low[1].Name)
}

func TestMergeSettings(t *testing.T) {
	merged := MergeSettings(DefaultSettings(), AppSettings{AppName: "Chez Awa", ServiceFees: 200})

	assert.Equal(t, "Chez Awa", merged.AppName)
	assert.Equal(t, "FCFA", merged.Currency)
	assert.Equal(t, DefaultSettings().Slogan, merged.Slogan)
	assert.Equal(t, 200.0, merged.ServiceFees)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "4 500", FormatAmount(4500))
	assert.Equal(t, "1 250 000", FormatAmount(1250000))
	assert.Equal(t, "999", FormatAmount(999))
	assert.Equal(t, "12.50", FormatAmount(12.5))
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "NEW ORDER: 4 500 FCFA", NewOrderMessage(4500, "FCFA"))
	assert.Equal(t, "STOCK ALERT: 2 item(s) out of stock or below threshold!", StockMessage(2))
}

func TestComputeStats(t *testing.T) {
	orders := []Order{
		{TotalPrice: 1000, Status: StatusPending},
		{TotalPrice: 2000, Status: StatusConfirmed},
		{TotalPrice: 3000, Status: StatusDelivered},
		{TotalPrice: 4000, Status: StatusCancelled},
	}
	inventory := []InventoryItem{{Quantity: 1, Threshold: 2}, {Quantity: 9, Threshold: 2}}

	stats := ComputeStats(orders, inventory, nil)
	assert.Equal(t, 5000.0, stats.TotalRevenue)
	assert.Equal(t, 4, stats.TotalOrders)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Equal(t, 1, stats.LowStockItems)
	assert.Equal(t, 5.0, stats.AvgSatisfaction)

	stats = ComputeStats(nil, nil, []Supplier{{Rating: 4}, {Rating: 3}})
	assert.Equal(t, 3.5, stats.AvgSatisfaction)
}
