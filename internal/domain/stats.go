package domain

// DashboardStats summarizes the operator overview.
type DashboardStats struct {
	TotalRevenue    float64 `json:"totalRevenue"`
	TotalOrders     int     `json:"totalOrders"`
	PendingOrders   int     `json:"pendingOrders"`
	LowStockItems   int     `json:"lowStockItems"`
	AvgSatisfaction float64 `json:"avgSatisfaction"`
}

// ComputeStats counts revenue only for orders that were accepted and not cancelled.
func ComputeStats(orders []Order, inventory []InventoryItem, suppliers []Supplier) DashboardStats {
	stats := DashboardStats{
		TotalOrders:     len(orders),
		LowStockItems:   len(LowStock(inventory)),
		AvgSatisfaction: defaultSupplierRating,
	}

	for _, o := range orders {
		switch o.Status {
		case StatusPending:
			stats.PendingOrders++
		case StatusCancelled:
		default:
			stats.TotalRevenue += o.TotalPrice
		}
	}

	if len(suppliers) > 0 {
		var sum float64
		for _, s := range suppliers {
			sum += s.Rating
		}
		stats.AvgSatisfaction = sum / float64(len(suppliers))
	}

	return stats
}
