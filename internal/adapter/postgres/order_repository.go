package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, product_id, product_name, quantity, total_price, shipping_fees, service_fees,
	supplier_id, customer_name, customer_contact, status, date, shipping_address, payment_details, dining_mode`

func scanOrder(row Row, order *domain.Order) error {
	return row.Scan(
		&order.ID, &order.ProductID, &order.ProductName, &order.Quantity, &order.TotalPrice,
		&order.ShippingFees, &order.ServiceFees, &order.SupplierID, &order.CustomerName,
		&order.CustomerContact, &order.Status, &order.Date, &order.ShippingAddress,
		&order.PaymentDetails, &order.DiningMode,
	)
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		order.ID, order.ProductID, order.ProductName, order.Quantity, order.TotalPrice,
		order.ShippingFees, order.ServiceFees, order.SupplierID, order.CustomerName,
		order.CustomerContact, order.Status, order.Date, order.ShippingAddress,
		order.PaymentDetails, order.DiningMode,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order domain.Order
	if err := scanOrder(r.db.QueryRow(ctx, query, id), &order); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) ListNewestFirst(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY date DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, to domain.Status, from []domain.Status) (bool, error) {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if isNoRows(err) {
			return false, domain.ErrOrderNotFound
		}
		return false, fmt.Errorf("failed to lock order: %w", err)
	}

	// Повторная команда на уже выставленный статус ничего не меняет
	if current == to {
		return false, tx.Commit(ctx)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = ANY($3)`,
		to, id, allowed,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, fmt.Errorf("order %s is %s: %w", id, current, domain.ErrInvalidStatusTransition)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit status update: %w", err)
	}
	return true, nil
}
