package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
)

type inventoryRepository struct {
	db DB
}

func NewInventoryRepository(db DB) interfaces.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) ListByName(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, quantity, unit, threshold, updated_at
		FROM inventory
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.Unit, &it.Threshold, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory: %w", err)
	}
	return items, nil
}

func (r *inventoryRepository) Create(ctx context.Context, it *domain.InventoryItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO inventory (id, name, quantity, unit, threshold, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, it.ID, it.Name, it.Quantity, it.Unit, it.Threshold, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert inventory item: %w", err)
	}
	return nil
}

func (r *inventoryRepository) Update(ctx context.Context, it *domain.InventoryItem) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE inventory
		SET name = $2, quantity = $3, unit = $4, threshold = $5, updated_at = $6
		WHERE id = $1
	`, it.ID, it.Name, it.Quantity, it.Unit, it.Threshold, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *inventoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
