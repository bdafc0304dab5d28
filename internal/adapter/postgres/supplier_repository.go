package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
)

type supplierRepository struct {
	db DB
}

func NewSupplierRepository(db DB) interfaces.SupplierRepository {
	return &supplierRepository{db: db}
}

const supplierColumns = `id, name, rating, verified, is_available, category, description,
	email, phone, address, password`

func scanSupplier(row Row, s *domain.Supplier) error {
	return row.Scan(
		&s.ID, &s.Name, &s.Rating, &s.Verified, &s.IsAvailable, &s.Category,
		&s.Description, &s.Email, &s.Phone, &s.Address, &s.Password,
	)
}

// ListAll returns suppliers in storage order.
func (r *supplierRepository) ListAll(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := r.db.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []domain.Supplier{}
	for rows.Next() {
		var s domain.Supplier
		if err := scanSupplier(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *supplierRepository) FindByID(ctx context.Context, id string) (*domain.Supplier, error) {
	var s domain.Supplier
	err := scanSupplier(r.db.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id), &s)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load supplier: %w", err)
	}
	return &s, nil
}

func (r *supplierRepository) Create(ctx context.Context, s *domain.Supplier) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO suppliers (`+supplierColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, s.ID, s.Name, s.Rating, s.Verified, s.IsAvailable, s.Category,
		s.Description, s.Email, s.Phone, s.Address, s.Password)
	if err != nil {
		return fmt.Errorf("failed to insert supplier: %w", err)
	}
	return nil
}

func (r *supplierRepository) Update(ctx context.Context, s *domain.Supplier) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE suppliers
		SET name = $2, rating = $3, verified = $4, is_available = $5, category = $6,
		    description = $7, email = $8, phone = $9, address = $10
		WHERE id = $1
	`, s.ID, s.Name, s.Rating, s.Verified, s.IsAvailable, s.Category,
		s.Description, s.Email, s.Phone, s.Address)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
