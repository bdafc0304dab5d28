package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
)

const settingsID = "general"

type settingsRepository struct {
	db DB
}

func NewSettingsRepository(db DB) interfaces.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.AppSettings, error) {
	var s domain.AppSettings
	err := r.db.QueryRow(ctx, `SELECT data FROM settings WHERE id = $1`, settingsID).Scan(&s)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s domain.AppSettings) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settings (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = settings.data || EXCLUDED.data
	`, settingsID, s)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

// CreateIfAbsent never overwrites a document written concurrently by someone else.
func (r *settingsRepository) CreateIfAbsent(ctx context.Context, s domain.AppSettings) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settings (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, settingsID, s)
	if err != nil {
		return fmt.Errorf("failed to create settings: %w", err)
	}
	return nil
}
