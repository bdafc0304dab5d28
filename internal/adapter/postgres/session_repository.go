package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/atelier/internal/domain"
	"github.com/YelzhanWeb/atelier/internal/interfaces"
	"github.com/google/uuid"
)

type sessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) interfaces.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) CreateAnonymous(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO sessions (id, anonymous) VALUES ($1, true)`, id)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// IdentityProvider issues anonymous sessions backed by the sessions table.
type IdentityProvider struct {
	sessions interfaces.SessionRepository
	enabled  bool
}

func NewIdentityProvider(sessions interfaces.SessionRepository, enabled bool) *IdentityProvider {
	return &IdentityProvider{sessions: sessions, enabled: enabled}
}

func (p *IdentityProvider) SignInAnonymously(ctx context.Context) (string, error) {
	if !p.enabled || p.sessions == nil {
		return "", domain.ErrIdentityNotConfigured
	}
	id := uuid.NewString()
	if err := p.sessions.CreateAnonymous(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}
