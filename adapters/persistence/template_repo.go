package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	tmpl "github.com/khoahotran/talent-portfolio/internal/domain/template"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type postgresTemplateStateRepo struct {
	db     PgxPool
	logger logger.Logger
}

func NewPostgresTemplateStateRepo(db PgxPool, logger logger.Logger) tmpl.Repository {
	return &postgresTemplateStateRepo{db: db, logger: logger}
}

func (r *postgresTemplateStateRepo) Get(ctx context.Context, ownerID uuid.UUID, templateID string) (*tmpl.Saved, error) {
	query := `
		SELECT state
		FROM template_states
		WHERE owner_id = $1 AND template_id = $2
	`
	var stateBytes []byte
	err := r.db.QueryRow(ctx, query, ownerID, templateID).Scan(&stateBytes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("template state", ownerID.String()+"/"+templateID)
		}
		return nil, apperror.NewInternal("failed to query template state", err)
	}

	saved := &tmpl.Saved{}
	if err := json.Unmarshal(stateBytes, saved); err != nil {
		r.logger.Warn("Failed to unmarshal template state",
			zap.String("owner_id", ownerID.String()),
			zap.String("template_id", templateID),
			zap.Error(err),
		)
		return nil, apperror.NewConfigMissing("template state", ownerID.String())
	}
	return saved, nil
}

func (r *postgresTemplateStateRepo) Save(ctx context.Context, ownerID uuid.UUID, templateID string, saved *tmpl.Saved) error {
	stateBytes, err := json.Marshal(saved)
	if err != nil {
		return apperror.NewInternal("failed to marshal template state", err)
	}

	query := `
		INSERT INTO template_states (owner_id, template_id, state, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, template_id) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.Exec(ctx, query, ownerID, templateID, stateBytes, saved.UpdatedAt)
	if err != nil {
		return apperror.NewInternal("failed to upsert template state", err)
	}
	return nil
}
