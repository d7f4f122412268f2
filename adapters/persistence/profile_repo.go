package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type postgresProfileRepo struct {
	db     PgxPool
	logger logger.Logger
}

func NewPostgresProfileRepo(db PgxPool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

func (r *postgresProfileRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*profile.Document, error) {
	query := `
		SELECT document, updated_at
		FROM content_documents
		WHERE owner_id = $1
	`
	var documentBytes []byte
	var updatedAt time.Time

	err := r.db.QueryRow(ctx, query, ownerID).Scan(&documentBytes, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profile.NewDocument(ownerID), nil
		}
		return nil, apperror.NewInternal("failed to query content document", err)
	}

	doc := profile.NewDocument(ownerID)
	if err := json.Unmarshal(documentBytes, doc); err != nil {
		r.logger.Warn("Failed to unmarshal content document", zap.String("owner_id", ownerID.String()), zap.Error(err))
		doc = profile.NewDocument(ownerID)
	}
	doc.OwnerID = ownerID
	doc.UpdatedAt = updatedAt
	return doc, nil
}

func (r *postgresProfileRepo) Upsert(ctx context.Context, doc *profile.Document) error {
	documentBytes, err := json.Marshal(doc)
	if err != nil {
		return apperror.NewInternal("failed to marshal content document", err)
	}

	query := `
		INSERT INTO content_documents (owner_id, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.Exec(ctx, query, doc.OwnerID, documentBytes, doc.UpdatedAt)
	if err != nil {
		return apperror.NewInternal("failed to upsert content document", err)
	}
	return nil
}
