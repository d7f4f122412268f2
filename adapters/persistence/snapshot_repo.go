package persistence

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/domain/snapshot"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type postgresSnapshotRepo struct {
	db     PgxPool
	logger logger.Logger
}

// NewPostgresSnapshotRepo has no update or delete path; the table also rejects
// UPDATE with a trigger.
func NewPostgresSnapshotRepo(db PgxPool, logger logger.Logger) snapshot.Repository {
	return &postgresSnapshotRepo{db: db, logger: logger}
}

var psqlSnapshot = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const snapshotColumns = "id, owner_id, recipient_scope, template_id, trigger, payload, payload_hash, created_at"

func scanSnapshot(row pgx.Row, l logger.Logger) (*snapshot.Snapshot, error) {
	s := &snapshot.Snapshot{}
	var scope string

	err := row.Scan(&s.ID, &s.OwnerID, &scope, &s.TemplateID, &s.Trigger, &s.Payload, &s.PayloadHash, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("snapshot", "")
		}
		return nil, apperror.NewInternal("failed to scan snapshot row", err)
	}
	s.Scope = snapshot.Scope(scope)
	if !s.Verify() {
		l.Warn("Snapshot payload does not match its hash", zap.String("snapshot_id", s.ID.String()))
	}
	return s, nil
}

func scanSnapshots(rows pgx.Rows, l logger.Logger) ([]*snapshot.Snapshot, error) {
	defer rows.Close()
	out := make([]*snapshot.Snapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows, l)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("failed to iterate snapshot rows", err)
	}
	return out, nil
}

func (r *postgresSnapshotRepo) Insert(ctx context.Context, s *snapshot.Snapshot) error {
	query := `
		INSERT INTO disclosure_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.OwnerID, string(s.Scope), s.TemplateID, s.Trigger, s.Payload, s.PayloadHash, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("snapshot", "id", s.ID.String())
		}
		return apperror.NewInternal("failed to insert snapshot", err)
	}
	return nil
}

func (r *postgresSnapshotRepo) FindByID(ctx context.Context, id uuid.UUID) (*snapshot.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM disclosure_snapshots WHERE id = $1`
	s, err := scanSnapshot(r.db.QueryRow(ctx, query, id), r.logger)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NewNotFound("snapshot", id.String())
	}
	return s, err
}

func (r *postgresSnapshotRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*snapshot.Snapshot, error) {
	builder := psqlSnapshot.Select(snapshotColumns).
		From("disclosure_snapshots").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	return r.list(ctx, builder)
}

func (r *postgresSnapshotRepo) ListForRecipient(ctx context.Context, recipientID uuid.UUID, ownerID *uuid.UUID, limit, offset int) ([]*snapshot.Snapshot, error) {
	visible := sq.Or{sq.Eq{"recipient_scope": string(snapshot.RecipientScope(recipientID))}}
	if ownerID != nil {
		visible = append(visible, sq.Eq{"recipient_scope": string(snapshot.ScopePublic)})
	}

	builder := psqlSnapshot.Select(snapshotColumns).
		From("disclosure_snapshots").
		Where(visible).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if ownerID != nil {
		builder = builder.Where(sq.Eq{"owner_id": *ownerID})
	}
	return r.list(ctx, builder)
}

func (r *postgresSnapshotRepo) list(ctx context.Context, builder sq.SelectBuilder) ([]*snapshot.Snapshot, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list snapshots query", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query snapshots", err)
	}
	return scanSnapshots(rows, r.logger)
}
