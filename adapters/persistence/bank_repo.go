package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

type postgresBankRepo struct {
	db     PgxPool
	logger logger.Logger
}

func NewPostgresBankRepo(db PgxPool, logger logger.Logger) bank.Repository {
	return &postgresBankRepo{db: db, logger: logger}
}

var psqlBank = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const bankColumns = "id, owner_id, item_type, title, file_path, file_type, metadata, created_at"

func scanBankItem(row pgx.Row, l logger.Logger) (*bank.Item, error) {
	item := &bank.Item{}
	var metadataBytes []byte

	err := row.Scan(
		&item.ID, &item.OwnerID, &item.ItemType, &item.Title,
		&item.FilePath, &item.FileType, &metadataBytes, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("bank item", "")
		}
		return nil, apperror.NewInternal("failed to scan bank item row", err)
	}

	item.Metadata = map[string]any{}
	if len(metadataBytes) > 0 {
		if err := json.Unmarshal(metadataBytes, &item.Metadata); err != nil {
			l.Warn("Failed to unmarshal bank item metadata", zap.Int64("item_id", item.ID), zap.Error(err))
			item.Metadata = map[string]any{}
		}
	}
	return item, nil
}

func scanBankItems(rows pgx.Rows, l logger.Logger) ([]*bank.Item, error) {
	defer rows.Close()
	items := make([]*bank.Item, 0)
	for rows.Next() {
		item, err := scanBankItem(rows, l)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("failed to iterate bank item rows", err)
	}
	return items, nil
}

func (r *postgresBankRepo) Save(ctx context.Context, item *bank.Item) error {
	if item.Metadata == nil {
		item.Metadata = map[string]any{}
	}
	metadataBytes, err := json.Marshal(item.Metadata)
	if err != nil {
		return apperror.NewInternal("failed to marshal bank item metadata", err)
	}

	query := `
		INSERT INTO bank_items (owner_id, item_type, title, file_path, file_type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = r.db.QueryRow(ctx, query,
		item.OwnerID, item.ItemType, item.Title, item.FilePath, item.FileType, metadataBytes, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("bank item", "file_path", derefString(item.FilePath))
		}
		return apperror.NewInternal("failed to insert bank item", err)
	}
	return nil
}

func (r *postgresBankRepo) FindByID(ctx context.Context, id int64) (*bank.Item, error) {
	query := `SELECT ` + bankColumns + ` FROM bank_items WHERE id = $1`
	item, err := scanBankItem(r.db.QueryRow(ctx, query, id), r.logger)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NewNotFound("bank item", strconv.FormatInt(id, 10))
	}
	return item, err
}

func (r *postgresBankRepo) SearchByKeywords(ctx context.Context, ownerID uuid.UUID, keywords []string, limit int) ([]*bank.Item, error) {
	match := sq.Or{}
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		pattern := "%" + k + "%"
		match = append(match, sq.ILike{"title": pattern}, sq.ILike{"file_path": pattern})
	}
	if len(match) == 0 {
		return []*bank.Item{}, nil
	}

	builder := psqlBank.Select(bankColumns).
		From("bank_items").
		Where(sq.Eq{"owner_id": ownerID}).
		Where(match).
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build bank keyword search query", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to search bank items", err)
	}
	return scanBankItems(rows, r.logger)
}

func (r *postgresBankRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*bank.Item, error) {
	builder := psqlBank.Select(bankColumns).
		From("bank_items").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list bank items query", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query bank items by owner", err)
	}
	return scanBankItems(rows, r.logger)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
