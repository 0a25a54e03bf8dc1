package vaultitems

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/dbx"
	"github.com/dmitrijs2005/exeraser/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, original_id, kind, file_path, thumbnail_path, metadata, match_source, source, created_at`

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeMetadata(md map[string]any) (string, error) {
	if md == nil {
		md = map[string]any{}
	}
	data, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(data), nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, item *models.VaultItem) error {
	mdJSON, err := encodeMetadata(item.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO vault_items (` + selectColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		item.ID, item.OriginalID, string(item.Kind),
		nullable(item.FilePath), nullable(item.ThumbnailPath),
		mdJSON, string(item.MatchSource), string(item.Source),
		item.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert vault item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetPaths(ctx context.Context, id, filePath, thumbnailPath string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE vault_items SET file_path = ?, thumbnail_path = ? WHERE id = ?`,
		nullable(filePath), nullable(thumbnailPath), id)
	if err != nil {
		return fmt.Errorf("failed to update vault item paths: %w", err)
	}
	return expectOne(result)
}

func (r *SQLiteRepository) SetMetadata(ctx context.Context, id string, md map[string]any) error {
	mdJSON, err := encodeMetadata(md)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `UPDATE vault_items SET metadata = ? WHERE id = ?`, mdJSON, id)
	if err != nil {
		return fmt.Errorf("failed to update vault item metadata: %w", err)
	}
	return expectOne(result)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.VaultItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM vault_items WHERE id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vault item %s: %w", id, err)
	}
	return item, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.VaultItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM vault_items ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vault items: %w", err)
	}
	defer rows.Close()

	var result []*models.VaultItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vault item: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vault items: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vault_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vault item: %w", err)
	}
	return expectOne(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.VaultItem, error) {
	var (
		item                models.VaultItem
		kind, match, source string
		filePath, thumbPath sql.NullString
		mdJSON              string
		createdAt           int64
	)
	if err := s.Scan(&item.ID, &item.OriginalID, &kind, &filePath, &thumbPath, &mdJSON, &match, &source, &createdAt); err != nil {
		return nil, err
	}

	item.Kind = models.VaultKind(kind)
	item.MatchSource = models.MatchSource(match)
	item.Source = models.VaultSource(source)
	item.FilePath = filePath.String
	item.ThumbnailPath = thumbPath.String
	item.CreatedAt = time.Unix(0, createdAt).UTC()

	if err := json.Unmarshal([]byte(mdJSON), &item.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &item, nil
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
