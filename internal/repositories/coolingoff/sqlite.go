package coolingoff

import (
	"context"
	"database/sql"
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

const selectColumns = `id, vault_item_id, delete_after, reminded, status`

func (r *SQLiteRepository) Insert(ctx context.Context, item *models.CoolingOffItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cooling_off (`+selectColumns+`) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.VaultItemID, item.DeleteAfter.UTC().UnixNano(), item.Reminded, string(item.Status))
	if err != nil {
		return fmt.Errorf("failed to insert cooling-off item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.CoolingOffItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM cooling_off WHERE id = ?`, id)
	return r.one(row, id)
}

func (r *SQLiteRepository) GetPendingByVaultItem(ctx context.Context, vaultItemID string) (*models.CoolingOffItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM cooling_off WHERE vault_item_id = ? AND status = 'pending'`, vaultItemID)
	return r.one(row, vaultItemID)
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.CoolingOffItem, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM cooling_off WHERE status = 'pending' ORDER BY delete_after, id`)
}

func (r *SQLiteRepository) DueBefore(ctx context.Context, t time.Time) ([]*models.CoolingOffItem, error) {
	return r.query(ctx,
		`SELECT `+selectColumns+` FROM cooling_off WHERE status = 'pending' AND delete_after <= ? ORDER BY delete_after, id`,
		t.UTC().UnixNano())
}

func (r *SQLiteRepository) MarkReminded(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cooling_off SET reminded = 1 WHERE id = ? AND status = 'pending' AND reminded = 0`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminded: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) Resolve(ctx context.Context, id string, status models.CoolingOffStatus) error {
	if !models.CoolingOffPending.CanTransition(status) {
		return fmt.Errorf("%w: pending -> %s", common.ErrInvalidTransition, status)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE cooling_off SET status = ? WHERE id = ? AND status = 'pending'`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to resolve cooling-off item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	// distinguish a missing row from one that is already terminal
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s is not pending", common.ErrInvalidTransition, id)
}

func (r *SQLiteRepository) one(row *sql.Row, key string) (*models.CoolingOffItem, error) {
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cooling-off item %s: %w", key, err)
	}
	return item, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*models.CoolingOffItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cooling-off items: %w", err)
	}
	defer rows.Close()

	var result []*models.CoolingOffItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cooling-off item: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cooling-off items: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*models.CoolingOffItem, error) {
	var (
		item        models.CoolingOffItem
		deleteAfter int64
		status      string
	)
	if err := s.Scan(&item.ID, &item.VaultItemID, &deleteAfter, &item.Reminded, &status); err != nil {
		return nil, err
	}
	item.DeleteAfter = time.Unix(0, deleteAfter).UTC()
	item.Status = models.CoolingOffStatus(status)
	return &item, nil
}
