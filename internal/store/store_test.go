package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"metadata", "vault_items", "cooling_off"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestOpen_FileIsReopenable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "vault.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('k', x'01')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var v []byte
	require.NoError(t, db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key='k'`).Scan(&v))
	assert.Equal(t, []byte{0x01}, v)
}

func TestOnePendingCoolingOffPerVaultItem(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `INSERT INTO cooling_off(id, vault_item_id, delete_after, status) VALUES ('c1', 'v1', 1, 'pending')`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO cooling_off(id, vault_item_id, delete_after, status) VALUES ('c2', 'v1', 1, 'pending')`)
	require.Error(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO cooling_off(id, vault_item_id, delete_after, status) VALUES ('c3', 'v1', 1, 'restored')`)
	require.NoError(t, err)
}
