// Package vaultitems is the persistence layer for the vault index: one row per
// VaultItem, keyed by vault id.
//
// Typical usage:
//
//	repo := vaultitems.NewSQLiteRepository(db)
//	_ = repo.Insert(ctx, item)
//	_ = repo.SetPaths(ctx, item.ID, filePath, thumbPath)
//	items, _ := repo.List(ctx)
//
// Missing rows are reported as common.ErrNotFound.
package vaultitems
