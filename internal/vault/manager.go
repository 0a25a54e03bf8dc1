package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/blobstore"
	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/cryptox"
	"github.com/dmitrijs2005/exeraser/internal/dbx"
	"github.com/dmitrijs2005/exeraser/internal/filex"
	"github.com/dmitrijs2005/exeraser/internal/logging"
	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/dmitrijs2005/exeraser/internal/providers/events"
	"github.com/dmitrijs2005/exeraser/internal/providers/media"
	"github.com/dmitrijs2005/exeraser/internal/repositories/coolingoff"
	"github.com/dmitrijs2005/exeraser/internal/repositories/vaultitems"
	"github.com/google/uuid"
)

// Metadata keys written on vault items.
const (
	MetaDate         = "date"
	MetaConfidence   = "confidence"
	MetaThumbnailURI = "thumbnail_uri"
	MetaExtension    = "ext"
)

type Options struct {
	// SandboxDir holds plaintext exports while they are being encrypted or
	// restored. Files there are removed as soon as they are used.
	SandboxDir     string
	CoolingOffDays int
}

// Manager owns the vault index and the encrypted blobs. Writes to the index
// are serialized; reads run concurrently.
type Manager struct {
	db     *sql.DB
	blobs  blobstore.Store
	keys   KeySource
	media  media.Provider
	events events.Provider
	opts   Options
	log    logging.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewManager(db *sql.DB, blobs blobstore.Store, keys KeySource, mp media.Provider, ep events.Provider, opts Options, log logging.Logger) *Manager {
	if opts.CoolingOffDays <= 0 {
		opts.CoolingOffDays = common.CoolingOffDays
	}
	return &Manager{
		db:     db,
		blobs:  blobs,
		keys:   keys,
		media:  mp,
		events: ep,
		opts:   opts,
		log:    log.With("component", "vault"),
		now:    time.Now,
	}
}

func (m *Manager) items(db dbx.DBTX) vaultitems.Repository {
	return vaultitems.NewSQLiteRepository(db)
}

func (m *Manager) coolingOff(db dbx.DBTX) coolingoff.Repository {
	return coolingoff.NewSQLiteRepository(db)
}

// sourceFor tells where a candidate's data lives.
func sourceFor(c models.MatchCandidate) models.VaultSource {
	switch {
	case c.Kind == models.MediaCalendarEvent:
		return models.OriginCalendar
	case c.IsCloudAsset:
		return models.OriginICloud
	default:
		return models.OriginCameraRoll
	}
}

// MoveToVault records a candidate in the vault index. The payload is not
// copied yet: FilePath and ThumbnailPath stay empty until Materialize.
func (m *Manager) MoveToVault(ctx context.Context, c models.MatchCandidate) (*models.VaultItem, error) {
	if _, err := m.keys.Key(); err != nil {
		return nil, err
	}

	item := &models.VaultItem{
		ID:         uuid.NewString(),
		OriginalID: c.AssetID,
		Kind:       models.VaultKindFor(c.Kind),
		Metadata: map[string]any{
			MetaDate:       c.Timestamp.UTC().Format(time.RFC3339),
			MetaConfidence: c.Confidence,
		},
		MatchSource: c.Source,
		CreatedAt:   m.now().UTC(),
		Source:      sourceFor(c),
	}
	if c.ThumbnailURI != "" {
		item.Metadata[MetaThumbnailURI] = c.ThumbnailURI
	}

	m.mu.Lock()
	err := m.items(m.db).Insert(ctx, item)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.log.Info(ctx, "vault item created", "id", item.ID, "kind", item.Kind, "source", item.Source)
	return item, nil
}

// Materialize exports, encrypts and stores the item's payload and thumbnail,
// then removes the original from its provider. Calling it again on a
// materialized item only retries the removal.
func (m *Manager) Materialize(ctx context.Context, id string) (*models.VaultItem, error) {
	key, err := m.keys.Key()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	item, err := m.items(m.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !item.Materialized() {
		if err := m.store(ctx, item, key); err != nil {
			return nil, err
		}
	}

	if err := m.removeOriginal(ctx, item); err != nil {
		return item, err
	}
	return item, nil
}

func (m *Manager) store(ctx context.Context, item *models.VaultItem, key []byte) error {
	payload, ext, err := m.export(ctx, item)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(payload)

	sealed, err := cryptox.Seal(payload, key)
	if err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}
	filePath := blobstore.NewKey(item.ID, "bin")
	if err := m.blobs.Put(ctx, filePath, sealed); err != nil {
		return fmt.Errorf("store payload: %w", err)
	}

	var thumbPath string
	if item.Kind == models.VaultPhoto {
		if thumb, ok := makeThumbnail(payload); ok {
			sealedThumb, err := cryptox.Seal(thumb, key)
			if err != nil {
				_ = m.blobs.Delete(ctx, filePath)
				return fmt.Errorf("encrypt thumbnail: %w", err)
			}
			thumbPath = blobstore.NewKey(item.ID, "thumb")
			if err := m.blobs.Put(ctx, thumbPath, sealedThumb); err != nil {
				_ = m.blobs.Delete(ctx, filePath)
				return fmt.Errorf("store thumbnail: %w", err)
			}
		}
	}

	m.mu.Lock()
	err = dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if ext != "" {
			item.Metadata[MetaExtension] = ext
			if err := m.items(tx).SetMetadata(ctx, item.ID, item.Metadata); err != nil {
				return err
			}
		}
		return m.items(tx).SetPaths(ctx, item.ID, filePath, thumbPath)
	})
	m.mu.Unlock()
	if err != nil {
		_ = m.blobs.Delete(ctx, filePath)
		_ = m.blobs.Delete(ctx, thumbPath)
		return err
	}

	item.FilePath, item.ThumbnailPath = filePath, thumbPath
	m.log.Info(ctx, "vault item materialized", "id", item.ID, "thumbnail", thumbPath != "")
	return nil
}

// export returns the plaintext payload and, for media, the file extension.
func (m *Manager) export(ctx context.Context, item *models.VaultItem) ([]byte, string, error) {
	if item.Kind == models.VaultCalendar {
		data, err := m.events.ExportJSON(ctx, item.OriginalID)
		if err != nil {
			return nil, "", fmt.Errorf("export event %s: %w", item.OriginalID, err)
		}
		return []byte(data), "", nil
	}

	path, err := m.media.ExportToSandbox(ctx, item.OriginalID, m.opts.SandboxDir)
	if err != nil {
		return nil, "", fmt.Errorf("export asset %s: %w", item.OriginalID, err)
	}
	defer func() {
		if err := filex.RemoveIfExists(path); err != nil {
			m.log.Warn(ctx, "sandbox cleanup failed", "error", err)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}
	return data, filepath.Ext(path), nil
}

func (m *Manager) removeOriginal(ctx context.Context, item *models.VaultItem) error {
	var err error
	if item.Kind == models.VaultCalendar {
		err = m.events.Delete(ctx, item.OriginalID)
	} else {
		err = m.media.Delete(ctx, item.OriginalID)
	}
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("remove original %s: %w", item.OriginalID, err)
	}
	return nil
}

// MarkForDeletion schedules the item for permanent deletion after the
// cooling-off period. An item already pending keeps its original deadline.
func (m *Manager) MarkForDeletion(ctx context.Context, id string) (*models.CoolingOffItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.items(m.db).GetByID(ctx, id); err != nil {
		return nil, err
	}

	existing, err := m.coolingOff(m.db).GetPendingByVaultItem(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	co := &models.CoolingOffItem{
		ID:          uuid.NewString(),
		VaultItemID: id,
		DeleteAfter: m.now().UTC().Add(time.Duration(m.opts.CoolingOffDays) * common.Day),
		Status:      models.CoolingOffPending,
	}
	if err := m.coolingOff(m.db).Insert(ctx, co); err != nil {
		return nil, err
	}

	m.log.Info(ctx, "vault item marked for deletion", "id", id, "delete_after", co.DeleteAfter)
	return co, nil
}

// CancelDeletion withdraws a pending deletion without touching the item.
func (m *Manager) CancelDeletion(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	co, err := m.coolingOff(m.db).GetPendingByVaultItem(ctx, id)
	if err != nil {
		return err
	}
	if err := m.coolingOff(m.db).Resolve(ctx, co.ID, models.CoolingOffRestored); err != nil {
		return err
	}

	m.log.Info(ctx, "deletion cancelled", "id", id)
	return nil
}

// RestoreFromVault decrypts the item, hands it back to the provider it came
// from and removes it from the vault. A pending deletion becomes restored.
func (m *Manager) RestoreFromVault(ctx context.Context, id string) (string, error) {
	key, err := m.keys.Key()
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)

	item, err := m.items(m.db).GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	newID := item.OriginalID
	if item.Materialized() {
		if newID, err = m.giveBack(ctx, item, key); err != nil {
			return "", err
		}
	}

	if err := m.drop(ctx, item, models.CoolingOffRestored); err != nil {
		return "", err
	}

	m.log.Info(ctx, "vault item restored", "id", id, "kind", item.Kind)
	return newID, nil
}

func (m *Manager) giveBack(ctx context.Context, item *models.VaultItem, key []byte) (string, error) {
	sealed, err := m.blobs.Get(ctx, item.FilePath)
	if err != nil {
		return "", fmt.Errorf("load payload: %w", err)
	}
	payload, err := cryptox.Open(sealed, key)
	if err != nil {
		return "", fmt.Errorf("%w: decrypt payload: %w", common.ErrEncryptionUnavailable, err)
	}
	defer common.WipeByteArray(payload)

	if item.Kind == models.VaultCalendar {
		newID, err := m.events.RestoreJSON(ctx, string(payload))
		if err != nil {
			return "", fmt.Errorf("restore event: %w", err)
		}
		return newID, nil
	}

	ext, _ := item.Metadata[MetaExtension].(string)
	dir, err := filex.EnsureSubDir(m.opts.SandboxDir, "restore")
	if err != nil {
		return "", err
	}
	tmp := filepath.Join(dir, uuid.NewString()+ext)
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return "", fmt.Errorf("write restore file: %w", err)
	}
	defer func() { _ = filex.RemoveIfExists(tmp) }()

	newID, err := m.media.Restore(ctx, tmp)
	if err != nil {
		return "", fmt.Errorf("restore asset: %w", err)
	}
	return newID, nil
}

// PermanentlyDelete removes the item's blobs and record and marks a pending
// deletion as done. Missing blobs or records are not an error.
func (m *Manager) PermanentlyDelete(ctx context.Context, id string) error {
	item, err := m.items(m.db).GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		item = &models.VaultItem{ID: id}
	} else if err != nil {
		return err
	}

	if err := m.drop(ctx, item, models.CoolingOffDeleted); err != nil {
		return err
	}

	m.log.Info(ctx, "vault item permanently deleted", "id", id)
	return nil
}

// drop deletes the record, resolves any pending deletion to outcome and then
// removes the blobs.
func (m *Manager) drop(ctx context.Context, item *models.VaultItem, outcome models.CoolingOffStatus) error {
	m.mu.Lock()
	err := dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		co, err := m.coolingOff(tx).GetPendingByVaultItem(ctx, item.ID)
		switch {
		case err == nil:
			if err := m.coolingOff(tx).Resolve(ctx, co.ID, outcome); err != nil {
				return err
			}
		case !errors.Is(err, common.ErrNotFound):
			return err
		}

		if err := m.items(tx).Delete(ctx, item.ID); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		return nil
	})
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.removeBlobs(ctx, item)
	return nil
}

// DeleteExpired ends the cooling-off period coolingOffID by deleting its vault
// item. Nothing is deleted unless the period is still pending and over at
// now; the result reports whether the item was deleted.
func (m *Manager) DeleteExpired(ctx context.Context, coolingOffID string, now time.Time) (bool, error) {
	var item *models.VaultItem

	m.mu.Lock()
	err := dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		co, err := m.coolingOff(tx).GetByID(ctx, coolingOffID)
		if err != nil {
			return err
		}
		if co.Status != models.CoolingOffPending || !co.Expired(now) {
			return nil
		}

		if err := m.coolingOff(tx).Resolve(ctx, co.ID, models.CoolingOffDeleted); err != nil {
			if errors.Is(err, common.ErrInvalidTransition) {
				return nil
			}
			return err
		}

		found, err := m.items(tx).GetByID(ctx, co.VaultItemID)
		switch {
		case errors.Is(err, common.ErrNotFound):
			item = &models.VaultItem{ID: co.VaultItemID}
			return nil
		case err != nil:
			return err
		}
		if err := m.items(tx).Delete(ctx, found.ID); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		item = found
		return nil
	})
	m.mu.Unlock()
	if err != nil {
		return false, err
	}

	if item == nil {
		m.log.Debug(ctx, "cooling-off no longer due, skipped", "cooling_off_id", coolingOffID)
		return false, nil
	}

	m.removeBlobs(ctx, item)
	m.log.Info(ctx, "vault item permanently deleted", "id", item.ID, "cooling_off_id", coolingOffID)
	return true, nil
}

func (m *Manager) removeBlobs(ctx context.Context, item *models.VaultItem) {
	for _, key := range []string{item.FilePath, item.ThumbnailPath} {
		if err := m.blobs.Delete(ctx, key); err != nil {
			m.log.Warn(ctx, "blob cleanup failed", "id", item.ID, "error", err)
		}
	}
}

func (m *Manager) Get(ctx context.Context, id string) (*models.VaultItem, error) {
	return m.items(m.db).GetByID(ctx, id)
}

func (m *Manager) List(ctx context.Context) ([]*models.VaultItem, error) {
	return m.items(m.db).List(ctx)
}

// Thumbnail returns the decrypted thumbnail, or common.ErrNotFound for items
// without one.
func (m *Manager) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	key, err := m.keys.Key()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	item, err := m.items(m.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.ThumbnailPath == "" {
		return nil, common.ErrNotFound
	}

	sealed, err := m.blobs.Get(ctx, item.ThumbnailPath)
	if err != nil {
		return nil, err
	}
	return cryptox.Open(sealed, key)
}

// PendingDeletions lists pending deletions, soonest first.
func (m *Manager) PendingDeletions(ctx context.Context) ([]*models.CoolingOffItem, error) {
	return m.coolingOff(m.db).ListPending(ctx)
}

// DueDeletions lists pending deletions whose period is over at now.
func (m *Manager) DueDeletions(ctx context.Context, now time.Time) ([]*models.CoolingOffItem, error) {
	return m.coolingOff(m.db).DueBefore(ctx, now)
}

// MarkReminded records that the last-chance reminder went out. It reports
// false when it already had.
func (m *Manager) MarkReminded(ctx context.Context, coolingOffID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coolingOff(m.db).MarkReminded(ctx, coolingOffID)
}
