// Package vault moves triaged media into encrypted storage and out of it
// again: restore to the originating provider, or permanent deletion once the
// cooling-off period has passed.
package vault

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/cryptox"
	"github.com/dmitrijs2005/exeraser/internal/dbx"
	"github.com/dmitrijs2005/exeraser/internal/repositories/metadata"
)

const (
	metaSalt       = "vault_salt"
	metaVerifier   = "vault_verifier"
	metaWrappedKey = "vault_key"

	saltSize = 32
)

// KeySource hands out the vault data key.
type KeySource interface {
	Key() ([]byte, error)
}

// Keyring owns the vault data key. The key is random, created once and
// persisted only wrapped under a key derived from the unlock passphrase.
type Keyring struct {
	db *sql.DB

	mu  sync.RWMutex
	key []byte
}

func NewKeyring(db *sql.DB) *Keyring {
	return &Keyring{db: db}
}

func (k *Keyring) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

// Initialized reports whether a passphrase has been set.
func (k *Keyring) Initialized(ctx context.Context) (bool, error) {
	salt, err := k.repo(k.db).Get(ctx, metaSalt)
	if err != nil {
		return false, err
	}
	return salt != nil, nil
}

// Init sets the unlock passphrase and leaves the keyring unlocked. It fails
// with common.ErrAlreadyInitialized when a passphrase exists.
func (k *Keyring) Init(ctx context.Context, passphrase []byte) error {
	salt := common.GenerateRandByteArray(saltSize)
	kek := cryptox.DeriveMasterKey(passphrase, salt)
	defer common.WipeByteArray(kek)

	err := dbx.WithTx(ctx, k.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := k.repo(tx)

		stored, err := repo.SetIfAbsent(ctx, metaSalt, salt)
		if err != nil {
			return err
		}
		if !stored {
			return common.ErrAlreadyInitialized
		}
		return repo.Set(ctx, metaVerifier, cryptox.MakeVerifier(kek))
	})
	if err != nil {
		return err
	}

	return k.unlockWith(ctx, kek)
}

// Unlock verifies the passphrase and loads the data key into memory.
func (k *Keyring) Unlock(ctx context.Context, passphrase []byte) error {
	repo := k.repo(k.db)

	salt, err := repo.Get(ctx, metaSalt)
	if err != nil {
		return err
	}
	verifier, err := repo.Get(ctx, metaVerifier)
	if err != nil {
		return err
	}
	if salt == nil || verifier == nil {
		return fmt.Errorf("%w: vault passphrase not set", common.ErrEncryptionUnavailable)
	}

	kek := cryptox.DeriveMasterKey(passphrase, salt)
	defer common.WipeByteArray(kek)

	if subtle.ConstantTimeCompare(verifier, cryptox.MakeVerifier(kek)) == 0 {
		return common.ErrWrongPassphrase
	}

	return k.unlockWith(ctx, kek)
}

// unlockWith unwraps the stored data key, creating it on first use. A key
// that exists is never replaced.
func (k *Keyring) unlockWith(ctx context.Context, kek []byte) error {
	repo := k.repo(k.db)

	wrapped, err := repo.Get(ctx, metaWrappedKey)
	if err != nil {
		return err
	}

	if wrapped == nil {
		fresh, err := cryptox.NewKey()
		if err != nil {
			return fmt.Errorf("generate vault key: %w", err)
		}
		sealed, err := cryptox.Seal(fresh, kek)
		common.WipeByteArray(fresh)
		if err != nil {
			return fmt.Errorf("wrap vault key: %w", err)
		}
		if _, err := repo.SetIfAbsent(ctx, metaWrappedKey, sealed); err != nil {
			return err
		}
		// reread in case another process stored its key first
		if wrapped, err = repo.Get(ctx, metaWrappedKey); err != nil {
			return err
		}
	}

	key, err := cryptox.Open(wrapped, kek)
	if err != nil {
		return fmt.Errorf("%w: unwrap vault key: %w", common.ErrEncryptionUnavailable, err)
	}

	k.mu.Lock()
	common.WipeByteArray(k.key)
	k.key = key
	k.mu.Unlock()
	return nil
}

// Lock wipes the data key from memory.
func (k *Keyring) Lock() {
	k.mu.Lock()
	defer k.mu.Unlock()
	common.WipeByteArray(k.key)
	k.key = nil
}

// Key returns a copy of the data key, or common.ErrEncryptionUnavailable
// while locked.
func (k *Keyring) Key() ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.key == nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryptionUnavailable, common.ErrVaultLocked)
	}
	return append([]byte(nil), k.key...), nil
}
