package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Face matching.
	ErrNoFaceFound      = errors.New("no face found")
	ErrDecodeFailure    = errors.New("image decode failure")
	ErrNoReferenceFaces = errors.New("no usable reference faces")

	// Provider access.
	ErrProviderUnauthorized = errors.New("provider unauthorized")

	// Vault.
	ErrEncryptionUnavailable = errors.New("encryption unavailable")
	ErrVaultLocked           = errors.New("vault locked")
	ErrWrongPassphrase       = errors.New("wrong passphrase")
	ErrAlreadyInitialized    = errors.New("vault already initialized")

	// Scan lifecycle.
	ErrScanAborted       = errors.New("scan aborted")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidProfile    = errors.New("invalid profile")

	// Cooling-off.
	ErrSweepInProgress = errors.New("sweep already in progress")
)
