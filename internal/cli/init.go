package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/spf13/cobra"
)

const minPassphraseLen = 8

var errPassphraseMismatch = errors.New("passphrases do not match")

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the vault and set its passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, runInit)
		},
	}
}

func runInit(ctx context.Context, a *App) error {
	ok, err := a.keys.Initialized(ctx)
	if err != nil {
		return err
	}
	if ok {
		return common.ErrAlreadyInitialized
	}

	pass, err := getPassword("New vault passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)
	if len(pass) < minPassphraseLen {
		return fmt.Errorf("passphrase must be at least %d characters", minPassphraseLen)
	}

	confirm, err := getPassword("Repeat passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)
	if !bytes.Equal(pass, confirm) {
		return errPassphraseMismatch
	}

	if err := a.keys.Init(ctx, pass); err != nil {
		return err
	}

	mediaStatus, err := a.media.RequestAuthorization(ctx)
	if err != nil {
		return err
	}
	calendarOK, err := a.events.RequestAccess(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Vault initialized.")
	fmt.Fprintf(a.out, "Library %s: %s\n", a.cfg.LibraryDir, mediaStatus)
	if calendarOK {
		fmt.Fprintf(a.out, "Calendar %s: authorized\n", a.cfg.CalendarPath)
	} else {
		fmt.Fprintf(a.out, "Calendar %s: denied\n", a.cfg.CalendarPath)
	}
	return nil
}
