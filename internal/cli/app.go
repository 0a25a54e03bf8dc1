package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/exeraser/internal/blobstore"
	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/config"
	"github.com/dmitrijs2005/exeraser/internal/coolingoff"
	"github.com/dmitrijs2005/exeraser/internal/logging"
	"github.com/dmitrijs2005/exeraser/internal/providers/events"
	"github.com/dmitrijs2005/exeraser/internal/providers/media"
	"github.com/dmitrijs2005/exeraser/internal/store"
	"github.com/dmitrijs2005/exeraser/internal/vault"
	"github.com/spf13/cobra"
)

// getSimpleText, getPassword and getChoice are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getChoice     = GetChoice
)

// App holds the wired components for one command invocation.
type App struct {
	cfg    *config.Config
	log    logging.Logger
	db     *sql.DB
	keys   *vault.Keyring
	media  *media.Library
	events *events.Calendar
	vault  *vault.Manager

	in  *bufio.Reader
	out io.Writer

	closers []func() error
}

// openApp loads the configuration from cmd's flags and opens the store.
func openApp(ctx context.Context, cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		log:    log,
		media:  media.NewLibrary(cfg.LibraryDir),
		events: events.NewCalendar(cfg.CalendarPath),
		in:     bufio.NewReader(cmd.InOrStdin()),
		out:    cmd.OutOrStdout(),
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	a.db, err = store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.db.Close)

	blobs, err := a.blobStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.keys = vault.NewKeyring(a.db)
	a.vault = vault.NewManager(a.db, blobs, a.keys, a.media, a.events, vault.Options{
		SandboxDir:     cfg.SandboxDir,
		CoolingOffDays: cfg.CoolingOffDays,
	}, log)

	return a, nil
}

func (a *App) blobStore(ctx context.Context) (blobstore.Store, error) {
	if a.cfg.BlobBackend == config.BlobBackendS3 {
		return blobstore.NewS3(ctx, blobstore.S3Config{
			Bucket:    a.cfg.S3Bucket,
			Region:    a.cfg.S3Region,
			Endpoint:  a.cfg.S3Endpoint,
			AccessKey: a.cfg.S3AccessKey,
			SecretKey: a.cfg.S3SecretKey,
		})
	}
	return blobstore.NewLocal(a.cfg.BlobDir)
}

// Close releases everything openApp acquired, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}

// unlock asks for the passphrase and unlocks the vault key.
func (a *App) unlock(ctx context.Context) error {
	ok, err := a.keys.Initialized(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: run `exeraser init` first", common.ErrEncryptionUnavailable)
	}

	pass, err := getPassword("Vault passphrase", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	return a.keys.Unlock(ctx, pass)
}

func (a *App) notifier(ctx context.Context) (coolingoff.Notifier, error) {
	if a.cfg.RedisAddr == "" {
		return coolingoff.NewLogNotifier(a.log), nil
	}
	client, err := coolingoff.NewRedisClient(ctx, a.cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return coolingoff.NewRedisNotifier(client, a.cfg.RedisChannel), nil
}

func (a *App) scheduler(ctx context.Context) (*coolingoff.Scheduler, error) {
	n, err := a.notifier(ctx)
	if err != nil {
		return nil, err
	}
	return coolingoff.NewScheduler(a.vault, n, coolingoff.Options{
		CoolingOffDays: a.cfg.CoolingOffDays,
		ReminderDay:    a.cfg.ReminderDay,
	}, a.log), nil
}

// foreground runs the sweep that accompanies every interactive command.
// Failures are logged and never stop the command.
func (a *App) foreground(ctx context.Context) {
	s, err := a.scheduler(ctx)
	if err != nil {
		a.log.Warn(ctx, "reminder delivery unavailable", "error", err)
		s = coolingoff.NewScheduler(a.vault, coolingoff.NewLogNotifier(a.log), coolingoff.Options{
			CoolingOffDays: a.cfg.CoolingOffDays,
			ReminderDay:    a.cfg.ReminderDay,
		}, a.log)
	}
	if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, common.ErrSweepInProgress) {
		a.log.Warn(ctx, "cooling-off sweep failed", "error", err)
	}
}

// withApp opens the app for a command, optionally sweeps, runs fn and closes.
func withApp(cmd *cobra.Command, sweep bool, fn func(ctx context.Context, a *App) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if sweep {
		a.foreground(ctx)
	}
	return fn(ctx, a)
}
