package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/google/uuid"
)

const (
	// Assets under these top-level directories carry the matching flags.
	cloudDir     = "icloud"
	favoritesDir = "favorites"

	// RestoredDir receives assets handed back from the vault.
	RestoredDir = "restored"
)

var kindByExt = map[string]models.MediaKind{
	".jpg":  models.MediaPhoto,
	".jpeg": models.MediaPhoto,
	".png":  models.MediaPhoto,
	".gif":  models.MediaPhoto,
	".heic": models.MediaPhoto,
	".mp4":  models.MediaVideo,
	".mov":  models.MediaVideo,
	".m4v":  models.MediaVideo,
}

// Library is a Provider backed by a directory. Asset ids are slash separated
// paths relative to the root; creation dates come from file modification times.
type Library struct {
	root string
	now  func() time.Time
}

func NewLibrary(root string) *Library {
	return &Library{root: root, now: time.Now}
}

func (l *Library) resolve(id string) (string, error) {
	clean := path.Clean(id)
	if id == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: invalid asset id %q", common.ErrNotFound, id)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func (l *Library) ListAll(ctx context.Context) ([]Asset, error) {
	var assets []Asset

	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != l.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		kind, ok := kindByExt[strings.ToLower(filepath.Ext(p))]
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(rel)
		top, _, _ := strings.Cut(id, "/")
		uri := (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()

		assets = append(assets, Asset{
			ID:           id,
			URI:          uri,
			ThumbnailURI: uri,
			Kind:         kind,
			CreationDate: info.ModTime().UTC(),
			IsFavorite:   top == favoritesDir,
			IsCloudAsset: top == cloudDir,
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrProviderUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("walk library: %w", err)
	}

	// newest first, id breaks ties so the order is reproducible
	sort.SliceStable(assets, func(i, j int) bool {
		if !assets[i].CreationDate.Equal(assets[j].CreationDate) {
			return assets[i].CreationDate.After(assets[j].CreationDate)
		}
		return assets[i].ID < assets[j].ID
	})

	return assets, nil
}

func (l *Library) FetchByDateRange(ctx context.Context, start, end time.Time) ([]Asset, error) {
	all, err := l.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	r := models.DateRange{Start: start, End: end}
	result := make([]Asset, 0, len(all))
	for _, a := range all {
		if r.Contains(a.CreationDate) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (l *Library) Open(ctx context.Context, id string) ([]byte, error) {
	p, err := l.resolve(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", id, err)
	}
	return data, nil
}

func (l *Library) ExportToSandbox(ctx context.Context, id, dir string) (string, error) {
	src, err := l.resolve(id)
	if err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("open asset %s: %w", id, err)
	}
	defer in.Close()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create sandbox: %w", err)
	}

	dst := filepath.Join(dir, uuid.NewString()+filepath.Ext(src))
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy asset %s: %w", id, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close export file: %w", err)
	}

	return dst, nil
}

func (l *Library) Delete(ctx context.Context, id string) error {
	p, err := l.resolve(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.ErrNotFound
		}
		return fmt.Errorf("delete asset %s: %w", id, err)
	}
	return nil
}

func (l *Library) Restore(ctx context.Context, src string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read restore source: %w", err)
	}

	dir := filepath.Join(l.root, RestoredDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create restore dir: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(src))
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", fmt.Errorf("write restored asset: %w", err)
	}

	now := l.now()
	_ = os.Chtimes(dst, now, now)

	return RestoredDir + "/" + name, nil
}

func (l *Library) TotalCount(ctx context.Context) (int, error) {
	all, err := l.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (l *Library) AuthorizationStatus(ctx context.Context) (AuthStatus, error) {
	f, err := os.Open(l.root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return AuthNotDetermined, nil
	case errors.Is(err, fs.ErrPermission):
		return AuthDenied, nil
	case err != nil:
		return "", fmt.Errorf("check library access: %w", err)
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(err, fs.ErrPermission) {
			return AuthDenied, nil
		}
		return "", fmt.Errorf("check library access: %w", err)
	}
	return AuthAuthorized, nil
}

// RequestAuthorization creates a missing library root. An existing but
// unreadable root stays denied.
func (l *Library) RequestAuthorization(ctx context.Context) (AuthStatus, error) {
	status, err := l.AuthorizationStatus(ctx)
	if err != nil || status != AuthNotDetermined {
		return status, err
	}
	if err := os.MkdirAll(l.root, 0o700); err != nil {
		return AuthDenied, nil
	}
	return l.AuthorizationStatus(ctx)
}
