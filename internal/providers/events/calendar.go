package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/filex"
	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/dmitrijs2005/exeraser/internal/providers/media"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type calendarFile struct {
	Events []Event `yaml:"events"`
}

// Calendar is a Provider backed by a YAML file. The file is read on every
// call and rewritten atomically on changes.
type Calendar struct {
	mu   sync.Mutex
	path string
}

func NewCalendar(path string) *Calendar {
	return &Calendar{path: path}
}

func (c *Calendar) load() (*calendarFile, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrProviderUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}

	var f calendarFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	return &f, nil
}

func (c *Calendar) save(f *calendarFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return filex.WriteFileAtomic(c.path, data, 0o600)
}

func (c *Calendar) SearchEvents(ctx context.Context, name, phone string, from, to time.Time) ([]Event, error) {
	c.mu.Lock()
	f, err := c.load()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	window := models.DateRange{Start: from, End: to}
	var result []Event
	for _, e := range f.Events {
		if window.Contains(e.StartDate) && Matches(e, name, phone) {
			result = append(result, e)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartDate.After(result[j].StartDate)
	})
	return result, nil
}

func (c *Calendar) Delete(ctx context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := c.load()
	if err != nil {
		return err
	}

	for i, e := range f.Events {
		if e.EventID == eventID {
			f.Events = append(f.Events[:i], f.Events[i+1:]...)
			return c.save(f)
		}
	}
	return common.ErrNotFound
}

func (c *Calendar) ExportJSON(ctx context.Context, eventID string) (string, error) {
	c.mu.Lock()
	f, err := c.load()
	c.mu.Unlock()
	if err != nil {
		return "", err
	}

	for _, e := range f.Events {
		if e.EventID == eventID {
			data, err := json.Marshal(e)
			if err != nil {
				return "", fmt.Errorf("encode event: %w", err)
			}
			return string(data), nil
		}
	}
	return "", common.ErrNotFound
}

func (c *Calendar) RestoreJSON(ctx context.Context, data string) (string, error) {
	var e Event
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return "", fmt.Errorf("decode event: %w", err)
	}
	e.EventID = uuid.NewString()

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := c.load()
	if err != nil {
		return "", err
	}
	f.Events = append(f.Events, e)
	if err := c.save(f); err != nil {
		return "", err
	}
	return e.EventID, nil
}

// RequestAccess creates an empty calendar file when none exists.
func (c *Calendar) RequestAccess(ctx context.Context) (bool, error) {
	status, err := c.AuthorizationStatus(ctx)
	if err != nil {
		return false, err
	}
	if status != media.AuthNotDetermined {
		return status.Readable(), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return false, nil
	}
	if err := c.save(&calendarFile{Events: []Event{}}); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Calendar) AuthorizationStatus(ctx context.Context) (media.AuthStatus, error) {
	f, err := os.Open(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return media.AuthNotDetermined, nil
	case errors.Is(err, fs.ErrPermission):
		return media.AuthDenied, nil
	case err != nil:
		return "", fmt.Errorf("check calendar access: %w", err)
	}
	_ = f.Close()
	return media.AuthAuthorized, nil
}
