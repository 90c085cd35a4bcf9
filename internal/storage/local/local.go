// Package local persists the per-profile documents as JSON files in a data
// directory. It is the storage tier used while no account is configured.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"focustimer/internal/model"
)

const (
	sessionsFile = "sessions.json"
	settingsFile = "settings.json"
)

type Backend struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) GetSessions(ctx context.Context) ([]model.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, err := os.ReadFile(filepath.Join(b.dir, sessionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions file: %w", err)
	}
	var sessions []model.Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions file: %w", err)
	}
	return sessions, nil
}

func (b *Backend) SaveSessions(ctx context.Context, sessions []model.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sessions == nil {
		sessions = []model.Session{}
	}
	return b.writeJSON(sessionsFile, sessions)
}

func (b *Backend) GetSettings(ctx context.Context) (model.Settings, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, err := os.ReadFile(filepath.Join(b.dir, settingsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return model.DefaultSettings(), false, nil
	}
	if err != nil {
		return model.DefaultSettings(), false, fmt.Errorf("read settings file: %w", err)
	}
	settings := model.DefaultSettings()
	if err := json.Unmarshal(raw, &settings); err != nil {
		return model.DefaultSettings(), false, fmt.Errorf("decode settings file: %w", err)
	}
	return settings, true, nil
}

func (b *Backend) SaveSettings(ctx context.Context, settings model.Settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeJSON(settingsFile, settings)
}

func (b *Backend) ClearAll(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range []string{sessionsFile, settingsFile} {
		if err := os.Remove(filepath.Join(b.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// writeJSON writes through a temp file and rename so a crash mid-write
// never leaves a truncated document behind.
func (b *Backend) writeJSON(name string, value any) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(b.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
