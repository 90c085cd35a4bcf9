// Package memory is an in-process backend used by the anonymous profile
// before any data directory is configured, and by tests as the shared
// "remote" document.
package memory

import (
	"context"
	"sync"

	"focustimer/internal/model"
)

type Backend struct {
	mu          sync.Mutex
	sessions    []model.Session
	settings    model.Settings
	hasSettings bool
	listeners   map[int]func()
	nextID      int
}

func New() *Backend {
	return &Backend{listeners: make(map[int]func())}
}

func (b *Backend) GetSessions(ctx context.Context) ([]model.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Session(nil), b.sessions...), nil
}

func (b *Backend) SaveSessions(ctx context.Context, sessions []model.Session) error {
	b.mu.Lock()
	b.sessions = append([]model.Session(nil), sessions...)
	listeners := b.snapshotListeners()
	b.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
	return nil
}

func (b *Backend) GetSettings(ctx context.Context) (model.Settings, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasSettings {
		return model.DefaultSettings(), false, nil
	}
	return b.settings, true, nil
}

func (b *Backend) SaveSettings(ctx context.Context, settings model.Settings) error {
	b.mu.Lock()
	b.settings = settings
	b.hasSettings = true
	listeners := b.snapshotListeners()
	b.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
	return nil
}

func (b *Backend) ClearAll(ctx context.Context) error {
	b.mu.Lock()
	b.sessions = nil
	b.settings = model.Settings{}
	b.hasSettings = false
	b.mu.Unlock()
	return nil
}

// Watch registers a change listener, satisfying the optional push contract.
func (b *Backend) Watch(listener func()) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}, nil
}

func (b *Backend) snapshotListeners() []func() {
	out := make([]func(), 0, len(b.listeners))
	for _, fn := range b.listeners {
		out = append(out, fn)
	}
	return out
}
