package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"focustimer/internal/gate"
	"focustimer/internal/model"
)

// ErrLabelLimit is returned when a settings update would exceed the tier's
// label ceiling.
var ErrLabelLimit = errors.New("label limit reached for current tier")

// Patch is a set of top-level settings fields to overwrite. Merging is
// field-granular last-write-wins: fields absent from the patch keep the
// remote value, fields present always win.
type Patch map[string]json.RawMessage

// NewPatch marshals a field map into a Patch.
func NewPatch(fields map[string]any) (Patch, error) {
	patch := make(Patch, len(fields))
	for key, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal settings field %s: %w", key, err)
		}
		patch[key] = raw
	}
	return patch, nil
}

// SettingsStore keeps the single settings document synchronized with the
// same fetch-merge-save discipline as the session store. The document is
// always replaced wholesale after a merge.
type SettingsStore struct {
	backend Backend
	logger  *slog.Logger
	caps    func() gate.Capabilities

	mu        sync.Mutex
	settings  model.Settings
	observers []func(model.Settings)
	lastFetch time.Time

	ops       chan settingsOp
	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

type settingsOp struct {
	ctx   context.Context
	patch Patch
}

// NewSettingsStore wires a settings store; caps may be nil, disabling
// feature gating.
func NewSettingsStore(backend Backend, caps func() gate.Capabilities, logger *slog.Logger) *SettingsStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SettingsStore{
		backend:  backend,
		logger:   logger,
		caps:     caps,
		settings: model.DefaultSettings(),
		ops:      make(chan settingsOp, 64),
		done:     make(chan struct{}),
	}
	go s.reconcileLoop()
	return s
}

// Load replaces the in-memory document with the stored one. Malformed or
// unreadable data degrades to defaults.
func (s *SettingsStore) Load(ctx context.Context) {
	settings, _, err := s.backend.GetSettings(ctx)
	if err != nil {
		s.logger.Warn("settings load failed, using defaults", "error", err)
		settings = model.DefaultSettings()
	}
	s.replace(settings)
}

// Close drains pending reconciliations and stops the worker. Updates
// issued after Close are dropped.
func (s *SettingsStore) Close() {
	s.closeOnce.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		s.closeMu.Unlock()
		close(s.ops)
	})
	<-s.done
}

func (s *SettingsStore) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *SettingsStore) Subscribe(fn func(model.Settings)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Update applies a patch optimistically and queues reconciliation. The only
// error it can return is a feature-gate rejection; sync failures are
// recovered internally and never surface here.
func (s *SettingsStore) Update(ctx context.Context, patch Patch) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		s.logger.Warn("settings store closed, dropping update")
		return nil
	}

	if err := s.checkGate(patch); err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = mergeSettings(s.settings, patch)
	snapshot := s.settings
	observers := s.observers
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
	s.ops <- settingsOp{ctx: ctx, patch: patch}
	return nil
}

// Refresh refetches the authoritative document and replaces local state.
func (s *SettingsStore) Refresh(ctx context.Context) {
	settings, _, err := s.backend.GetSettings(ctx)
	if err != nil {
		s.logger.Warn("settings refresh failed", "error", err)
		return
	}
	s.replace(settings)
}

func (s *SettingsStore) RefreshIfStale(ctx context.Context) {
	s.mu.Lock()
	stale := time.Since(s.lastFetch) > staleAfter
	s.mu.Unlock()
	if stale {
		s.Refresh(ctx)
	}
}

func (s *SettingsStore) StartPolling(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()
}

func (s *SettingsStore) WatchRemote(ctx context.Context) func() {
	w, ok := s.backend.(Watcher)
	if !ok {
		return func() {}
	}
	unsubscribe, err := w.Watch(func() { s.Refresh(ctx) })
	if err != nil {
		s.logger.Warn("remote watch unavailable", "error", err)
		return func() {}
	}
	return unsubscribe
}

func (s *SettingsStore) checkGate(patch Patch) error {
	if s.caps == nil {
		return nil
	}
	raw, ok := patch["labels"]
	if !ok {
		return nil
	}
	var labels []model.Label
	if err := json.Unmarshal(raw, &labels); err != nil {
		return fmt.Errorf("decode labels patch: %w", err)
	}
	if max := s.caps().MaxLabels; max > 0 && len(labels) > max {
		return ErrLabelLimit
	}
	return nil
}

func (s *SettingsStore) reconcileLoop() {
	defer close(s.done)
	for op := range s.ops {
		s.reconcile(op)
	}
}

func (s *SettingsStore) reconcile(op settingsOp) {
	remote, _, err := s.backend.GetSettings(op.ctx)
	if err != nil {
		s.logger.Warn("settings fetch failed, persisting optimistic state", "error", err)
		s.mu.Lock()
		fallback := s.settings
		s.mu.Unlock()
		if saveErr := s.backend.SaveSettings(op.ctx, fallback); saveErr != nil {
			s.logger.Warn("settings save failed", "error", saveErr)
		}
		return
	}

	merged := mergeSettings(remote, op.patch)
	s.replace(merged)
	if err := s.backend.SaveSettings(op.ctx, merged); err != nil {
		s.logger.Warn("settings save failed", "error", err)
	}
}

func (s *SettingsStore) replace(settings model.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.lastFetch = time.Now()
	observers := s.observers
	s.mu.Unlock()
	for _, fn := range observers {
		fn(settings)
	}
}

// mergeSettings overlays the patch onto the base document at JSON field
// granularity.
func mergeSettings(base model.Settings, patch Patch) model.Settings {
	raw, err := json.Marshal(base)
	if err != nil {
		return base
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return base
	}
	for key, value := range patch {
		fields[key] = value
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return base
	}
	out := base
	if err := json.Unmarshal(merged, &out); err != nil {
		return base
	}
	return out
}
