package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"focustimer/internal/model"
)

// staleAfter is how old the last fetch may be before a visibility-driven
// refresh actually refetches.
const staleAfter = 5 * time.Second

// SessionStore holds the in-memory session list and keeps it converged
// with a shared remote document via fetch-merge-save: every mutation is
// applied optimistically and published to observers at once, then re-applied
// to a freshly fetched authoritative copy before saving. Reconciliation runs
// on a single worker goroutine so in-flight writes can never complete out
// of order.
type SessionStore struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	sessions  []model.Session
	observers []func([]model.Session)
	lastFetch time.Time

	ops       chan sessionOp
	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

type sessionOp struct {
	ctx   context.Context
	apply func([]model.Session) []model.Session
}

// SessionPatch is the editable subset of a session: a nil field is left
// unchanged.
type SessionPatch struct {
	Label *string
	Note  *string
}

func NewSessionStore(backend Backend, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SessionStore{
		backend: backend,
		logger:  logger,
		ops:     make(chan sessionOp, 64),
		done:    make(chan struct{}),
	}
	go s.reconcileLoop()
	return s
}

// Load replaces the in-memory list with the stored one. Malformed or
// unreadable data degrades to an empty list.
func (s *SessionStore) Load(ctx context.Context) {
	sessions, err := s.backend.GetSessions(ctx)
	if err != nil {
		s.logger.Warn("session load failed, starting empty", "error", err)
		sessions = nil
	}
	s.replace(sessions)
}

// Close drains pending reconciliations and stops the worker. Mutations
// issued after Close are dropped.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		s.closeMu.Unlock()
		close(s.ops)
	})
	<-s.done
}

// Sessions returns a copy of the current list.
func (s *SessionStore) Sessions() []model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Session(nil), s.sessions...)
}

// Subscribe registers an observer notified synchronously on every
// optimistic apply and again after each reconcile.
func (s *SessionStore) Subscribe(fn func([]model.Session)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Add inserts a session, replacing any existing entry with the same date.
func (s *SessionStore) Add(ctx context.Context, session model.Session) {
	s.mutate(ctx, func(list []model.Session) []model.Session {
		return applyAdd(list, session)
	})
}

// Update patches the label/note fields of the session with the given date.
func (s *SessionStore) Update(ctx context.Context, date time.Time, patch SessionPatch) {
	s.mutate(ctx, func(list []model.Session) []model.Session {
		return applyUpdate(list, date, patch)
	})
}

// Delete removes the session with the given date.
func (s *SessionStore) Delete(ctx context.Context, date time.Time) {
	s.mutate(ctx, func(list []model.Session) []model.Session {
		return applyDelete(list, date)
	})
}

// Import bulk-adds records; entries whose date already exists win over the
// imported ones and are never overwritten.
func (s *SessionStore) Import(ctx context.Context, imported []model.Session) {
	s.mutate(ctx, func(list []model.Session) []model.Session {
		return applyImport(list, imported)
	})
}

// Refresh refetches the authoritative copy and replaces local state.
func (s *SessionStore) Refresh(ctx context.Context) {
	sessions, err := s.backend.GetSessions(ctx)
	if err != nil {
		s.logger.Warn("session refresh failed", "error", err)
		return
	}
	s.replace(sessions)
}

// RefreshIfStale refetches only when the last fetch is older than the
// staleness window. Used when the app regains focus.
func (s *SessionStore) RefreshIfStale(ctx context.Context) {
	s.mu.Lock()
	stale := time.Since(s.lastFetch) > staleAfter
	s.mu.Unlock()
	if stale {
		s.Refresh(ctx)
	}
}

// StartPolling refetches every interval until ctx is cancelled. A safety
// net for push-capable backends and the only sync path for the rest.
func (s *SessionStore) StartPolling(ctx context.Context, interval time.Duration) {
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

// WatchRemote subscribes to the backend's push notifications when it has
// any, refetching on every change. Returns the unsubscribe function.
func (s *SessionStore) WatchRemote(ctx context.Context) func() {
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

// mutate runs the optimistic phase synchronously and queues the
// reconcile phase.
func (s *SessionStore) mutate(ctx context.Context, apply func([]model.Session) []model.Session) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		s.logger.Warn("session store closed, dropping mutation")
		return
	}

	s.mu.Lock()
	s.sessions = apply(s.sessions)
	snapshot := append([]model.Session(nil), s.sessions...)
	observers := s.observers
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
	s.ops <- sessionOp{ctx: ctx, apply: apply}
}

func (s *SessionStore) reconcileLoop() {
	defer close(s.done)
	for op := range s.ops {
		s.reconcile(op)
	}
}

// reconcile re-applies a mutation to the freshly fetched remote copy so a
// concurrent write from another device is not clobbered by the stale
// optimistic state, then persists the merged result. A fetch failure falls
// back to persisting the optimistic copy as-is; sync is delayed, data is
// not lost.
func (s *SessionStore) reconcile(op sessionOp) {
	remote, err := s.backend.GetSessions(op.ctx)
	if err != nil {
		s.logger.Warn("session fetch failed, persisting optimistic state", "error", err)
		s.mu.Lock()
		fallback := append([]model.Session(nil), s.sessions...)
		s.mu.Unlock()
		if saveErr := s.backend.SaveSessions(op.ctx, fallback); saveErr != nil {
			s.logger.Warn("session save failed", "error", saveErr)
		}
		return
	}

	merged := op.apply(remote)
	s.replace(merged)
	if err := s.backend.SaveSessions(op.ctx, merged); err != nil {
		s.logger.Warn("session save failed", "error", err)
	}
}

func (s *SessionStore) replace(sessions []model.Session) {
	s.mu.Lock()
	s.sessions = sessions
	s.lastFetch = time.Now()
	snapshot := append([]model.Session(nil), s.sessions...)
	observers := s.observers
	s.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}

func applyAdd(list []model.Session, session model.Session) []model.Session {
	out := make([]model.Session, 0, len(list)+1)
	for _, existing := range list {
		if !model.SameDate(existing.Date, session.Date) {
			out = append(out, existing)
		}
	}
	return append(out, session)
}

func applyUpdate(list []model.Session, date time.Time, patch SessionPatch) []model.Session {
	out := make([]model.Session, len(list))
	for i, existing := range list {
		if model.SameDate(existing.Date, date) {
			if patch.Label != nil {
				existing.Label = *patch.Label
			}
			if patch.Note != nil {
				existing.Note = *patch.Note
			}
		}
		out[i] = existing
	}
	return out
}

func applyDelete(list []model.Session, date time.Time) []model.Session {
	out := make([]model.Session, 0, len(list))
	for _, existing := range list {
		if !model.SameDate(existing.Date, date) {
			out = append(out, existing)
		}
	}
	return out
}

func applyImport(list []model.Session, imported []model.Session) []model.Session {
	existing := make(map[int64]struct{}, len(list))
	for _, s := range list {
		existing[s.Date.UnixNano()] = struct{}{}
	}
	out := append([]model.Session(nil), list...)
	for _, s := range imported {
		if _, ok := existing[s.Date.UnixNano()]; ok {
			continue
		}
		existing[s.Date.UnixNano()] = struct{}{}
		out = append(out, s)
	}
	return out
}
