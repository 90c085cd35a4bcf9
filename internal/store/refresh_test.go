package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"focustimer/internal/model"
	"focustimer/internal/storage/memory"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRefreshIfStaleThrottles(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	s := NewSessionStore(backend, discardLogger)
	defer s.Close()
	s.Load(ctx)

	added := model.Session{Date: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), Duration: 1500}
	if err := backend.SaveSessions(ctx, []model.Session{added}); err != nil {
		t.Fatalf("save sessions: %v", err)
	}

	// Right after a load the fetch is still fresh and must be skipped.
	s.RefreshIfStale(ctx)
	if got := len(s.Sessions()); got != 0 {
		t.Fatalf("fresh refresh must be throttled, got %d sessions", got)
	}

	s.mu.Lock()
	s.lastFetch = time.Now().Add(-2 * staleAfter)
	s.mu.Unlock()

	s.RefreshIfStale(ctx)
	if got := len(s.Sessions()); got != 1 {
		t.Fatalf("stale refresh must refetch, got %d sessions", got)
	}
}

func TestSettingsRefreshIfStaleThrottles(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	s := NewSettingsStore(backend, nil, discardLogger)
	defer s.Close()
	s.Load(ctx)

	remote := model.DefaultSettings()
	remote.WorkMinutes = 50
	if err := backend.SaveSettings(ctx, remote); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	s.RefreshIfStale(ctx)
	if got := s.Settings().WorkMinutes; got != model.DefaultWorkMinutes {
		t.Fatalf("fresh refresh must be throttled, got workMinutes=%d", got)
	}

	s.mu.Lock()
	s.lastFetch = time.Now().Add(-2 * staleAfter)
	s.mu.Unlock()

	s.RefreshIfStale(ctx)
	if got := s.Settings().WorkMinutes; got != 50 {
		t.Fatalf("stale refresh must refetch, got workMinutes=%d", got)
	}
}
