// Package remote is the HTTP client for the focusd document store. It
// speaks the per-user document API and satisfies the store backend contract
// including the optional push notification, implemented as a revision
// long poll against /api/data/watch.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"focustimer/internal/model"
)

type Backend struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
	lastRev   int64
	watching  bool
	stopWatch context.CancelFunc
}

func New(baseURL, token string, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		baseURL:   baseURL,
		token:     token,
		client:    &http.Client{Timeout: 60 * time.Second},
		logger:    logger,
		listeners: make(map[int]func()),
	}
}

type sessionsEnvelope struct {
	Rev      int64           `json:"rev"`
	Sessions []model.Session `json:"sessions"`
}

type settingsEnvelope struct {
	Rev      int64           `json:"rev"`
	Settings json.RawMessage `json:"settings"`
}

type revEnvelope struct {
	Rev int64 `json:"rev"`
}

func (b *Backend) GetSessions(ctx context.Context) ([]model.Session, error) {
	var envelope sessionsEnvelope
	if err := b.do(ctx, http.MethodGet, "/api/data/sessions", nil, &envelope); err != nil {
		return nil, err
	}
	b.observeRev(envelope.Rev)
	return envelope.Sessions, nil
}

func (b *Backend) SaveSessions(ctx context.Context, sessions []model.Session) error {
	if sessions == nil {
		sessions = []model.Session{}
	}
	body := map[string]any{"sessions": sessions}
	var envelope revEnvelope
	if err := b.do(ctx, http.MethodPut, "/api/data/sessions", body, &envelope); err != nil {
		return err
	}
	b.observeRev(envelope.Rev)
	return nil
}

func (b *Backend) GetSettings(ctx context.Context) (model.Settings, bool, error) {
	var envelope settingsEnvelope
	if err := b.do(ctx, http.MethodGet, "/api/data/settings", nil, &envelope); err != nil {
		return model.DefaultSettings(), false, err
	}
	b.observeRev(envelope.Rev)
	if len(envelope.Settings) == 0 || string(envelope.Settings) == "null" {
		return model.DefaultSettings(), false, nil
	}
	settings := model.DefaultSettings()
	if err := json.Unmarshal(envelope.Settings, &settings); err != nil {
		return model.DefaultSettings(), false, fmt.Errorf("decode remote settings: %w", err)
	}
	return settings, true, nil
}

func (b *Backend) SaveSettings(ctx context.Context, settings model.Settings) error {
	body := map[string]any{"settings": settings}
	var envelope revEnvelope
	if err := b.do(ctx, http.MethodPut, "/api/data/settings", body, &envelope); err != nil {
		return err
	}
	b.observeRev(envelope.Rev)
	return nil
}

func (b *Backend) ClearAll(ctx context.Context) error {
	return b.do(ctx, http.MethodDelete, "/api/data", nil, nil)
}

// Watch starts the revision long poll on first use and registers the
// listener. The returned function unsubscribes; the poll stops once the
// last listener is gone.
func (b *Backend) Watch(listener func()) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	if !b.watching {
		ctx, cancel := context.WithCancel(context.Background())
		b.watching = true
		b.stopWatch = cancel
		go b.watchLoop(ctx)
	}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		if len(b.listeners) == 0 && b.watching {
			b.watching = false
			b.stopWatch()
		}
		b.mu.Unlock()
	}, nil
}

func (b *Backend) watchLoop(ctx context.Context) {
	for ctx.Err() == nil {
		b.mu.Lock()
		since := b.lastRev
		b.mu.Unlock()

		var envelope revEnvelope
		err := b.do(ctx, http.MethodGet, fmt.Sprintf("/api/data/watch?rev=%d", since), nil, &envelope)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Warn("watch poll failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		if envelope.Rev > since {
			b.observeRev(envelope.Rev)
			b.mu.Lock()
			listeners := make([]func(), 0, len(b.listeners))
			for _, fn := range b.listeners {
				listeners = append(listeners, fn)
			}
			b.mu.Unlock()
			for _, fn := range listeners {
				fn()
			}
		}
	}
}

func (b *Backend) observeRev(rev int64) {
	b.mu.Lock()
	if rev > b.lastRev {
		b.lastRev = rev
	}
	b.mu.Unlock()
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (b *Backend) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope errorEnvelope
		if jsonErr := json.Unmarshal(raw, &envelope); jsonErr == nil && envelope.Error.Code != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, envelope.Error.Message, envelope.Error.Code)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
