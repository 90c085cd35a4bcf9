package store

import (
	"context"

	"focustimer/internal/model"
)

// Backend is the storage contract the stores are written against. Both the
// local file backend and the remote document backend satisfy it. Reads
// return empty/default values when nothing has been stored; saves replace
// the whole document.
type Backend interface {
	GetSessions(ctx context.Context) ([]model.Session, error)
	SaveSessions(ctx context.Context, sessions []model.Session) error
	// GetSettings reports whether a settings document has ever been saved;
	// when it has not, the returned value is the default document.
	GetSettings(ctx context.Context) (model.Settings, bool, error)
	SaveSettings(ctx context.Context, settings model.Settings) error
	ClearAll(ctx context.Context) error
}

// Watcher is the optional push-notification capability of a backend. The
// listener fires on any remote change; the returned function unsubscribes.
type Watcher interface {
	Watch(listener func()) (func(), error)
}
