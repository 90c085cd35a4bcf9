package store

import (
	"context"
	"fmt"
	"time"
)

// migrateTimeout caps the one-time backend migration; on expiry the caller
// proceeds with an empty destination and the source data stays intact for a
// later retry.
const migrateTimeout = 8 * time.Second

// Migrate copies sessions and settings from one backend to another when
// switching profiles (typically anonymous local to authenticated remote).
// The copy happens only when the destination holds no data; the source is
// cleared only after every save succeeded.
func Migrate(ctx context.Context, from, to Backend) error {
	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	remoteSessions, err := to.GetSessions(ctx)
	if err != nil {
		return fmt.Errorf("inspect destination sessions: %w", err)
	}
	_, remoteHasSettings, err := to.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("inspect destination settings: %w", err)
	}
	if len(remoteSessions) > 0 || remoteHasSettings {
		return nil
	}

	localSessions, err := from.GetSessions(ctx)
	if err != nil {
		return fmt.Errorf("read source sessions: %w", err)
	}
	localSettings, localHasSettings, err := from.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("read source settings: %w", err)
	}
	if len(localSessions) == 0 && !localHasSettings {
		return nil
	}

	if len(localSessions) > 0 {
		if err := to.SaveSessions(ctx, localSessions); err != nil {
			return fmt.Errorf("copy sessions: %w", err)
		}
	}
	if localHasSettings {
		if err := to.SaveSettings(ctx, localSettings); err != nil {
			return fmt.Errorf("copy settings: %w", err)
		}
	}

	if err := from.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear source after copy: %w", err)
	}
	return nil
}
