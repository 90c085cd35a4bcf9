package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"focustimer/internal/app"
	"focustimer/internal/config"
	"focustimer/internal/model"
)

const profileFile = "profile.json"

// profile is the saved login: token plus the billing-derived tier reported
// at login time. FOCUS_TOKEN overrides the saved token.
type profile struct {
	Email string     `json:"email"`
	Token string     `json:"token"`
	Tier  model.Tier `json:"tier"`
}

func loadProfile(cfg config.ClientConfig) profile {
	p := profile{Tier: model.TierFree}
	raw, err := os.ReadFile(filepath.Join(cfg.DataDir, profileFile))
	if err == nil {
		if jsonErr := json.Unmarshal(raw, &p); jsonErr != nil {
			p = profile{Tier: model.TierFree}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("profile unreadable, continuing anonymous", "error", err)
	}
	if cfg.Token != "" {
		p.Token = cfg.Token
	}
	if !model.ValidTier(p.Tier) {
		p.Tier = model.TierFree
	}
	return p
}

func saveProfile(cfg config.ClientConfig, p profile) error {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.DataDir, profileFile), raw, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// newApp builds the per-process application context from env config and the
// saved profile.
func newApp(ctx context.Context) (*app.App, config.ClientConfig, error) {
	cfg := config.LoadClient()
	p := loadProfile(cfg)
	cfg.Token = p.Token
	a, err := app.New(ctx, cfg, p.Tier, logger)
	if err != nil {
		return nil, cfg, fmt.Errorf("initialize app: %w", err)
	}
	return a, cfg, nil
}
