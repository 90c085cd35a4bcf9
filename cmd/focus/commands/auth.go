package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"focustimer/internal/config"
	"focustimer/internal/model"
)

func NewRegisterCommand() *cobra.Command {
	return authCommand("register", "Create an account on the sync server", "/api/auth/register")
}

func NewLoginCommand() *cobra.Command {
	return authCommand("login", "Log in to the sync server", "/api/auth/login")
}

func authCommand(use, short, path string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadClient()
			result, err := postAuth(cfg.ServerURL+path, email, password)
			if err != nil {
				return err
			}
			if err := saveProfile(cfg, profile{
				Email: result.User.Email,
				Token: result.Token,
				Tier:  result.User.Tier,
			}); err != nil {
				return err
			}
			fmt.Printf("logged in as %s (%s tier); local data will sync on next run\n",
				result.User.Email, result.User.Tier)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

type authResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func postAuth(url, email, password string) (*authResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("reach sync server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
			return nil, fmt.Errorf("%s", envelope.Error.Message)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result authResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}
