package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focustimer/internal/config"
)

func NewUpgradeCommand() *cobra.Command {
	var plan string

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Get a checkout URL for a paid plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadClient()
			p := loadProfile(cfg)
			if p.Token == "" {
				return fmt.Errorf("log in first: focus login")
			}

			url, err := fetchBillingURL(cfg, p.Token, http.MethodPost, "/api/billing/checkout",
				map[string]string{"plan": plan})
			if err != nil {
				return err
			}
			fmt.Printf("open this URL to complete checkout:\n%s\n", url)
			return nil
		},
	}

	cmd.Flags().StringVar(&plan, "plan", "standard", "plan: standard or pro")

	portal := &cobra.Command{
		Use:   "portal",
		Short: "Get the billing portal URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadClient()
			p := loadProfile(cfg)
			if p.Token == "" {
				return fmt.Errorf("log in first: focus login")
			}

			url, err := fetchBillingURL(cfg, p.Token, http.MethodGet, "/api/billing/portal", nil)
			if err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		},
	}
	cmd.AddCommand(portal)

	return cmd
}

func fetchBillingURL(cfg config.ClientConfig, token, method, path string, body any) (string, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		reader = strings.NewReader(string(raw))
	}

	req, err := http.NewRequest(method, cfg.ServerURL+path, reader)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reach sync server: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var envelope struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return envelope.URL, nil
}
