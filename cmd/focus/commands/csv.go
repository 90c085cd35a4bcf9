package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"focustimer/internal/csvio"
	"focustimer/internal/gate"
	"focustimer/internal/store"
)

func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import sessions from CSV (existing sessions win on date collision)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer file.Close()

			settings := a.Settings.Settings()
			result, err := csvio.Import(file, settings.Labels, settings.Palette)
			if err != nil {
				return err
			}

			if len(result.Created) > 0 {
				patch, err := store.NewPatch(map[string]any{"labels": result.Labels})
				if err != nil {
					return err
				}
				if err := a.Settings.Update(ctx, patch); err != nil {
					return err
				}
				for _, l := range result.Created {
					fmt.Printf("created label %s (%s)\n", l.Name, l.Color)
				}
			}

			a.Sessions.Import(ctx, result.Sessions)
			fmt.Printf("imported %d sessions\n", len(result.Sessions))
			return nil
		},
	}
}

func NewExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Export all sessions to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !gate.ForTier(a.Tier).CSVExport {
				return fmt.Errorf("csv export requires the standard tier or higher")
			}

			a.Sessions.RefreshIfStale(ctx)
			file, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create csv: %w", err)
			}
			defer file.Close()

			sessions := a.Sessions.Sessions()
			if err := csvio.Export(file, sessions, a.Settings.Settings().Labels); err != nil {
				return err
			}
			fmt.Printf("exported %d sessions\n", len(sessions))
			return nil
		},
	}
}
