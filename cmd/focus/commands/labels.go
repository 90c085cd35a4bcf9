package commands

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"focustimer/internal/model"
	"focustimer/internal/store"
)

func NewLabelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Manage session labels",
	}
	cmd.AddCommand(newLabelsListCommand())
	cmd.AddCommand(newLabelsAddCommand())
	cmd.AddCommand(newLabelsRemoveCommand())
	return cmd
}

func newLabelsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List labels in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			settings := a.Settings.Settings()
			for _, l := range settings.Labels {
				marker := " "
				if l.ID == settings.ActiveLabel {
					marker = "*"
				}
				fmt.Printf("%s %-20s %s", marker, l.Name, l.Color)
				if l.DurationMinutes > 0 {
					fmt.Printf("  %dm", l.DurationMinutes)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func newLabelsAddCommand() *cobra.Command {
	var color string
	var minutes int

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			settings := a.Settings.Settings()
			if color == "" {
				color = nextPaletteColor(settings)
			}
			labels := append(append([]model.Label(nil), settings.Labels...), model.Label{
				ID:              uuid.NewString(),
				Name:            args[0],
				Color:           color,
				DurationMinutes: minutes,
			})

			patch, err := store.NewPatch(map[string]any{"labels": labels})
			if err != nil {
				return err
			}
			if err := a.Settings.Update(ctx, patch); err != nil {
				if errors.Is(err, store.ErrLabelLimit) {
					return fmt.Errorf("label limit reached for the %s tier; upgrade to add more", a.Tier)
				}
				return err
			}
			fmt.Printf("added label %s (%s)\n", args[0], color)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "hex color; next free palette color when omitted")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "per-label work duration override")
	return cmd
}

func newLabelsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a label (sessions keep their history and show as unlabeled)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			settings := a.Settings.Settings()
			labels := make([]model.Label, 0, len(settings.Labels))
			removed := false
			removedID := ""
			for _, l := range settings.Labels {
				if l.Name == args[0] {
					removed = true
					removedID = l.ID
					continue
				}
				labels = append(labels, l)
			}
			if !removed {
				return fmt.Errorf("no label named %q", args[0])
			}

			fields := map[string]any{"labels": labels}
			if settings.ActiveLabel == removedID {
				fields["activeLabel"] = ""
			}
			patch, err := store.NewPatch(fields)
			if err != nil {
				return err
			}
			if err := a.Settings.Update(ctx, patch); err != nil {
				return err
			}
			fmt.Printf("removed label %s\n", args[0])
			return nil
		},
	}
}

func nextPaletteColor(settings model.Settings) string {
	palette := settings.Palette
	if len(palette) == 0 {
		palette = model.DefaultPalette
	}
	used := make(map[string]struct{}, len(settings.Labels))
	for _, l := range settings.Labels {
		used[l.Color] = struct{}{}
	}
	for _, color := range palette {
		if _, ok := used[color]; !ok {
			return color
		}
	}
	return palette[len(settings.Labels)%len(palette)]
}
