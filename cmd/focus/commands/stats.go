package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"focustimer/internal/stats"
)

func NewStatsCommand() *cobra.Command {
	var view string
	var offset int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregated session statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStats(cmd, view, offset)
		},
	}

	cmd.Flags().StringVar(&view, "view", "week", "view: week, month, year or labels")
	cmd.Flags().IntVar(&offset, "offset", 0, "periods back from the current one")
	return cmd
}

func showStats(cmd *cobra.Command, view string, offset int) error {
	ctx := cmd.Context()
	a, _, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Sessions.RefreshIfStale(ctx)
	sessions := a.Sessions.Sessions()
	settings := a.Settings.Settings()
	now := time.Now()

	today, week := stats.Totals(sessions, now)
	fmt.Printf("today: %d sessions, %s  |  last 7 days: %d sessions, %s\n\n",
		today.Count, formatSeconds(today.Seconds), week.Count, formatSeconds(week.Seconds))

	labelName := func(id string) string {
		if l, ok := settings.LabelByID(id); ok {
			return l.Name
		}
		return "unlabeled"
	}

	switch view {
	case "week":
		buckets := stats.WeekView(sessions, now, offset)
		days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
		for i, b := range buckets {
			fmt.Printf("%s  %2d  %s\n", days[i], b.Count, formatSeconds(b.Seconds))
		}
	case "month":
		for i, b := range stats.MonthView(sessions, now, offset) {
			if b.Count == 0 {
				continue
			}
			fmt.Printf("day %2d  %2d  %s\n", i+1, b.Count, formatSeconds(b.Seconds))
		}
	case "year":
		for i, b := range stats.YearView(sessions, now, offset) {
			fmt.Printf("%s  %3d  %s\n", time.Month(i+1).String()[:3], b.Count, formatSeconds(b.Seconds))
		}
	case "labels":
		for _, total := range stats.LabelView(sessions) {
			fmt.Printf("%-20s %4d  %8s  %5.1f%%\n",
				labelName(total.LabelID), total.Count, formatSeconds(total.Seconds), total.Ratio*100)
		}
	default:
		return fmt.Errorf("unknown view %q", view)
	}
	return nil
}
