package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"focustimer/internal/timer"
)

func NewRunCommand() *cobra.Command {
	var autoContinue bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the focus timer",
		Long: `run starts the work countdown and cycles through breaks. Control it
with single-letter commands on stdin:

  s  start/pause
  c  complete the current work interval early
  r  reset to a fresh work interval
  q  quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimer(cmd.Context(), autoContinue)
		},
	}

	cmd.Flags().BoolVar(&autoContinue, "auto", false, "continue running through phase boundaries without pausing")
	return cmd
}

func runTimer(ctx context.Context, autoContinue bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, _, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	a.StartSync(ctx)

	if autoContinue {
		settings := a.Settings.Settings()
		settings.AutoContinue = true
		a.Machine.ApplySettings(settings)
	}

	a.Machine.SetListener(func(ev timer.Event) {
		switch ev.Kind {
		case timer.EventWorkCompleted:
			if ev.Session != nil {
				a.Sessions.Add(ctx, *ev.Session)
				fmt.Printf("\nwork interval complete: %s recorded\n", formatSeconds(ev.Session.Duration))
			}
		case timer.EventBreakCompleted:
			fmt.Println("\nbreak over, back to work")
		case timer.EventLongBreakCompleted:
			fmt.Println("\nlong break over, back to work")
		}
	})

	clock := timer.StartClock(a.Machine)
	defer clock.Stop()

	a.Machine.Toggle()
	fmt.Println("timer started; s=pause/resume c=complete r=reset q=quit")

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch strings.TrimSpace(scanner.Text()) {
			case "s":
				a.Machine.Toggle()
				printState(a.Machine.State())
			case "c":
				a.Machine.CompleteEarly()
			case "r":
				a.Machine.Reset()
				printState(a.Machine.State())
			case "q":
				return
			default:
				printState(a.Machine.State())
			}
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return nil
}

func printState(state timer.State) {
	status := "paused"
	if state.Running {
		status = "running"
	}
	fmt.Printf("%s %s %s\n", state.Phase, formatSeconds(state.RemainingSeconds), status)
}

func formatSeconds(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
