package timer

import (
	"testing"
	"time"

	"focustimer/internal/model"
)

func testSettings() model.Settings {
	s := model.DefaultSettings()
	s.WorkMinutes = 25
	s.BreakMinutes = 5
	s.LongBreakMinutes = 15
	s.LongBreakInterval = 0
	return s
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
}

func collectEvents(m *Machine) *[]Event {
	events := &[]Event{}
	m.SetListener(func(ev Event) {
		*events = append(*events, ev)
	})
	return events
}

func tickN(m *Machine, n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

func TestWorkCompletionEmitsSessionAndEntersBreak(t *testing.T) {
	m := NewMachine(testSettings(), WithNow(fixedNow))
	events := collectEvents(m)

	m.Toggle()
	tickN(m, 25*60)

	if len(*events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(*events))
	}
	ev := (*events)[0]
	if ev.Kind != EventWorkCompleted {
		t.Fatalf("expected workCompleted, got %s", ev.Kind)
	}
	if ev.Session == nil || ev.Session.Duration != 1500 {
		t.Fatalf("expected session of 1500s, got %+v", ev.Session)
	}
	if !ev.Session.Date.Equal(fixedNow()) {
		t.Fatalf("expected session date %v, got %v", fixedNow(), ev.Session.Date)
	}

	state := m.State()
	if state.Phase != PhaseBreak {
		t.Fatalf("expected break phase, got %s", state.Phase)
	}
	if state.RemainingSeconds != 300 {
		t.Fatalf("expected 300s remaining, got %d", state.RemainingSeconds)
	}
	if state.Running {
		t.Fatal("expected machine paused at phase boundary")
	}
}

func TestCountdownStopsAtZeroAndFiresOnce(t *testing.T) {
	m := NewMachine(testSettings(), WithNow(fixedNow))
	events := collectEvents(m)

	m.Toggle()
	tickN(m, 25*60+100)

	if len(*events) != 1 {
		t.Fatalf("expected a single transition, got %d events", len(*events))
	}
	if state := m.State(); state.RemainingSeconds < 0 {
		t.Fatalf("remaining went negative: %d", state.RemainingSeconds)
	}
}

func TestLongBreakAfterInterval(t *testing.T) {
	settings := testSettings()
	settings.WorkMinutes = 1
	settings.BreakMinutes = 1
	settings.LongBreakMinutes = 2
	settings.LongBreakInterval = 4
	m := NewMachine(settings, WithNow(fixedNow))
	events := collectEvents(m)

	for cycle := 1; cycle <= 4; cycle++ {
		m.Toggle()
		tickN(m, 60)

		state := m.State()
		if cycle < 4 {
			if state.Phase != PhaseBreak {
				t.Fatalf("cycle %d: expected break, got %s", cycle, state.Phase)
			}
			m.Toggle()
			tickN(m, 60)
			if got := m.State().Phase; got != PhaseWork {
				t.Fatalf("cycle %d: expected work after break, got %s", cycle, got)
			}
		} else {
			if state.Phase != PhaseLongBreak {
				t.Fatalf("4th completion: expected longBreak, got %s", state.Phase)
			}
			if state.RemainingSeconds != 120 {
				t.Fatalf("expected 120s long break, got %d", state.RemainingSeconds)
			}
		}
	}

	workCompletions := 0
	for _, ev := range *events {
		if ev.Kind == EventWorkCompleted {
			workCompletions++
		}
	}
	if workCompletions != 4 {
		t.Fatalf("expected 4 work completions, got %d", workCompletions)
	}
}

func TestNoBreakConfiguredRestartsWork(t *testing.T) {
	settings := testSettings()
	settings.BreakMinutes = 0
	m := NewMachine(settings, WithNow(fixedNow))
	events := collectEvents(m)

	m.Toggle()
	tickN(m, 25*60)

	state := m.State()
	if state.Phase != PhaseWork {
		t.Fatalf("expected restart into work, got %s", state.Phase)
	}
	if state.RemainingSeconds != 1500 {
		t.Fatalf("expected full work duration, got %d", state.RemainingSeconds)
	}
	if len(*events) != 1 || (*events)[0].Kind != EventWorkCompleted {
		t.Fatalf("expected one workCompleted event, got %+v", *events)
	}
}

func TestCompleteEarlyRecordsElapsed(t *testing.T) {
	m := NewMachine(testSettings(), WithNow(fixedNow))
	events := collectEvents(m)

	m.Toggle()
	tickN(m, 300)
	m.CompleteEarly()

	if len(*events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(*events))
	}
	if got := (*events)[0].Session.Duration; got != 300 {
		t.Fatalf("expected elapsed 300s recorded, got %d", got)
	}
	if state := m.State(); state.Phase != PhaseBreak {
		t.Fatalf("expected break after early completion, got %s", state.Phase)
	}
}

func TestCompleteEarlyIgnoredOutsideRunningWork(t *testing.T) {
	m := NewMachine(testSettings(), WithNow(fixedNow))
	events := collectEvents(m)

	m.CompleteEarly()
	if len(*events) != 0 {
		t.Fatalf("expected no event while paused, got %d", len(*events))
	}
}

func TestResetDiscardsWithoutSession(t *testing.T) {
	m := NewMachine(testSettings(), WithNow(fixedNow))
	events := collectEvents(m)

	m.Toggle()
	tickN(m, 600)
	m.Reset()

	if len(*events) != 0 {
		t.Fatal("reset must not emit a session")
	}
	state := m.State()
	if state.Phase != PhaseWork || state.RemainingSeconds != 1500 || state.Running {
		t.Fatalf("expected fresh paused work phase, got %+v", state)
	}
}

func TestSettingsChangeWhilePausedResetsRemaining(t *testing.T) {
	m := NewMachine(testSettings(), WithNow(fixedNow))

	changed := testSettings()
	changed.WorkMinutes = 50
	m.ApplySettings(changed)

	if got := m.State().RemainingSeconds; got != 3000 {
		t.Fatalf("expected immediate reset to 3000s, got %d", got)
	}
}

func TestSettingsRefreshKeepsPausedProgress(t *testing.T) {
	m := NewMachine(testSettings(), WithNow(fixedNow))
	m.Toggle()
	tickN(m, 10)
	m.Toggle()

	// Background sync redelivers the same document.
	m.ApplySettings(testSettings())
	if got := m.State().RemainingSeconds; got != 1490 {
		t.Fatalf("unchanged document must keep paused progress, got %d", got)
	}

	// A change to an unrelated field must not reset the countdown either.
	changed := testSettings()
	changed.Theme = "dark"
	m.ApplySettings(changed)
	if got := m.State().RemainingSeconds; got != 1490 {
		t.Fatalf("theme change must keep paused progress, got %d", got)
	}

	// A duration change still resets immediately while paused.
	changed.WorkMinutes = 50
	m.ApplySettings(changed)
	if got := m.State().RemainingSeconds; got != 3000 {
		t.Fatalf("expected reset to new duration, got %d", got)
	}
}

func TestSettingsChangeWhileRunningDeferred(t *testing.T) {
	m := NewMachine(testSettings(), WithNow(fixedNow))
	m.Toggle()
	tickN(m, 10)

	changed := testSettings()
	changed.WorkMinutes = 50
	m.ApplySettings(changed)

	if got := m.State().RemainingSeconds; got != 1500-10 {
		t.Fatalf("running countdown must not reset, got %d", got)
	}

	tickN(m, 1500-10)
	m.Toggle()
	tickN(m, 300)

	if got := m.State().RemainingSeconds; got != 3000 {
		t.Fatalf("expected deferred duration on next work entry, got %d", got)
	}
}

func TestActiveLabelOverridesDuration(t *testing.T) {
	settings := testSettings()
	settings.Labels = []model.Label{{ID: "deep", Name: "Deep Work", Color: "#3498db", DurationMinutes: 90}}
	settings.ActiveLabel = "deep"
	m := NewMachine(settings, WithNow(fixedNow))
	events := collectEvents(m)

	if got := m.State().RemainingSeconds; got != 90*60 {
		t.Fatalf("expected label override 5400s, got %d", got)
	}

	m.Toggle()
	tickN(m, 90*60)

	session := (*events)[0].Session
	if session.Label != "deep" {
		t.Fatalf("expected session labeled deep, got %q", session.Label)
	}
	if session.Duration != 90*60 {
		t.Fatalf("expected 5400s session, got %d", session.Duration)
	}
}

func TestAutoContinueRunsThroughBoundaries(t *testing.T) {
	settings := testSettings()
	settings.AutoContinue = true
	m := NewMachine(settings, WithNow(fixedNow))

	m.Toggle()
	tickN(m, 25*60)

	state := m.State()
	if state.Phase != PhaseBreak || !state.Running {
		t.Fatalf("expected running break with autoContinue, got %+v", state)
	}
}

func TestClockStopsCleanly(t *testing.T) {
	m := NewMachine(testSettings(), WithNow(fixedNow))
	m.Toggle()

	clock := StartClockInterval(m, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	clock.Stop()
	clock.Stop() // idempotent

	after := m.State().RemainingSeconds
	time.Sleep(10 * time.Millisecond)
	if got := m.State().RemainingSeconds; got != after {
		t.Fatalf("ticks continued after stop: %d -> %d", after, got)
	}
	if after >= 1500 || after < 0 {
		t.Fatalf("unexpected remaining after ticking: %d", after)
	}
}
