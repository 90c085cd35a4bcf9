package timer

import (
	"sync"
	"time"

	"focustimer/internal/model"
)

type Phase string

const (
	PhaseWork      Phase = "work"
	PhaseBreak     Phase = "break"
	PhaseLongBreak Phase = "longBreak"
)

// State is the transient timer state. It is never persisted; a fresh
// machine always starts at work, full duration, not running.
type State struct {
	Phase              Phase
	RemainingSeconds   int
	Running            bool
	CompletedWorkCount int
}

type EventKind string

const (
	EventWorkCompleted      EventKind = "workCompleted"
	EventBreakCompleted     EventKind = "breakCompleted"
	EventLongBreakCompleted EventKind = "longBreakCompleted"
)

// Event is a discrete phase-boundary notification. Session is set only for
// EventWorkCompleted; listeners own all side effects (persistence, alarm).
type Event struct {
	Kind    EventKind
	Session *model.Session
}

// Machine owns the work/break/longBreak cycle. Every method is a total
// function over state plus input: no method panics or returns an error.
// Safe for use from the clock goroutine and callers concurrently.
type Machine struct {
	mu       sync.Mutex
	settings model.Settings
	pending  *model.Settings
	state    State
	listener func(Event)
	now      func() time.Time
}

type Option func(*Machine)

// WithNow overrides the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func NewMachine(settings model.Settings, opts ...Option) *Machine {
	m := &Machine{
		settings: settings,
		now:      time.Now,
		state: State{
			Phase:            PhaseWork,
			RemainingSeconds: settings.WorkSeconds(),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetListener registers the single event listener. The listener is invoked
// outside the machine's lock.
func (m *Machine) SetListener(fn func(Event)) {
	m.mu.Lock()
	m.listener = fn
	m.mu.Unlock()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Toggle flips running. It is a no-op once the countdown has reached zero.
func (m *Machine) Toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.RemainingSeconds > 0 {
		m.state.Running = !m.state.Running
	}
}

// Reset forces the work phase at full duration, not running. Any elapsed
// work time is discarded without emitting a session.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enterWork()
	m.state.Running = false
}

// Tick advances the countdown by one second. Reaching zero triggers the
// phase transition exactly once, because the transition immediately loads
// the next phase's full duration.
func (m *Machine) Tick() {
	m.mu.Lock()
	if !m.state.Running || m.state.RemainingSeconds <= 0 {
		m.mu.Unlock()
		return
	}
	m.state.RemainingSeconds--
	var events []Event
	if m.state.RemainingSeconds == 0 {
		events = m.expire()
	}
	listener := m.listener
	m.mu.Unlock()

	m.dispatch(listener, events)
}

// CompleteEarly ends the current work countdown now, recording the elapsed
// time rather than the nominal duration, then advances phases as if the
// countdown had expired. Meaningful only while running in the work phase.
func (m *Machine) CompleteEarly() {
	m.mu.Lock()
	if m.state.Phase != PhaseWork || !m.state.Running {
		m.mu.Unlock()
		return
	}
	elapsed := m.settings.WorkSeconds() - m.state.RemainingSeconds
	if elapsed < 0 {
		elapsed = 0
	}
	events := m.completeWork(elapsed)
	listener := m.listener
	m.mu.Unlock()

	m.dispatch(listener, events)
}

// ApplySettings swaps in a new settings document. While paused in the work
// phase the change takes effect immediately, resetting the remaining time
// only when the effective work duration actually changed; refreshes that
// deliver an unchanged duration keep the paused progress. While running or
// on a break the document is deferred until the next work entry.
func (m *Machine) ApplySettings(s model.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Phase == PhaseWork && !m.state.Running {
		previous := m.settings.WorkSeconds()
		m.settings = s
		m.pending = nil
		if s.WorkSeconds() != previous {
			m.state.RemainingSeconds = s.WorkSeconds()
		}
		return
	}
	copied := s
	m.pending = &copied
}

// expire handles a countdown that just hit zero. Caller holds the lock.
func (m *Machine) expire() []Event {
	switch m.state.Phase {
	case PhaseWork:
		return m.completeWork(m.settings.WorkSeconds())
	case PhaseBreak:
		m.enterWork()
		return []Event{{Kind: EventBreakCompleted}}
	case PhaseLongBreak:
		m.state.CompletedWorkCount = 0
		m.enterWork()
		return []Event{{Kind: EventLongBreakCompleted}}
	}
	return nil
}

// completeWork records the finished work interval and advances to the next
// phase. Caller holds the lock.
func (m *Machine) completeWork(durationSeconds int) []Event {
	session := model.Session{
		Date:     m.now().UTC(),
		Duration: durationSeconds,
		Label:    m.settings.ActiveLabel,
	}
	m.state.CompletedWorkCount++

	interval := m.settings.LongBreakInterval
	switch {
	case interval > 0 && m.state.CompletedWorkCount%interval == 0 && m.settings.LongBreakSeconds() > 0:
		m.state.Phase = PhaseLongBreak
		m.state.RemainingSeconds = m.settings.LongBreakSeconds()
		m.state.Running = m.settings.AutoContinue
	case m.settings.BreakSeconds() > 0:
		m.state.Phase = PhaseBreak
		m.state.RemainingSeconds = m.settings.BreakSeconds()
		m.state.Running = m.settings.AutoContinue
	default:
		m.enterWork()
	}

	return []Event{{Kind: EventWorkCompleted, Session: &session}}
}

// enterWork starts a fresh work phase at full duration, applying any
// deferred settings change first. Caller holds the lock.
func (m *Machine) enterWork() {
	if m.pending != nil {
		m.settings = *m.pending
		m.pending = nil
	}
	m.state.Phase = PhaseWork
	m.state.RemainingSeconds = m.settings.WorkSeconds()
	m.state.Running = m.settings.AutoContinue
}

func (m *Machine) dispatch(listener func(Event), events []Event) {
	if listener == nil {
		return
	}
	for _, ev := range events {
		listener(ev)
	}
}
