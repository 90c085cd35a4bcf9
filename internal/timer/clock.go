package timer

import (
	"sync"
	"time"
)

// Clock drives a Machine at 1 Hz. Each tick decrements the machine's
// current remaining value; stopping cancels the next tick immediately and
// leaves no goroutine behind.
type Clock struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func StartClock(m *Machine) *Clock {
	return StartClockInterval(m, time.Second)
}

// StartClockInterval exists for tests that cannot wait out real seconds.
func StartClockInterval(m *Machine, interval time.Duration) *Clock {
	c := &Clock{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				m.Tick()
			}
		}
	}()
	return c
}

// Stop cancels the clock and waits for the tick goroutine to exit. Safe to
// call more than once.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}
