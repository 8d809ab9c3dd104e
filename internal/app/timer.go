package app

import (
	"fmt"
	"sync"
	"time"
)

// warningThreshold marks the remaining seconds at which the view should
// switch the timer to its warning style.
const warningThreshold = 30

// TimerDisplay is the view-facing shape of the remaining time.
type TimerDisplay struct {
	Mins    int  `json:"mins"`
	Secs    int  `json:"secs"`
	Warning bool `json:"warning"`
}

func (d TimerDisplay) String() string {
	return fmt.Sprintf("%d:%02d", d.Mins, d.Secs)
}

// DisplayFor formats a remaining-seconds value for the view.
func DisplayFor(remaining int) TimerDisplay {
	if remaining < 0 {
		remaining = 0
	}
	return TimerDisplay{
		Mins:    remaining / 60,
		Secs:    remaining % 60,
		Warning: remaining <= warningThreshold,
	}
}

// Countdown fires a callback once per interval until stopped. A session
// owns exactly one Countdown; Start implicitly stops any earlier run, and
// Stop is safe to call any number of times.
type Countdown struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func NewCountdown() *Countdown {
	return &Countdown{interval: time.Second}
}

// NewCountdownWithInterval is test-only for fast ticking.
func NewCountdownWithInterval(interval time.Duration) *Countdown {
	return &Countdown{interval: interval}
}

// Start begins ticking, replacing any previous run.
func (c *Countdown) Start(onTick func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()

	stop := make(chan struct{})
	c.stop = stop

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				onTick()
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts ticking. Idempotent.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Countdown) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}
