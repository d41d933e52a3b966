package game

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCountdownStep is how often a Countdown reports its remaining time.
const DefaultCountdownStep = 100 * time.Millisecond

// CountdownConfig configures a sub-timer.
type CountdownConfig struct {
	Duration time.Duration
	Step     time.Duration

	// OnReady receives the stop function once, when the countdown starts.
	OnReady func(stop func())
	// OnTimeLeftChange receives the remaining seconds, rounded to a tenth, on start
	// and on every step.
	OnTimeLeftChange func(seconds float64)
	// OnExpire runs once when the countdown reaches zero on its own.
	OnExpire func()
}

// Countdown is a self-contained sub-timer for echo and memory rounds. It owns its
// interval; a coordinator only ever holds the stop function handed to OnReady.
//
// Callbacks run while the countdown holds its lock, so OnReady and
// OnTimeLeftChange must not call Stop synchronously. OnExpire may.
type Countdown struct {
	clock clockwork.Clock
	cfg   CountdownConfig

	mu       sync.Mutex
	started  bool
	finished atomic.Bool
	steps    int
	quit     chan struct{}
	done     chan struct{}
}

// NewCountdown creates a countdown that does nothing until Start.
func NewCountdown(clock clockwork.Clock, cfg CountdownConfig) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cfg.Step <= 0 {
		cfg.Step = DefaultCountdownStep
	}
	if cfg.Duration <= 0 {
		cfg.Duration = time.Duration(DefaultSubTimerSeconds * float64(time.Second))
	}
	return &Countdown{
		clock: clock,
		cfg:   cfg,
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start begins counting down and hands Stop to OnReady. Later calls do nothing.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.finished.Load() {
		return
	}
	c.started = true

	ticker := c.clock.NewTicker(c.cfg.Step)
	go c.run(ticker)

	if c.cfg.OnReady != nil {
		c.cfg.OnReady(c.Stop)
	}
	c.report(c.timeLeftLocked())
}

// Stop ends the countdown early. Calling it again, or after the countdown has
// expired, is a no-op.
func (c *Countdown) Stop() {
	if c.finished.Load() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished.Swap(true) {
		return
	}
	close(c.quit)
	if !c.started {
		close(c.done)
	}
}

// Done is closed once the countdown has stopped or expired and its goroutine is gone.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// TimeLeft returns the remaining seconds, rounded to a tenth.
func (c *Countdown) TimeLeft() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLeftLocked()
}

// Expired reports whether the countdown reached zero on its own.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLeftLocked() <= 0
}

func (c *Countdown) run(ticker clockwork.Ticker) {
	defer close(c.done)
	defer ticker.Stop()

	for {
		select {
		case <-c.quit:
			return
		case <-ticker.Chan():
			if c.step() {
				return
			}
		}
	}
}

// step advances one tick and reports whether the countdown is over.
func (c *Countdown) step() bool {
	c.mu.Lock()
	if c.finished.Load() {
		c.mu.Unlock()
		return true
	}
	c.steps++
	left := c.timeLeftLocked()
	c.report(left)
	if left > 0 {
		c.mu.Unlock()
		return false
	}
	c.finished.Store(true)
	c.mu.Unlock()

	if c.cfg.OnExpire != nil {
		c.cfg.OnExpire()
	}
	return true
}

func (c *Countdown) report(left float64) {
	if c.cfg.OnTimeLeftChange != nil {
		c.cfg.OnTimeLeftChange(left)
	}
}

func (c *Countdown) timeLeftLocked() float64 {
	remaining := c.cfg.Duration - time.Duration(c.steps)*c.cfg.Step
	if remaining <= 0 {
		return 0
	}
	return math.Round(remaining.Seconds()*10) / 10
}
