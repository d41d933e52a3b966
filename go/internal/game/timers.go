package game

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/wordquest/go/internal/models"
	"github.com/rs/zerolog/log"
)

// TickPeriod is the period of both the count-up and the countdown.
const TickPeriod = time.Second

// DefaultSubTimerSeconds is what echo and memory report before their sub-timer first ticks.
const DefaultSubTimerSeconds = 5.0

// Timers coordinates the session clocks of one mounted game page.
//
// Driven by the store status it latches the start time, runs a count-up for every
// mode except typing, and runs the typing countdown in practice style. Echo and
// memory sub-timers register a stop function so that an early answer can cut them
// short in challenge style.
type Timers struct {
	store Store
	clock clockwork.Clock
	mode  models.ModeID
	style models.GameStyle

	mu           sync.Mutex
	countUp      *interval
	countUpStart time.Time
	countdown    *interval

	echoStop         func()
	memoryStop       func()
	echoTimeLeft     float64
	memoryTimeLeft   float64
	echoCountingDown bool

	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewTimers creates a coordinator for mode and style on top of store.
// In production pass clockwork.NewRealClock(); tests use a fake clock.
func NewTimers(store Store, mode models.ModeID, style models.GameStyle, clock clockwork.Clock) *Timers {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timers{
		store:          store,
		clock:          clock,
		mode:           mode,
		style:          style,
		echoTimeLeft:   DefaultSubTimerSeconds,
		memoryTimeLeft: DefaultSubTimerSeconds,
		done:           make(chan struct{}),
	}
}

// Run follows store changes until ctx is cancelled or Close is called.
// All intervals are cancelled before Run returns.
func (t *Timers) Run(ctx context.Context) {
	updates, unsubscribe := t.store.Subscribe()
	defer unsubscribe()
	defer t.Close()

	log.Debug().
		Str("mode", string(t.mode)).
		Str("style", string(t.style)).
		Msg("game timers started")

	t.reconcile()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			t.reconcile()
		}
	}
}

// Close cancels every running interval and waits for their goroutines to exit.
// It is safe to call more than once.
func (t *Timers) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.wg.Wait()
		return
	}
	t.closed = true
	t.stopCountUpLocked()
	t.stopCountdownLocked()
	close(t.done)
	t.mu.Unlock()

	t.wg.Wait()
	log.Debug().Str("mode", string(t.mode)).Msg("game timers closed")
}

// reconcile applies the start-time latch and brings the intervals in line with
// the current store state.
func (t *Timers) reconcile() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	status := t.store.Status()
	playing := status == StatusPlaying

	if playing {
		if _, ok := t.store.StartTime(); !ok {
			t.store.SetStartTime(t.clock.Now())
		}
	}
	startTime, hasStart := t.store.StartTime()

	if playing && hasStart && t.mode != models.ModeTyping {
		if t.countUp != nil && !t.countUpStart.Equal(startTime) {
			t.stopCountUpLocked()
		}
		if t.countUp == nil {
			t.countUpStart = startTime
			t.countUp = startInterval(t.clock, TickPeriod, &t.wg, func(iv *interval) {
				t.tickCountUp(iv, startTime)
			})
			log.Debug().Str("mode", string(t.mode)).Time("start_time", startTime).Msg("count-up started")
		}
	} else {
		t.stopCountUpLocked()
	}

	if playing && t.mode == models.ModeTyping && t.style == models.GameStylePractice {
		if t.countdown == nil {
			t.countdown = startInterval(t.clock, TickPeriod, &t.wg, t.tickCountdown)
			log.Debug().Str("mode", string(t.mode)).Msg("countdown started")
		}
	} else {
		t.stopCountdownLocked()
	}
}

func (t *Timers) tickCountUp(iv *interval, startTime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if iv.stopped() || t.store.Status() != StatusPlaying {
		return
	}
	if start, ok := t.store.StartTime(); !ok || !start.Equal(startTime) {
		return
	}
	t.store.SetCurrentTime(ClockTimeFromDuration(t.clock.Since(startTime)))
}

func (t *Timers) tickCountdown(iv *interval) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if iv.stopped() || t.store.Status() != StatusPlaying {
		return
	}
	if t.mode != models.ModeTyping || t.style != models.GameStylePractice {
		return
	}

	if left := t.store.DecrementTimeLeft(); left <= 0 {
		iv.stop()
		if t.countdown == iv {
			t.countdown = nil
		}
		t.store.SetStatus(StatusGameOver)
		log.Info().Str("mode", string(t.mode)).Msg("time limit reached, game over")
	}
}

func (t *Timers) stopCountUpLocked() {
	if t.countUp == nil {
		return
	}
	t.countUp.stop()
	t.countUp = nil
	t.countUpStart = time.Time{}
	log.Debug().Str("mode", string(t.mode)).Msg("count-up stopped")
}

func (t *Timers) stopCountdownLocked() {
	if t.countdown == nil {
		return
	}
	t.countdown.stop()
	t.countdown = nil
	log.Debug().Str("mode", string(t.mode)).Msg("countdown stopped")
}

// CountUpActive reports whether the elapsed-time interval is running.
func (t *Timers) CountUpActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.countUp != nil
}

// CountdownActive reports whether the typing countdown interval is running.
func (t *Timers) CountdownActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.countdown != nil
}

// HandleEchoTimerReady registers the echo sub-timer's stop function. The last
// registration wins.
func (t *Timers) HandleEchoTimerReady(stop func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.echoStop = stop
}

// HandleMemoryTimerReady registers the memory sub-timer's stop function. The last
// registration wins.
func (t *Timers) HandleMemoryTimerReady(stop func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memoryStop = stop
}

func (t *Timers) HandleEchoTimeLeftChange(timeLeft float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.echoTimeLeft = timeLeft
}

func (t *Timers) HandleMemoryTimeLeftChange(timeLeft float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memoryTimeLeft = timeLeft
}

// StopEchoTimer cuts the echo sub-timer short. It does nothing outside echo
// challenge sessions or before a sub-timer has registered.
func (t *Timers) StopEchoTimer() {
	t.mu.Lock()
	stop := t.echoStop
	allowed := t.mode == models.ModeEcho && t.style == models.GameStyleChallenge
	t.mu.Unlock()

	// The stop function may report back into t, so it runs unlocked.
	if allowed && stop != nil {
		stop()
	}
}

// StopMemoryTimer is StopEchoTimer for memory challenge sessions.
func (t *Timers) StopMemoryTimer() {
	t.mu.Lock()
	stop := t.memoryStop
	allowed := t.mode == models.ModeMemory && t.style == models.GameStyleChallenge
	t.mu.Unlock()

	if allowed && stop != nil {
		stop()
	}
}

func (t *Timers) EchoTimeLeft() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.echoTimeLeft
}

func (t *Timers) MemoryTimeLeft() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.memoryTimeLeft
}

func (t *Timers) SetEchoCountingDown(counting bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.echoCountingDown = counting
}

func (t *Timers) EchoCountingDown() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.echoCountingDown
}

// Mode returns the mode the coordinator was created for.
func (t *Timers) Mode() models.ModeID { return t.mode }

// Style returns the game style the coordinator was created for.
func (t *Timers) Style() models.GameStyle { return t.style }
