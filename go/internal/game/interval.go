package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// interval is a cancellable repeating action. Once stop returns, stopped reports
// true; tick callbacks must check it under the owner's lock before mutating state
// so that a tick already in flight cannot apply after cancellation.
type interval struct {
	ticker clockwork.Ticker
	quit   chan struct{}
	once   sync.Once
}

func startInterval(clock clockwork.Clock, period time.Duration, wg *sync.WaitGroup, tick func(iv *interval)) *interval {
	iv := &interval{
		ticker: clock.NewTicker(period),
		quit:   make(chan struct{}),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer iv.ticker.Stop()
		for {
			select {
			case <-iv.quit:
				return
			case <-iv.ticker.Chan():
				tick(iv)
			}
		}
	}()

	return iv
}

func (iv *interval) stop() {
	iv.once.Do(func() {
		close(iv.quit)
	})
}

func (iv *interval) stopped() bool {
	select {
	case <-iv.quit:
		return true
	default:
		return false
	}
}
