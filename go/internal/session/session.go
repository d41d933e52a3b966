package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/wordquest/go/internal/game"
	"github.com/mcdev12/wordquest/go/internal/models"
)

// Session is one mounted game: its status store, its timer coordinator and the
// sub-timer round in flight, if any.
type Session struct {
	ID        uuid.UUID
	Mode      models.ModeID
	Style     models.GameStyle
	CreatedAt time.Time

	store  *game.MemoryStore
	timers *game.Timers
	cancel context.CancelFunc
	wg     sync.WaitGroup

	roundMu sync.Mutex
	round   *game.Countdown

	// guarded by Manager.mu
	overSince time.Time
}

// roundsEnabled reports whether the session runs per-word sub-timers.
func (s *Session) roundsEnabled() bool {
	if s.Style != models.GameStyleChallenge {
		return false
	}
	return s.Mode == models.ModeEcho || s.Mode == models.ModeMemory
}

// View returns the JSON snapshot of the session.
func (s *Session) View() View {
	snap := s.store.Snapshot()
	return View{
		ID:               s.ID.String(),
		Mode:             s.Mode,
		Style:            s.Style,
		Status:           snap.Status,
		StartTime:        snap.StartTime,
		CurrentTime:      snap.CurrentTime,
		TimeLeft:         snap.TimeLeft,
		EchoTimeLeft:     s.timers.EchoTimeLeft(),
		MemoryTimeLeft:   s.timers.MemoryTimeLeft(),
		EchoCountingDown: s.timers.EchoCountingDown(),
	}
}

// stopRoundLocked stops the running round and waits for its goroutine. The
// caller holds roundMu. It reports the round and whether it was cut short.
func (s *Session) stopRoundLocked() (*game.Countdown, bool) {
	round := s.round
	if round == nil {
		return nil, false
	}
	s.round = nil
	round.Stop()
	<-round.Done()

	cut := !round.Expired()
	if cut && s.Mode == models.ModeEcho {
		s.timers.SetEchoCountingDown(false)
	}
	return round, cut
}
