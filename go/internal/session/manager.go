package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/wordquest/go/internal/game"
	"github.com/mcdev12/wordquest/go/internal/models"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// Manager owns the live sessions.
type Manager struct {
	cfg         Config
	clock       clockwork.Clock
	publisher   EventPublisher
	broadcaster Broadcaster

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session registry. A nil publisher logs status changes
// and a nil broadcaster drops live events.
func NewManager(cfg Config, clock clockwork.Clock, publisher EventPublisher, broadcaster Broadcaster) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if publisher == nil {
		publisher = LogPublisher{}
	}
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	return &Manager{
		cfg:         cfg.withDefaults(),
		clock:       clock,
		publisher:   publisher,
		broadcaster: broadcaster,
		sessions:    make(map[uuid.UUID]*Session),
	}
}

// Create starts a new idle session. An empty style means the default style.
func (m *Manager) Create(mode models.ModeID, style models.GameStyle) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if style == "" {
		style = models.DefaultGameStyle
	}
	if !style.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStyle, style)
	}

	timeLimit := 0
	if mode == models.ModeTyping {
		timeLimit = m.cfg.TypingTimeLimit
	}

	store := game.NewMemoryStore(timeLimit)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        uuid.New(),
		Mode:      mode,
		Style:     style,
		CreatedAt: m.clock.Now(),
		store:     store,
		timers:    game.NewTimers(store, mode, style, m.clock),
		cancel:    cancel,
	}

	// Subscribe before the coordinator runs so no transition is missed.
	updates, unsubscribe := store.Subscribe()
	initial := store.Snapshot()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.timers.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		m.forward(ctx, s, initial, updates)
	}()

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Info().
		Str("session_id", s.ID.String()).
		Str("mode", string(mode)).
		Str("style", string(style)).
		Msg("session created")

	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start moves the session to playing. It is idempotent and does nothing once the
// game is over.
func (m *Manager) Start(id uuid.UUID) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	s.store.SetStatusUnless(game.StatusGameOver, game.StatusPlaying)
	return s, nil
}

// BeginRound mounts a fresh sub-timer for the next word and reports whether one
// was started. Only playing echo and memory challenge sessions run rounds.
func (m *Manager) BeginRound(id uuid.UUID) (bool, error) {
	s, err := m.Get(id)
	if err != nil {
		return false, err
	}
	if !s.roundsEnabled() || s.store.Status() != game.StatusPlaying {
		return false, nil
	}

	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	s.stopRoundLocked()
	s.round = m.newRound(s)
	s.round.Start()

	log.Debug().Str("session_id", s.ID.String()).Msg("round started")
	return true, nil
}

// Answer records an early answer, cutting the running sub-timer short.
func (m *Manager) Answer(id uuid.UUID) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	switch s.Mode {
	case models.ModeEcho:
		s.timers.StopEchoTimer()
	case models.ModeMemory:
		s.timers.StopMemoryTimer()
	}

	if round, cut := s.stopRoundLocked(); cut {
		m.broadcastSubTimer(s, SubTimerPayload{
			Timer:    subTimerName(s.Mode),
			TimeLeft: round.TimeLeft(),
		})
	}
	return s, nil
}

// End moves the session to gameOver.
func (m *Manager) End(id uuid.UUID) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	s.roundMu.Lock()
	s.stopRoundLocked()
	s.roundMu.Unlock()

	s.store.SetStatus(game.StatusGameOver)
	return s, nil
}

// Delete tears the session down and disconnects its clients.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	m.teardown(s)
	return nil
}

// Run sweeps finished sessions until ctx is cancelled, then tears every session down.
func (m *Manager) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.cfg.ReapInterval)
	defer ticker.Stop()

	log.Info().
		Dur("retention", m.cfg.Retention).
		Dur("interval", m.cfg.ReapInterval).
		Msg("session reaper started")

	for {
		select {
		case <-ctx.Done():
			m.Close()
			return
		case <-ticker.Chan():
			m.reap()
		}
	}
}

// Close tears every session down.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		m.teardown(s)
	}
}

// reap removes sessions that have been over for longer than the retention.
// The first sweep that sees a session over starts its retention clock.
func (m *Manager) reap() int {
	now := m.clock.Now()

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.store.Status() != game.StatusGameOver {
			s.overSince = time.Time{}
			continue
		}
		if s.overSince.IsZero() {
			s.overSince = now
			continue
		}
		if now.Sub(s.overSince) >= m.cfg.Retention {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.teardown(s)
		log.Info().Str("session_id", s.ID.String()).Msg("reaped finished session")
	}
	return len(expired)
}

func (m *Manager) teardown(s *Session) {
	s.roundMu.Lock()
	s.stopRoundLocked()
	s.roundMu.Unlock()

	s.cancel()
	s.timers.Close()
	s.wg.Wait()
	m.broadcaster.CloseSession(s.ID)

	log.Info().Str("session_id", s.ID.String()).Msg("session closed")
}

func (m *Manager) newRound(s *Session) *game.Countdown {
	name := subTimerName(s.Mode)
	cfg := game.CountdownConfig{
		Duration: m.cfg.EchoCountdown,
		Step:     m.cfg.CountdownStep,
	}

	if s.Mode == models.ModeEcho {
		cfg.OnReady = func(stop func()) {
			s.timers.HandleEchoTimerReady(stop)
			s.timers.SetEchoCountingDown(true)
		}
		cfg.OnTimeLeftChange = func(left float64) {
			s.timers.HandleEchoTimeLeftChange(left)
			m.broadcastSubTimer(s, SubTimerPayload{Timer: name, TimeLeft: left, CountingDown: true})
		}
		cfg.OnExpire = func() {
			s.timers.SetEchoCountingDown(false)
			m.broadcastSubTimer(s, SubTimerPayload{Timer: name, Expired: true})
		}
		return game.NewCountdown(m.clock, cfg)
	}

	cfg.Duration = m.cfg.MemoryCountdown
	cfg.OnReady = s.timers.HandleMemoryTimerReady
	cfg.OnTimeLeftChange = func(left float64) {
		s.timers.HandleMemoryTimeLeftChange(left)
		m.broadcastSubTimer(s, SubTimerPayload{Timer: name, TimeLeft: left, CountingDown: true})
	}
	cfg.OnExpire = func() {
		m.broadcastSubTimer(s, SubTimerPayload{Timer: name, Expired: true})
	}
	return game.NewCountdown(m.clock, cfg)
}

func subTimerName(mode models.ModeID) string {
	if mode == models.ModeMemory {
		return subTimerMemory
	}
	return subTimerEcho
}

// forward turns store snapshots into session events until ctx is cancelled.
func (m *Manager) forward(ctx context.Context, s *Session, prev game.Snapshot, updates <-chan game.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			m.emit(s, prev, snap)
			prev = snap
		}
	}
}

func (m *Manager) emit(s *Session, prev, next game.Snapshot) {
	if next.Status != prev.Status {
		event, err := NewSessionEvent(s.ID, EventTypeStatusChanged, StatusChangedPayload{
			Status:         next.Status,
			PreviousStatus: prev.Status,
			StartTime:      next.StartTime,
		}, m.clock.Now())
		if err != nil {
			log.Error().Err(err).Str("session_id", s.ID.String()).Msg("failed to build session event")
		} else {
			m.broadcaster.Broadcast(s.ID, event)
			m.publish(event)
		}
		log.Info().
			Str("session_id", s.ID.String()).
			Str("status", string(next.Status)).
			Str("previous_status", string(prev.Status)).
			Msg("session status changed")
	}

	if next.CurrentTime != prev.CurrentTime {
		m.broadcastEvent(s, EventTypeClockTick, ClockTickPayload{
			CurrentTime: next.CurrentTime,
			Display:     next.CurrentTime.String(),
		})
	}

	if next.TimeLeft != prev.TimeLeft {
		m.broadcastEvent(s, EventTypeTimeLeft, TimeLeftPayload{TimeLeft: next.TimeLeft})
	}
}

func (m *Manager) publish(event *SessionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := m.publisher.Publish(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("session_id", event.SessionID).
			Str("event_type", string(event.Type)).
			Msg("failed to publish session event")
	}
}

func (m *Manager) broadcastSubTimer(s *Session, payload SubTimerPayload) {
	m.broadcastEvent(s, EventTypeSubTimer, payload)
}

func (m *Manager) broadcastEvent(s *Session, eventType EventType, payload interface{}) {
	event, err := NewSessionEvent(s.ID, eventType, payload, m.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("session_id", s.ID.String()).Msg("failed to build session event")
		return
	}
	m.broadcaster.Broadcast(s.ID, event)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(uuid.UUID, *SessionEvent) {}
func (nopBroadcaster) CloseSession(uuid.UUID)             {}
