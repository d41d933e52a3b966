package game

import (
	"sync"
	"time"
)

// Store is the shared game-status state the timer coordinator reads and drives.
type Store interface {
	Status() Status
	SetStatus(status Status)
	StartTime() (time.Time, bool)
	// SetStartTime records the session start. It is write-once per session.
	SetStartTime(t time.Time)
	SetCurrentTime(c ClockTime)
	// DecrementTimeLeft removes one second from the countdown budget and returns what is left.
	DecrementTimeLeft() int
	// Subscribe returns a channel carrying the latest snapshot after every change
	// and a function that ends the subscription.
	Subscribe() (<-chan Snapshot, func())
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Status      Status     `json:"status"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	CurrentTime ClockTime  `json:"current_time"`
	TimeLeft    int        `json:"time_left"`
	Version     uint64     `json:"version"`
}

// MemoryStore is an in-process Store. Subscribers receive coalesced snapshots:
// a slow reader only ever sees the most recent state, and writers never block.
type MemoryStore struct {
	mu          sync.Mutex
	status      Status
	startTime   time.Time
	hasStart    bool
	currentTime ClockTime
	timeLeft    int
	version     uint64

	subs   map[int]chan Snapshot
	nextID int
}

// NewMemoryStore creates an idle store with a countdown budget of timeLimit seconds.
func NewMemoryStore(timeLimit int) *MemoryStore {
	if timeLimit < 0 {
		timeLimit = 0
	}
	return &MemoryStore{
		status:   StatusIdle,
		timeLeft: timeLimit,
		subs:     make(map[int]chan Snapshot),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *MemoryStore) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == status {
		return
	}
	s.status = status
	s.notifyLocked()
}

// SetStatusUnless moves to status unless the store currently holds unless.
// It reports whether the status is now the requested one.
func (s *MemoryStore) SetStatusUnless(unless, status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == unless {
		return false
	}
	if s.status != status {
		s.status = status
		s.notifyLocked()
	}
	return true
}

func (s *MemoryStore) StartTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime, s.hasStart
}

func (s *MemoryStore) SetStartTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasStart {
		return
	}
	s.startTime = t
	s.hasStart = true
	s.notifyLocked()
}

func (s *MemoryStore) CurrentTime() ClockTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

func (s *MemoryStore) SetCurrentTime(c ClockTime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentTime == c {
		return
	}
	s.currentTime = c
	s.notifyLocked()
}

func (s *MemoryStore) TimeLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLeft
}

func (s *MemoryStore) DecrementTimeLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeLeft > 0 {
		s.timeLeft--
		s.notifyLocked()
	}
	return s.timeLeft
}

// Reset tears the session state down to idle with a fresh budget.
func (s *MemoryStore) Reset(timeLimit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timeLimit < 0 {
		timeLimit = 0
	}
	s.status = StatusIdle
	s.startTime = time.Time{}
	s.hasStart = false
	s.currentTime = ClockTime{}
	s.timeLeft = timeLimit
	s.notifyLocked()
}

// Snapshot returns the current state.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *MemoryStore) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *MemoryStore) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:      s.status,
		CurrentTime: s.currentTime,
		TimeLeft:    s.timeLeft,
		Version:     s.version,
	}
	if s.hasStart {
		start := s.startTime
		snap.StartTime = &start
	}
	return snap
}

func (s *MemoryStore) notifyLocked() {
	s.version++
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		// Replace any unread snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
