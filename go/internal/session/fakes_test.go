package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*SessionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *recordingPublisher) statuses(t *testing.T) []StatusChangedPayload {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []StatusChangedPayload
	for _, e := range p.events {
		require.Equal(t, EventTypeStatusChanged, e.Type)
		var payload StatusChangedPayload
		require.NoError(t, json.Unmarshal(e.Data, &payload))
		out = append(out, payload)
	}
	return out
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []*SessionEvent
	closed []uuid.UUID
}

func (b *recordingBroadcaster) Broadcast(_ uuid.UUID, event *SessionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) CloseSession(sessionID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = append(b.closed, sessionID)
}

func (b *recordingBroadcaster) subTimers(t *testing.T) []SubTimerPayload {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []SubTimerPayload
	for _, e := range b.events {
		if e.Type != EventTypeSubTimer {
			continue
		}
		var payload SubTimerPayload
		require.NoError(t, json.Unmarshal(e.Data, &payload))
		out = append(out, payload)
	}
	return out
}

func (b *recordingBroadcaster) closedSessions() []uuid.UUID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uuid.UUID(nil), b.closed...)
}

type harness struct {
	clock       *clockwork.FakeClock
	publisher   *recordingPublisher
	broadcaster *recordingBroadcaster
	manager     *Manager
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		clock:       clockwork.NewFakeClock(),
		publisher:   &recordingPublisher{},
		broadcaster: &recordingBroadcaster{},
	}
	h.manager = NewManager(cfg, h.clock, h.publisher, h.broadcaster)
	t.Cleanup(h.manager.Close)
	return h
}
