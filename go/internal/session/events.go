package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/wordquest/go/internal/game"
)

// SessionEvent is the envelope for everything pushed to websocket clients and NATS.
type SessionEvent struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of session event
type EventType string

const (
	EventTypeStatusChanged EventType = "StatusChanged"
	EventTypeClockTick     EventType = "ClockTick"
	EventTypeTimeLeft      EventType = "TimeLeft"
	EventTypeSubTimer      EventType = "SubTimer"
)

// StatusChangedPayload is sent when the game status moves.
type StatusChangedPayload struct {
	Status         game.Status `json:"status"`
	PreviousStatus game.Status `json:"previous_status"`
	StartTime      *time.Time  `json:"start_time,omitempty"`
}

// ClockTickPayload carries the count-up clock.
type ClockTickPayload struct {
	CurrentTime game.ClockTime `json:"current_time"`
	Display     string         `json:"display"`
}

// TimeLeftPayload carries the typing countdown budget.
type TimeLeftPayload struct {
	TimeLeft int `json:"time_left"`
}

// SubTimerPayload carries echo and memory round countdowns.
type SubTimerPayload struct {
	Timer        string  `json:"timer"`
	TimeLeft     float64 `json:"time_left"`
	CountingDown bool    `json:"counting_down"`
	Expired      bool    `json:"expired"`
}

const (
	subTimerEcho   = "echo"
	subTimerMemory = "memory"
)

// NewSessionEvent builds an event with a fresh id and the payload marshalled into Data.
func NewSessionEvent(sessionID uuid.UUID, eventType EventType, payload interface{}, at time.Time) (*SessionEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &SessionEvent{
		ID:        uuid.New().String(),
		SessionID: sessionID.String(),
		Type:      eventType,
		Timestamp: at.UTC(),
		Data:      data,
	}, nil
}
