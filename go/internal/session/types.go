package session

import (
	"errors"
	"time"

	"github.com/mcdev12/wordquest/go/internal/game"
	"github.com/mcdev12/wordquest/go/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidMode     = errors.New("invalid game mode")
	ErrInvalidStyle    = errors.New("invalid game style")
)

const (
	DefaultTypingTimeLimit = 60
	DefaultRoundDuration   = 5 * time.Second
	DefaultRetention       = 10 * time.Minute
	DefaultReapInterval    = time.Minute
)

// Config holds the per-session timing knobs.
type Config struct {
	TypingTimeLimit int
	EchoCountdown   time.Duration
	MemoryCountdown time.Duration
	CountdownStep   time.Duration
	Retention       time.Duration
	ReapInterval    time.Duration
}

func (c Config) withDefaults() Config {
	if c.TypingTimeLimit <= 0 {
		c.TypingTimeLimit = DefaultTypingTimeLimit
	}
	if c.EchoCountdown <= 0 {
		c.EchoCountdown = DefaultRoundDuration
	}
	if c.MemoryCountdown <= 0 {
		c.MemoryCountdown = DefaultRoundDuration
	}
	if c.CountdownStep <= 0 {
		c.CountdownStep = game.DefaultCountdownStep
	}
	if c.Retention <= 0 {
		c.Retention = DefaultRetention
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = DefaultReapInterval
	}
	return c
}

// CreateRequest is the body of POST /api/sessions.
type CreateRequest struct {
	Mode  models.ModeID    `json:"mode"`
	Style models.GameStyle `json:"style"`
}

// View is the JSON snapshot of one session.
type View struct {
	ID               string           `json:"id"`
	Mode             models.ModeID    `json:"mode"`
	Style            models.GameStyle `json:"style"`
	Status           game.Status      `json:"status"`
	StartTime        *time.Time       `json:"start_time,omitempty"`
	CurrentTime      game.ClockTime   `json:"current_time"`
	TimeLeft         int              `json:"time_left"`
	EchoTimeLeft     float64          `json:"echo_time_left"`
	MemoryTimeLeft   float64          `json:"memory_time_left"`
	EchoCountingDown bool             `json:"echo_counting_down"`
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
