package game

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a game session.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlaying  Status = "playing"
	StatusGameOver Status = "gameOver"
)

// ClockTime is the count-up display value derived from the session start time.
type ClockTime struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// ClockTimeFromDuration splits d into whole minutes and seconds.
func ClockTimeFromDuration(d time.Duration) ClockTime {
	if d < 0 {
		d = 0
	}
	elapsed := int(d / time.Second)
	return ClockTime{Minutes: elapsed / 60, Seconds: elapsed % 60}
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Minutes, c.Seconds)
}
