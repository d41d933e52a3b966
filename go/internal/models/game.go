package models

// ModeID identifies one of the game variants.
type ModeID string

const (
	ModeEcho         ModeID = "echo"
	ModeTyping       ModeID = "typing"
	ModeMemory       ModeID = "memory"
	ModeMeaningMatch ModeID = "meaning-match"
)

// ModeIDs lists the playable modes in the order they are presented.
var ModeIDs = []ModeID{ModeEcho, ModeTyping, ModeMemory, ModeMeaningMatch}

// Valid reports whether m is a playable mode.
func (m ModeID) Valid() bool {
	for _, known := range ModeIDs {
		if m == known {
			return true
		}
	}
	return false
}

// GameStyle is practice (relaxed) or challenge (timed and scored).
type GameStyle string

const (
	GameStylePractice  GameStyle = "practice"
	GameStyleChallenge GameStyle = "challenge"
)

// DefaultGameStyle is preselected on the pre-game screen.
const DefaultGameStyle = GameStyleChallenge

// Valid reports whether s is a known game style.
func (s GameStyle) Valid() bool {
	return s == GameStylePractice || s == GameStyleChallenge
}
