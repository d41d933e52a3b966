package words

import (
	"errors"

	"github.com/mcdev12/wordquest/go/internal/models"
)

// DefaultLimit is how many words a session asks for when no limit is given.
const DefaultLimit = 20

// DefaultMaxLimit caps a single request.
const DefaultMaxLimit = 100

// InvalidLevelMessage is the fixed validation error returned to clients.
const InvalidLevelMessage = "Invalid level. Must be one of: a1, a2, b1, b2, c1, c2"

// ErrInvalidLevel is returned when the level parameter is missing or unknown.
var ErrInvalidLevel = errors.New(InvalidLevelMessage)

// Query is a validated random-words request.
type Query struct {
	Level models.Level
	Limit int
	// RawLevel is the level exactly as the client sent it.
	RawLevel string
}

// RandomWordsResult is what the app hands back to the transport layer.
type RandomWordsResult struct {
	Words   []models.Word
	Level   models.Level
	Message string
}

// Response is the JSON body of a successful GET /api/words.
type Response struct {
	Words   []models.Word `json:"words"`
	Count   int           `json:"count"`
	Level   string        `json:"level"`
	Message string        `json:"message,omitempty"`
}

// ErrorResponse is the JSON body of a failed GET /api/words.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
