package models

import "strings"

// Level is a CEFR vocabulary level.
type Level string

const (
	LevelA1 Level = "a1"
	LevelA2 Level = "a2"
	LevelB1 Level = "b1"
	LevelB2 Level = "b2"
	LevelC1 Level = "c1"
	LevelC2 Level = "c2"
)

// Levels lists every supported level in ascending order.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// ParseLevel normalizes s to lower case and reports whether it names a supported level.
// Surrounding whitespace is not stripped.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToLower(s))
	for _, known := range Levels {
		if l == known {
			return l, true
		}
	}
	return "", false
}

// Word is a single vocabulary entry returned by get_random_words.
type Word struct {
	ID      int64  `json:"id"`
	Word    string `json:"word"`
	Type    string `json:"type"`
	Meaning string `json:"meaning"`
	Level   string `json:"level"`
}
