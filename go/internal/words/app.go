package words

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcdev12/wordquest/go/internal/models"
	"github.com/rs/zerolog/log"
)

// WordsRepository defines what the app layer needs from a word source
type WordsRepository interface {
	GetRandomWords(ctx context.Context, level models.Level, limit int) ([]models.Word, error)
}

// Config holds the limits applied to incoming requests
type Config struct {
	DefaultLimit int
	MaxLimit     int
}

// App handles random-word business logic
type App struct {
	repo   WordsRepository
	config Config
}

// NewApp creates a new words App
func NewApp(repo WordsRepository, config Config) *App {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultLimit
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = DefaultMaxLimit
	}
	if config.DefaultLimit > config.MaxLimit {
		config.DefaultLimit = config.MaxLimit
	}
	return &App{
		repo:   repo,
		config: config,
	}
}

// ParseQuery validates the raw level and limit query parameters.
// A missing, non-numeric or non-positive limit falls back to the default.
func (a *App) ParseQuery(rawLevel, rawLimit string) (Query, error) {
	level, ok := models.ParseLevel(rawLevel)
	if !ok {
		return Query{}, ErrInvalidLevel
	}

	limit := a.config.DefaultLimit
	if rawLimit = strings.TrimSpace(rawLimit); rawLimit != "" {
		if n, err := strconv.Atoi(rawLimit); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > a.config.MaxLimit {
		limit = a.config.MaxLimit
	}

	return Query{Level: level, Limit: limit, RawLevel: rawLevel}, nil
}

// RandomWords fetches a random selection of words for q. Upstream failures are
// returned wrapped and never retried.
func (a *App) RandomWords(ctx context.Context, q Query) (*RandomWordsResult, error) {
	words, err := a.repo.GetRandomWords(ctx, q.Level, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get random words: %w", err)
	}

	result := &RandomWordsResult{
		Words: words,
		Level: q.Level,
	}
	if len(words) == 0 {
		log.Warn().Str("level", q.RawLevel).Msg("no words found for level")
		result.Words = []models.Word{}
		result.Message = fmt.Sprintf("No words found for level %s", q.RawLevel)
	}
	return result, nil
}
