package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/wordquest/go/internal/dbconfig"
	"github.com/mcdev12/wordquest/go/internal/models"
	"github.com/mcdev12/wordquest/go/internal/words"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// seedWord mirrors one entry of the JSON word list
type seedWord struct {
	Word    string `json:"word"`
	Type    string `json:"type"`
	Meaning string `json:"meaning"`
	Level   string `json:"level"`
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type seedResult struct {
	Total    int
	Inserted int
	Skipped  int
	Invalid  int
	Errors   int
}

const defaultWordsFile = "go/internal/assets/words.json"

// seedOptions come from the environment: WORDS_FILE overrides the bundled list
// and SEED_MIGRATE=false skips applying the schema.
type seedOptions struct {
	File    string
	Migrate bool
}

func optionsFromEnv(getenv func(string) string) seedOptions {
	opts := seedOptions{File: defaultWordsFile, Migrate: true}
	if v := getenv("WORDS_FILE"); v != "" {
		opts.File = v
	}
	if v := getenv("SEED_MIGRATE"); v != "" {
		if migrate, err := strconv.ParseBool(v); err == nil {
			opts.Migrate = migrate
		} else {
			log.Warn().Str("SEED_MIGRATE", v).Msg("invalid SEED_MIGRATE, applying schema")
		}
	}
	return opts
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(context.Background(), optionsFromEnv(os.Getenv)); err != nil {
		log.Fatal().Err(err).Msg("words seed failed")
	}
}

func run(ctx context.Context, opts seedOptions) error {
	list, err := loadWords(opts.File)
	if err != nil {
		return fmt.Errorf("failed to load word list %s: %w", opts.File, err)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()

	if opts.Migrate {
		if _, err := pool.Exec(ctx, words.Schema); err != nil {
			return fmt.Errorf("failed to apply words schema: %w", err)
		}
		log.Info().Msg("words schema applied")
	}

	res := seedWords(ctx, pool, list)
	log.Info().
		Int("total", res.Total).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Int("invalid", res.Invalid).
		Int("errors", res.Errors).
		Msg("words seed complete")
	return nil
}

func loadWords(path string) ([]seedWord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read JSON: %w", err)
	}
	var list []seedWord
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return list, nil
}

// seedWords inserts every valid entry, leaving existing (word, level) pairs alone.
func seedWords(ctx context.Context, db execer, list []seedWord) seedResult {
	res := seedResult{Total: len(list)}

	for _, w := range list {
		level, ok := models.ParseLevel(w.Level)
		word := strings.TrimSpace(w.Word)
		if !ok || word == "" || strings.TrimSpace(w.Meaning) == "" {
			log.Warn().Str("word", w.Word).Str("level", w.Level).Msg("skipping invalid entry")
			res.Invalid++
			continue
		}

		cmdTag, err := db.Exec(ctx, `
            INSERT INTO words (word, type, meaning, level)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (word, level) DO NOTHING
        `, word, w.Type, w.Meaning, string(level))
		if err != nil {
			log.Error().Err(err).Str("word", word).Msg("error inserting word")
			res.Errors++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}
	return res
}
