package words

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/wordquest/go/internal/models"
)

// Querier is the part of pgxpool.Pool the repository uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type wordRow struct {
	ID      int64  `db:"id"`
	Word    string `db:"word"`
	Type    string `db:"type"`
	Meaning string `db:"meaning"`
	Level   string `db:"level"`
}

// PostgresRepository calls the random-words stored procedure directly over a
// Postgres connection.
type PostgresRepository struct {
	db    Querier
	query string
}

// NewPostgresRepository creates a repository calling function fn, e.g. get_random_words.
func NewPostgresRepository(db Querier, fn string) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		query: fmt.Sprintf(
			"SELECT id, word, type, meaning, level FROM %s($1, $2)",
			pgx.Identifier{fn}.Sanitize(),
		),
	}
}

func (r *PostgresRepository) GetRandomWords(ctx context.Context, level models.Level, limit int) ([]models.Word, error) {
	rows, err := r.db.Query(ctx, r.query, string(level), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query random words: %w", err)
	}

	dbWords, err := pgx.CollectRows(rows, pgx.RowToStructByName[wordRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan random words: %w", err)
	}

	words := make([]models.Word, 0, len(dbWords))
	for _, w := range dbWords {
		words = append(words, r.dbWordToModel(w))
	}
	return words, nil
}

func (r *PostgresRepository) dbWordToModel(w wordRow) models.Word {
	return models.Word{
		ID:      w.ID,
		Word:    w.Word,
		Type:    w.Type,
		Meaning: w.Meaning,
		Level:   w.Level,
	}
}
