package words

import (
	"context"
	"fmt"

	"github.com/mcdev12/wordquest/go/clients/supabase_client"
	"github.com/mcdev12/wordquest/go/internal/models"
)

// SupabaseRPC is what the repository needs from the Supabase client.
type SupabaseRPC interface {
	GetRandomWordsFrom(ctx context.Context, fn, level string, limit int) ([]supabase_client.WordRow, error)
}

// SupabaseRepository calls the random-words stored procedure through the
// Supabase REST API.
type SupabaseRepository struct {
	client SupabaseRPC
	fn     string
}

func NewSupabaseRepository(client SupabaseRPC, fn string) *SupabaseRepository {
	return &SupabaseRepository{client: client, fn: fn}
}

func (r *SupabaseRepository) GetRandomWords(ctx context.Context, level models.Level, limit int) ([]models.Word, error) {
	rows, err := r.client.GetRandomWordsFrom(ctx, r.fn, string(level), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch random words from supabase: %w", err)
	}

	words := make([]models.Word, 0, len(rows))
	for _, row := range rows {
		words = append(words, models.Word{
			ID:      row.ID,
			Word:    row.Word,
			Type:    row.Type,
			Meaning: row.Meaning,
			Level:   row.Level,
		})
	}
	return words, nil
}
