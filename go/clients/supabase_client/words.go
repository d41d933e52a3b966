package supabase_client

import "context"

// RandomWordsParams are the named arguments of get_random_words.
type RandomWordsParams struct {
	Level string `json:"p_level"`
	Limit int    `json:"p_limit"`
}

// WordRow is one row returned by get_random_words.
type WordRow struct {
	ID      int64  `json:"id"`
	Word    string `json:"word"`
	Type    string `json:"type"`
	Meaning string `json:"meaning"`
	Level   string `json:"level"`
}

func (c *SupabaseClient) GetRandomWords(ctx context.Context, level string, limit int) ([]WordRow, error) {
	return c.GetRandomWordsFrom(ctx, RandomWordsFunction, level, limit)
}

// GetRandomWordsFrom calls a get_random_words compatible procedure named fn.
func (c *SupabaseClient) GetRandomWordsFrom(ctx context.Context, fn, level string, limit int) ([]WordRow, error) {
	var rows []WordRow
	if err := c.RPC(ctx, fn, RandomWordsParams{Level: level, Limit: limit}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
