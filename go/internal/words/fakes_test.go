package words

import (
	"context"
	"sync"

	"github.com/mcdev12/wordquest/go/internal/models"
)

type fakeRepository struct {
	mu    sync.Mutex
	words []models.Word
	err   error
	calls []fakeCall
}

type fakeCall struct {
	Level models.Level
	Limit int
}

func (f *fakeRepository) GetRandomWords(ctx context.Context, level models.Level, limit int) ([]models.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{Level: level, Limit: limit})
	if f.err != nil {
		return nil, f.err
	}
	return f.words, nil
}

func (f *fakeRepository) lastCall() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return fakeCall{}
	}
	return f.calls[len(f.calls)-1]
}
