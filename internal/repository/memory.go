package repository

import (
	"context"
	"sync"

	"github.com/gptgames/tictactoe-backend/internal/apperror"
	"github.com/gptgames/tictactoe-backend/internal/entity"
)

// memoryState keeps the snapshot in process memory; used when Redis is not
// configured.
type memoryState struct {
	mu    sync.RWMutex
	state *entity.GameState
}

func NewMemoryStateRepository() StateRepository {
	return &memoryState{}
}

func (that *memoryState) Save(_ context.Context, state *entity.GameState) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.state = state.Clone()

	return nil
}

func (that *memoryState) Load(_ context.Context) (*entity.GameState, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.state == nil {
		return nil, apperror.ErrStateNotFound
	}

	return that.state.Clone(), nil
}

func (that *memoryState) Clear(_ context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.state = nil

	return nil
}
