package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gptgames/tictactoe-backend/internal/apperror"
	"github.com/gptgames/tictactoe-backend/internal/entity"
)

// stateKey is fixed: the process hosts exactly one session.
const stateKey = "game:state"

// StateRepository stores the session's GameState snapshot so a restarted
// process can resume the board.
type StateRepository interface {
	Save(ctx context.Context, state *entity.GameState) error
	Load(ctx context.Context) (*entity.GameState, error)
	Clear(ctx context.Context) error
}

type dbState struct {
	client *redis.Client
}

func NewStateRepository(client *redis.Client) StateRepository {
	return &dbState{
		client: client,
	}
}

func (that *dbState) Save(ctx context.Context, state *entity.GameState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal game state: %w", err)
	}

	if err = that.client.Set(ctx, stateKey, stateJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game state: %w", err)
	}

	return nil
}

func (that *dbState) Load(ctx context.Context) (*entity.GameState, error) {
	response, err := that.client.Get(ctx, stateKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrStateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}

	var state entity.GameState
	if err = json.Unmarshal([]byte(response), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}

	return &state, nil
}

func (that *dbState) Clear(ctx context.Context) error {
	if err := that.client.Del(ctx, stateKey).Err(); err != nil {
		return fmt.Errorf("failed to delete game state: %w", err)
	}

	return nil
}
