package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptgames/tictactoe-backend/internal/apperror"
	"github.com/gptgames/tictactoe-backend/internal/entity"
	"github.com/gptgames/tictactoe-backend/internal/oracle"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	states []*entity.GameState
}

func (that *recordingBroadcaster) BroadcastState(state *entity.GameState) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.states = append(that.states, state)
}

func (that *recordingBroadcaster) recorded() []*entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]*entity.GameState(nil), that.states...)
}

type scriptedResolver struct {
	cells []int
	calls int

	// block, when set, holds every Resolve call until released.
	block chan struct{}
}

func (that *scriptedResolver) Resolve(_ context.Context, board entity.Board) (int, error) {
	if that.block != nil {
		<-that.block
	}

	if that.calls >= len(that.cells) {
		return 0, errors.New("script exhausted")
	}

	cell := that.cells[that.calls]
	that.calls++

	if !board[cell].IsEmpty() {
		return 0, errors.New("scripted cell occupied")
	}

	return cell, nil
}

type failingOracleClient struct{}

func (failingOracleClient) Complete(context.Context, string, string) (string, error) {
	return "", errors.New("oracle unavailable")
}

type recordingStore struct {
	mu    sync.Mutex
	saves int
	last  *entity.GameState
}

func (that *recordingStore) Save(_ context.Context, state *entity.GameState) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.saves++
	that.last = state.Clone()

	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSession(resolver moveResolver) (*Session, *recordingBroadcaster) {
	broadcaster := &recordingBroadcaster{}
	gameSession := New(testLogger(), resolver, nil)
	gameSession.AttachBroadcaster(broadcaster)

	return gameSession, broadcaster
}

func TestSession_SubmitMove(t *testing.T) {
	t.Run("Winning move ends the game without an AI turn", func(t *testing.T) {
		// Given: X holds cells 0 and 1 and it is X's turn
		resolver := &scriptedResolver{}
		gameSession, broadcaster := newTestSession(resolver)
		gameSession.Restore(&entity.GameState{
			Board: entity.Board{"X", "X", "", "", "O", "", "", "", ""},
			Turn:  entity.PlayerX,
		})

		// When: X completes the top row
		err := gameSession.SubmitMove(context.Background(), 2)
		require.NoError(t, err)

		// Then: X wins, exactly one state event is emitted, the resolver is never called
		states := broadcaster.recorded()
		require.Len(t, states, 1)
		assert.Equal(t, entity.Cell("X"), states[0].Winner)
		assert.True(t, states[0].GameOver)
		assert.Equal(t, 0, resolver.calls)
	})

	t.Run("Non-terminal move triggers the AI reply with two ordered events", func(t *testing.T) {
		// Given: an empty board
		resolver := &scriptedResolver{cells: []int{0}}
		gameSession, broadcaster := newTestSession(resolver)

		// When: X plays the center
		err := gameSession.SubmitMove(context.Background(), 4)
		require.NoError(t, err)

		// Then: the intermediate state shows O to move, the final state shows O's reply
		states := broadcaster.recorded()
		require.Len(t, states, 2)

		intermediate := states[0]
		assert.Equal(t, entity.Cell("X"), intermediate.Board[4])
		assert.Equal(t, entity.PlayerO, intermediate.Turn)
		assert.False(t, intermediate.GameOver)

		final := states[1]
		assert.Equal(t, entity.Cell("O"), final.Board[0])
		assert.Equal(t, entity.PlayerX, final.Turn)
		assert.False(t, final.GameOver)
	})

	t.Run("Oracle failure is absorbed by the random fallback", func(t *testing.T) {
		// Given: a resolver whose oracle always fails
		resolver := oracle.NewMoveResolver(testLogger(), failingOracleClient{}, time.Second)
		gameSession, broadcaster := newTestSession(resolver)

		// When: X plays the center on an empty board
		err := gameSession.SubmitMove(context.Background(), 4)
		require.NoError(t, err)

		// Then: O lands on one of the remaining eight cells, two events in order
		states := broadcaster.recorded()
		require.Len(t, states, 2)

		final := states[1]
		assert.Equal(t, entity.Cell("X"), final.Board[4])

		oCells := 0
		for i, cell := range final.Board {
			if cell == "O" {
				oCells++
				assert.NotEqual(t, 4, i)
			}
		}
		assert.Equal(t, 1, oCells)
	})

	t.Run("Out-of-range position is rejected without an AI invocation", func(t *testing.T) {
		resolver := &scriptedResolver{cells: []int{0}}
		gameSession, broadcaster := newTestSession(resolver)

		// When: a move names cell 9
		err := gameSession.SubmitMove(context.Background(), 9)

		// Then: the move is rejected and nothing changed
		require.ErrorIs(t, err, apperror.ErrInvalidCell)
		assert.Empty(t, broadcaster.recorded())
		assert.Equal(t, 0, resolver.calls)
		assert.Equal(t, entity.NewGameState(), gameSession.Snapshot())
	})

	t.Run("Negative position is rejected", func(t *testing.T) {
		gameSession, _ := newTestSession(&scriptedResolver{})

		err := gameSession.SubmitMove(context.Background(), -1)

		require.ErrorIs(t, err, apperror.ErrInvalidCell)
	})

	t.Run("Occupied cell is rejected and stays unchanged", func(t *testing.T) {
		resolver := &scriptedResolver{cells: []int{0, 1}}
		gameSession, broadcaster := newTestSession(resolver)

		require.NoError(t, gameSession.SubmitMove(context.Background(), 4))

		// When: X tries the same cell again
		err := gameSession.SubmitMove(context.Background(), 4)

		// Then: the rejection leaves the board as the first move made it
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Len(t, broadcaster.recorded(), 2)
		assert.Equal(t, entity.Cell("X"), gameSession.Snapshot().Board[4])
	})

	t.Run("Terminal game accepts no further moves", func(t *testing.T) {
		gameSession, broadcaster := newTestSession(&scriptedResolver{})
		gameSession.Restore(&entity.GameState{
			Board:    entity.Board{"X", "X", "X", "O", "O", "", "", "", ""},
			Winner:   "X",
			GameOver: true,
		})

		err := gameSession.SubmitMove(context.Background(), 5)

		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Empty(t, broadcaster.recorded())
	})

	t.Run("Move is rejected while it is O's turn", func(t *testing.T) {
		gameSession, _ := newTestSession(&scriptedResolver{})
		gameSession.Restore(&entity.GameState{
			Board: entity.Board{"X", "", "", "", "", "", "", "", ""},
			Turn:  entity.PlayerO,
		})

		err := gameSession.SubmitMove(context.Background(), 1)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Board-filling move without a line is a draw", func(t *testing.T) {
		// Given: one empty cell and no winning line in sight
		resolver := &scriptedResolver{}
		gameSession, broadcaster := newTestSession(resolver)
		gameSession.Restore(&entity.GameState{
			Board: entity.Board{
				"X", "O", "X",
				"X", "O", "O",
				"O", "X", "",
			},
			Turn: entity.PlayerX,
		})

		// When: X fills the last cell
		err := gameSession.SubmitMove(context.Background(), 8)
		require.NoError(t, err)

		// Then: the game is over with no winner and no AI turn
		states := broadcaster.recorded()
		require.Len(t, states, 1)
		assert.True(t, states[0].GameOver)
		assert.True(t, states[0].Winner.IsEmpty())
		assert.Equal(t, 0, resolver.calls)
	})
}

func TestSession_Reset(t *testing.T) {
	t.Run("Reset restores the initial state from mid-game", func(t *testing.T) {
		gameSession, broadcaster := newTestSession(&scriptedResolver{cells: []int{0}})
		require.NoError(t, gameSession.SubmitMove(context.Background(), 4))

		// When: the game is reset
		gameSession.Reset(context.Background())

		// Then: the snapshot matches the initial state and a state event was emitted
		assert.Equal(t, entity.NewGameState(), gameSession.Snapshot())
		states := broadcaster.recorded()
		require.Len(t, states, 3)
		assert.Equal(t, entity.NewGameState(), states[2])
	})

	t.Run("Reset works from a terminal state", func(t *testing.T) {
		gameSession, _ := newTestSession(&scriptedResolver{})
		gameSession.Restore(&entity.GameState{
			Board:    entity.Board{"X", "X", "X", "O", "O", "", "", "", ""},
			Winner:   "X",
			GameOver: true,
		})

		gameSession.Reset(context.Background())

		assert.Equal(t, entity.NewGameState(), gameSession.Snapshot())
	})
}

func TestSession_OracleSuspension(t *testing.T) {
	t.Run("Concurrent moves are rejected while the oracle is thinking", func(t *testing.T) {
		// Given: a resolver that blocks until released
		resolver := &scriptedResolver{cells: []int{0}, block: make(chan struct{})}
		gameSession, _ := newTestSession(resolver)

		done := make(chan error, 1)
		go func() {
			done <- gameSession.SubmitMove(context.Background(), 4)
		}()

		// When: the intermediate state is visible
		require.Eventually(t, func() bool {
			return gameSession.Snapshot().Turn == entity.PlayerO
		}, time.Second, 5*time.Millisecond)

		// Then: a second submission is rejected as out of turn
		err := gameSession.SubmitMove(context.Background(), 5)
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		close(resolver.block)
		require.NoError(t, <-done)
		assert.Equal(t, entity.PlayerX, gameSession.Snapshot().Turn)
	})

	t.Run("Reset during the oracle call discards the stale move", func(t *testing.T) {
		resolver := &scriptedResolver{cells: []int{0}, block: make(chan struct{})}
		gameSession, _ := newTestSession(resolver)

		done := make(chan error, 1)
		go func() {
			done <- gameSession.SubmitMove(context.Background(), 4)
		}()

		require.Eventually(t, func() bool {
			return gameSession.Snapshot().Turn == entity.PlayerO
		}, time.Second, 5*time.Millisecond)

		// When: a reset lands while the oracle is still thinking
		gameSession.Reset(context.Background())
		close(resolver.block)
		require.NoError(t, <-done)

		// Then: the fresh game is untouched by the late oracle move
		assert.Equal(t, entity.NewGameState(), gameSession.Snapshot())
	})
}

func TestSession_Persistence(t *testing.T) {
	t.Run("Every applied mutation is saved", func(t *testing.T) {
		store := &recordingStore{}
		gameSession := New(testLogger(), &scriptedResolver{cells: []int{0}}, store)

		require.NoError(t, gameSession.SubmitMove(context.Background(), 4))

		// Then: both the X move and the O reply were persisted
		assert.Equal(t, 2, store.saves)
		assert.Equal(t, entity.Cell("O"), store.last.Board[0])
	})

	t.Run("Rejected moves are not saved", func(t *testing.T) {
		store := &recordingStore{}
		gameSession := New(testLogger(), &scriptedResolver{}, store)

		require.Error(t, gameSession.SubmitMove(context.Background(), 9))

		assert.Equal(t, 0, store.saves)
	})

	t.Run("Restore resumes a stored snapshot", func(t *testing.T) {
		gameSession := New(testLogger(), &scriptedResolver{}, nil)

		stored := &entity.GameState{
			Board: entity.Board{"X", "", "", "", "O", "", "", "", ""},
			Turn:  entity.PlayerX,
		}
		gameSession.Restore(stored)

		assert.Equal(t, stored, gameSession.Snapshot())
	})
}
