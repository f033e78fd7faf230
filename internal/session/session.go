package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gptgames/tictactoe-backend/internal/apperror"
	"github.com/gptgames/tictactoe-backend/internal/entity"
	"github.com/gptgames/tictactoe-backend/internal/tictactoe"
)

type moveResolver interface {
	Resolve(ctx context.Context, board entity.Board) (int, error)
}

type stateStore interface {
	Save(ctx context.Context, state *entity.GameState) error
}

// Broadcaster pushes a state snapshot to every attached observer.
type Broadcaster interface {
	BroadcastState(state *entity.GameState)
}

// Session owns the single authoritative GameState and serializes every
// mutation. The resolver call is the only suspension point: the lock is
// released while the oracle is awaited, so concurrent submissions observe
// Turn=O and are rejected instead of interleaving.
type Session struct {
	logger   *slog.Logger
	resolver moveResolver
	store    stateStore

	mu          sync.Mutex
	game        *entity.GameState
	generation  uint64
	broadcaster Broadcaster
}

func New(logger *slog.Logger, resolver moveResolver, store stateStore) *Session {
	return &Session{
		logger:   logger.With("component", "session"),
		resolver: resolver,
		store:    store,
		game:     entity.NewGameState(),
	}
}

// Restore replaces the current state with a stored snapshot.
// Intended for startup only, before any connection is attached.
func (that *Session) Restore(state *entity.GameState) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.game = state.Clone()
}

// AttachBroadcaster wires the observer fan-out. Until attached, state events
// are dropped.
func (that *Session) AttachBroadcaster(broadcaster Broadcaster) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.broadcaster = broadcaster
}

// Snapshot returns a copy of the current state, for late-joining observers.
func (that *Session) Snapshot() *entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.game.Clone()
}

// SubmitMove validates and applies a player move for X. On a non-terminal
// move it emits the intermediate state, then resolves and applies O's reply.
// A rejected move returns an error and changes nothing.
func (that *Session) SubmitMove(ctx context.Context, position int) error {
	that.mu.Lock()

	if err := that.validateMove(position); err != nil {
		that.mu.Unlock()
		return err
	}

	that.game.Board = tictactoe.ApplyMove(that.game.Board, position, entity.PlayerX)

	finished := that.finalizeIfTerminal()
	if !finished {
		that.game.Turn = entity.PlayerO
	}

	generation := that.generation
	board := that.game.Board

	that.persist(ctx)
	that.emitState()
	that.mu.Unlock()

	if finished {
		return nil
	}

	// Suspension point: the lock is free while the oracle decides, and the
	// already-broadcast intermediate state reads Turn=O.
	cell, err := that.resolver.Resolve(ctx, board)
	if err != nil {
		// Unreachable while the caller guarantees a non-terminal board.
		that.logger.Error("resolver returned no move", "error", err)
		return nil
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.generation != generation {
		// A reset landed while the oracle was thinking; drop the stale move.
		that.logger.Info("discarding oracle move after reset", "cell", cell)
		return nil
	}

	that.game.Board = tictactoe.ApplyMove(that.game.Board, cell, entity.PlayerO)

	if !that.finalizeIfTerminal() {
		that.game.Turn = entity.PlayerX
	}

	that.persist(ctx)
	that.emitState()

	return nil
}

// Reset unconditionally reinitializes the state and emits it.
func (that *Session) Reset(ctx context.Context) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.game.Reset()
	that.generation++

	that.persist(ctx)
	that.emitState()

	that.logger.Info("game reset")
}

// validateMove checks the §move preconditions; callers hold the lock.
func (that *Session) validateMove(position int) error {
	if that.game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if position < 0 || position >= entity.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, position)
	}

	if that.game.Turn != entity.PlayerX {
		return apperror.ErrNotYourTurn
	}

	if !that.game.Board[position].IsEmpty() {
		return apperror.ErrCellOccupied
	}

	return nil
}

// finalizeIfTerminal sets winner and gameOver when the board is decided.
func (that *Session) finalizeIfTerminal() bool {
	if winner, ok := tictactoe.EvaluateWinner(that.game.Board); ok {
		that.game.Winner = winner
		that.game.GameOver = true
		return true
	}

	if tictactoe.IsBoardFull(that.game.Board) {
		that.game.GameOver = true
		return true
	}

	return false
}

func (that *Session) emitState() {
	if that.broadcaster == nil {
		return
	}

	that.broadcaster.BroadcastState(that.game.Clone())
}

func (that *Session) persist(ctx context.Context) {
	if that.store == nil {
		return
	}

	if err := that.store.Save(ctx, that.game); err != nil {
		that.logger.Error("failed to save game state", "error", err)
	}
}
