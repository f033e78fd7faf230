package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gptgames/tictactoe-backend/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

const moveInstruction = "You are playing tic-tac-toe as O. " +
	"The board is shown with X and O marks; a digit names a free cell. " +
	"Reply with a single digit 0-8: the free cell where O should play."

// firstMoveDigit matches the first standalone digit 0-8 in a completion.
var firstMoveDigit = regexp.MustCompile(`\b[0-8]\b`)

// MoveResolver produces a legal move for the O mark. It asks the completion
// oracle first and falls back to a uniformly random empty cell whenever the
// oracle fails, answers garbage, or names an occupied cell.
type MoveResolver struct {
	logger  *slog.Logger
	client  CompletionClient
	timeout time.Duration
}

func NewMoveResolver(logger *slog.Logger, client CompletionClient, timeout time.Duration) *MoveResolver {
	return &MoveResolver{
		logger:  logger.With("component", "oracle"),
		client:  client,
		timeout: timeout,
	}
}

// Resolve returns an empty-cell index for O. The board must have at least one
// empty cell; the session guarantees this by never invoking the resolver on a
// terminal state.
func (that *MoveResolver) Resolve(ctx context.Context, board entity.Board) (int, error) {
	cell, err := that.suggest(ctx, board)
	if err == nil {
		return cell, nil
	}

	that.logger.Warn("oracle move rejected, falling back to random", "error", err)

	return randomMove(board)
}

// suggest queries the oracle and validates its answer against the board.
func (that *MoveResolver) suggest(ctx context.Context, board entity.Board) (int, error) {
	if that.client == nil {
		return 0, errors.New("no completion client configured")
	}

	if that.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, that.timeout)
		defer cancel()
	}

	response, err := that.client.Complete(ctx, moveInstruction, RenderBoard(board))
	if err != nil {
		return 0, fmt.Errorf("completion failed: %w", err)
	}

	match := firstMoveDigit.FindString(response)
	if match == "" {
		return 0, fmt.Errorf("no cell index in completion %q", response)
	}

	cell, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("failed to parse cell index: %w", err)
	}

	if !board[cell].IsEmpty() {
		return 0, fmt.Errorf("oracle picked occupied cell %d", cell)
	}

	return cell, nil
}

// RenderBoard draws the board for the oracle prompt: filled cells show their
// mark, empty cells show their own index.
func RenderBoard(board entity.Board) string {
	cells := make([]string, len(board))
	for i, cell := range board {
		if cell.IsEmpty() {
			cells[i] = strconv.Itoa(i)
		} else {
			cells[i] = string(cell)
		}
	}

	var sb strings.Builder
	for row := 0; row < 3; row++ {
		sb.WriteString(" " + cells[row*3] + " | " + cells[row*3+1] + " | " + cells[row*3+2])
		if row < 2 {
			sb.WriteString("\n---+---+---")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func randomMove(board entity.Board) (int, error) {
	availableCells := make([]int, 0, len(board))
	for i, cell := range board {
		if cell.IsEmpty() {
			availableCells = append(availableCells, i)
		}
	}

	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	return availableCells[rand.Intn(len(availableCells))], nil //nolint: gosec // it's ok
}
