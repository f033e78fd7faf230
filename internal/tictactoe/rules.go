package tictactoe

import "github.com/gptgames/tictactoe-backend/internal/entity"

// ApplyMove places mark at cell and returns the resulting board.
// The caller must ensure the cell index is in range and the cell is empty;
// move validation is the session's responsibility.
func ApplyMove(board entity.Board, cell int, mark entity.Cell) entity.Board {
	board[cell] = mark
	return board
}

// EvaluateWinner checks the eight winning lines in order and returns the mark
// of the first line whose three cells are equal and non-empty.
func EvaluateWinner(board entity.Board) (entity.Cell, bool) {
	for _, combo := range entity.WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if !a.IsEmpty() && a == b && b == c {
			return a, true
		}
	}

	return entity.EmptyCell, false
}

// IsBoardFull reports whether no empty cell remains.
func IsBoardFull(board entity.Board) bool {
	for _, cell := range board {
		if cell.IsEmpty() {
			return false
		}
	}

	return true
}
