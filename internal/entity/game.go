package entity

import (
	"bytes"
	"fmt"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = Cell("")

	BoardSize = 9
)

// WinCombos lists the winning lines in evaluation order: rows, columns, diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Cell holds a single board cell: "X", "O" or empty.
// An empty cell is encoded as JSON null on the wire.
type Cell string

func (that Cell) IsEmpty() bool {
	return that == EmptyCell
}

func (that Cell) MarshalJSON() ([]byte, error) {
	if that == EmptyCell {
		return []byte("null"), nil
	}
	return []byte(`"` + string(that) + `"`), nil
}

func (that *Cell) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*that = EmptyCell
		return nil
	}

	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid cell value: %s", data)
	}

	*that = Cell(data[1 : len(data)-1])

	return nil
}

type Board [BoardSize]Cell

// GameState is the single authoritative state of one game session.
type GameState struct {
	Board    Board  `json:"board"`
	Turn     string `json:"currentPlayer"`
	Winner   Cell   `json:"winner"`
	GameOver bool   `json:"gameOver"`
}

// NewGameState returns the initial state: empty board, X to move.
func NewGameState() *GameState {
	return &GameState{
		Turn: PlayerX,
	}
}

// Clone returns an independent copy of the state.
func (that *GameState) Clone() *GameState {
	clone := *that
	return &clone
}

// Reset reinitializes the state in place, starting a new game lifecycle.
func (that *GameState) Reset() {
	*that = *NewGameState()
}

// EmptyCells returns the indices of all empty cells.
func (that *GameState) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that.Board {
		if cell.IsEmpty() {
			cells = append(cells, i)
		}
	}
	return cells
}

func (that *GameState) IsFinished() bool {
	return that.GameOver
}
