package game

import (
	"fmt"

	"github.com/gridgames/tictactoe-backend/internal/apperror"
)

const Size = 3

// Board is a value type: assignment copies the grid, so Apply returns
// the updated board and leaves its receiver untouched.
type Board [Size][Size]Mark

type Move struct {
	Player Player `json:"player"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

var winLines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

func NewBoard() Board {
	return Board{}
}

func (that Board) NextPlayer() Player {
	var xs, os int

	for _, row := range that {
		for _, cell := range row {
			switch cell {
			case MarkX:
				xs++
			case MarkO:
				os++
			}
		}
	}

	// X always opens, so O is due only while X holds more cells
	if xs > os {
		return PlayerO
	}

	return PlayerX
}

// Winner - scans the eight lines for three equal non-empty marks.
func (that Board) Winner() (Player, bool) {
	for _, line := range winLines {
		first := that[line[0][0]][line[0][1]]
		second := that[line[1][0]][line[1][1]]
		third := that[line[2][0]][line[2][1]]

		if first != MarkEmpty && first == second && second == third {
			return first.Player()
		}
	}

	return "", false
}

func (that Board) IsDraw() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell == MarkEmpty {
				return false
			}
		}
	}

	_, won := that.Winner()

	return !won
}

func (that Board) Status() Status {
	if winner, ok := that.Winner(); ok {
		return WinnerStatus(winner)
	}

	if that.IsDraw() {
		return StatusDraw
	}

	return StatusInProgress
}

// Apply - validates a placement and returns the updated board.
// Rejections are checked in a fixed order: bounds, occupancy, turn.
func (that Board) Apply(player Player, row, col int) (Board, error) {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return that, fmt.Errorf("%w: row %d, col %d", apperror.ErrOutOfBounds, row, col)
	}

	if that[row][col] != MarkEmpty {
		return that, fmt.Errorf("%w: row %d, col %d", apperror.ErrCellOccupied, row, col)
	}

	if expected := that.NextPlayer(); player != expected {
		return that, fmt.Errorf("%w: %s moves next", apperror.ErrNotYourTurn, expected)
	}

	next := that
	next[row][col] = player.Mark()

	return next, nil
}
