package entity

import (
	"fmt"
	"time"

	"github.com/gridgames/tictactoe-backend/internal/apperror"
	"github.com/gridgames/tictactoe-backend/internal/game"
)

type Game struct {
	ID         int64        `json:"id"`
	Board      game.Board   `json:"board"`
	Moves      []game.Move  `json:"moves"`
	Status     game.Status  `json:"status"`
	Winner     *game.Player `json:"winner"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at"`
}

func NewGame() *Game {
	board := game.NewBoard()

	return &Game{
		Board:  board,
		Moves:  []game.Move{},
		Status: board.Status(),
	}
}

func (that *Game) IsFinished() bool {
	return that.Status.IsTerminal()
}

func (that *Game) ApplyMove(player game.Player, row, col int) error {
	if that.IsFinished() {
		return fmt.Errorf("%w: status is %s", apperror.ErrGameFinished, that.Status)
	}

	board, err := that.Board.Apply(player, row, col)
	if err != nil {
		return err
	}

	that.Board = board
	that.Moves = append(that.Moves, game.Move{Player: player, Row: row, Col: col})
	that.Status = board.Status()

	if winner, ok := that.Status.Winner(); ok {
		that.Winner = &winner
	}

	// the finish time is set once, on the move that ends the game
	if that.Status.IsTerminal() && that.FinishedAt == nil {
		now := time.Now().UTC()
		that.FinishedAt = &now
	}

	return nil
}

func (that *Game) Summary() *GameSummary {
	return &GameSummary{
		ID:         that.ID,
		Status:     that.Status,
		Winner:     that.Winner,
		CreatedAt:  that.CreatedAt,
		FinishedAt: that.FinishedAt,
	}
}

// GameSummary is the history view of a game, without the board and moves.
type GameSummary struct {
	ID         int64        `json:"id"`
	Status     game.Status  `json:"status"`
	Winner     *game.Player `json:"winner"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt *time.Time   `json:"finished_at"`
}
