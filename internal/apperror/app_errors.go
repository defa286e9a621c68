package apperror

import "errors"

var (
	ErrOutOfBounds  = errors.New("move is out of bounds")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrGameFinished = errors.New("game is already finished")
	ErrGameNotFound = errors.New("game not found")
)
