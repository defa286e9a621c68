package game

// Status is always derived from the board cells, never stored on its own.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusDraw       Status = "DRAW"
	StatusWinnerX    Status = "WINNER_X"
	StatusWinnerO    Status = "WINNER_O"
)

func (that Status) IsTerminal() bool {
	switch that {
	case StatusDraw, StatusWinnerX, StatusWinnerO:
		return true
	default:
		return false
	}
}

func (that Status) Winner() (Player, bool) {
	switch that {
	case StatusWinnerX:
		return PlayerX, true
	case StatusWinnerO:
		return PlayerO, true
	default:
		return "", false
	}
}

func WinnerStatus(player Player) Status {
	if player == PlayerX {
		return StatusWinnerX
	}
	return StatusWinnerO
}
