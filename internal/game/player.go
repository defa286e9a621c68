package game

import (
	"errors"
	"fmt"
)

type Player string

const (
	PlayerX Player = "X"
	PlayerO Player = "O"
)

var ErrUnknownPlayer = errors.New("unknown player")

// ParsePlayer - validates a wire value against the closed player set.
func ParsePlayer(value string) (Player, error) {
	switch Player(value) {
	case PlayerX:
		return PlayerX, nil
	case PlayerO:
		return PlayerO, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlayer, value)
	}
}

func (that Player) Other() Player {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Player) Mark() Mark {
	return Mark(that)
}

type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// Player - converts an X or O mark back to the player that owns it.
// The second result is false for the empty mark.
func (that Mark) Player() (Player, bool) {
	switch that {
	case MarkX:
		return PlayerX, true
	case MarkO:
		return PlayerO, true
	default:
		return "", false
	}
}
