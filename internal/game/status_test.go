package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusDraw.IsTerminal())
	assert.True(t, StatusWinnerX.IsTerminal())
	assert.True(t, StatusWinnerO.IsTerminal())
}

func TestStatus_Winner(t *testing.T) {
	t.Run("winner statuses name their player", func(t *testing.T) {
		winner, ok := StatusWinnerX.Winner()
		require.True(t, ok)
		assert.Equal(t, PlayerX, winner)

		winner, ok = StatusWinnerO.Winner()
		require.True(t, ok)
		assert.Equal(t, PlayerO, winner)
	})

	t.Run("other statuses have no winner", func(t *testing.T) {
		_, ok := StatusInProgress.Winner()
		assert.False(t, ok)

		_, ok = StatusDraw.Winner()
		assert.False(t, ok)
	})
}

func TestWinnerStatus(t *testing.T) {
	assert.Equal(t, StatusWinnerX, WinnerStatus(PlayerX))
	assert.Equal(t, StatusWinnerO, WinnerStatus(PlayerO))
}

func TestParsePlayer(t *testing.T) {
	t.Run("accepts the two players", func(t *testing.T) {
		player, err := ParsePlayer("X")
		require.NoError(t, err)
		assert.Equal(t, PlayerX, player)

		player, err = ParsePlayer("O")
		require.NoError(t, err)
		assert.Equal(t, PlayerO, player)
	})

	t.Run("rejects anything else", func(t *testing.T) {
		for _, value := range []string{"", "x", "o", "XX", "Z"} {
			_, err := ParsePlayer(value)
			assert.ErrorIs(t, err, ErrUnknownPlayer, "value %q", value)
		}
	})
}

func TestPlayer_Other(t *testing.T) {
	assert.Equal(t, PlayerO, PlayerX.Other())
	assert.Equal(t, PlayerX, PlayerO.Other())
}

func TestMark_Player(t *testing.T) {
	player, ok := MarkX.Player()
	require.True(t, ok)
	assert.Equal(t, PlayerX, player)

	player, ok = MarkO.Player()
	require.True(t, ok)
	assert.Equal(t, PlayerO, player)

	_, ok = MarkEmpty.Player()
	assert.False(t, ok)
}
