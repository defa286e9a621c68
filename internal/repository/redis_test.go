package repository

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridgames/tictactoe-backend/internal/apperror"
	"github.com/gridgames/tictactoe-backend/internal/entity"
	"github.com/gridgames/tictactoe-backend/internal/game"
	"github.com/gridgames/tictactoe-backend/testing/suite"
)

func TestRedisGameRepository(t *testing.T) {
	t.Run("round-trips a game through its keys", func(t *testing.T) {
		ctx, s := suite.New(t)
		repo := NewRedisGameRepository(s.Storage)

		// Given: a stored game with one move
		newGame := entity.NewGame()
		newGame.CreatedAt = time.Now().UTC()

		id, err := repo.Create(ctx, newGame)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		require.NoError(t, newGame.ApplyMove(game.PlayerX, 1, 1))
		require.NoError(t, repo.Update(ctx, newGame))

		// When: the game is fetched back
		existing, err := repo.GetByID(ctx, id)
		require.NoError(t, err)

		// Then: the stored state comes back intact
		assert.Equal(t, newGame.Board, existing.Board)
		assert.Equal(t, newGame.Moves, existing.Moves)
		assert.Equal(t, game.StatusInProgress, existing.Status)
		assert.Nil(t, existing.Winner)
		assert.WithinDuration(t, newGame.CreatedAt, existing.CreatedAt, time.Second)
	})

	t.Run("returns error when game not found", func(t *testing.T) {
		ctx, s := suite.New(t)
		repo := NewRedisGameRepository(s.Storage)

		_, err := repo.GetByID(ctx, 404)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)

		missing := entity.NewGame()
		missing.ID = 404
		missing.CreatedAt = time.Now().UTC()

		err = repo.Update(ctx, missing)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("lists games newest first with pagination", func(t *testing.T) {
		ctx, s := suite.New(t)
		repo := NewRedisGameRepository(s.Storage)

		// Given: five stored games
		for i := 0; i < 5; i++ {
			newGame := entity.NewGame()
			newGame.CreatedAt = time.Now().UTC()

			_, err := repo.Create(ctx, newGame)
			require.NoError(t, err)
		}

		// When: pages of two are walked from the newest game down
		page, err := repo.List(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, int64(5), page[0].ID)
		assert.Equal(t, int64(4), page[1].ID)

		page, err = repo.List(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, int64(3), page[0].ID)
		assert.Equal(t, int64(2), page[1].ID)

		page, err = repo.List(ctx, 2, 4)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, int64(1), page[0].ID)

		// And: the largest possible limit returns the tail from the offset
		page, err = repo.List(ctx, math.MaxInt, 3)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, int64(2), page[0].ID)
		assert.Equal(t, int64(1), page[1].ID)

		// Then: paging past the end yields an empty page
		page, err = repo.List(ctx, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}
