package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridgames/tictactoe-backend/internal/apperror"
	"github.com/gridgames/tictactoe-backend/internal/entity"
	"github.com/gridgames/tictactoe-backend/internal/game"
	"github.com/gridgames/tictactoe-backend/internal/repository"
)

type publisherRecorder struct {
	mu      sync.Mutex
	updates []*entity.Game
}

func (that *publisherRecorder) PublishGameUpdate(updated *entity.Game) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.updates = append(that.updates, updated)
}

func (that *publisherRecorder) all() []*entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]*entity.Game(nil), that.updates...)
}

func newGameService(publisher GamePublisher) (context.Context, GameService) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return context.Background(), NewGameService(logger, repository.NewMemoryGameRepository(), publisher)
}

func TestGameService_StartGame(t *testing.T) {
	// Given: a service over empty storage
	ctx, games := newGameService(nil)

	// When: a game is started
	newGame, err := games.StartGame(ctx)

	// Then: it is fresh, timestamped and persisted
	require.NoError(t, err)
	assert.NotZero(t, newGame.ID)
	assert.Equal(t, game.StatusInProgress, newGame.Status)
	assert.Equal(t, game.NewBoard(), newGame.Board)
	assert.Empty(t, newGame.Moves)
	assert.WithinDuration(t, time.Now().UTC(), newGame.CreatedAt, time.Minute)

	existing, err := games.GetGame(ctx, newGame.ID)
	require.NoError(t, err)
	assert.Equal(t, newGame.ID, existing.ID)
}

func TestGameService_GetGame(t *testing.T) {
	t.Run("returns error when game not found", func(t *testing.T) {
		ctx, games := newGameService(nil)

		_, err := games.GetGame(ctx, 404)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameService_MakeMove(t *testing.T) {
	t.Run("applies and persists a legal move", func(t *testing.T) {
		// Given: a started game
		ctx, games := newGameService(nil)

		newGame, err := games.StartGame(ctx)
		require.NoError(t, err)

		// When: X opens in the center
		updated, err := games.MakeMove(ctx, newGame.ID, game.PlayerX, 1, 1)

		// Then: the move is applied and survives a refetch
		require.NoError(t, err)
		assert.Equal(t, game.MarkX, updated.Board[1][1])
		assert.Len(t, updated.Moves, 1)

		existing, err := games.GetGame(ctx, newGame.ID)
		require.NoError(t, err)
		assert.Equal(t, game.MarkX, existing.Board[1][1])
		assert.Len(t, existing.Moves, 1)
	})

	t.Run("a rejected move persists nothing", func(t *testing.T) {
		// Given: a game where X holds the center
		ctx, games := newGameService(nil)

		newGame, err := games.StartGame(ctx)
		require.NoError(t, err)

		_, err = games.MakeMove(ctx, newGame.ID, game.PlayerX, 1, 1)
		require.NoError(t, err)

		// When: X tries to move again out of turn
		_, err = games.MakeMove(ctx, newGame.ID, game.PlayerX, 0, 0)
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		// And: O plays the occupied center
		_, err = games.MakeMove(ctx, newGame.ID, game.PlayerO, 1, 1)
		require.ErrorIs(t, err, apperror.ErrCellOccupied)

		// Then: the stored game still holds exactly one move
		existing, err := games.GetGame(ctx, newGame.ID)
		require.NoError(t, err)
		assert.Len(t, existing.Moves, 1)
		assert.Equal(t, game.MarkEmpty, existing.Board[0][0])
	})

	t.Run("a finished game rejects further moves", func(t *testing.T) {
		// Given: a game X has won
		ctx, games := newGameService(nil)

		newGame, err := games.StartGame(ctx)
		require.NoError(t, err)

		for _, move := range []game.Move{
			{Player: game.PlayerX, Row: 0, Col: 0},
			{Player: game.PlayerO, Row: 1, Col: 0},
			{Player: game.PlayerX, Row: 0, Col: 1},
			{Player: game.PlayerO, Row: 1, Col: 1},
			{Player: game.PlayerX, Row: 0, Col: 2},
		} {
			_, err = games.MakeMove(ctx, newGame.ID, move.Player, move.Row, move.Col)
			require.NoError(t, err)
		}

		// When: O plays into the finished game
		_, err = games.MakeMove(ctx, newGame.ID, game.PlayerO, 2, 2)

		// Then: the move is rejected and the record unchanged
		require.ErrorIs(t, err, apperror.ErrGameFinished)

		existing, err := games.GetGame(ctx, newGame.ID)
		require.NoError(t, err)
		assert.Len(t, existing.Moves, 5)
		assert.Equal(t, game.StatusWinnerX, existing.Status)
	})

	t.Run("returns error when game not found", func(t *testing.T) {
		ctx, games := newGameService(nil)

		_, err := games.MakeMove(ctx, 404, game.PlayerX, 0, 0)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("publishes every applied move, not rejections", func(t *testing.T) {
		// Given: a watcher on the publisher seam
		recorder := &publisherRecorder{}
		ctx, games := newGameService(recorder)

		newGame, err := games.StartGame(ctx)
		require.NoError(t, err)

		// When: one legal move and one rejected move come in
		_, err = games.MakeMove(ctx, newGame.ID, game.PlayerX, 0, 0)
		require.NoError(t, err)

		_, err = games.MakeMove(ctx, newGame.ID, game.PlayerX, 0, 1)
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		// Then: only the applied move was published
		updates := recorder.all()
		require.Len(t, updates, 1)
		assert.Equal(t, newGame.ID, updates[0].ID)
		assert.Equal(t, game.MarkX, updates[0].Board[0][0])
	})
}

func TestGameService_ListGames(t *testing.T) {
	// Given: three games, the middle one played to a win
	ctx, games := newGameService(nil)

	first, err := games.StartGame(ctx)
	require.NoError(t, err)

	second, err := games.StartGame(ctx)
	require.NoError(t, err)

	for _, move := range []game.Move{
		{Player: game.PlayerX, Row: 0, Col: 0},
		{Player: game.PlayerO, Row: 1, Col: 0},
		{Player: game.PlayerX, Row: 0, Col: 1},
		{Player: game.PlayerO, Row: 1, Col: 1},
		{Player: game.PlayerX, Row: 0, Col: 2},
	} {
		_, err = games.MakeMove(ctx, second.ID, move.Player, move.Row, move.Col)
		require.NoError(t, err)
	}

	third, err := games.StartGame(ctx)
	require.NoError(t, err)

	// When: the full history page is requested
	summaries, err := games.ListGames(ctx, 20, 0)

	// Then: summaries come newest first and carry the outcome
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, third.ID, summaries[0].ID)
	assert.Equal(t, second.ID, summaries[1].ID)
	assert.Equal(t, first.ID, summaries[2].ID)

	assert.Equal(t, game.StatusWinnerX, summaries[1].Status)
	require.NotNil(t, summaries[1].Winner)
	assert.Equal(t, game.PlayerX, *summaries[1].Winner)
	assert.NotNil(t, summaries[1].FinishedAt)

	assert.Equal(t, game.StatusInProgress, summaries[0].Status)
	assert.Nil(t, summaries[0].Winner)

	// And: pagination slices the same ordering
	page, err := games.ListGames(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)
}
