package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridgames/tictactoe-backend/internal/entity"
	"github.com/gridgames/tictactoe-backend/internal/game"
)

type GameService interface {
	StartGame(ctx context.Context) (*entity.Game, error)
	GetGame(ctx context.Context, id int64) (*entity.Game, error)
	MakeMove(ctx context.Context, id int64, player game.Player, row, col int) (*entity.Game, error)
	ListGames(ctx context.Context, limit, offset int) ([]*entity.GameSummary, error)
}

// GamePublisher receives the updated game after every applied move.
type GamePublisher interface {
	PublishGameUpdate(updated *entity.Game)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) (int64, error)
	Update(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id int64) (*entity.Game, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Game, error)
}

const moveStripes = 64

type gameService struct {
	logger    *slog.Logger
	gameRepo  gameRepo
	publisher GamePublisher

	// moveLocks serializes the read-modify-write of MakeMove per game id
	// within this process; across processes storage stays last-write-wins
	moveLocks [moveStripes]sync.Mutex
}

// NewGameService - the publisher may be nil when nobody watches games live.
func NewGameService(logger *slog.Logger, gameRepo gameRepo, publisher GamePublisher) GameService {
	return &gameService{
		logger:    logger.With("component", "game_service"),
		gameRepo:  gameRepo,
		publisher: publisher,
	}
}

func (that *gameService) StartGame(ctx context.Context) (*entity.Game, error) {
	newGame := entity.NewGame()
	newGame.CreatedAt = time.Now().UTC()

	if _, err := that.gameRepo.Create(ctx, newGame); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.Info("game started", "gameID", newGame.ID)

	return newGame, nil
}

func (that *gameService) GetGame(ctx context.Context, id int64) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return existingGame, nil
}

func (that *gameService) MakeMove(ctx context.Context, id int64, player game.Player, row, col int) (*entity.Game, error) {
	log := that.logger.With("method", "MakeMove", "gameID", id)

	lock := &that.moveLocks[uint64(id)%moveStripes]
	lock.Lock()
	defer lock.Unlock()

	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	// a rejected move persists nothing
	if err = existingGame.ApplyMove(player, row, col); err != nil {
		return nil, err
	}

	if err = that.gameRepo.Update(ctx, existingGame); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	if that.publisher != nil {
		that.publisher.PublishGameUpdate(existingGame)
	}

	log.Info("move applied", "player", player, "row", row, "col", col, "status", existingGame.Status)

	return existingGame, nil
}

func (that *gameService) ListGames(ctx context.Context, limit, offset int) ([]*entity.GameSummary, error) {
	games, err := that.gameRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	summaries := make([]*entity.GameSummary, 0, len(games))
	for _, existingGame := range games {
		summaries = append(summaries, existingGame.Summary())
	}

	return summaries, nil
}
