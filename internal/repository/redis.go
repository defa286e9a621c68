package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/gridgames/tictactoe-backend/internal/apperror"
	"github.com/gridgames/tictactoe-backend/internal/entity"
)

const (
	gameKeyPrefix   = "game:"
	gameIndexKey    = "games:index"
	gameSequenceKey = "games:next-id"
)

// Each game is a JSON blob under its own key. Ids come from an INCR
// sequence; a sorted set scored by id keeps the newest-first order.
type redisGame struct {
	client *redis.Client
}

func NewRedisGameRepository(client *redis.Client) GameRepository {
	return &redisGame{client: client}
}

func (that *redisGame) Create(ctx context.Context, newGame *entity.Game) (int64, error) {
	id, err := that.client.Incr(ctx, gameSequenceKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to reserve game id: %w", err)
	}

	newGame.ID = id

	if err = that.set(ctx, newGame); err != nil {
		return 0, err
	}

	err = that.client.ZAdd(ctx, gameIndexKey, redis.Z{Score: float64(id), Member: id}).Err()
	if err != nil {
		return 0, fmt.Errorf("failed to index game: %w", err)
	}

	return id, nil
}

func (that *redisGame) Update(ctx context.Context, existing *entity.Game) error {
	count, err := that.client.Exists(ctx, gameKey(existing.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check game existence: %w", err)
	}
	if count == 0 {
		return apperror.ErrGameNotFound
	}

	return that.set(ctx, existing)
}

func (that *redisGame) GetByID(ctx context.Context, id int64) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existing entity.Game
	if err = json.Unmarshal([]byte(response), &existing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existing, nil
}

func (that *redisGame) List(ctx context.Context, limit, offset int) ([]*entity.Game, error) {
	if limit <= 0 {
		return []*entity.Game{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	start := int64(offset)
	stop := start + int64(limit) - 1
	if stop < start {
		// The sum wrapped around, -1 reads through the oldest entry.
		stop = -1
	}

	ids, err := that.client.ZRevRange(ctx, gameIndexKey, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read game index: %w", err)
	}

	games := []*entity.Game{}
	if len(ids) == 0 {
		return games, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, gameKeyPrefix+id)
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	for _, value := range values {
		blob, ok := value.(string)
		if !ok {
			// Indexed id without a blob, nothing useful to return for it.
			continue
		}

		var existing entity.Game
		if err = json.Unmarshal([]byte(blob), &existing); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game: %w", err)
		}

		games = append(games, &existing)
	}

	return games, nil
}

func (that *redisGame) set(ctx context.Context, existing *entity.Game) error {
	gameJSON, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKey(existing.ID), gameJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func gameKey(id int64) string {
	return gameKeyPrefix + strconv.FormatInt(id, 10)
}
