package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/gridgames/tictactoe-backend/internal/apperror"
	"github.com/gridgames/tictactoe-backend/internal/entity"
	"github.com/gridgames/tictactoe-backend/internal/game"
)

type memoryGame struct {
	mu     sync.RWMutex
	lastID int64
	games  map[int64]*entity.Game
}

// NewMemoryGameRepository - keeps games in a process-local map, nothing survives a restart.
func NewMemoryGameRepository() GameRepository {
	return &memoryGame{games: make(map[int64]*entity.Game)}
}

func (that *memoryGame) Create(_ context.Context, newGame *entity.Game) (int64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.lastID++
	newGame.ID = that.lastID
	that.games[newGame.ID] = cloneGame(newGame)

	return newGame.ID, nil
}

func (that *memoryGame) Update(_ context.Context, existing *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[existing.ID]; !ok {
		return apperror.ErrGameNotFound
	}

	that.games[existing.ID] = cloneGame(existing)

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id int64) (*entity.Game, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	existing, ok := that.games[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return cloneGame(existing), nil
}

func (that *memoryGame) List(_ context.Context, limit, offset int) ([]*entity.Game, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if limit <= 0 {
		return []*entity.Game{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	ids := make([]int64, 0, len(that.games))
	for id := range that.games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	if offset >= len(ids) {
		return []*entity.Game{}, nil
	}

	end := len(ids)
	if limit < end-offset {
		end = offset + limit
	}

	page := make([]*entity.Game, 0, end-offset)
	for _, id := range ids[offset:end] {
		page = append(page, cloneGame(that.games[id]))
	}

	return page, nil
}

// cloneGame - keeps stored records from aliasing the caller's aggregate.
func cloneGame(existing *entity.Game) *entity.Game {
	clone := *existing
	clone.Moves = make([]game.Move, len(existing.Moves))
	copy(clone.Moves, existing.Moves)

	if existing.Winner != nil {
		winner := *existing.Winner
		clone.Winner = &winner
	}
	if existing.FinishedAt != nil {
		finishedAt := *existing.FinishedAt
		clone.FinishedAt = &finishedAt
	}

	return &clone
}
