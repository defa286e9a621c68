package repository

import (
	"context"

	"github.com/gridgames/tictactoe-backend/internal/entity"
)

// Every backend assigns ids in increasing creation order, so List pages
// newest first by id. List treats limit <= 0 as an empty page and a
// negative offset as zero.
type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) (int64, error)
	Update(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id int64) (*entity.Game, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Game, error)
}
