package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridgames/tictactoe-backend/internal/apperror"
	"github.com/gridgames/tictactoe-backend/internal/entity"
	"github.com/gridgames/tictactoe-backend/internal/game"
)

// Moves and board are stored as JSONB.
type postgresGame struct {
	pool *pgxpool.Pool
}

func NewPostgresGameRepository(ctx context.Context, pool *pgxpool.Pool) (GameRepository, error) {
	repo := &postgresGame{pool: pool}

	if err := repo.init(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (that *postgresGame) init(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS games (
		id BIGSERIAL PRIMARY KEY,
		moves JSONB NOT NULL,
		board JSONB NOT NULL,
		status TEXT NOT NULL,
		winner TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ
	)`

	if _, err := that.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("can't create games table: %w", err)
	}

	return nil
}

func (that *postgresGame) Create(ctx context.Context, newGame *entity.Game) (int64, error) {
	movesJSON, boardJSON, err := encodeGameState(newGame)
	if err != nil {
		return 0, err
	}

	query := `INSERT INTO games (moves, board, status, winner, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	var id int64
	err = that.pool.QueryRow(ctx, query,
		[]byte(movesJSON), []byte(boardJSON), string(newGame.Status),
		postgresWinner(newGame.Winner), newGame.CreatedAt, newGame.FinishedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert game: %w", err)
	}

	newGame.ID = id

	return id, nil
}

func (that *postgresGame) Update(ctx context.Context, existing *entity.Game) error {
	movesJSON, boardJSON, err := encodeGameState(existing)
	if err != nil {
		return err
	}

	query := `UPDATE games SET moves = $1, board = $2, status = $3, winner = $4, finished_at = $5
		WHERE id = $6`

	tag, err := that.pool.Exec(ctx, query,
		[]byte(movesJSON), []byte(boardJSON), string(existing.Status),
		postgresWinner(existing.Winner), existing.FinishedAt, existing.ID)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}

func (that *postgresGame) GetByID(ctx context.Context, id int64) (*entity.Game, error) {
	query := `SELECT id, moves, board, status, winner, created_at, finished_at
		FROM games WHERE id = $1`

	existing, err := scanPostgresGame(that.pool.QueryRow(ctx, query, id).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return existing, nil
}

func (that *postgresGame) List(ctx context.Context, limit, offset int) ([]*entity.Game, error) {
	if limit <= 0 {
		return []*entity.Game{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, moves, board, status, winner, created_at, finished_at
		FROM games ORDER BY id DESC LIMIT $1 OFFSET $2`

	rows, err := that.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := []*entity.Game{}
	for rows.Next() {
		existing, err := scanPostgresGame(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, existing)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game rows: %w", err)
	}

	return games, nil
}

func scanPostgresGame(scan func(dest ...any) error) (*entity.Game, error) {
	var (
		existing   entity.Game
		movesJSON  []byte
		boardJSON  []byte
		status     string
		winner     *string
		createdAt  time.Time
		finishedAt *time.Time
	)

	if err := scan(&existing.ID, &movesJSON, &boardJSON, &status, &winner, &createdAt, &finishedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(movesJSON, &existing.Moves); err != nil {
		return nil, fmt.Errorf("could not unmarshal moves: %w", err)
	}
	if err := json.Unmarshal(boardJSON, &existing.Board); err != nil {
		return nil, fmt.Errorf("could not unmarshal board: %w", err)
	}

	existing.Status = game.Status(status)
	if winner != nil {
		player := game.Player(*winner)
		existing.Winner = &player
	}

	existing.CreatedAt = createdAt.UTC()
	if finishedAt != nil {
		utc := finishedAt.UTC()
		existing.FinishedAt = &utc
	}

	return &existing, nil
}

func postgresWinner(winner *game.Player) *string {
	if winner == nil {
		return nil
	}

	value := string(*winner)

	return &value
}
