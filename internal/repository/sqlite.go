package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gridgames/tictactoe-backend/internal/apperror"
	"github.com/gridgames/tictactoe-backend/internal/entity"
	"github.com/gridgames/tictactoe-backend/internal/game"
)

// Moves and board travel as JSON text, timestamps as RFC 3339 text.
type sqliteGame struct {
	conn *sql.DB
}

func NewSQLiteGameRepository(ctx context.Context, conn *sql.DB) (GameRepository, error) {
	repo := &sqliteGame{conn: conn}

	if err := repo.init(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (that *sqliteGame) init(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS games (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		moves TEXT NOT NULL,
		board TEXT NOT NULL,
		status TEXT NOT NULL,
		winner TEXT,
		created_at TEXT NOT NULL,
		finished_at TEXT
	)`

	if _, err := that.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("can't create games table: %w", err)
	}

	return nil
}

func (that *sqliteGame) Create(ctx context.Context, newGame *entity.Game) (int64, error) {
	movesJSON, boardJSON, err := encodeGameState(newGame)
	if err != nil {
		return 0, err
	}

	query := `INSERT INTO games (moves, board, status, winner, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := that.conn.ExecContext(ctx, query,
		movesJSON, boardJSON, string(newGame.Status),
		sqliteWinner(newGame.Winner), sqliteTime(newGame.CreatedAt), sqliteTimePtr(newGame.FinishedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert game: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted game id: %w", err)
	}

	newGame.ID = id

	return id, nil
}

func (that *sqliteGame) Update(ctx context.Context, existing *entity.Game) error {
	movesJSON, boardJSON, err := encodeGameState(existing)
	if err != nil {
		return err
	}

	query := `UPDATE games SET moves = ?, board = ?, status = ?, winner = ?, finished_at = ?
		WHERE id = ?`

	result, err := that.conn.ExecContext(ctx, query,
		movesJSON, boardJSON, string(existing.Status),
		sqliteWinner(existing.Winner), sqliteTimePtr(existing.FinishedAt), existing.ID)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}

func (that *sqliteGame) GetByID(ctx context.Context, id int64) (*entity.Game, error) {
	query := `SELECT id, moves, board, status, winner, created_at, finished_at
		FROM games WHERE id = ?`

	existing, err := scanSQLiteGame(that.conn.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return existing, nil
}

func (that *sqliteGame) List(ctx context.Context, limit, offset int) ([]*entity.Game, error) {
	if limit <= 0 {
		return []*entity.Game{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, moves, board, status, winner, created_at, finished_at
		FROM games ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := that.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := []*entity.Game{}
	for rows.Next() {
		existing, err := scanSQLiteGame(rows.Scan)
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

func scanSQLiteGame(scan func(dest ...any) error) (*entity.Game, error) {
	var (
		existing   entity.Game
		movesJSON  string
		boardJSON  string
		status     string
		winner     sql.NullString
		createdAt  string
		finishedAt sql.NullString
	)

	if err := scan(&existing.ID, &movesJSON, &boardJSON, &status, &winner, &createdAt, &finishedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(movesJSON), &existing.Moves); err != nil {
		return nil, fmt.Errorf("could not unmarshal moves: %w", err)
	}
	if err := json.Unmarshal([]byte(boardJSON), &existing.Board); err != nil {
		return nil, fmt.Errorf("could not unmarshal board: %w", err)
	}

	existing.Status = game.Status(status)
	if winner.Valid {
		player := game.Player(winner.String)
		existing.Winner = &player
	}

	parsedCreatedAt, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("could not parse created_at: %w", err)
	}
	existing.CreatedAt = parsedCreatedAt

	if finishedAt.Valid {
		parsedFinishedAt, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("could not parse finished_at: %w", err)
		}
		existing.FinishedAt = &parsedFinishedAt
	}

	return &existing, nil
}

func encodeGameState(existing *entity.Game) (string, string, error) {
	movesJSON, err := json.Marshal(existing.Moves)
	if err != nil {
		return "", "", fmt.Errorf("could not marshal moves: %w", err)
	}

	boardJSON, err := json.Marshal(existing.Board)
	if err != nil {
		return "", "", fmt.Errorf("could not marshal board: %w", err)
	}

	return string(movesJSON), string(boardJSON), nil
}

func sqliteWinner(winner *game.Player) any {
	if winner == nil {
		return nil
	}

	return string(*winner)
}

func sqliteTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func sqliteTimePtr(value *time.Time) any {
	if value == nil {
		return nil
	}

	return sqliteTime(*value)
}
