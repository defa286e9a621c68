package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridgames/tictactoe-backend/internal/config"
	"github.com/gridgames/tictactoe-backend/internal/repository"
	"github.com/gridgames/tictactoe-backend/internal/repository/storage"
	"github.com/gridgames/tictactoe-backend/internal/service"
	"github.com/gridgames/tictactoe-backend/transport/rest"
	"github.com/gridgames/tictactoe-backend/transport/websocket"
)

var (
	ErrUnknownStorageBackend = errors.New("unknown storage backend")
	ErrAddrNotFound          = errors.New("storage address string is empty")
)

const shutdownTimeout = 5 * time.Second

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	gameRepo, closeStorage, err := buildGameRepository(ctx, conf)
	if err != nil {
		return fmt.Errorf("could not set up storage: %w", err)
	}

	defer func() {
		if err = closeStorage(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	log.Info("Storage ready", "backend", conf.Storage.Backend)

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	gameService := service.NewGameService(logger, gameRepo, hub)
	restServer := rest.New(logger, conf.HTTPPort, gameService, hub)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := restServer.Start(); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err = restServer.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop HTTP server: %w", err)
		}

		return nil
	}
}

// buildGameRepository - picks the storage backend from the config and
// returns the repository with a close function for its connection.
func buildGameRepository(ctx context.Context, conf *config.Config) (repository.GameRepository, func() error, error) {
	switch conf.Storage.Backend {
	case config.BackendSQLite:
		conn, err := storage.NewSQLiteStorage(conf.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to sqlite storage: %w", err)
		}

		repo, err := repository.NewSQLiteGameRepository(ctx, conn)
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}

		return repo, conn.Close, nil

	case config.BackendPostgres:
		if conf.Storage.Postgres.DSN == "" {
			return nil, nil, fmt.Errorf("%w: postgres DSN", ErrAddrNotFound)
		}

		pool, err := storage.NewPostgresStorage(ctx, conf.Storage.Postgres.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to postgres storage: %w", err)
		}

		repo, err := repository.NewPostgresGameRepository(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		return repo, func() error { pool.Close(); return nil }, nil

	case config.BackendRedis:
		if conf.Storage.Redis.Host == "" {
			return nil, nil, fmt.Errorf("%w: redis host", ErrAddrNotFound)
		}

		client, err := storage.NewRedisStorage(ctx, conf.Storage.Redis.GetRedisAddr())
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisGameRepository(client), client.Close, nil

	case config.BackendMemory:
		return repository.NewMemoryGameRepository(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorageBackend, conf.Storage.Backend)
	}
}
