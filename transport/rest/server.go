package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/gridgames/tictactoe-backend/internal/service"
	"github.com/gridgames/tictactoe-backend/transport/websocket"
)

type Server struct {
	logger *slog.Logger
	games  service.GameService
	hub    *websocket.Hub
	server *http.Server
}

func New(logger *slog.Logger, port string, games service.GameService, hub *websocket.Hub) *Server {
	that := &Server{
		logger: logger.With("component", "rest_server"),
		games:  games,
		hub:    hub,
	}

	that.server = &http.Server{
		Addr:         ":" + port,
		Handler:      that.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	return that
}

func (that *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ping", that.handlePing).Methods(http.MethodGet)

	router.HandleFunc("/games", that.handleStartGame).Methods(http.MethodPost)
	router.HandleFunc("/games", that.handleListGames).Methods(http.MethodGet)
	router.HandleFunc("/games/{id}", that.handleGetGame).Methods(http.MethodGet)
	router.HandleFunc("/games/{id}/move", that.handleMakeMove).Methods(http.MethodPost)

	if that.hub != nil {
		router.HandleFunc("/games/{id}/watch", that.handleWatchGame).Methods(http.MethodGet)
	}

	router.Use(that.withRequestID, that.withAccessLog)

	return router
}

// Handler - the routed handler, exposed for tests.
func (that *Server) Handler() http.Handler {
	return that.server.Handler
}

func (that *Server) Start() error {
	that.logger.Info("starting HTTP server", "addr", that.server.Addr)

	if err := that.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Stop(ctx context.Context) error {
	if err := that.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	return nil
}
