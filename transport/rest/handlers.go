package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/gridgames/tictactoe-backend/internal/apperror"
	"github.com/gridgames/tictactoe-backend/internal/game"
)

const (
	defaultListLimit  = 20
	defaultListOffset = 0
)

type moveRequest struct {
	Player string `json:"player"`
	Row    *int   `json:"row"`
	Col    *int   `json:"col"`
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func (that *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	newGame, err := that.games.StartGame(r.Context())
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, newGame)
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	existing, err := that.games.GetGame(r.Context(), id)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, existing)
}

func (that *Server) handleMakeMove(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	var req moveRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	player, err := game.ParsePlayer(req.Player)
	if err != nil {
		respondBadRequest(w, "player must be X or O")
		return
	}

	if req.Row == nil || req.Col == nil {
		respondBadRequest(w, "row and col are required")
		return
	}

	updated, err := that.games.MakeMove(r.Context(), id, player, *req.Row, *req.Col)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (that *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	offset, err := queryInt(r, "offset", defaultListOffset)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	summaries, err := that.games.ListGames(r.Context(), limit, offset)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summaries)
}

func (that *Server) handleWatchGame(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	existing, err := that.games.GetGame(r.Context(), id)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	that.hub.ServeWatch(w, r, existing)
}

// respondError - maps domain failures to status codes: an absent game
// is 404, every rejected move is 400, anything unexpected is 500.
func (that *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		status, message = http.StatusNotFound, apperror.ErrGameNotFound.Error()
	case errors.Is(err, apperror.ErrGameFinished):
		status, message = http.StatusBadRequest, apperror.ErrGameFinished.Error()
	case errors.Is(err, apperror.ErrNotYourTurn):
		status, message = http.StatusBadRequest, apperror.ErrNotYourTurn.Error()
	case errors.Is(err, apperror.ErrCellOccupied):
		status, message = http.StatusBadRequest, apperror.ErrCellOccupied.Error()
	case errors.Is(err, apperror.ErrOutOfBounds):
		status, message = http.StatusBadRequest, apperror.ErrOutOfBounds.Error()
	default:
		that.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	respondJSON(w, status, map[string]string{"error": message})
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func gameID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.New("game id must be an integer")
	}

	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}

	return value, nil
}
