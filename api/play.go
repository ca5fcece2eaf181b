package api

import (
	"log"
	"net/http"

	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/service"
)

type moveRequest struct {
	Direction string `json:"direction"`
	Reset     bool   `json:"reset,omitempty"`
}

type bulkMoveRequest struct {
	Moves []string `json:"moves"`
	Reset bool     `json:"reset,omitempty"`
}

type resetResponse struct {
	Message string            `json:"message"`
	State   *engine.GameState `json:"state"`
}

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetGameState(r.Context(), sessionID(r))
	reply(w, http.StatusOK, state, err)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := sessionID(r)
	result, err := s.service.Move(r.Context(), id, req.Direction, req.Reset)
	if err != nil {
		reply(w, 0, nil, err)
		return
	}

	outcome := "NOOP"
	if result.Changed {
		outcome = "OK"
	}
	log.Printf("[MOVE] session=%s %s %s spawned=%d tiles=%d max=%d", id, req.Direction, outcome,
		len(result.Spawned), engine.CountTiles(result.GameState.Board), result.GameState.MaxTile)

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkMove(w http.ResponseWriter, r *http.Request) {
	var req bulkMoveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id := sessionID(r)
	result, err := s.service.BulkMove(r.Context(), id, req.Moves, req.Reset)
	if err != nil {
		reply(w, 0, nil, err)
		return
	}

	log.Printf("[BULK] session=%s %d/%d executed, %d changed, stop=%q, max %d->%d", id,
		result.MovesExecuted, result.RequestedMoves, result.Changes, result.StopReasonCode,
		result.MaxTileBefore, result.MaxTileAfter)

	writeJSON(w, http.StatusOK, result)
}

// handlePreview reports what every direction would do, without moving
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := s.service.Preview(r.Context(), sessionID(r))
	reply(w, http.StatusOK, preview, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Reset(r.Context(), sessionID(r))
	reply(w, http.StatusOK, resetResponse{Message: "Game reset successfully", State: state}, err)
}

// handleGetHistory pages through moves: ?page=1&limit=20&order=desc
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  positiveInt(r, "page", 1),
		Limit: positiveInt(r, "limit", 20),
		Order: "desc",
	}
	if r.URL.Query().Get("order") == "asc" {
		opts.Order = "asc"
	}

	history, err := s.service.GetMoveHistory(r.Context(), sessionID(r), opts)
	reply(w, http.StatusOK, history, err)
}
