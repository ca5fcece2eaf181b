package service

import (
	"context"
	"fmt"
	"time"

	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/observability"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// outcome is what one engine move did. state is the engine's own state and
// must not leave the service lock.
type outcome struct {
	dir     engine.Direction
	changed bool
	spawned []engine.Position
	merges  int
	state   *engine.GameState
}

// play moves the session's engine once and records the move metric.
func play(sess *Session, dir engine.Direction) outcome {
	before := engine.CountTiles(sess.Engine.GetBoard())
	changed := sess.Engine.Move(dir)

	o := outcome{dir: dir, changed: changed, state: sess.Engine.GetState()}
	if last := sess.Engine.GetLastMove(); last != nil {
		o.spawned = last.Spawned
	}
	if changed {
		// every merge removes a tile, every spawn adds one
		o.merges = before - (engine.CountTiles(o.state.Board) - len(o.spawned))
	}
	observability.RecordMove(string(dir), changed, len(o.spawned))
	return o
}

// events describes an outcome for clients: a move or no_change entry,
// then merge, spawns and no_moves_left as they apply.
func (o outcome) events(at time.Time) []GameEvent {
	if !o.changed {
		return []GameEvent{{Type: "no_change", Message: fmt.Sprintf("Move %s did not change the board", o.dir), Timestamp: at}}
	}

	evs := []GameEvent{{Type: "move", Message: fmt.Sprintf("Moved %s", o.dir), Timestamp: at}}
	if o.merges > 0 {
		evs = append(evs, GameEvent{
			Type:      "merge",
			Message:   fmt.Sprintf("%d merge(s), max tile %d", o.merges, o.state.MaxTile),
			Timestamp: at,
		})
	}
	for _, pos := range o.spawned {
		evs = append(evs, GameEvent{
			Type:      "spawn",
			Message:   fmt.Sprintf("Spawned %d at (%d,%d)", engine.SpawnValue, pos.Row, pos.Col),
			Timestamp: at,
			Position:  &pos,
		})
	}
	if o.state.NoMovesLeft {
		evs = append(evs, GameEvent{Type: "no_moves_left", Message: o.state.Message, Timestamp: at})
	}
	return evs
}

func resetEvent() GameEvent {
	return GameEvent{Type: "reset", Message: "Game reset to a fresh board", Timestamp: time.Now()}
}

// Move plays one direction, after resetting the board when reset is set.
func (s *gameService) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	var evs []GameEvent
	if reset {
		sess.Engine.Reset()
		evs = append(evs, resetEvent())
	}
	o := play(sess, dir)
	state := snapshot(sess)
	s.notify(sess, state)

	return &MoveResult{
		Changed:   o.changed,
		GameState: state,
		Message:   state.Message,
		Events:    append(evs, o.events(time.Now())...),
		Spawned:   o.spawned,
	}, nil
}

// BulkMove plays moves in order, at most engine.MaxBulkMoves of them. It
// stops before a move when the board is stuck or the direction is unknown;
// neither is an error.
func (s *gameService) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	res := &BulkMoveResult{RequestedMoves: len(moves), Events: []GameEvent{}}
	if reset {
		sess.Engine.Reset()
		res.Events = append(res.Events, resetEvent())
	}
	res.MaxTileBefore = sess.Engine.GetState().MaxTile

	if len(moves) > engine.MaxBulkMoves {
		res.Truncated, res.Limit = true, engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, m := range moves {
		n := i + 1
		if sess.Engine.IsStuck() {
			res.stop(n, StopNoMovesLeft, "no moves left")
			break
		}
		dir, err := engine.ParseDirection(m)
		if err != nil {
			res.stop(n, StopInvalidDirection, fmt.Sprintf("move %d: %v", n, err))
			break
		}

		o := play(sess, dir)
		res.MovesExecuted++
		if o.changed {
			res.Changes++
		}
		res.Events = append(res.Events, o.events(time.Now())...)
		res.Steps = append(res.Steps, StepInfo{
			Idx:       n,
			Dir:       string(dir),
			Changed:   o.changed,
			Spawned:   o.spawned,
			TileCount: engine.CountTiles(o.state.Board),
			MaxTile:   o.state.MaxTile,
		})
	}

	final := snapshot(sess)
	s.notify(sess, final)
	res.GameState = final
	res.NoMovesLeft = final.NoMovesLeft
	res.MaxTileAfter = final.MaxTile
	res.Message = final.Message
	if res.NoMovesLeft && res.StopReasonCode == "" {
		res.StopReasonCode = StopNoMovesLeft
	}
	for _, d := range final.PossibleMoves {
		res.PossibleMoves = append(res.PossibleMoves, string(d))
	}
	return res, nil
}

func (r *BulkMoveResult) stop(move int, code, reason string) {
	r.StoppedOnMove, r.StopReasonCode, r.StoppedReason = move, code, reason
}

func (s *gameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.Reset()
	state := snapshot(sess)
	s.notify(sess, state)
	return state, nil
}

// Preview slides a copy of the board each way. Nothing spawns and the
// session is left as it was.
func (s *gameService) Preview(ctx context.Context, sessionID string) (*PreviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	board := sess.Engine.GetBoard()
	tiles := engine.CountTiles(board)
	res := &PreviewResult{Board: board, Moves: make([]MovePreview, 0, len(engine.Directions))}
	for _, dir := range engine.Directions {
		p := MovePreview{Direction: dir}
		if next, changed := engine.ApplyMove(board, dir); changed {
			p.Changed = true
			p.Merges = tiles - engine.CountTiles(next)
			p.MaxTile = engine.MaxTile(next)
			p.EmptyCells = len(next.EmptyCells())
			p.Board = next
		}
		res.Moves = append(res.Moves, p)
	}
	return res, nil
}

func (s *gameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return snapshot(sess), nil
}

// GetMoveHistory pages through every move the session has made, newest
// first unless opts.Order is "asc". Reading history does not count as use.
func (s *gameService) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	return pageHistory(sess.Engine.GetMoveHistory(), opts), nil
}

func pageHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	page, limit := max(opts.Page, 1), opts.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	total := len(history)
	pages := max((total+limit-1)/limit, 1)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	moves := make([]engine.MoveHistoryEntry, 0, end-start)
	if opts.Order == "asc" {
		moves = append(moves, history[start:end]...)
	} else {
		for i := total - 1 - start; i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        page,
		PageSize:    limit,
		TotalPages:  pages,
		HasNext:     page < pages,
		HasPrevious: page > 1,
	}
}
