package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

var errNilState = errors.New("state cannot be nil")

// GameEngine owns one board and its history. It is not safe for concurrent
// use; the game service serialises access.
type GameEngine struct {
	cfg   *GameConfig
	src   Source
	state *GameState
}

func NewEngine(config *GameConfig) (*GameEngine, error) {
	return NewEngineWithSource(config, nil)
}

// NewEngineWithSource draws spawn positions from src. A nil src means a
// time-seeded one.
func NewEngineWithSource(config *GameConfig, src Source) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if src == nil {
		src = NewSource()
	}
	return &GameEngine{cfg: config, src: src, state: InitGameStateFromConfig(config, src)}, nil
}

func NewSource() Source {
	return NewSeededSource(uint64(time.Now().UnixNano()))
}

// NewSeededSource returns a deterministic Source; equal seeds give equal spawns
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed>>17|1))
}

func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState replaces the state, recomputing its derived fields. The board
// must match the configured grid size.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return errNilState
	}
	if n := state.Board.Size(); n != e.cfg.GridSize {
		return fmt.Errorf("state board size %d does not match grid_size %d", n, e.cfg.GridSize)
	}
	state.refresh(e.cfg)
	e.state = state
	return nil
}

// Reset deals a fresh board. MoveHistory and TotalMoves carry over; the
// current segment starts empty.
func (e *GameEngine) Reset() *GameState {
	old := e.state
	e.state = InitGameStateFromConfig(e.cfg, e.src)
	e.state.MoveHistory, e.state.TotalMoves = old.MoveHistory, old.TotalMoves
	return e.state
}

// IsStuck reports whether no direction changes the board
func (e *GameEngine) IsStuck() bool {
	return e.state.NoMovesLeft
}

// GetBoard returns a copy the caller may modify
func (e *GameEngine) GetBoard() Board {
	return e.state.Board.Clone()
}

// Move plays dir and records it, no-ops included. It reports whether the
// board changed.
func (e *GameEngine) Move(dir Direction) bool {
	changed, spawned := e.state.MoveTiles(dir, e.cfg, e.src)
	e.state.AddMoveToHistory(dir, changed, spawned)
	return changed
}

func (e *GameEngine) CanMove(dir Direction) bool {
	return CanMove(e.state.Board, dir)
}

func (e *GameEngine) GetPossibleMoves() []Direction {
	return PossibleMoves(e.state.Board)
}

func (e *GameEngine) GetConfig() *GameConfig {
	return e.cfg
}

// GetMoveHistory returns every move since the engine was created
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns nil before the first move
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	h := e.state.MoveHistory
	if len(h) == 0 {
		return nil
	}
	return &h[len(h)-1]
}

// BulkMove plays moves until they run out or the board is stuck, and
// returns the changed flag of each move played.
func (e *GameEngine) BulkMove(moves []Direction) []bool {
	out := make([]bool, 0, len(moves))
	for _, dir := range moves {
		if e.IsStuck() {
			break
		}
		out = append(out, e.Move(dir))
	}
	return out
}
