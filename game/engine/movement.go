package engine

import (
	"fmt"
	"strings"
	"time"
)

// MoveTiles slides the board in the given direction. When the board changes,
// SpawnsPerMove new tiles are placed and their positions returned; otherwise
// nothing spawns and the no-change message is set.
func (gs *GameState) MoveTiles(dir Direction, config *GameConfig, src Source) (bool, []Position) {
	if _, ok := strategies[dir]; !ok {
		gs.Message = fmt.Sprintf("Unknown direction %q", dir)
		return false, nil
	}

	before := gs.Board
	after, changed := ApplyMove(before, dir)
	if !changed {
		gs.Message = config.Messages.NoChange
		gs.refresh(config)
		return false, nil
	}

	var spawned []Position
	for i := 0; i < config.SpawnsPerMove; i++ {
		next, pos, ok := SpawnTile(after, src)
		if !ok {
			break
		}
		after = next
		spawned = append(spawned, pos)
	}
	gs.Board = after

	gs.Message = fmt.Sprintf("Moved %s", dir)
	if config.Messages.Moved != "" {
		gs.Message = config.Messages.Moved
		if strings.Contains(config.Messages.Moved, "%s") {
			gs.Message = fmt.Sprintf(config.Messages.Moved, dir)
		}
	}
	gs.refresh(config)
	return true, spawned
}

// refresh recomputes the derived fields after the board changed
func (gs *GameState) refresh(config *GameConfig) {
	gs.PossibleMoves = PossibleMoves(gs.Board)
	gs.MaxTile = MaxTile(gs.Board)
	gs.NoMovesLeft = len(gs.PossibleMoves) == 0
	if gs.NoMovesLeft && config != nil {
		gs.Message = config.Messages.NoMovesLeft
	}
}

// AddMoveToHistory adds a move to the game's move history
func (gs *GameState) AddMoveToHistory(action Direction, changed bool, spawned []Position) {
	entry := MoveHistoryEntry{
		Action:     action,
		Changed:    changed,
		Spawned:    spawned,
		TileCount:  CountTiles(gs.Board),
		Timestamp:  time.Now().Unix(),
		MoveNumber: gs.TotalMoves + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current segment history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
