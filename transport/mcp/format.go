package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/service"
)

const rules = `Tiles - Complete Instructions

GAME OBJECTIVE:
Merge equal tiles into bigger ones. There is no score and no winning tile:
play until no direction changes the board.

RULES:
• A move slides every tile as far as it goes toward one edge.
• Two equal tiles that meet merge into one tile holding their sum.
• A tile made by a merge does not merge again in the same move.
• When three equal tiles line up, the pair nearest the edge merges first.
• After a move that changed the board, new 2 tiles spawn on random empty
  cells (how many depends on the config, "spawns_per_move").
• A move that changes nothing spawns nothing.
• The game is stuck when the board is full and no neighbours are equal.

READING THE BOARD:
Rows are printed top to bottom, blank cells are empty:

  | 2 |   |   | 2 |
  |   | 4 |   |   |

Moving left turns the first row into "| 4 |   |   |   |".

MOVEMENT COMMANDS:
• move: one direction, "up", "down", "left" or "right"
• bulk_move: a list of directions, at most 50 per call
• preview_moves: see each direction's result before committing

STRATEGY HINTS:
• Keep your biggest tile in a corner and avoid the direction that pulls it out.
• Fill one edge row first; it becomes a stable base.
• Prefer moves that merge; a no-change move wastes nothing but time.
• Check possible_moves: when only one direction is left, take it.

Good luck!`

func mark(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func formatSessionList(count int, sessions []*service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", count)
	for _, s := range sessions {
		maxTile := 0
		if s.GameState != nil {
			maxTile = s.GameState.MaxTile
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Max tile: %d, Created: %s)\n",
			s.ID, s.ConfigName, maxTile, s.CreatedAt.Format("15:04:05"))
	}
	return b.String()
}

func formatSessionInfo(s *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		s.ID, s.ConfigName, s.CreatedAt.Format("2006-01-02 15:04:05"), formatGameState(s.GameState))
}

func formatConfigs(configs []*service.ConfigInfo) string {
	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, c := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Grid: %dx%d, Start tiles: %d, Spawns per move: %d\n\n",
			c.ConfigID, c.Name, c.Description, c.GridSize, c.GridSize, c.InitialTiles, c.SpawnsPerMove)
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Grid: %dx%d | Max tile: %d | Tiles: %d | Moves: %d\n\n",
		state.GridSize, state.GridSize, state.MaxTile, engine.CountTiles(state.Board), state.TotalMoves)
	b.WriteString(state.Board.String())

	if len(state.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", joinDirections(state.PossibleMoves))
	}
	if state.NoMovesLeft {
		b.WriteString("\nNO MOVES LEFT")
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	b.WriteString(mark(result.Changed, "✓ Board changed\n", "✗ Nothing moved\n"))
	if len(result.Spawned) > 0 {
		fmt.Fprintf(&b, "Spawned at: %s\n", formatPositions(result.Spawned))
	}
	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, e := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", e.Type, e.Message)
		}
	}
	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	grid, config := 0, ""
	if result.GameState != nil {
		grid, config = result.GameState.GridSize, result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s • Grid: %dx%d\n", sessionID, config, grid, grid)
	fmt.Fprintf(&b, "Executed %d/%d moves, %d changed the board\n", result.MovesExecuted, result.RequestedMoves, result.Changes)
	fmt.Fprintf(&b, "Max tile: %d → %d\n", result.MaxTileBefore, result.MaxTileAfter)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, step := range result.Steps {
			fmt.Fprintf(&b, "%d. %s %s tiles=%d max=%d", step.Idx, step.Dir, mark(step.Changed, "✓", "·"), step.TileCount, step.MaxTile)
			if len(step.Spawned) > 0 {
				b.WriteString(" spawn=" + formatPositions(step.Spawned))
			}
			b.WriteString("\n")
		}
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}
	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

// formatPreview shows each direction's slide result, without spawns
func formatPreview(preview *service.PreviewResult) string {
	if preview.Board.Size() == 0 {
		return "No board available"
	}

	var b strings.Builder
	b.WriteString("Current board:\n")
	b.WriteString(preview.Board.String())
	for _, p := range preview.Moves {
		name := strings.ToUpper(string(p.Direction))
		if !p.Changed {
			fmt.Fprintf(&b, "\n%s: no change\n", name)
			continue
		}
		fmt.Fprintf(&b, "\n%s: merges=%d max=%d empty=%d\n", name, p.Merges, p.MaxTile, p.EmptyCells)
		b.WriteString(p.Board.String())
	}
	return b.String()
}

func formatPositions(positions []engine.Position) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return strings.Join(parts, " ")
}

func joinDirections(dirs []engine.Direction) string {
	parts := make([]string, len(dirs))
	for i, d := range dirs {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

func historyLine(num int, move engine.MoveHistoryEntry) string {
	return fmt.Sprintf("%d. %s %s [Tiles: %d]\n", num, move.Action, mark(move.Changed, "✓", "✗"), move.TileCount)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) - Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)
	for _, move := range history.Moves {
		b.WriteString(historyLine(move.MoveNumber, move))
	}
	return b.String()
}

// formatCurrentSegment lists the moves since the last reset
func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Segment: unavailable"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current Move Segment - Moves: %d\n\n", state.CurrentMovesCount)
	if len(state.CurrentMoves) == 0 {
		b.WriteString("(no moves in current segment)")
	}
	for i, move := range state.CurrentMoves {
		b.WriteString(historyLine(i+1, move))
	}
	return b.String()
}
