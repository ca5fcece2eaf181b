package service

import (
	"time"

	"github.com/wricardo/tiles/game/engine"
)

// Stop reason codes reported by BulkMove
const (
	StopNoMovesLeft      = "no_moves_left"
	StopInvalidDirection = "invalid_direction"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Changed   bool              `json:"changed"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
	Spawned   []engine.Position `json:"spawned,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Changes        int               `json:"changes"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	Steps          []StepInfo        `json:"steps,omitempty"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // no_moves_left|invalid_direction
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Final status aids
	NoMovesLeft   bool     `json:"no_moves_left"`
	MaxTileBefore int      `json:"max_tile_before"`
	MaxTileAfter  int      `json:"max_tile_after"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx       int               `json:"idx"`
	Dir       string            `json:"dir"`
	Changed   bool              `json:"changed"`
	Spawned   []engine.Position `json:"spawned,omitempty"`
	TileCount int               `json:"tile_count"`
	MaxTile   int               `json:"max_tile"`
}

// MovePreview is what one direction would do to the current board. No tiles
// are spawned.
type MovePreview struct {
	Direction  engine.Direction `json:"direction"`
	Changed    bool             `json:"changed"`
	Merges     int              `json:"merges"`
	MaxTile    int              `json:"max_tile"`
	EmptyCells int              `json:"empty_cells"`
	Board      engine.Board     `json:"board,omitempty"`
}

// PreviewResult holds the current board and one preview per direction
type PreviewResult struct {
	Board engine.Board  `json:"board"`
	Moves []MovePreview `json:"moves"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string           `json:"type"` // "move", "no_change", "spawn", "merge", "no_moves_left", "reset"
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Position  *engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename      string `json:"filename"`
	ConfigID      string `json:"config_id"` // The identifier to use for session creation
	Name          string `json:"name"`      // Display name
	Description   string `json:"description"`
	GridSize      int    `json:"grid_size"`
	InitialTiles  int    `json:"initial_tiles"`
	SpawnsPerMove int    `json:"spawns_per_move"`
}
