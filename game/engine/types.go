package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Direction selects how lines are extracted from the board for a move
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"

	// Validation constants
	DefaultGridSize      = 4
	MinGridSize          = 2
	MaxGridSize          = 8
	DefaultInitialTiles  = 2
	DefaultSpawnsPerMove = 2
	SpawnValue           = 2
	MaxBulkMoves         = 50
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

var ErrInvalidDirection = errors.New("invalid direction")

// ParseDirection accepts direction names and the W/A/S/D keys, case-insensitive
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w":
		return Up, nil
	case "down", "s":
		return Down, nil
	case "left", "a":
		return Left, nil
	case "right", "d":
		return Right, nil
	}
	return "", fmt.Errorf("%w: %q (use up/down/left/right or w/a/s/d)", ErrInvalidDirection, s)
}

// Position represents row,col coordinates on the board
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	GridSize      int    `json:"grid_size"`
	InitialTiles  int    `json:"initial_tiles"`
	SpawnsPerMove int    `json:"spawns_per_move"`
	Messages      struct {
		Welcome     string `json:"welcome"`
		Moved       string `json:"moved"`
		NoChange    string `json:"no_change"`
		NoMovesLeft string `json:"no_moves_left"`
	} `json:"messages"`
}

// GameState represents the complete game state
type GameState struct {
	Board       Board              `json:"board"`
	GridSize    int                `json:"grid_size"`
	Message     string             `json:"message"`
	NoMovesLeft bool               `json:"no_moves_left"`
	ConfigName  string             `json:"config_name"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Computed helper views (not required for core game logic)
	PossibleMoves []Direction `json:"possible_moves,omitempty"`
	MaxTile       int         `json:"max_tile"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action     Direction  `json:"action"`
	Changed    bool       `json:"changed"`
	Spawned    []Position `json:"spawned,omitempty"`
	TileCount  int        `json:"tile_count"`
	Timestamp  int64      `json:"timestamp"`
	MoveNumber int        `json:"move_number"`
}

// Clone returns a deep copy of the state. Spawned positions inside history
// entries are shared; the engine never modifies them after recording.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Board = gs.Board.Clone()
	c.MoveHistory = slices.Clone(gs.MoveHistory)
	c.CurrentMoves = slices.Clone(gs.CurrentMoves)
	c.PossibleMoves = slices.Clone(gs.PossibleMoves)
	return &c
}
