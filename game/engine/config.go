package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateGameConfig checks that config describes a playable board and
// carries every message the engine shows.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return errors.New("config validation: config is nil")
	}

	cells := config.GridSize * config.GridSize
	checks := []struct {
		ok  bool
		msg string
	}{
		{config.Name != "", "name is required"},
		{config.Description != "", "description is required"},
		{config.GridSize >= MinGridSize && config.GridSize <= MaxGridSize,
			fmt.Sprintf("grid_size must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.GridSize)},
		{config.InitialTiles >= 1 && config.InitialTiles <= cells,
			fmt.Sprintf("initial_tiles must be between 1 and %d, got %d", cells, config.InitialTiles)},
		{config.SpawnsPerMove >= 1 && config.SpawnsPerMove <= cells,
			fmt.Sprintf("spawns_per_move must be between 1 and %d, got %d", cells, config.SpawnsPerMove)},
		{config.Messages.Welcome != "", "messages.welcome is required"},
		{config.Messages.Moved == "" || strings.Count(config.Messages.Moved, "%s") == 1,
			fmt.Sprintf("messages.moved must contain exactly one %%s, got %q", config.Messages.Moved)},
		{config.Messages.NoChange != "", "messages.no_change is required"},
		{config.Messages.NoMovesLeft != "", "messages.no_moves_left is required"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("config validation: %s", c.msg)
		}
	}
	return nil
}

// DefaultConfig returns the classic 4x4 configuration: two starting tiles and
// two spawns after every move that changes the board.
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:          "classic",
		Description:   "Classic 4x4 board, two tiles spawn after every move",
		GridSize:      DefaultGridSize,
		InitialTiles:  DefaultInitialTiles,
		SpawnsPerMove: DefaultSpawnsPerMove,
	}
	config.Messages.Welcome = "Welcome! Slide the tiles with up/down/left/right (or W/A/S/D)."
	config.Messages.Moved = "Moved %s."
	config.Messages.NoChange = "That move didn't change the board. Try another direction!"
	config.Messages.NoMovesLeft = "No moves left. Game over!"
	return config
}

// LoadGameConfig reads and validates one JSON config file. Paths under
// "configs/" are looked up in $CONFIG_DIR instead when it is set.
func LoadGameConfig(filename string) (*GameConfig, error) {
	path := filename
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		if rest, ok := strings.CutPrefix(filename, "configs/"); ok {
			path = filepath.Join(dir, rest)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := new(GameConfig)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// InitGameStateFromConfig creates a fresh game state: an empty board with the
// configured number of starting tiles spawned by src.
func InitGameStateFromConfig(config *GameConfig, src Source) *GameState {
	if config == nil {
		config = DefaultConfig()
	}

	board := NewBoard(config.GridSize)
	for i := 0; i < config.InitialTiles; i++ {
		var ok bool
		if board, _, ok = SpawnTile(board, src); !ok {
			break
		}
	}

	state := &GameState{
		Board:             board,
		GridSize:          config.GridSize,
		Message:           config.Messages.Welcome,
		ConfigName:        config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		TotalMoves:        0,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
	state.refresh(config)
	return state
}
