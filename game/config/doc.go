// Package config provides configuration management for the tiles game.
//
// The config package handles:
//   - Loading game configurations from JSON files
//   - Validation through engine.ValidateGameConfig
//   - Default configuration resolution
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game configurations are stored as JSON files in the configs directory.
// Each configuration defines the board size, how many tiles start on the
// board, how many spawn after every move that changes the board, and the
// player-facing messages:
//
//	{
//	  "name": "classic",
//	  "description": "The original 4x4 board",
//	  "grid_size": 4,
//	  "initial_tiles": 2,
//	  "spawns_per_move": 2,
//	  "messages": {"welcome": "...", "moved": "Moved %s.", "no_change": "...", "no_moves_left": "..."}
//	}
//
// Default Resolution:
//
// The default is classic.json when present, else the first valid file in
// name order, else engine.DefaultConfig().
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("classic")
//	configs, err := manager.ListConfigs()
package config
