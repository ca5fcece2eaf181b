// Package engine provides the core game logic for the sliding-tile merge puzzle.
//
// The engine package implements the game mechanics including:
//   - Line compression and merging (Compress, Merge, SlideLine)
//   - Board moves in four directions with change detection (ApplyMove, Changed)
//   - Random tile spawning into empty cells (SpawnTile)
//   - Detection of boards where no direction changes anything (HasLegalMove)
//
// Core Types:
//
// Board is an immutable square matrix of cell values where 0 means empty.
// GameEngine wraps one board with its spawn source and move history.
// GameState is what clients see, while GameConfig defines board size, spawn
// counts and messages loaded from JSON files.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	changed := gameEngine.Move(engine.Left)
//	state := gameEngine.GetState()
//
// Game Rules:
//
// A move slides every row or column toward one edge. Equal neighbours merge
// into their sum once per move, scanning from the edge the tiles slide toward,
// so a line of four 2s becomes two 4s. A move that changes the board spawns
// new 2 tiles into random empty cells; a move that changes nothing spawns
// nothing. Play ends when no direction changes the board.
package engine
