// Package api provides HTTP REST API handlers for the tiles game.
//
// The api package implements:
//   - Session management endpoints
//   - Move, bulk move and reset for a session
//   - Paginated move history
//   - Configuration listing, lookup and creation
//   - WebSocket upgrade handling
//   - Health and Prometheus metrics endpoints
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Sessions side by side, ranked by max tile
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current board and status
//   - POST /api/sessions/{id}/move - {"direction": "up|down|left|right", "reset": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["left", "up"], "reset": false}
//   - POST /api/sessions/{id}/reset - Start a fresh board with the same config
//   - GET /api/sessions/{id}/history - ?page=1&limit=20&order=desc
//   - GET /api/sessions/{id}/preview - What each direction would do, without spawning
//
// Configuration:
//   - GET /api/configs - List available configurations
//   - GET /api/configs/{name} - Get one configuration
//   - POST /api/configs - Save a configuration
//   - POST /api/configs/reload - Reread the config directory
//
// Other:
//   - GET /ws?session={id} - WebSocket state updates
//   - GET /health
//   - GET /metrics
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
//
// Error Handling:
//
// Errors are returned as JSON. Unknown sessions and configs map to 404,
// invalid directions and invalid configs to 400:
//
//	{
//	  "error": "error message",
//	  "code": 404
//	}
package api

//
// Enriched Responses (Move and Bulk Move)
//
// Move (POST /api/sessions/{id}/move)
//   Response:
//     - changed: whether any tile moved or merged
//     - spawned: positions of the tiles added after the move
//     - events: move, merge, spawn, no_change, no_moves_left, reset
//     - game_state: board, possible_moves, max_tile, no_moves_left
//
// Bulk Move (POST /api/sessions/{id}/bulk-move)
//   Response:
//     - requested_moves, moves_executed, changes
//     - stopped_reason (text), stop_reason_code (no_moves_left|invalid_direction),
//       stopped_on_move (1-based), truncated, limit
//     - steps: [{ idx, dir, changed, spawned, tile_count, max_tile }]
//     - max_tile_before, max_tile_after, possible_moves
