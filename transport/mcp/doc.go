// Package mcp lets MCP agents play through the REST API.
//
// Each tool becomes one or two API calls; replies are rendered as text, with
// boards drawn by engine.Board.String. API errors come back as tool errors
// so the agent can read and correct them.
//
// Tools: create_session, list_sessions, get_session, game_state, move,
// bulk_move, preview_moves, reset_game, move_history, list_configs and
// game_instructions. The read-only ones carry the readOnlyHint annotation.
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
