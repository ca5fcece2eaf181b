// Package service runs games for the transports.
//
// GameService is what api, the websocket hub and the MCP tools talk to. It is
// split into SessionService, PlayService and ConfigService so callers can ask
// for less. Sessions live in a SessionManager and configurations come from a
// ConfigManager; game/session and game/config provide the implementations.
//
// A single lock serializes moves, so two requests never transform one board
// at the same time. Every state handed out is a copy taken under that lock,
// so callers may encode or keep it while play continues. Preview runs every
// direction on a copy and leaves the session untouched.
//
// A StateListener sees each state after a move, bulk move or reset, still
// under the lock and so in play order. Watch gives a new listener a starting
// snapshot under the same lock.
//
//	svc := service.NewGameService(session.NewManager(), configs,
//		service.WithStateListener(hub.Publish))
//	info, err := svc.CreateSession(ctx, "classic")
//	...
//	result, err := svc.Move(ctx, info.ID, "left", false)
//	if errors.Is(err, engine.ErrInvalidDirection) {
//		// 400
//	}
//
// Lookups fail with ErrSessionNotFound or ErrConfigNotFound wrapped with the
// identifier; invalid configurations with ErrInvalidConfig.
package service
