// Package websocket pushes game updates to browsers and other watchers.
//
// A Hub keeps one room per session. Each connection gets a read loop, which
// only watches for pongs and disconnects, and a write loop that sends one
// JSON frame per message and pings while idle. A viewer whose buffer fills
// up is disconnected.
//
// Frames:
//
//	{"session_id": "a1b2", "event": "snapshot", "game_state": {...}}
//	{"session_id": "a1b2", "event": "state_update", "game_state": {...}}
//	{"session_id": "a1b2", "event": "no_moves_left", "data": {"max_tile": 256, "total_moves": 140}}
//
// The snapshot is sent once on connect. Session IDs match case-insensitively.
//
// Publish is meant to be the game service's state listener, so updates are
// sent while the service still holds its lock and reach viewers in move
// order. ServeWS joins a viewer through the service's Watch for the same
// reason: no update can slip between the snapshot and the first
// state_update.
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	svc := service.NewGameService(sessions, configs, service.WithStateListener(hub.Publish))
//	hub.ServeWS(w, r, id, func(join func(*engine.GameState)) error {
//		return svc.Watch(r.Context(), id, join)
//	})
package websocket
