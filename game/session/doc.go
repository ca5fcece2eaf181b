// Package session provides session management for the tiles game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the in-memory session store. Each session owns an independent
// engine.GameEngine and tracks creation and last access times. Sessions live
// only as long as the process; nothing is written to disk.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters drawn from crypto/rand, retried on
// collision. Lookups are case-insensitive.
//
// Usage:
//
//	manager := session.NewManager()
//
//	// Reproducible boards for tests and replays
//	seeded := session.NewManager(session.WithSource(func() engine.Source {
//		return engine.NewSeededSource(42)
//	}))
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
//
//	// Drop sessions idle for more than a day
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
//
// The live session count is exported as the tiles_sessions_active gauge.
package session
