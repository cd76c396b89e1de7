// Package session provides session management for the Sokoban server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short session IDs derived from random UUIDs
//   - Optional file persistence that survives restarts
//   - Idle session eviction
//
// Session IDs are case-insensitive. Callers may choose their own ID made of
// letters, digits, '-' and '_'; otherwise the manager generates one.
//
// Persistence:
//
// FilePersistence writes one JSON file per session. The board itself is not
// stored. Instead the file records the puzzle ID and the path of moves taken,
// and loading replays that path through a fresh engine, so a stored session
// can never hold a board the rules could not reach.
//
// Usage:
//
//	fp, err := session.NewFilePersistence("sessions", configManager)
//	manager := session.NewManagerWithPersistence(fp)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", puzzle)
//	sess, err = manager.Get(sess.ID)
package session
