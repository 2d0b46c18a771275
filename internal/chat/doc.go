// Package chat owns the session collection and its message logs.
//
// # Overview
//
// The chat package is the authoritative in-memory state of the client: the
// set of sessions, each session's ordered transcript, and the pointer to the
// active session. Everything else in the application reads from or mutates
// state through the Repository.
//
// # Repository
//
// The Repository serializes all mutations behind a single mutex:
//
//	repo := chat.NewRepository(stateStore, broadcaster, logger)
//
// Key operations:
//
//   - Create(): New session seeded with a welcome message, made active
//   - Delete(id): Remove a session, re-electing the active one if needed
//   - Rename(id, title): Set a title and freeze auto-derivation
//   - Select(id): Switch the active session and persist the pointer
//   - Append(id, msg): Append a message, deriving the title when applicable
//
// Every mutation bumps the session's LastUpdated, persists the full snapshot
// through the StatePersister, and publishes an Event on the broadcaster.
//
// # Guarantees
//
//   - At least one session exists after any mutation; deleting the last
//     session immediately re-creates a fresh default one.
//   - The active id always references an existing session.
//   - Messages are strictly append-ordered; appends never reorder.
//   - Unknown session ids are no-ops, never panics or errors, so the UI
//     stays resilient to stale references.
//
// # Persistence
//
// Storage is best-effort. A failed Save is logged and swallowed: the
// in-memory state remains authoritative for the life of the process, and the
// next successful Save catches the store up.
package chat
