// Package store provides durable persistence for hassle-chat.
//
// # Architecture
//
// Two layers:
//
//   - KV: a plain string-keyed byte store, the Go stand-in for the
//     browser's localStorage. SQLiteKV implements it with a single kv
//     table; MockKV backs tests and ephemeral runs.
//   - StateStore: serializes the session collection and the active-session
//     pointer against the KV under two independent keys.
//
// # Restore Semantics
//
// StateStore.Load never propagates a failure. Missing keys, truncated JSON,
// or type-mismatched payloads all report "no prior state", and the caller
// seeds a fresh default session. Individual timestamps are coerced leniently
// (lastUpdated falls back to createdAt, message timestamps to the session's
// createdAt) so one damaged field never discards a whole conversation.
//
// # Write Semantics
//
// Save writes the collection before the pointer. A partial write therefore
// leaves at most a stale pointer, never a collection inconsistent with
// itself; a stale pointer is re-resolved to the most recently updated
// session on the next restore.
package store
