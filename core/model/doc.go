// Package model defines the in-memory data model shared by every reader,
// writer, and the reconciliation engine: User, Group, and the Snapshot
// aggregate that holds both.
//
// A Snapshot is the sole interchange value between the core and all I/O
// adapters. Readers construct one per invocation; once returned it is treated
// as immutable, and the diff engine only reads from it.
//
// # Keys
//
// Users are keyed by lower-cased login name to avoid case duplicates, which
// matches the remote platform's behavior. Groups are keyed by exact name.
// Insertion order is preserved so that exported files are deterministic.
//
// # Duplicate Policies
//
// Adding an already-present user or group is governed by a DuplicatePolicy:
// reject (default), keep the existing entry, replace it, or merge group
// memberships into the new entry.
package model
