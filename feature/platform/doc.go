// Package platform adapts the analytics platform REST client to the sync
// engine's Reader and Writer contracts.
//
// # Reader
//
// Read downloads the full principal population, so a platform can serve as
// the source for migrations to another platform or for file exports.
//
// # Writer
//
// Write diffs the desired snapshot against the live state and applies the
// plan in batches through the bulk sync endpoint. Each user chunk travels
// with the groups its users reference, so a chunk is self-contained from the
// platform's point of view. Deletes go through the by-name deletion APIs.
//
// With the updatePasswords option set, users carrying a password also get a
// password update after their chunk lands; a failure there is recorded
// against the user and does not fail the chunk.
package platform
