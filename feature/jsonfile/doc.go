// Package jsonfile reads and writes principal snapshots as JSON files.
//
// The file format is a flat array of principals, each tagged with
// principalTypeEnum (LOCAL_USER or LOCAL_GROUP). It is the same format the
// platform's bulk sync endpoint consumes, so a file written here can be
// inspected, versioned, and later synced as-is.
//
// # Components
//
//   - Reader: loads a snapshot from a JSON file ("filename" option).
//   - Writer: dumps the desired snapshot to a JSON file, no diffing.
package jsonfile
