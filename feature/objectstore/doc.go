// Package objectstore reads and writes principal snapshots as objects in an
// S3/MinIO bucket.
//
// Snapshots use the same principals JSON format as the jsonfile feature, so
// an exported object can be downloaded and synced as-is. The writer creates
// the bucket on first use and fetches the existing object as current state,
// which makes dry runs against a previously stored snapshot meaningful.
package objectstore
