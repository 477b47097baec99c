// Package blobstore abstracts where tree snapshots live.
//
// A BlobStore holds immutable named blobs. Snapshots are written once with
// Create and read back with Open; the small CURRENT blob names the snapshot
// that readers should load (see SetCurrent and Current).
//
// # Built-in Implementations
//
//   - MemoryStore: in-process, for tests
//   - LocalStore: local filesystem, atomic writes and mmap reads
//   - s3.Store and s3.DDBCommitStore: Amazon S3, optionally with a DynamoDB
//     commit table for CURRENT
//   - minio.Store: any S3-compatible server through minio-go
//
// Implementations must be safe for concurrent use.
package blobstore
