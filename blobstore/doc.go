// Package blobstore provides storage backends for map snapshots.
//
// Store is the interface for reading and writing whole, immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral checkpoints
//   - LocalStore: local filesystem with atomic rename on write
//   - CachingStore: read-through LRU in front of any Store
//   - s3.Store: Amazon S3, multipart upload for large snapshots
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// A missing blob must be reported with an error matching ErrNotFound.
package blobstore
