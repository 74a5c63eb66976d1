// Package blobstore provides storage abstraction for database backups.
//
// BlobStore is the interface for reading and writing whole blobs (one backup
// snapshot per blob). Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local directory; reads are memory-mapped
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)       // Open for reading
//	    Put(ctx, name, data) error          // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
