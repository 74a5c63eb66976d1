// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "sfdb/")
//
//	err = backup.Save(ctx, db, store, "events.bak")
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads for large snapshots
//   - CRC32C integrity validation on single-part uploads
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
