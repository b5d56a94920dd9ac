// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("maps/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	cp := persistence.NewCheckpointer(store, "run-42", persistence.WithInterval(1000))
//
// # Features
//
//   - CRC32C integrity validation on small snapshots
//   - Multipart uploads for large snapshots
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
