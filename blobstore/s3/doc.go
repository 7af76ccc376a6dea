// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("nodefinder/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	snapshots := persistence.NewStore(store, "run-42")
//
// Uploads go through the SDK upload manager, which switches to multipart
// uploads for large snapshots.
package s3
