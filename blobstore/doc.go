// Package blobstore provides the storage abstraction for nodefinder
// snapshots.
//
// A BlobStore holds named, immutable blobs. Writers replace a blob as a
// whole, so a reader never observes a partially written snapshot.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic rename on Put
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 through the SDK upload manager
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (io.ReadCloser, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
