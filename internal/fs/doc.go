// Package fs is the filesystem seam of the local blob store.
//
// Production code uses [Default], which forwards to the os package. Tests
// wrap it in a [FaultyFS] to make writes, syncs or renames of selected
// files fail:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("checkpoint", fs.Fault{FailOnSync: true})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
package fs
