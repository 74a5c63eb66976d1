// Package fs provides the storage backend abstraction used by the record store.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with read/write/seek/sync capabilities
//   - [FileSystem]: open-with-flags and remove
//
// Together they form the complete capability set the database engine needs;
// the engine never touches storage through any other path.
//
// # Implementations
//
//   - [LocalFS]: production implementation using the standard os package
//   - [MemFS]: in-memory file system for tests and volatile stores
//   - [FaultyFS]: test utility for fault injection (simulate I/O errors)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(fs.NewMemFS())
//	ffs.AddRule("log.sdb", fs.Fault{FailAfterBytes: 520})
//	// pass ffs to sfdb.WithFileSystem
//
// # Design Notes
//
// This package intentionally does NOT include context.Context parameters.
// Operations on a local file or an SD card are non-interruptible at the
// syscall level.
package fs
