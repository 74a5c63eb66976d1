// Package sfdb provides a fixed-record circular log store for constrained devices.
//
// A database is a single file holding a 512-byte header followed by a ring of
// equal-length records. Once the ring is full every append overwrites the
// oldest record. The store needs only a minimal file abstraction
// (open/close/read/write/seek/sync/remove), supplied per handle through
// WithFileSystem.
//
// # Quick Start
//
//	db, err := sfdb.Open("/sdcard/events.sdb", 10000, 32,
//	    sfdb.WithSync(true),      // flush after every write
//	    sfdb.WithOverwrite(true), // recreate on capacity/length mismatch
//	)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Append(record); err != nil { // len(record) == 32
//	    return err
//	}
//
// Read the ten latest records, newest first:
//
//	buf := make([]byte, 10*32)
//	n, err := db.Read(buf, 0, 10, sfdb.Descending)
//
// Offset 0 always names the latest record; larger offsets move back in time.
//
// # File Layout
//
//	[0, 512)                         header (see Header)
//	[512, 512+max_record_num*len)    record ring, slot i at 512+i*len
//
// # Durability Model
//
// Append writes the record first and the header second. A crash between the
// two leaves the header behind the data, never ahead of it: after reopening,
// the interrupted record is invisible until a later append reuses its slot.
// There is no checksum on record contents.
//
// # Concurrency
//
// A DB handle performs no locking. Share a handle between goroutines only
// behind an external mutex. Independent handles on different files are safe.
package sfdb
