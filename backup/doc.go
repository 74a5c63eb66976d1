// Package backup exports the live records of a database to a blob store and
// restores them into another database.
//
// A backup blob is a 32-byte header followed by the payload:
//
//	[0, 8)    magic "SFDBBAK1"
//	[8]       codec (0 none, 1 lz4, 2 zstd)
//	[9, 12)   reserved
//	[12, 16)  record_len
//	[16, 20)  max_record_num of the source
//	[20, 24)  record count
//	[24, 28)  stored payload size
//	[28, 32)  CRC32C of the uncompressed payload
//
// All integers are little-endian. The uncompressed payload is the records
// oldest to newest, back to back.
//
//	store := blobstore.NewLocalStore("/backups")
//	m, err := backup.Save(ctx, db, store, "events.bak", backup.WithCodec(backup.CodecZstd))
//	...
//	m, err = backup.Restore(ctx, store, "events.bak", other)
package backup
