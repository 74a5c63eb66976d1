package backup

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/sfdb"
	"github.com/hupe1980/sfdb/blobstore"
	"github.com/hupe1980/sfdb/internal/hash"
)

// ErrCorrupt is returned when a backup blob fails validation.
var ErrCorrupt = errors.New("backup: corrupt blob")

// Magic identifies a backup blob.
var Magic = [8]byte{'S', 'F', 'D', 'B', 'B', 'A', 'K', '1'}

const headerSize = 32

// Manifest describes a backup blob.
type Manifest struct {
	Codec        Codec
	RecordLen    uint32
	MaxRecordNum uint32
	Count        uint32
	StoredSize   uint32
	Checksum     uint32
}

func (m Manifest) encode(buf []byte) {
	copy(buf[0:8], Magic[:])
	buf[8] = byte(m.Codec)
	buf[9], buf[10], buf[11] = 0, 0, 0
	binary.LittleEndian.PutUint32(buf[12:], m.RecordLen)
	binary.LittleEndian.PutUint32(buf[16:], m.MaxRecordNum)
	binary.LittleEndian.PutUint32(buf[20:], m.Count)
	binary.LittleEndian.PutUint32(buf[24:], m.StoredSize)
	binary.LittleEndian.PutUint32(buf[28:], m.Checksum)
}

func decodeManifest(data []byte) (Manifest, error) {
	if len(data) < headerSize {
		return Manifest{}, fmt.Errorf("%w: %d bytes, need %d", ErrCorrupt, len(data), headerSize)
	}
	if [8]byte(data[0:8]) != Magic {
		return Manifest{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[0:8])
	}
	m := Manifest{
		Codec:        Codec(data[8]),
		RecordLen:    binary.LittleEndian.Uint32(data[12:]),
		MaxRecordNum: binary.LittleEndian.Uint32(data[16:]),
		Count:        binary.LittleEndian.Uint32(data[20:]),
		StoredSize:   binary.LittleEndian.Uint32(data[24:]),
		Checksum:     binary.LittleEndian.Uint32(data[28:]),
	}
	if m.RecordLen == 0 || m.RecordLen > sfdb.MaxRecordLen {
		return Manifest{}, fmt.Errorf("%w: record length %d", ErrCorrupt, m.RecordLen)
	}
	if m.MaxRecordNum == 0 || m.Count > m.MaxRecordNum {
		return Manifest{}, fmt.Errorf("%w: %d records in a ring of %d", ErrCorrupt, m.Count, m.MaxRecordNum)
	}
	if uint64(len(data)-headerSize) != uint64(m.StoredSize) {
		return Manifest{}, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(data)-headerSize, m.StoredSize)
	}

	raw := uint64(m.Count) * uint64(m.RecordLen)
	switch m.Codec {
	case CodecNone:
		if uint64(m.StoredSize) != raw {
			return Manifest{}, fmt.Errorf("%w: %d records need %d bytes, payload is %d", ErrCorrupt, m.Count, raw, m.StoredSize)
		}
	case CodecLZ4:
		if raw > uint64(m.StoredSize)*lz4MaxRatio {
			return Manifest{}, fmt.Errorf("%w: %d bytes cannot expand to %d with %s", ErrCorrupt, m.StoredSize, raw, m.Codec)
		}
	case CodecZstd:
		if raw > maxDecodedSize {
			return Manifest{}, fmt.Errorf("%w: %d bytes exceed the %d byte decode limit", ErrCorrupt, raw, maxDecodedSize)
		}
	default:
		return Manifest{}, fmt.Errorf("%w: unknown codec %d", ErrCorrupt, uint8(m.Codec))
	}
	return m, nil
}

type options struct {
	codec Codec
}

// Option configures Save.
type Option func(*options)

// WithCodec selects the payload compression. Default: CodecNone.
func WithCodec(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// Save writes every live record of db, oldest first, to name in store.
func Save(ctx context.Context, db *sfdb.DB, store blobstore.BlobStore, name string, optFns ...Option) (Manifest, error) {
	var o options
	for _, fn := range optFns {
		fn(&o)
	}

	info, err := db.Info()
	if err != nil {
		return Manifest{}, err
	}

	raw := make([]byte, int(info.RecordCount)*int(info.RecordLen))
	n, err := db.Read(raw, 0, info.RecordCount, sfdb.Ascending)
	if err != nil {
		return Manifest{}, err
	}
	raw = raw[:n*int(info.RecordLen)]

	payload, codec, err := compress(raw, o.codec)
	if err != nil {
		return Manifest{}, fmt.Errorf("backup: compress: %w", err)
	}

	m := Manifest{
		Codec:        codec,
		RecordLen:    info.RecordLen,
		MaxRecordNum: info.MaxRecordNum,
		Count:        uint32(n),
		StoredSize:   uint32(len(payload)),
		Checksum:     hash.CRC32C(raw),
	}

	blob := make([]byte, headerSize+len(payload))
	m.encode(blob)
	copy(blob[headerSize:], payload)

	if err := store.Put(ctx, name, blob); err != nil {
		return Manifest{}, fmt.Errorf("backup: put %s: %w", name, err)
	}
	return m, nil
}

// Inspect reads and validates the header of a backup blob.
func Inspect(ctx context.Context, store blobstore.BlobStore, name string) (Manifest, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return Manifest{}, err
	}
	return decodeManifest(data)
}

// Restore appends the records of a backup blob, oldest first, to db.
// The record length of db must match the backup; the capacity may differ,
// in which case a smaller ring keeps only the latest records.
func Restore(ctx context.Context, store blobstore.BlobStore, name string, db *sfdb.DB) (Manifest, error) {
	info, err := db.Info()
	if err != nil {
		return Manifest{}, err
	}

	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return Manifest{}, err
	}
	m, err := decodeManifest(data)
	if err != nil {
		return Manifest{}, err
	}
	if m.RecordLen != info.RecordLen {
		return m, &sfdb.SizeError{Expected: int(info.RecordLen), Actual: int(m.RecordLen)}
	}

	size := int(m.Count) * int(m.RecordLen)
	raw, err := decompress(data[headerSize:], m.Codec, size)
	if err != nil {
		return m, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if sum := hash.CRC32C(raw); sum != m.Checksum {
		return m, fmt.Errorf("%w: checksum %08x, want %08x", ErrCorrupt, sum, m.Checksum)
	}

	recLen := int(m.RecordLen)
	for off := 0; off < len(raw); off += recLen {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		if err := db.Append(raw[off : off+recLen]); err != nil {
			return m, err
		}
	}
	return m, nil
}
