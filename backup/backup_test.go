package backup

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"testing"

	"github.com/hupe1980/sfdb"
	"github.com/hupe1980/sfdb/blobstore"
	"github.com/hupe1980/sfdb/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T, maxRecordNum, recordLen uint32) *sfdb.DB {
	t.Helper()
	db, err := sfdb.Open("test.sdb", maxRecordNum, recordLen, sfdb.WithFileSystem(fs.NewMemFS()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func record(i int, recLen uint32) []byte {
	rec := make([]byte, recLen)
	copy(rec, fmt.Sprintf("record %d", i))
	return rec
}

func fill(t *testing.T, db *sfdb.DB, from, to int) {
	t.Helper()
	info, err := db.Info()
	require.NoError(t, err)
	for i := from; i <= to; i++ {
		require.NoError(t, db.Append(record(i, info.RecordLen)))
	}
}

func TestSaveRestore(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecLZ4, CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			ctx := context.Background()
			store := blobstore.NewMemoryStore()

			src := openDB(t, 50, 32)
			fill(t, src, 1, 120)

			m, err := Save(ctx, src, store, "events.bak", WithCodec(codec))
			require.NoError(t, err)
			assert.Equal(t, codec, m.Codec)
			assert.Equal(t, uint32(50), m.Count)
			assert.Equal(t, uint32(32), m.RecordLen)
			assert.Equal(t, uint32(50), m.MaxRecordNum)
			if codec != CodecNone {
				assert.Less(t, m.StoredSize, uint32(50*32))
			}

			inspected, err := Inspect(ctx, store, "events.bak")
			require.NoError(t, err)
			assert.Equal(t, m, inspected)

			dst := openDB(t, 50, 32)
			restored, err := Restore(ctx, store, "events.bak", dst)
			require.NoError(t, err)
			assert.Equal(t, m, restored)

			want, err := src.ReadRecords(0, 50, sfdb.Ascending)
			require.NoError(t, err)
			got, err := dst.ReadRecords(0, 50, sfdb.Ascending)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, record(71, 32), got[0])
			assert.Equal(t, record(120, 32), got[49])
		})
	}
}

func TestRestore_SmallerRing(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	src := openDB(t, 20, 16)
	fill(t, src, 1, 20)
	_, err := Save(ctx, src, store, "b", WithCodec(CodecZstd))
	require.NoError(t, err)

	dst := openDB(t, 5, 16)
	_, err = Restore(ctx, store, "b", dst)
	require.NoError(t, err)

	info, err := dst.Info()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), info.RecordCount)

	got, err := dst.ReadRecords(0, 5, sfdb.Descending)
	require.NoError(t, err)
	assert.Equal(t, record(20, 16), got[0])
	assert.Equal(t, record(16, 16), got[4])
}

func TestRestore_RecordLenMismatch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	src := openDB(t, 4, 16)
	fill(t, src, 1, 3)
	_, err := Save(ctx, src, store, "b")
	require.NoError(t, err)

	dst := openDB(t, 4, 32)
	_, err = Restore(ctx, store, "b", dst)
	require.ErrorIs(t, err, sfdb.ErrInvalidSize)

	var sizeErr *sfdb.SizeError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, 32, sizeErr.Expected)
	assert.Equal(t, 16, sizeErr.Actual)

	info, err := dst.Info()
	require.NoError(t, err)
	assert.Zero(t, info.RecordCount)
}

func TestRestore_Corrupt(t *testing.T) {
	ctx := context.Background()

	src := openDB(t, 4, 16)
	fill(t, src, 1, 4)

	store := blobstore.NewMemoryStore()
	_, err := Save(ctx, src, store, "good")
	require.NoError(t, err)
	good, err := blobstore.ReadAll(ctx, store, "good")
	require.NoError(t, err)

	flipped := append([]byte(nil), good...)
	flipped[headerSize+3] ^= 0xFF

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 'X'

	recount := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(recount[20:], 3)

	overflow := crafted(Manifest{Codec: CodecZstd, RecordLen: 16, MaxRecordNum: 4, Count: 0xFFFFFFFF, StoredSize: 4})
	zeroCap := crafted(Manifest{Codec: CodecNone, RecordLen: 16})
	hugeRing := crafted(Manifest{Codec: CodecZstd, RecordLen: 16, MaxRecordNum: 0xFFFFFFFF, Count: 0xFFFFFFFF, StoredSize: 4})
	lz4Ratio := crafted(Manifest{Codec: CodecLZ4, RecordLen: 16, MaxRecordNum: 1024, Count: 1024, StoredSize: 4})
	unknown := crafted(Manifest{Codec: Codec(9), RecordLen: 16, MaxRecordNum: 4, Count: 1, StoredSize: 4})

	cases := map[string][]byte{
		"checksum":      flipped,
		"magic":         badMagic,
		"truncated":     good[:len(good)-1],
		"short":         good[:10],
		"count":         recount,
		"overflow":      overflow,
		"zero capacity": zeroCap,
		"huge ring":     hugeRing,
		"lz4 ratio":     lz4Ratio,
		"codec":         unknown,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, name, data))

			if name != "checksum" {
				_, err := Inspect(ctx, store, name)
				assert.ErrorIs(t, err, ErrCorrupt, "the manifest alone is invalid")
			}

			dst := openDB(t, 4, 16)
			_, err := Restore(ctx, store, name, dst)
			assert.ErrorIs(t, err, ErrCorrupt)

			info, err := dst.Info()
			require.NoError(t, err)
			assert.Zero(t, info.RecordCount, "nothing is appended from a corrupt blob")
		})
	}
}

// crafted builds a blob from m with a StoredSize-byte payload.
func crafted(m Manifest) []byte {
	blob := make([]byte, headerSize+int(m.StoredSize))
	m.encode(blob)
	return blob
}

func TestSave_Empty(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	m, err := Save(ctx, openDB(t, 8, 8), store, "empty", WithCodec(CodecLZ4))
	require.NoError(t, err)
	assert.Equal(t, CodecNone, m.Codec)
	assert.Zero(t, m.Count)

	dst := openDB(t, 8, 8)
	_, err = Restore(ctx, store, "empty", dst)
	require.NoError(t, err)
}

func TestSave_IncompressibleFallsBack(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	db := openDB(t, 64, 64)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 64; i++ {
		rec := make([]byte, 64)
		_, _ = rng.Read(rec)
		require.NoError(t, db.Append(rec))
	}

	m, err := Save(ctx, db, store, "random", WithCodec(CodecLZ4))
	require.NoError(t, err)
	assert.Equal(t, CodecNone, m.Codec)
	assert.Equal(t, uint32(64*64), m.StoredSize)
}

func TestSave_ClosedDB(t *testing.T) {
	db := openDB(t, 4, 4)
	require.NoError(t, db.Close())

	_, err := Save(context.Background(), db, blobstore.NewMemoryStore(), "x")
	assert.ErrorIs(t, err, sfdb.ErrInvalidState)
}

func TestRestore_NotFound(t *testing.T) {
	_, err := Restore(context.Background(), blobstore.NewMemoryStore(), "missing", openDB(t, 4, 4))
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestParseCodec(t *testing.T) {
	for in, want := range map[string]Codec{"": CodecNone, "none": CodecNone, "LZ4": CodecLZ4, "zstd": CodecZstd} {
		got, err := ParseCodec(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCodec("gzip")
	assert.Error(t, err)
	assert.Equal(t, "Codec(9)", Codec(9).String())
}
