package s3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/sfdb"
	"github.com/hupe1980/sfdb/backup"
	"github.com/hupe1980/sfdb/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	prefix := fmt.Sprintf("sfdb-it-%d/", time.Now().UnixNano())
	store := NewStore(s3.NewFromConfig(cfg), bucket, prefix)

	t.Run("BackupRoundTrip", func(t *testing.T) {
		dir := t.TempDir()

		src, err := sfdb.Open(filepath.Join(dir, "src.sdb"), 64, 16)
		require.NoError(t, err)
		defer src.Close()

		for i := 0; i < 100; i++ {
			rec := make([]byte, 16)
			copy(rec, fmt.Sprintf("event %d", i))
			require.NoError(t, src.Append(rec))
		}

		m, err := backup.Save(ctx, src, store, "events.bak", backup.WithCodec(backup.CodecZstd))
		require.NoError(t, err)
		assert.Equal(t, uint32(64), m.Count)
		defer func() { _ = store.Delete(ctx, "events.bak") }()

		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, names, "events.bak")

		dst, err := sfdb.Open(filepath.Join(dir, "dst.sdb"), 64, 16)
		require.NoError(t, err)
		defer dst.Close()

		_, err = backup.Restore(ctx, store, "events.bak", dst)
		require.NoError(t, err)

		want, err := src.ReadRecords(0, 64, sfdb.Ascending)
		require.NoError(t, err)
		got, err := dst.ReadRecords(0, 64, sfdb.Ascending)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("ReadAt", func(t *testing.T) {
		data := make([]byte, 4096)
		for i := range data {
			data[i] = byte(i % 251)
		}
		require.NoError(t, store.Put(ctx, "raw.blob", data))
		defer func() { _ = store.Delete(ctx, "raw.blob") }()

		blob, err := store.Open(ctx, "raw.blob")
		require.NoError(t, err)
		defer blob.Close()
		assert.Equal(t, int64(len(data)), blob.Size())

		buf := make([]byte, 100)
		n, err := blob.ReadAt(ctx, buf, 1024)
		require.NoError(t, err)
		assert.Equal(t, data[1024:1024+n], buf[:n])
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "nonexistent")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
