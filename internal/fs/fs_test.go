package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	fpath := filepath.Join(tmp, "test.sdb")

	// Open without create fails on a missing file
	_, err := lfs.OpenFile(fpath, os.O_RDWR, 0)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0600)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, f.Sync())

	pos, err := f.Seek(1, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pos)

	buf := make([]byte, 4)
	_, err = io.ReadFull(f, buf)
	require.NoError(t, err)
	assert.Equal(t, "ello", string(buf))

	assert.NoError(t, f.Close())

	assert.NoError(t, lfs.Remove(fpath))
	_, err = os.Stat(fpath)
	assert.True(t, os.IsNotExist(err))
}

func TestMemFS(t *testing.T) {
	mfs := NewMemFS()

	_, err := mfs.OpenFile("a.sdb", os.O_RDWR, 0)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	f, err := mfs.OpenFile("a.sdb", os.O_CREATE|os.O_RDWR, 0600)
	require.NoError(t, err)

	// Writing past the end zero-fills the gap
	_, err = f.Seek(4, io.SeekStart)
	require.NoError(t, err)
	n, err := f.Write([]byte("xy"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0, 0, 0, 0, 'x', 'y'}, mfs.Bytes("a.sdb"))

	end, err := f.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), end)

	_, err = f.Read(make([]byte, 1))
	assert.Equal(t, io.EOF, err)

	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), os.ErrClosed)
	_, err = f.Write([]byte("z"))
	assert.ErrorIs(t, err, os.ErrClosed)

	// Contents survive close and are visible to a new handle
	f2, err := mfs.OpenFile("a.sdb", os.O_RDWR, 0)
	require.NoError(t, err)
	buf := make([]byte, 6)
	_, err = io.ReadFull(f2, buf)
	require.NoError(t, err)
	assert.Equal(t, "xy", string(buf[4:]))
	require.NoError(t, f2.Close())

	assert.True(t, mfs.Exists("a.sdb"))
	require.NoError(t, mfs.Remove("a.sdb"))
	assert.False(t, mfs.Exists("a.sdb"))
	assert.True(t, errors.Is(mfs.Remove("a.sdb"), os.ErrNotExist))

	_, err = mfs.OpenFile("b.sdb", os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	require.NoError(t, err)
	_, err = mfs.OpenFile("b.sdb", os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	assert.True(t, errors.Is(err, os.ErrExist))
}

func TestFaultyFS(t *testing.T) {
	ffs := NewFaultyFS(NewMemFS())

	ffs.SetLimit(5) // Fail after 5 bytes

	f, err := ffs.OpenFile("faulty.sdb", os.O_CREATE|os.O_RDWR, 0600)
	require.NoError(t, err)

	// Write 5 bytes - OK
	n, err := f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	// Write 1 byte - Fail
	n, err = f.Write([]byte("!"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)

	assert.Equal(t, int64(5), ffs.Written())
	assert.NoError(t, f.Close())
}

func TestFaultyFS_Rules(t *testing.T) {
	mfs := NewMemFS()
	ffs := NewFaultyFS(mfs)
	boom := errors.New("boom")

	ffs.AddRule("log", Fault{FailAfterBytes: 3, FailOnSync: true, FailOnRead: true, Err: boom})
	ffs.AddRule("keep", Fault{FailAfterBytes: -1, IgnoreRemove: true})
	ffs.AddRule("locked", Fault{FailAfterBytes: -1, FailOnRemove: true, FailOnClose: true})

	f, err := ffs.OpenFile("a.log", os.O_CREATE|os.O_RDWR, 0600)
	require.NoError(t, err)

	_, err = f.Write([]byte("abc"))
	assert.NoError(t, err)
	_, err = f.Write([]byte("d"))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, f.Sync(), boom)
	_, err = f.Read(make([]byte, 1))
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, f.Close())

	k, err := ffs.OpenFile("keep.sdb", os.O_CREATE|os.O_RDWR, 0600)
	require.NoError(t, err)
	require.NoError(t, k.Close())
	assert.NoError(t, ffs.Remove("keep.sdb"))
	assert.True(t, mfs.Exists("keep.sdb"))

	l, err := ffs.OpenFile("locked.sdb", os.O_CREATE|os.O_RDWR, 0600)
	require.NoError(t, err)
	assert.ErrorIs(t, l.Close(), ErrInjected)
	assert.ErrorIs(t, ffs.Remove("locked.sdb"), ErrInjected)

	ffs.ClearRules()
	assert.NoError(t, ffs.Remove("keep.sdb"))
	assert.False(t, mfs.Exists("keep.sdb"))
}
