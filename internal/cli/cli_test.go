package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/sfdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func dbArgs(path string, args ...string) []string {
	return append(args, "--path", path, "--max-records", "4", "--record-len", "16")
}

func TestAppendRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sdb")

	out, err := run(t, dbArgs(path, "append", "A", "B", "C", "D", "E")...)
	require.NoError(t, err)
	assert.Equal(t, "appended 5 record(s), index 0 count 4\n", out)

	out, err = run(t, dbArgs(path, "read", "0", "4", "0")...)
	require.NoError(t, err)
	assert.Equal(t, "4    :B\n3    :C\n2    :D\n1    :E\n", out)

	out, err = run(t, dbArgs(path, "read", "1", "2", "desc")...)
	require.NoError(t, err)
	assert.Equal(t, "2    :D\n3    :C\n", out)

	out, err = run(t, dbArgs(path, "read", "9", "2", "0")...)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = run(t, dbArgs(path, "read")...)
	require.NoError(t, err)
	assert.Contains(t, out, "record count:   4")
	assert.Contains(t, out, "record index:   0")
}

func TestReadInvalidArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sdb")

	_, err := run(t, dbArgs(path, "read", "0", "1")...)
	assert.Error(t, err)

	_, err = run(t, dbArgs(path, "read", "0", "1", "2")...)
	assert.ErrorContains(t, err, "invalid order")

	_, err = run(t, dbArgs(path, "read", "x", "1", "0")...)
	assert.ErrorContains(t, err, "invalid offset")
}

func TestAppendHexAndTooLong(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sdb")

	_, err := run(t, dbArgs(path, "append", "--hex", "00ff")...)
	require.NoError(t, err)

	out, err := run(t, dbArgs(path, "dump")...)
	require.NoError(t, err)
	assert.Contains(t, out, "1    :00ff0000000000000000000000000000\n")

	_, err = run(t, dbArgs(path, "append", "this record is too long")...)
	assert.ErrorContains(t, err, "record length is 16")

	_, err = run(t, dbArgs(path, "append", "--hex", "zz")...)
	assert.ErrorContains(t, err, "invalid hex")
}

func TestInfoResetDeleteDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sdb")

	_, err := run(t, dbArgs(path, "append", "one", "two", "three")...)
	require.NoError(t, err)

	out, err := run(t, dbArgs(path, "dump", "--order", "desc")...)
	require.NoError(t, err)
	assert.Contains(t, out, "record count:   3")
	assert.Contains(t, out, "1    :three\n2    :two\n3    :one\n")

	out, err = run(t, dbArgs(path, "info")...)
	require.NoError(t, err)
	assert.Contains(t, out, "record index:   2")

	_, err = run(t, dbArgs(path, "reset")...)
	require.NoError(t, err)

	out, err = run(t, dbArgs(path, "info")...)
	require.NoError(t, err)
	assert.Contains(t, out, "record count:   0")

	_, err = run(t, dbArgs(path, "delete")...)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDelete_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sdb")

	out, err := run(t, dbArgs(path, "delete")...)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.NotContains(t, out, "deleted")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "delete must not create the file")
}

func TestDelete_MismatchingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sdb")

	_, err := run(t, dbArgs(path, "append", "x")...)
	require.NoError(t, err)

	out, err := run(t, "delete", "--path", path, "--max-records", "8", "--record-len", "16")
	require.NoError(t, err)
	assert.Equal(t, "deleted "+path+"\n", out)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestConfigMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sdb")

	_, err := run(t, dbArgs(path, "append", "x")...)
	require.NoError(t, err)

	_, err = run(t, "info", "--path", path, "--max-records", "4", "--record-len", "8")
	assert.ErrorIs(t, err, sfdb.ErrConfigMismatch)

	out, err := run(t, "info", "--path", path, "--max-records", "4", "--record-len", "8", "--overwrite")
	require.NoError(t, err)
	assert.Contains(t, out, "record len:     8")
	assert.Contains(t, out, "record count:   0")
}

func TestNoDatabase(t *testing.T) {
	_, err := run(t, "info")
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "events.sdb")
	cfgPath := filepath.Join(dir, "sfdb.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
databases:
  events:
    path: `+dbPath+`
    max_record_num: 3
    record_len: 8
  other:
    path: `+filepath.Join(dir, "other.sdb")+`
log:
  level: error
`), 0o600))

	_, err := run(t, "--config", cfgPath, "--db", "events", "append", "a", "b", "c", "d")
	require.NoError(t, err)

	out, err := run(t, "--config", cfgPath, "--db", "events", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "max record num: 3")
	assert.Contains(t, out, "record len:     8")
	assert.Contains(t, out, "record index:   0")

	_, err = run(t, "--config", cfgPath, "--db", "missing", "info")
	assert.Error(t, err)
}

func TestBackupRestore(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.sdb")
	dst := filepath.Join(dir, "dst.sdb")
	backups := filepath.Join(dir, "backups")

	_, err := run(t, dbArgs(src, "append", "A", "B", "C", "D", "E")...)
	require.NoError(t, err)

	out, err := run(t, dbArgs(src, "backup", "snap.bak", "--backup-dir", backups, "--codec", "zstd")...)
	require.NoError(t, err)
	assert.Contains(t, out, "saved 4 record(s) to snap.bak")

	out, err = run(t, "backups", "--backup-dir", backups)
	require.NoError(t, err)
	assert.Contains(t, out, "snap.bak\trecords=4 record_len=16")

	out, err = run(t, dbArgs(dst, "restore", "snap.bak", "--backup-dir", backups)...)
	require.NoError(t, err)
	assert.Contains(t, out, "restored 4 record(s) from snap.bak")

	out, err = run(t, dbArgs(dst, "read", "0", "4", "1")...)
	require.NoError(t, err)
	assert.Equal(t, "1    :E\n2    :D\n3    :C\n4    :B\n", out)

	_, err = run(t, dbArgs(dst, "backup", "x", "--codec", "gzip")...)
	assert.Error(t, err)

	_, err = run(t, dbArgs(dst, "backup", "x", "--target", "ftp")...)
	assert.Error(t, err)
}

func TestBench(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "bench", "--dir", dir, "--workers", "2", "--appends", "20",
		"--max-records", "8", "--record-len", "32", "--sync=false", "--verify", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "total: appends=40 failures=0")
	assert.Contains(t, out, "verified=5")

	_, err = os.Stat(filepath.Join(dir, "bench-1.sdb"))
	assert.NoError(t, err)
}

func TestFormatRecord(t *testing.T) {
	assert.Equal(t, "hello", formatRecord([]byte("hello\x00\x00\x00")))
	assert.Equal(t, "00ff", formatRecord([]byte{0x00, 0xff}))
	assert.Equal(t, "610062", formatRecord([]byte("a\x00b")))
	assert.Equal(t, "abc", formatRecord([]byte("abc")))
}
