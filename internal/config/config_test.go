package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sfdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "local", cfg.Backup.Target)
}

func TestLoad(t *testing.T) {
	t.Setenv("SFDB_TEST_SECRET", "s3cr3t")

	path := writeFile(t, `
databases:
  events:
    path: /sdcard/events.sdb
    max_record_num: 10000
    record_len: 32
    sync: true
    overwrite: true
  alarms:
    path: /sdcard/alarms.sdb
    max_record_num: 100
    record_len: 64
backup:
  target: minio
  codec: zstd
  minio:
    endpoint: localhost:9000
    access_key: minioadmin
    secret_key: ${SFDB_TEST_SECRET}
    bucket: backups
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"alarms", "events"}, cfg.DatabaseNames())

	events, err := cfg.Database("events")
	require.NoError(t, err)
	assert.Equal(t, DatabaseConfig{
		Path:         "/sdcard/events.sdb",
		MaxRecordNum: 10000,
		RecordLen:    32,
		Sync:         true,
		Overwrite:    true,
	}, events)

	assert.Equal(t, "minio", cfg.Backup.Target)
	assert.Equal(t, "zstd", cfg.Backup.Codec)
	assert.Equal(t, "s3cr3t", cfg.Backup.MinIO.SecretKey)
	assert.Equal(t, "backups", cfg.Backup.Local.Dir, "unset fields keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	_, err = cfg.Database("missing")
	assert.ErrorIs(t, err, ErrUnknownDatabase)
}

func TestLoad_HomePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeFile(t, `
databases:
  events:
    path: ~/events.sdb
    max_record_num: 10
    record_len: 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "events.sdb"), cfg.Databases["events"].Path)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"syntax":       "databases: [",
		"missing path": "databases:\n  events:\n    record_len: 8\n",
		"target":       "backup:\n  target: ftp\n",
		"log format":   "log:\n  format: xml\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
