package sfdb

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/sfdb/internal/fs"
)

// MaxOverwriteRetries bounds how many times Open deletes and recreates a
// mismatching file before giving up with ErrOverwriteExhausted.
const MaxOverwriteRetries = 1

type state uint8

const (
	stateClosed state = iota
	stateOpened
)

// Config is the flat configuration surface of a database.
type Config struct {
	Path         string
	MaxRecordNum uint32
	RecordLen    uint32
	Sync         bool // flush after every backend write
	Overwrite    bool // recreate the file on capacity/record length mismatch
}

// Info is a snapshot of the ring state.
type Info struct {
	RecordIndex  uint32
	RecordCount  uint32
	MaxRecordNum uint32
	RecordLen    uint32
}

// DB is an open fixed-record circular log.
//
// A DB is not safe for concurrent use; callers sharing a handle must
// serialize access. Independent handles on different files may be used
// concurrently. Two handles on the same file are unsupported.
type DB struct {
	state  state
	path   string
	hdr    Header
	fs     fs.FileSystem
	file   fs.File
	opts   options
	logger *Logger
	hbuf   []byte
}

// OpenConfig opens the database described by cfg.
// Explicit options are applied after the flags in cfg.
func OpenConfig(cfg Config, optFns ...Option) (*DB, error) {
	opts := append([]Option{WithSync(cfg.Sync), WithOverwrite(cfg.Overwrite)}, optFns...)
	return Open(cfg.Path, cfg.MaxRecordNum, cfg.RecordLen, opts...)
}

// Open attaches to the database at path, creating it if it does not exist.
//
// An existing file whose stored capacity or record length differs from the
// request fails with ErrConfigMismatch, unless WithOverwrite is set, in which
// case the file is deleted and recreated (at most MaxOverwriteRetries times).
func Open(path string, maxRecordNum, recordLen uint32, optFns ...Option) (*DB, error) {
	o := applyOptions(optFns)

	db := &DB{
		path:   path,
		fs:     o.fs,
		opts:   o,
		logger: o.logger.WithPath(path),
		hbuf:   make([]byte, HeaderRegionSize),
	}

	if err := validateConfig(maxRecordNum, recordLen); err != nil {
		db.logger.LogOpen(context.Background(), false, 0, err)
		o.metricsCollector.RecordOpen(false, false, err)
		return nil, err
	}

	created, recreated, attempts, err := db.open(maxRecordNum, recordLen)
	db.logger.LogOpen(context.Background(), created, attempts, err)
	o.metricsCollector.RecordOpen(created, recreated, err)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func validateConfig(maxRecordNum, recordLen uint32) error {
	if recordLen > MaxRecordLen {
		return fmt.Errorf("%w: record length %d is larger than max record length %d", ErrInvalidConfig, recordLen, MaxRecordLen)
	}
	if recordLen == 0 {
		return fmt.Errorf("%w: record length must be positive", ErrInvalidConfig)
	}
	if maxRecordNum == 0 {
		return fmt.Errorf("%w: max record num must be positive", ErrInvalidConfig)
	}
	return nil
}

func (db *DB) open(maxRecordNum, recordLen uint32) (created, recreated bool, attempts int, err error) {
	for retries := 0; ; retries++ {
		attempts++

		f, err := db.fs.OpenFile(db.path, os.O_RDWR, 0)
		if err != nil {
			db.logger.Debug("open failed, trying to create", "error", err)

			f, err = db.fs.OpenFile(db.path, os.O_RDWR|os.O_CREATE, os.FileMode(db.opts.perm))
			if err != nil {
				return false, recreated, attempts, fmt.Errorf("%w: create %s: %w", ErrOpenFailed, db.path, err)
			}
			db.file = f
			db.state = stateOpened

			db.hdr = newHeader(maxRecordNum, recordLen)
			if err := db.writeHeader(true); err != nil {
				db.abort()
				return false, recreated, attempts, fmt.Errorf("%w: initialize %s: %w", ErrOpenFailed, db.path, err)
			}
			return true, recreated, attempts, nil
		}

		db.file = f
		db.state = stateOpened

		mismatch := db.attach(maxRecordNum, recordLen)
		if mismatch == nil {
			return false, recreated, attempts, nil
		}
		db.logger.Warn("database does not match config", "error", mismatch)

		if !db.opts.overwrite {
			db.abort()
			return false, recreated, attempts, mismatch
		}
		if retries >= MaxOverwriteRetries {
			db.abort()
			return false, recreated, attempts, fmt.Errorf("%w: %s: %w", ErrOverwriteExhausted, db.path, mismatch)
		}

		db.logger.Warn("overwriting database")
		db.abort()
		if err := db.fs.Remove(db.path); err != nil {
			return false, recreated, attempts, fmt.Errorf("%w: delete %s: %w", ErrOpenFailed, db.path, err)
		}
		recreated = true
	}
}

// attach reads the stored header and checks it against the requested
// configuration. Any failure is reported as a *ConfigMismatchError.
func (db *DB) attach(maxRecordNum, recordLen uint32) error {
	buf := db.hbuf[:headerLen]
	if err := db.readAt(buf, 0); err != nil {
		return &ConfigMismatchError{Path: db.path, Field: "header", cause: err}
	}

	var hdr Header
	if err := hdr.UnmarshalBinary(buf); err != nil {
		return &ConfigMismatchError{Path: db.path, Field: "header", cause: err}
	}

	switch {
	case hdr.MaxRecordNum != maxRecordNum:
		return &ConfigMismatchError{Path: db.path, Field: "max_record_num", Stored: hdr.MaxRecordNum, Requested: maxRecordNum}
	case hdr.RecordLen != recordLen:
		return &ConfigMismatchError{Path: db.path, Field: "record_len", Stored: hdr.RecordLen, Requested: recordLen}
	case hdr.RecordCount > hdr.MaxRecordNum:
		return &ConfigMismatchError{Path: db.path, Field: "record_count", Stored: hdr.RecordCount, Requested: maxRecordNum}
	case hdr.RecordCount > 0 && hdr.RecordIndex >= hdr.MaxRecordNum:
		return &ConfigMismatchError{Path: db.path, Field: "record_index", Stored: hdr.RecordIndex, Requested: maxRecordNum}
	}

	db.hdr = hdr
	return nil
}

// abort closes the backend handle on a failed open path.
func (db *DB) abort() {
	if db.file != nil {
		_ = db.file.Close()
		db.file = nil
	}
	db.state = stateClosed
}

// Path returns the path of the backing file.
func (db *DB) Path() string { return db.path }

// IsOpen reports whether the handle is opened.
func (db *DB) IsOpen() bool { return db.state == stateOpened }

// Info returns the current ring state.
func (db *DB) Info() (Info, error) {
	if err := db.checkOpen(); err != nil {
		return Info{}, err
	}
	return Info{
		RecordIndex:  db.hdr.RecordIndex,
		RecordCount:  db.hdr.RecordCount,
		MaxRecordNum: db.hdr.MaxRecordNum,
		RecordLen:    db.hdr.RecordLen,
	}, nil
}

// Close releases the backend handle.
// Closing a handle that is not opened returns ErrInvalidState.
func (db *DB) Close() error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	err := db.file.Close()
	db.file = nil
	db.state = stateClosed
	if err != nil {
		return ioError("close", err)
	}
	return nil
}

// Reset forgets all records by zeroing the index and count.
// The data region is left untouched.
func (db *DB) Reset() (err error) {
	defer func() {
		db.logger.LogReset(context.Background(), err)
		db.opts.metricsCollector.RecordReset(err)
	}()

	if err := db.checkOpen(); err != nil {
		return err
	}

	prev := db.hdr
	db.hdr.RecordIndex = 0
	db.hdr.RecordCount = 0
	if err := db.writeHeader(false); err != nil {
		db.hdr = prev
		return err
	}
	return nil
}

// Delete removes the backing file. Callers normally Close first.
func (db *DB) Delete() error {
	if err := db.fs.Remove(db.path); err != nil {
		return ioError("remove", err)
	}
	return nil
}

// Remove deletes the database file at path without opening it. Only
// WithFileSystem is honored. A missing file fails with ErrIO wrapping
// fs.ErrNotExist.
func Remove(path string, optFns ...Option) error {
	o := applyOptions(optFns)
	if err := o.fs.Remove(path); err != nil {
		return ioError("remove", err)
	}
	return nil
}

// Sync flushes outstanding writes to the storage medium.
func (db *DB) Sync() error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	if err := db.file.Sync(); err != nil {
		return ioError("sync", err)
	}
	return nil
}

func (db *DB) checkOpen() error {
	if db == nil || db.state != stateOpened {
		path := ""
		if db != nil {
			path = db.path
		}
		return fmt.Errorf("%w: %s not opened", ErrInvalidState, path)
	}
	return nil
}

// writeHeader persists the in-memory header at offset 0. full writes the
// whole reserved region, otherwise only the encoded fields are written.
func (db *DB) writeHeader(full bool) error {
	db.hdr.encode(db.hbuf)
	buf := db.hbuf[:headerLen]
	if full {
		buf = db.hbuf
	}
	return db.writeAt(buf, 0)
}

func (db *DB) seek(off int64) error {
	pos, err := db.file.Seek(off, io.SeekStart)
	if err != nil {
		return ioError("seek", err)
	}
	if pos != off {
		return ioError("seek", fmt.Errorf("position %d, want %d", pos, off))
	}
	return nil
}

func (db *DB) writeAt(p []byte, off int64) error {
	if err := db.seek(off); err != nil {
		return err
	}
	n, err := db.file.Write(p)
	if err != nil {
		return ioError("write", err)
	}
	if n != len(p) {
		return ioError("write", io.ErrShortWrite)
	}
	if db.opts.sync {
		if err := db.file.Sync(); err != nil {
			return ioError("sync", err)
		}
	}
	return nil
}

func (db *DB) readAt(p []byte, off int64) error {
	if err := db.seek(off); err != nil {
		return err
	}
	if _, err := io.ReadFull(db.file, p); err != nil {
		return ioError("read", err)
	}
	return nil
}
