package sfdb

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when the requested configuration cannot be
	// stored (record length above MaxRecordLen, zero capacity or length).
	ErrInvalidConfig = errors.New("invalid config")

	// ErrOpenFailed is returned when the backend can neither attach to nor
	// create the database file.
	ErrOpenFailed = errors.New("open failed")

	// ErrConfigMismatch is returned when an existing file disagrees with the
	// requested capacity or record length and overwrite is disabled.
	ErrConfigMismatch = errors.New("config mismatch")

	// ErrOverwriteExhausted is returned when the file still mismatches after
	// the allowed number of delete-and-recreate attempts.
	ErrOverwriteExhausted = errors.New("overwrite retries exhausted")

	// ErrInvalidSize is returned when an appended record has the wrong length.
	ErrInvalidSize = errors.New("invalid record size")

	// ErrInvalidState is returned when an operation is attempted on a handle in
	// the wrong lifecycle state (e.g. closing twice).
	ErrInvalidState = errors.New("invalid state")

	// ErrBufferTooSmall is returned when a read buffer cannot hold num records.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrIO is returned when a backend read, write, seek or sync fails or
	// transfers fewer bytes than requested.
	ErrIO = errors.New("i/o failure")

	// ErrInvalidHeader is returned when a header block cannot be decoded.
	ErrInvalidHeader = errors.New("invalid header")
)

// ConfigMismatchError describes which stored parameter disagrees with the
// requested configuration.
//
// It matches ErrConfigMismatch via errors.Is.
type ConfigMismatchError struct {
	Path      string
	Field     string
	Stored    uint32
	Requested uint32
	cause     error
}

func (e *ConfigMismatchError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("config mismatch: %s: %v", e.Path, e.cause)
	}
	return fmt.Sprintf("config mismatch: %s: %s stored %d, requested %d", e.Path, e.Field, e.Stored, e.Requested)
}

func (e *ConfigMismatchError) Is(target error) bool { return target == ErrConfigMismatch }

func (e *ConfigMismatchError) Unwrap() error { return e.cause }

// SizeError indicates an appended record of the wrong length.
//
// It matches ErrInvalidSize via errors.Is.
type SizeError struct {
	Expected int
	Actual   int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("invalid record size: expected %d, got %d", e.Expected, e.Actual)
}

func (e *SizeError) Is(target error) bool { return target == ErrInvalidSize }

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
