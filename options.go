package sfdb

import (
	"log/slog"

	"github.com/hupe1980/sfdb/internal/fs"
)

type options struct {
	fs               fs.FileSystem
	sync             bool
	overwrite        bool
	perm             uint32
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Open behavior.
type Option func(*options)

// WithFileSystem sets the storage backend used by the handle.
// If nil is passed, fs.Default (the local file system) is used.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fs = fsys
	}
}

// WithSync makes every backend write followed by an explicit flush.
//
// Slowest but strongest durability guarantee; on SD cards each append
// costs two syncs (record, then header).
func WithSync(enabled bool) Option {
	return func(o *options) {
		o.sync = enabled
	}
}

// WithOverwrite allows Open to delete and recreate a file whose stored
// capacity or record length disagrees with the requested configuration.
//
// This is destructive: all records in the existing file are lost.
func WithOverwrite(enabled bool) Option {
	return func(o *options) {
		o.overwrite = enabled
	}
}

// WithFileMode sets the permission bits used when the file is created.
// Default: 0600.
func WithFileMode(perm uint32) Option {
	return func(o *options) {
		o.perm = perm
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &sfdb.BasicMetricsCollector{}
//	db, _ := sfdb.Open("log.sdb", 1000, 32, sfdb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Appends: %d, Avg latency: %dns\n", stats.AppendCount, stats.AppendAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := sfdb.NewJSONLogger(slog.LevelInfo)
//	db, _ := sfdb.Open("log.sdb", 1000, 32, sfdb.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		fs:               fs.Default,
		perm:             0600,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
