// Package loadgen drives bulk appends against independent databases and
// reports latency statistics.
package loadgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/sfdb"
	"github.com/hupe1980/sfdb/internal/fs"
	"github.com/hupe1980/sfdb/internal/resource"
	"golang.org/x/sync/errgroup"
)

// ErrVerify is returned when records read back differ from what was appended.
var ErrVerify = errors.New("loadgen: verification failed")

// Defaults match the on-device bulk append test.
const (
	DefaultMaxRecordNum = 10000
	DefaultRecordLen    = 32
	DefaultAppends      = 10100
	DefaultVerify       = 100
)

// Config describes a load run.
type Config struct {
	// Dir holds one database file per worker.
	Dir string
	// Workers is the number of independent databases. Default: 1.
	Workers int
	// Concurrency bounds how many workers run at once. Default: Workers.
	Concurrency int
	// Appends is the number of records appended per worker.
	Appends      int
	MaxRecordNum uint32
	RecordLen    uint32
	// Sync flushes after every write.
	Sync bool
	// IOLimitBytesPerSec throttles backend writes across all workers. 0 is unlimited.
	IOLimitBytesPerSec int64
	// Verify is the number of latest records read back after the appends.
	// Negative disables verification.
	Verify int

	FileSystem fs.FileSystem
	Logger     *sfdb.Logger
}

func (c *Config) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Concurrency <= 0 {
		c.Concurrency = c.Workers
	}
	if c.Appends <= 0 {
		c.Appends = DefaultAppends
	}
	if c.MaxRecordNum == 0 {
		c.MaxRecordNum = DefaultMaxRecordNum
	}
	if c.RecordLen == 0 {
		c.RecordLen = DefaultRecordLen
	}
	if c.Verify == 0 {
		c.Verify = DefaultVerify
	}
	if c.FileSystem == nil {
		c.FileSystem = fs.Default
	}
	if c.Logger == nil {
		c.Logger = sfdb.NoopLogger()
	}
}

// Latency summarizes append durations.
type Latency struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
	P50  time.Duration
	P99  time.Duration
}

// WorkerReport is the outcome of one worker.
type WorkerReport struct {
	Path     string
	Appends  int
	Failures int
	Verified int
	Latency  Latency
	Info     sfdb.Info
	Err      error
}

// Report is the outcome of a run.
type Report struct {
	Workers  []WorkerReport
	Appends  int
	Failures int
	Elapsed  time.Duration
	Stats    sfdb.BasicMetricsStats
}

// Record formats the i-th (1-based) test record into recLen bytes.
// The text is truncated to recLen-1 bytes and always NUL terminated.
func Record(i int, recLen uint32) []byte {
	rec := make([]byte, recLen)
	copy(rec[:recLen-1], fmt.Sprintf("sfdb test record %d", i))
	return rec
}

// Run executes the load described by cfg. The report is returned even when
// a worker fails; the error is the first worker failure.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg.setDefaults()

	rc := resource.NewController(resource.Config{
		MaxWorkers:         int64(cfg.Concurrency),
		IOLimitBytesPerSec: cfg.IOLimitBytesPerSec,
	})
	metrics := &sfdb.BasicMetricsCollector{}

	report := &Report{Workers: make([]WorkerReport, cfg.Workers)}
	var mu sync.Mutex

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	fsys := resource.NewThrottledFS(ctx, cfg.FileSystem, rc)

	for i := 0; i < cfg.Workers; i++ {
		g.Go(func() error {
			if err := rc.AcquireWorker(ctx); err != nil {
				return err
			}
			defer rc.ReleaseWorker()

			wr := runWorker(ctx, cfg, i, fsys, metrics)

			mu.Lock()
			report.Workers[i] = wr
			mu.Unlock()
			return wr.Err
		})
	}

	err := g.Wait()
	report.Elapsed = time.Since(start)
	for _, wr := range report.Workers {
		report.Appends += wr.Appends
		report.Failures += wr.Failures
	}
	report.Stats = metrics.GetStats()
	return report, err
}

func runWorker(ctx context.Context, cfg Config, id int, fsys fs.FileSystem, metrics sfdb.MetricsCollector) (wr WorkerReport) {
	wr.Path = filepath.Join(cfg.Dir, fmt.Sprintf("bench-%d.sdb", id))
	logger := cfg.Logger.WithPath(wr.Path)

	db, err := sfdb.Open(wr.Path, cfg.MaxRecordNum, cfg.RecordLen,
		sfdb.WithSync(cfg.Sync),
		sfdb.WithOverwrite(true),
		sfdb.WithFileSystem(fsys),
		sfdb.WithLogger(cfg.Logger),
		sfdb.WithMetricsCollector(metrics),
	)
	if err != nil {
		wr.Err = err
		return wr
	}
	defer func() {
		if err := db.Close(); err != nil && wr.Err == nil {
			wr.Err = err
		}
	}()

	durations := make([]time.Duration, 0, cfg.Appends)
	for i := 1; i <= cfg.Appends; i++ {
		if err := ctx.Err(); err != nil {
			wr.Err = err
			break
		}

		rec := Record(i, cfg.RecordLen)
		t0 := time.Now()
		if err := db.Append(rec); err != nil {
			logger.Error("append failed", "record", i, "error", err)
			wr.Failures++
			wr.Err = fmt.Errorf("append record %d: %w", i, err)
			break
		}
		d := time.Since(t0)
		durations = append(durations, d)
		wr.Appends++
		logger.Debug("append", "record", i, "cost", d)
	}
	wr.Latency = summarize(durations)

	if info, err := db.Info(); err == nil {
		wr.Info = info
	}
	if wr.Err != nil || cfg.Verify < 0 {
		return wr
	}

	wr.Verified, wr.Err = verify(db, wr.Appends, cfg.Verify, cfg.RecordLen)
	return wr
}

// verify reads back the latest n records and compares them with the
// records the worker appended.
func verify(db *sfdb.DB, appended, n int, recLen uint32) (int, error) {
	n = min(n, appended)
	records, err := db.ReadRecords(0, uint32(n), sfdb.Ascending)
	if err != nil {
		return 0, err
	}

	// Records that were overwritten are gone; only the ring capacity survives.
	first := appended - len(records) + 1
	for j, got := range records {
		want := Record(first+j, recLen)
		if !bytes.Equal(got, want) {
			return j, fmt.Errorf("%w: %s: record %d: got %q, want %q",
				ErrVerify, db.Path(), first+j, bytes.TrimRight(got, "\x00"), bytes.TrimRight(want, "\x00"))
		}
	}
	return len(records), nil
}

func summarize(ds []time.Duration) Latency {
	if len(ds) == 0 {
		return Latency{}
	}
	sorted := make([]time.Duration, len(ds))
	copy(sorted, ds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return Latency{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: total / time.Duration(len(sorted)),
		P50:  percentile(sorted, 0.50),
		P99:  percentile(sorted, 0.99),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
