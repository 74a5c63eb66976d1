package sfdb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordOpen is called after each open call.
	// created reports whether a fresh file was initialised, recreated whether
	// a mismatching file was deleted on the way.
	RecordOpen(created, recreated bool, err error)

	// RecordAppend is called after each append.
	RecordAppend(bytes int, duration time.Duration, err error)

	// RecordRead is called after each range read.
	// records is the number of records copied out.
	RecordRead(records int, duration time.Duration, err error)

	// RecordReset is called after each reset.
	RecordReset(err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(bool, bool, error)           {}
func (NoopMetricsCollector) RecordAppend(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRead(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordReset(error)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	OpenCount        atomic.Int64
	OpenErrors       atomic.Int64
	CreateCount      atomic.Int64
	RecreateCount    atomic.Int64
	AppendCount      atomic.Int64
	AppendErrors     atomic.Int64
	AppendBytes      atomic.Int64
	AppendTotalNanos atomic.Int64
	ReadCount        atomic.Int64
	ReadErrors       atomic.Int64
	ReadRecords      atomic.Int64
	ReadTotalNanos   atomic.Int64
	ResetCount       atomic.Int64
	ResetErrors      atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(created, recreated bool, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
		return
	}
	if created {
		b.CreateCount.Add(1)
	}
	if recreated {
		b.RecreateCount.Add(1)
	}
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(bytes int, duration time.Duration, err error) {
	b.AppendCount.Add(1)
	b.AppendTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AppendErrors.Add(1)
		return
	}
	b.AppendBytes.Add(int64(bytes))
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(records int, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
		return
	}
	b.ReadRecords.Add(int64(records))
}

// RecordReset implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReset(err error) {
	b.ResetCount.Add(1)
	if err != nil {
		b.ResetErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:      b.OpenCount.Load(),
		OpenErrors:     b.OpenErrors.Load(),
		CreateCount:    b.CreateCount.Load(),
		RecreateCount:  b.RecreateCount.Load(),
		AppendCount:    b.AppendCount.Load(),
		AppendErrors:   b.AppendErrors.Load(),
		AppendBytes:    b.AppendBytes.Load(),
		AppendAvgNanos: avg(b.AppendTotalNanos.Load(), b.AppendCount.Load()),
		ReadCount:      b.ReadCount.Load(),
		ReadErrors:     b.ReadErrors.Load(),
		ReadRecords:    b.ReadRecords.Load(),
		ReadAvgNanos:   avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
		ResetCount:     b.ResetCount.Load(),
		ResetErrors:    b.ResetErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount      int64
	OpenErrors     int64
	CreateCount    int64
	RecreateCount  int64
	AppendCount    int64
	AppendErrors   int64
	AppendBytes    int64
	AppendAvgNanos int64
	ReadCount      int64
	ReadErrors     int64
	ReadRecords    int64
	ReadAvgNanos   int64
	ResetCount     int64
	ResetErrors    int64
}
