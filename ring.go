package sfdb

import (
	"context"
	"fmt"
	"time"
)

// Order selects the presentation order of a range read.
type Order uint8

const (
	// Ascending returns records oldest to newest.
	Ascending Order = iota
	// Descending returns records newest to oldest.
	Descending
)

func (o Order) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return fmt.Sprintf("Order(%d)", uint8(o))
	}
}

// advance returns the header after one more record is written.
// The very first record always lands in slot 0.
func (h Header) advance() Header {
	if h.RecordIndex >= h.MaxRecordNum-1 {
		h.RecordIndex = 0
	} else {
		h.RecordIndex++
	}

	if h.RecordCount < h.MaxRecordNum {
		h.RecordCount++
	}

	if h.RecordCount == 1 {
		h.RecordIndex = 0
	}
	return h
}

// window maps the logical range [offset, offset+num), counted back from the
// latest record, to the physical slot of its oldest record and the number
// of records that actually exist.
func (h Header) window(offset, num uint32) (start, n uint32) {
	count := min(h.RecordCount, h.MaxRecordNum)
	if count == 0 || offset >= count || num == 0 {
		return 0, 0
	}

	n = min(num, count-offset)
	back := uint64(offset) + uint64(n) - 1
	start = uint32((uint64(h.RecordIndex) + uint64(h.MaxRecordNum) - back) % uint64(h.MaxRecordNum))
	return start, n
}

// segments splits n slots starting at start into at most two contiguous
// physical runs; the second (if any) begins at slot 0.
func (h Header) segments(start, n uint32) (first, second uint32) {
	first = min(n, h.MaxRecordNum-start)
	return first, n - first
}

// Append writes record into the next slot, evicting the oldest record once
// the ring is full. len(record) must equal the configured record length.
//
// The record is written before the header. If the header write fails the
// record is on disk but not accounted for; the handle keeps the previous
// header so that memory and disk agree.
func (db *DB) Append(record []byte) (err error) {
	if err := db.checkOpen(); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		db.logger.LogAppend(context.Background(), db.hdr.RecordIndex, db.hdr.RecordCount, err)
		db.opts.metricsCollector.RecordAppend(len(record), time.Since(start), err)
	}()

	if len(record) != int(db.hdr.RecordLen) {
		return &SizeError{Expected: int(db.hdr.RecordLen), Actual: len(record)}
	}

	prev := db.hdr
	db.hdr = prev.advance()

	if err := db.writeAt(record, db.hdr.slotOffset(db.hdr.RecordIndex)); err != nil {
		db.hdr = prev
		return err
	}

	if err := db.writeHeader(false); err != nil {
		db.hdr = prev
		return err
	}
	return nil
}

// Read copies up to num records into buf and returns how many were copied.
//
// offset 0 is the latest record and grows backward in time. Ascending lays
// the records out oldest to newest, Descending newest to oldest. buf must
// hold num*RecordLen bytes even if fewer records exist. Reading past the
// oldest record, from an empty ring or with num 0 returns 0 and no error.
func (db *DB) Read(buf []byte, offset, num uint32, order Order) (n int, err error) {
	if err := db.checkOpen(); err != nil {
		return 0, err
	}

	started := time.Now()
	defer func() {
		db.logger.LogRead(context.Background(), offset, num, order, n, err)
		db.opts.metricsCollector.RecordRead(n, time.Since(started), err)
	}()

	recLen := int(db.hdr.RecordLen)
	if need := uint64(num) * uint64(recLen); uint64(len(buf)) < need {
		return 0, fmt.Errorf("%w: %d < %d (required)", ErrBufferTooSmall, len(buf), need)
	}

	start, count := db.hdr.window(offset, num)
	if count == 0 {
		return 0, nil
	}

	out := buf[:int(count)*recLen]
	first, second := db.hdr.segments(start, count)
	split := int(first) * recLen

	if err := db.readAt(out[:split], db.hdr.slotOffset(start)); err != nil {
		return 0, err
	}
	if second > 0 {
		if err := db.readAt(out[split:], db.hdr.slotOffset(0)); err != nil {
			return 0, err
		}
	}

	if order == Descending {
		reverseRecords(out, recLen)
	}
	return int(count), nil
}

// ReadRecords is like Read but allocates the result.
func (db *DB) ReadRecords(offset, num uint32, order Order) ([][]byte, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}

	num = min(num, db.hdr.RecordCount)
	recLen := int(db.hdr.RecordLen)
	buf := make([]byte, int(num)*recLen)

	n, err := db.Read(buf, offset, num, order)
	if err != nil {
		return nil, err
	}
	return splitRecords(buf[:n*recLen], recLen), nil
}

func reverseRecords(buf []byte, recLen int) {
	tmp := make([]byte, recLen)
	for i, j := 0, len(buf)/recLen-1; i < j; i, j = i+1, j-1 {
		a := buf[i*recLen : (i+1)*recLen]
		b := buf[j*recLen : (j+1)*recLen]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

func splitRecords(buf []byte, recLen int) [][]byte {
	records := make([][]byte, 0, len(buf)/recLen)
	for off := 0; off < len(buf); off += recLen {
		records = append(records, buf[off:off+recLen:off+recLen])
	}
	return records
}
