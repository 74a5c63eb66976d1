package sfdb

import (
	"fmt"

	"github.com/hupe1980/sfdb/internal/mmap"
)

// View is a read-only, memory-mapped snapshot of a database file.
//
// It never writes and does not go through the storage backend, so it is
// meant for offline inspection of a file no handle currently has open.
type View struct {
	m   *mmap.File
	hdr Header
}

// OpenView maps the database file at path and validates its header.
func OpenView(path string) (*View, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}

	var hdr Header
	if err := hdr.UnmarshalBinary(m.Bytes()); err != nil {
		_ = m.Close()
		return nil, err
	}
	if hdr.MaxRecordNum == 0 || hdr.RecordLen == 0 || hdr.RecordLen > MaxRecordLen ||
		hdr.RecordCount > hdr.MaxRecordNum || (hdr.RecordCount > 0 && hdr.RecordIndex >= hdr.MaxRecordNum) {
		_ = m.Close()
		return nil, fmt.Errorf("%w: inconsistent ring state %+v", ErrInvalidHeader, hdr)
	}

	_ = m.AdviseSequential()
	return &View{m: m, hdr: hdr}, nil
}

// Info returns the ring state stored in the header.
func (v *View) Info() Info {
	return Info{
		RecordIndex:  v.hdr.RecordIndex,
		RecordCount:  v.hdr.RecordCount,
		MaxRecordNum: v.hdr.MaxRecordNum,
		RecordLen:    v.hdr.RecordLen,
	}
}

// Records returns copies of up to num records with the same offset and order
// semantics as DB.Read. Slots the file is too short to contain fail with ErrIO.
func (v *View) Records(offset, num uint32, order Order) ([][]byte, error) {
	start, n := v.hdr.window(offset, num)
	if n == 0 {
		return nil, nil
	}

	recLen := int(v.hdr.RecordLen)
	out := make([]byte, int(n)*recLen)
	first, second := v.hdr.segments(start, n)
	split := int(first) * recLen

	if _, err := v.m.ReadAt(out[:split], v.hdr.slotOffset(start)); err != nil {
		return nil, ioError("read", err)
	}
	if second > 0 {
		if _, err := v.m.ReadAt(out[split:], v.hdr.slotOffset(0)); err != nil {
			return nil, ioError("read", err)
		}
	}

	if order == Descending {
		reverseRecords(out, recLen)
	}
	return splitRecords(out, recLen), nil
}

// Close unmaps the file.
func (v *View) Close() error {
	return v.m.Close()
}
