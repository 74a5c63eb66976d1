package sfdb

import (
	"encoding/binary"
	"fmt"
)

/*
Header is the fixed-size block stored at offset 0 of every database file.

	OFFSET  SIZE  DESCRIPTION
	     0     8  magic "SFDB002\0"
	     8     4  reserved (zero)
	    12     4  record index (slot of the latest record)
	    16     4  record count (saturates at max record num)
	    20     4  max record num
	    24     4  record length
	    28   484  reserved (zero)

All integers are little-endian. Records start at HeaderRegionSize.
*/
type Header struct {
	RecordIndex  uint32
	RecordCount  uint32
	MaxRecordNum uint32
	RecordLen    uint32
}

const (
	// HeaderRegionSize is the number of bytes reserved for the header.
	// The data region always starts here regardless of the record length.
	HeaderRegionSize = 512

	// MaxRecordLen is the largest supported record length in bytes.
	MaxRecordLen = 512

	headerLen = 28
)

// Magic identifies the file format and its version.
var Magic = [8]byte{'S', 'F', 'D', 'B', '0', '0', '2', 0}

func newHeader(maxRecordNum, recordLen uint32) Header {
	return Header{MaxRecordNum: maxRecordNum, RecordLen: recordLen}
}

// MarshalBinary encodes the header into a HeaderRegionSize block.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderRegionSize)
	h.encode(buf)
	return buf, nil
}

// UnmarshalBinary decodes a header previously produced by MarshalBinary.
// Only the first 28 bytes are inspected; the magic must match.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < headerLen {
		return fmt.Errorf("%w: %d bytes (need %d)", ErrInvalidHeader, len(data), headerLen)
	}
	if [8]byte(data[0:8]) != Magic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, data[0:8])
	}
	h.RecordIndex = binary.LittleEndian.Uint32(data[12:16])
	h.RecordCount = binary.LittleEndian.Uint32(data[16:20])
	h.MaxRecordNum = binary.LittleEndian.Uint32(data[20:24])
	h.RecordLen = binary.LittleEndian.Uint32(data[24:28])
	return nil
}

func (h Header) encode(buf []byte) {
	copy(buf[0:8], Magic[:])
	clear(buf[8:12])
	binary.LittleEndian.PutUint32(buf[12:16], h.RecordIndex)
	binary.LittleEndian.PutUint32(buf[16:20], h.RecordCount)
	binary.LittleEndian.PutUint32(buf[20:24], h.MaxRecordNum)
	binary.LittleEndian.PutUint32(buf[24:28], h.RecordLen)
	clear(buf[headerLen:])
}

// slotOffset returns the file offset of the given physical slot.
func (h Header) slotOffset(slot uint32) int64 {
	return HeaderRegionSize + int64(slot)*int64(h.RecordLen)
}
