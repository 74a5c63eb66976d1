package cli

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/hupe1980/sfdb"
)

func writeInfo(w io.Writer, path string, info sfdb.Info) {
	fmt.Fprintf(w, "path:           %s\n", path)
	fmt.Fprintf(w, "record index:   %d\n", info.RecordIndex)
	fmt.Fprintf(w, "record count:   %d\n", info.RecordCount)
	fmt.Fprintf(w, "max record num: %d\n", info.MaxRecordNum)
	fmt.Fprintf(w, "record len:     %d\n", info.RecordLen)
}

// printRecords prints one line per record, prefixed with its 1-based
// distance from the latest record.
func printRecords(w io.Writer, offset uint32, records [][]byte, order sfdb.Order) {
	n := uint32(len(records))
	for i, rec := range records {
		pos := offset + uint32(i) + 1
		if order == sfdb.Ascending {
			pos = offset + n - uint32(i)
		}
		fmt.Fprintf(w, "%-5d:%s\n", pos, formatRecord(rec))
	}
}

// formatRecord renders printable text records as text and anything else
// as hex. Trailing NUL padding is dropped.
func formatRecord(rec []byte) string {
	text := rec
	if i := bytes.IndexByte(rec, 0); i >= 0 {
		if len(bytes.Trim(rec[i:], "\x00")) == 0 {
			text = rec[:i]
		}
	}
	if utf8.Valid(text) && bytes.IndexFunc(text, func(r rune) bool { return !unicode.IsPrint(r) }) < 0 {
		return string(text)
	}
	return hex.EncodeToString(rec)
}
