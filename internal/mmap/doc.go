// Package mmap provides read-only memory-mapped file access.
//
// It backs offline inspection of database files: the whole file is mapped
// once and records are sliced out without per-record read calls.
//
//	m, err := mmap.Open("log.sdb")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) hints
//   - Windows: CreateFileMapping/MapViewOfFile (hints are a no-op)
//
// Callers must not touch Bytes() after Close returns.
package mmap
