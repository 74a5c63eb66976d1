package fs

import (
	"errors"
	"io"
	"os"
	"sync"
)

// MemFS is an in-memory FileSystem.
// Files survive Close and are shared between handles, so a database can be
// closed and re-opened within the same MemFS. Safe for concurrent use.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*memData
}

// NewMemFS creates an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]*memData)}
}

type memData struct {
	mu   sync.RWMutex
	data []byte
}

func (m *MemFS) OpenFile(name string, flag int, _ os.FileMode) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.files[name]
	switch {
	case ok && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrExist}
	case !ok && flag&os.O_CREATE == 0:
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	case !ok:
		d = &memData{}
		m.files[name] = d
	}

	if flag&os.O_TRUNC != 0 {
		d.mu.Lock()
		d.data = nil
		d.mu.Unlock()
	}

	return &memFile{name: name, d: d, flag: flag}, nil
}

func (m *MemFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[name]; !ok {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

// Bytes returns a copy of the file contents, or nil if the file does not exist.
func (m *MemFS) Bytes(name string) []byte {
	m.mu.Lock()
	d, ok := m.files[name]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]byte, len(d.data))
	copy(out, d.data)
	return out
}

// Exists reports whether name is present.
func (m *MemFS) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

type memFile struct {
	name   string
	d      *memData
	flag   int
	pos    int64
	closed bool
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.flag&(os.O_WRONLY|os.O_RDWR) == os.O_WRONLY {
		return 0, &os.PathError{Op: "read", Path: f.name, Err: os.ErrPermission}
	}

	f.d.mu.RLock()
	defer f.d.mu.RUnlock()

	if f.pos >= int64(len(f.d.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.d.data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return 0, &os.PathError{Op: "write", Path: f.name, Err: os.ErrPermission}
	}

	f.d.mu.Lock()
	defer f.d.mu.Unlock()

	if f.flag&os.O_APPEND != 0 {
		f.pos = int64(len(f.d.data))
	}
	end := f.pos + int64(len(p))
	if end > int64(len(f.d.data)) {
		grown := make([]byte, end)
		copy(grown, f.d.data)
		f.d.data = grown
	}
	copy(f.d.data[f.pos:], p)
	f.pos = end
	return len(p), nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		f.d.mu.RLock()
		base = int64(len(f.d.data))
		f.d.mu.RUnlock()
	default:
		return 0, errors.New("memfs: invalid whence")
	}

	pos := base + offset
	if pos < 0 {
		return 0, errors.New("memfs: negative position")
	}
	f.pos = pos
	return pos, nil
}

func (f *memFile) Sync() error {
	if f.closed {
		return os.ErrClosed
	}
	return nil
}

func (f *memFile) Close() error {
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true
	return nil
}
