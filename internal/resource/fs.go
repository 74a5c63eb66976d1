package resource

import (
	"context"
	"os"

	"github.com/hupe1980/sfdb/internal/fs"
)

// ThrottledFS wraps a FileSystem so that every write first acquires IO
// tokens from the controller.
type ThrottledFS struct {
	fs  fs.FileSystem
	rc  *Controller
	ctx context.Context
}

// NewThrottledFS creates a new ThrottledFS. ctx bounds the waits.
func NewThrottledFS(ctx context.Context, base fs.FileSystem, rc *Controller) *ThrottledFS {
	return &ThrottledFS{fs: base, rc: rc, ctx: ctx}
}

func (t *ThrottledFS) OpenFile(name string, flag int, perm os.FileMode) (fs.File, error) {
	f, err := t.fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &throttledFile{File: f, rc: t.rc, ctx: t.ctx}, nil
}

func (t *ThrottledFS) Remove(name string) error {
	return t.fs.Remove(name)
}

type throttledFile struct {
	fs.File
	rc  *Controller
	ctx context.Context
}

func (f *throttledFile) Write(p []byte) (int, error) {
	if err := f.rc.AcquireIO(f.ctx, len(p)); err != nil {
		return 0, err
	}
	return f.File.Write(p)
}
