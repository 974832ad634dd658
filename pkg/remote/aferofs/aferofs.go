// Package aferofs serves the remote capabilities from an afero filesystem:
// the local disk (optionally confined to a base directory) or an in-memory
// tree used for dry runs and tests.
package aferofs

import (
	"context"
	"io"
	"os"
	"path"

	"github.com/spf13/afero"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
)

// FS adapts an afero.Fs to remote.FileSystem.
type FS struct {
	fs afero.Fs
}

var _ remote.FileSystem = (*FS)(nil)

// New wraps an existing afero filesystem.
func New(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *FS {
	return New(afero.NewMemMapFs())
}

// NewLocal returns the OS filesystem, confined to root when root is set.
func NewLocal(root string) *FS {
	if root == "" {
		return New(afero.NewOsFs())
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// Fs exposes the underlying afero filesystem.
func (f *FS) Fs() afero.Fs {
	return f.fs
}

// WriteFile creates p with data, creating parent directories.
func (f *FS) WriteFile(p string, data []byte) error {
	if err := f.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create parent directory").WithDetail("path", p)
	}
	if err := afero.WriteFile(f.fs, p, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write file").WithDetail("path", p)
	}
	return nil
}

// List implements remote.FileLister.
func (f *FS) List(ctx context.Context, p string) ([]remote.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = remote.CleanPath(p)

	info, err := f.fs.Stat(p)
	if err != nil {
		return nil, classify(err, p)
	}
	if !info.IsDir() {
		return []remote.Entry{{Path: p, Size: info.Size(), ModTime: info.ModTime()}}, nil
	}

	infos, err := afero.ReadDir(f.fs, p)
	if err != nil {
		return nil, classify(err, p)
	}
	entries := make([]remote.Entry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, remote.Entry{
			Path:    path.Join(p, fi.Name()),
			IsDir:   fi.IsDir(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	return entries, nil
}

// Exists implements remote.FileLister.
func (f *FS) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := afero.Exists(f.fs, remote.CleanPath(p))
	if err != nil {
		return false, classify(err, p)
	}
	return ok, nil
}

// MkdirAll implements remote.FileWriter.
func (f *FS) MkdirAll(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.fs.MkdirAll(remote.CleanPath(dir), 0o755); err != nil {
		return classify(err, dir)
	}
	return nil
}

// Put implements remote.FileWriter.
func (f *FS) Put(ctx context.Context, p string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := afero.WriteReader(f.fs, remote.CleanPath(p), r); err != nil {
		return classify(err, p)
	}
	return nil
}

// Close implements remote.FileSystem.
func (f *FS) Close() error {
	return nil
}

func classify(err error, p string) error {
	switch {
	case os.IsNotExist(err):
		return errors.Wrap(err, errors.ErrorTypeNotFound, "no such file or directory").WithDetail("path", p)
	case os.IsPermission(err):
		return errors.Wrap(err, errors.ErrorTypeAuthentication, "permission denied").WithDetail("path", p)
	default:
		return errors.Wrap(err, errors.ErrorTypeFile, "filesystem operation failed").WithDetail("path", p)
	}
}
