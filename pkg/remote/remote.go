// Package remote defines the capabilities a file transport offers the
// connector and the bounded enumeration built on top of them.
//
// Paths are slash separated and absolute on every transport, whatever the
// underlying protocol uses. A transport lists a directory by returning its
// immediate children and lists a plain file by returning exactly that file,
// which lets the enumerator treat roots uniformly.
package remote

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
)

// Entry is a single item returned by a transport listing.
type Entry struct {
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Name returns the last path element.
func (e Entry) Name() string {
	return path.Base(e.Path)
}

// RemoteEntry is a traversal work item. Depth counts levels below the root
// the item was reached from; the root itself is depth 0.
type RemoteEntry struct {
	Path  string
	IsDir bool
	Depth int
}

// FileLister is the read capability of a remote endpoint.
type FileLister interface {
	// List returns the children of a directory, or the file itself when
	// path names a file. A missing path is a not_found error.
	List(ctx context.Context, path string) ([]Entry, error)
	// Exists reports whether path names a file or directory.
	Exists(ctx context.Context, path string) (bool, error)
}

// FileWriter is the write capability of a remote endpoint.
type FileWriter interface {
	// MkdirAll creates dir and any missing parents. Object stores treat it
	// as a no-op.
	MkdirAll(ctx context.Context, dir string) error
	// Put stores the content of r at path, replacing an existing file.
	Put(ctx context.Context, path string, r io.Reader) error
}

// FileSystem is a transport session offering both capabilities.
type FileSystem interface {
	FileLister
	FileWriter
	Close() error
}

// TraversalConfig bounds an enumeration.
type TraversalConfig struct {
	Roots    []string
	MaxDepth int
}

// Validate checks that every root is absolute, every glob root is a
// well-formed pattern and the depth is not negative.
func (c TraversalConfig) Validate() error {
	if len(c.Roots) == 0 {
		return errors.New(errors.ErrorTypeConfig, "at least one root path is required")
	}
	for _, root := range c.Roots {
		if err := ValidatePath(root); err != nil {
			return err
		}
		if IsPattern(root) {
			if _, err := path.Match(path.Base(CleanPath(root)), ""); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, "invalid path pattern "+root).WithDetail("path", root)
			}
		}
	}
	if c.MaxDepth < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "max traversal depth must be >= 0, got %d", c.MaxDepth).
			WithDetail("max_depth", c.MaxDepth)
	}
	return nil
}

// ValidatePath rejects empty and relative paths.
func ValidatePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New(errors.ErrorTypeConfig, "path must not be empty")
	}
	if !path.IsAbs(CleanPath(p)) {
		return errors.Newf(errors.ErrorTypeConfig, "path %q must be absolute", p).WithDetail("path", p)
	}
	return nil
}

// CleanPath trims surrounding space and normalizes p with path.Clean.
func CleanPath(p string) string {
	return path.Clean(strings.TrimSpace(p))
}

// IsPattern reports whether the last element of p is a glob pattern.
func IsPattern(p string) bool {
	return strings.ContainsAny(path.Base(p), "*?[")
}
