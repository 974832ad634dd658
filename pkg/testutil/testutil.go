// Package testutil provides testing utilities for the FTP connector
package testutil

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote/aferofs"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The context is cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// MemoryTree builds an in-memory remote holding the given files. Parent
// directories are created implicitly.
func MemoryTree(t *testing.T, files ...string) *aferofs.FS {
	t.Helper()
	fs := aferofs.NewMemory()
	for _, f := range files {
		require.NoError(t, fs.WriteFile(f, []byte("1,a\n")), "writing %s", f)
	}
	return fs
}

// FailingLister fails every call with Err, a connection error by default.
type FailingLister struct {
	Err error
}

func (f FailingLister) err() error {
	if f.Err != nil {
		return f.Err
	}
	return errors.New(errors.ErrorTypeConnection, "connection refused")
}

// List implements remote.FileLister.
func (f FailingLister) List(context.Context, string) ([]remote.Entry, error) {
	return nil, f.err()
}

// Exists implements remote.FileLister.
func (f FailingLister) Exists(context.Context, string) (bool, error) {
	return false, f.err()
}

// RecordingLister records the paths listed through it.
type RecordingLister struct {
	remote.FileLister

	mu     sync.Mutex
	listed []string
}

// NewRecordingLister wraps inner.
func NewRecordingLister(inner remote.FileLister) *RecordingLister {
	return &RecordingLister{FileLister: inner}
}

// List implements remote.FileLister.
func (r *RecordingLister) List(ctx context.Context, p string) ([]remote.Entry, error) {
	r.mu.Lock()
	r.listed = append(r.listed, p)
	r.mu.Unlock()
	return r.FileLister.List(ctx, p)
}

// Listed returns the listed paths in sorted order.
func (r *RecordingLister) Listed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.listed...)
	sort.Strings(out)
	return out
}

// Calls returns how many listings went through the wrapper.
func (r *RecordingLister) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listed)
}

// AssertEventually asserts that a condition becomes true within the specified timeout.
// It checks the condition every 10ms until it succeeds or the timeout expires.
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
