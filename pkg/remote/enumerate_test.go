package remote_test

import (
	"context"
	"sync"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/metrics"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote/aferofs"
)

func newTree(t *testing.T, files ...string) *aferofs.FS {
	t.Helper()
	fs := aferofs.NewMemory()
	for _, f := range files {
		require.NoError(t, fs.WriteFile(f, []byte("x")))
	}
	return fs
}

// countingLister records every listed path.
type countingLister struct {
	remote.FileLister
	mu     sync.Mutex
	listed []string
}

func (c *countingLister) List(ctx context.Context, p string) ([]remote.Entry, error) {
	c.mu.Lock()
	c.listed = append(c.listed, p)
	c.mu.Unlock()
	return c.FileLister.List(ctx, p)
}

// failingLister fails for one path and delegates the rest.
type failingLister struct {
	remote.FileLister
	failOn string
	err    error
}

func (f *failingLister) List(ctx context.Context, p string) ([]remote.Entry, error) {
	if p == f.failOn {
		return nil, f.err
	}
	return f.FileLister.List(ctx, p)
}

func TestEnumerate_DepthBound(t *testing.T) {
	fs := newTree(t,
		"/data/in/a.csv",
		"/data/in/sub/b.csv",
		"/data/in/sub/deeper/c.csv",
	)

	tests := []struct {
		name     string
		maxDepth int
		want     []string
	}{
		{"root only", 0, []string{}},
		{"immediate children", 1, []string{"/data/in/a.csv"}},
		{"two levels", 2, []string{"/data/in/a.csv", "/data/in/sub/b.csv"}},
		{"beyond tree", 10, []string{"/data/in/a.csv", "/data/in/sub/b.csv", "/data/in/sub/deeper/c.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := remote.Enumerate(context.Background(), remote.TraversalConfig{
				Roots:    []string{"/data/in"},
				MaxDepth: tt.maxDepth,
			}, fs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnumerate_DoesNotListPastLimit(t *testing.T) {
	lister := &countingLister{FileLister: newTree(t, "/data/in/a.csv", "/data/in/sub/b.csv")}

	got, err := remote.Enumerate(context.Background(), remote.TraversalConfig{
		Roots:    []string{"/data/in"},
		MaxDepth: 1,
	}, lister)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/in/a.csv"}, got)
	assert.Equal(t, []string{"/data/in"}, lister.listed)
}

func TestEnumerate_FileRoot(t *testing.T) {
	fs := newTree(t, "/data/in/a.csv")

	got, err := remote.Enumerate(context.Background(), remote.TraversalConfig{
		Roots:    []string{"/data/in/a.csv"},
		MaxDepth: 0,
	}, fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/in/a.csv"}, got)
}

func TestEnumerate_OverlappingRootsAreDeduplicated(t *testing.T) {
	fs := newTree(t, "/data/in/a.csv", "/data/in/b.csv")

	got, err := remote.Enumerate(context.Background(), remote.TraversalConfig{
		Roots:    []string{"/data/in/b.csv", "/data/in", "/data/in/", "/data/in/a.csv"},
		MaxDepth: 3,
	}, fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/in/a.csv", "/data/in/b.csv"}, got)
}

func TestEnumerate_Wildcard(t *testing.T) {
	fs := newTree(t,
		"/data/in/a.csv",
		"/data/in/b.txt",
		"/data/in/c.csv",
		"/data/in/csvdir.csv/d.csv",
	)

	got, err := remote.Enumerate(context.Background(), remote.TraversalConfig{
		Roots:    []string{"/data/in/*.csv"},
		MaxDepth: 1,
	}, fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/in/a.csv", "/data/in/c.csv"}, got)

	got, err = remote.Enumerate(context.Background(), remote.TraversalConfig{
		Roots:    []string{"/data/in/*.csv"},
		MaxDepth: 2,
	}, fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/in/a.csv", "/data/in/c.csv", "/data/in/csvdir.csv/d.csv"}, got)
}

func TestEnumerate_EmptyIsSuccess(t *testing.T) {
	fs := aferofs.NewMemory()
	require.NoError(t, fs.MkdirAll(context.Background(), "/empty"))

	got, err := remote.Enumerate(context.Background(), remote.TraversalConfig{
		Roots:    []string{"/empty"},
		MaxDepth: 5,
	}, fs)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnumerate_ListingFailure(t *testing.T) {
	cause := errors.New(errors.ErrorTypeConnection, "connection reset")
	lister := &failingLister{
		FileLister: newTree(t, "/data/in/a.csv", "/data/in/sub/b.csv"),
		failOn:     "/data/in/sub",
		err:        cause,
	}

	got, err := remote.Enumerate(context.Background(), remote.TraversalConfig{
		Roots:    []string{"/data/in"},
		MaxDepth: 3,
	}, lister)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEnumeration))
	assert.ErrorIs(t, err, cause)

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	path, ok := e.Detail("path")
	require.True(t, ok)
	assert.Equal(t, "/data/in/sub", path)
}

func TestEnumerate_MissingRoot(t *testing.T) {
	_, err := remote.Enumerate(context.Background(), remote.TraversalConfig{
		Roots:    []string{"/missing"},
		MaxDepth: 1,
	}, aferofs.NewMemory())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEnumeration))
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestEnumerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := remote.Enumerate(ctx, remote.TraversalConfig{
		Roots:    []string{"/data/in"},
		MaxDepth: 1,
	}, newTree(t, "/data/in/a.csv"))
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnumerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  remote.TraversalConfig
	}{
		{"no roots", remote.TraversalConfig{MaxDepth: 1}},
		{"relative root", remote.TraversalConfig{Roots: []string{"data/in"}, MaxDepth: 1}},
		{"empty root", remote.TraversalConfig{Roots: []string{" "}, MaxDepth: 1}},
		{"negative depth", remote.TraversalConfig{Roots: []string{"/data"}, MaxDepth: -1}},
		{"malformed glob", remote.TraversalConfig{Roots: []string{"/data/["}, MaxDepth: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := remote.Enumerate(context.Background(), tt.cfg, aferofs.NewMemory())
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestEnumerate_MalformedGlobNotListed(t *testing.T) {
	lister := &countingLister{FileLister: newTree(t, "/data/a.csv")}
	invalid := promtest.ToFloat64(metrics.Enumerations.WithLabelValues(metrics.StatusInvalid))
	failed := promtest.ToFloat64(metrics.Enumerations.WithLabelValues(metrics.StatusError))

	got, err := remote.Enumerate(context.Background(), remote.TraversalConfig{
		Roots:    []string{"/data/in", "/data/[a-"},
		MaxDepth: 1,
	}, lister)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Empty(t, lister.listed)
	assert.Equal(t, invalid+1, promtest.ToFloat64(metrics.Enumerations.WithLabelValues(metrics.StatusInvalid)))
	assert.Equal(t, failed, promtest.ToFloat64(metrics.Enumerations.WithLabelValues(metrics.StatusError)))
}

func TestEnumerate_Deterministic(t *testing.T) {
	fs := newTree(t, "/r/z.csv", "/r/a.csv", "/r/m/n.csv", "/r/m/b.csv")
	cfg := remote.TraversalConfig{Roots: []string{"/r"}, MaxDepth: 2}

	first, err := remote.Enumerate(context.Background(), cfg, fs)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := remote.Enumerate(context.Background(), cfg, fs)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.IsIncreasing(t, first)
}
