package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
)

func TestMemoryTree(t *testing.T) {
	ctx := TestContext(t)
	fs := MemoryTree(t, "/a/b.csv", "/a/c/d.csv")

	rec := NewRecordingLister(fs)
	entries, err := rec.List(ctx, "/a")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, []string{"/a"}, rec.Listed())
	assert.Equal(t, 1, rec.Calls())
}

func TestFailingLister(t *testing.T) {
	ctx := TestContext(t)

	_, err := FailingLister{}.List(ctx, "/")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))

	custom := errors.New(errors.ErrorTypeAuthentication, "denied")
	_, err = FailingLister{Err: custom}.Exists(ctx, "/")
	assert.Same(t, custom, err)
}
