package aferofs

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
)

func TestList(t *testing.T) {
	ctx := context.Background()
	fs := NewMemory()
	require.NoError(t, fs.WriteFile("/data/in/a.csv", []byte("1,2")))
	require.NoError(t, fs.WriteFile("/data/in/sub/b.csv", []byte("3,4")))

	t.Run("directory", func(t *testing.T) {
		entries, err := fs.List(ctx, "/data/in")
		require.NoError(t, err)
		require.Len(t, entries, 2)

		byPath := map[string]bool{}
		for _, e := range entries {
			byPath[e.Path] = e.IsDir
		}
		assert.Equal(t, map[string]bool{"/data/in/a.csv": false, "/data/in/sub": true}, byPath)
	})

	t.Run("file lists as itself", func(t *testing.T) {
		entries, err := fs.List(ctx, "/data/in/a.csv")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "/data/in/a.csv", entries[0].Path)
		assert.False(t, entries[0].IsDir)
		assert.EqualValues(t, 3, entries[0].Size)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := fs.List(ctx, "/nope")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := fs.List(cctx, "/data/in")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExistsAndPut(t *testing.T) {
	ctx := context.Background()
	fs := NewMemory()

	ok, err := fs.Exists(ctx, "/out/x.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.MkdirAll(ctx, "/out"))
	require.NoError(t, fs.Put(ctx, "/out/x.txt", strings.NewReader("hello")))

	ok, err = fs.Exists(ctx, "/out/x.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	f, err := fs.Fs().Open("/out/x.txt")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestNewLocal_ConfinedToRoot(t *testing.T) {
	dir := t.TempDir()
	fs := NewLocal(dir)
	require.NoError(t, fs.WriteFile("/a/b.csv", []byte("x")))

	exists, err := afero.Exists(afero.NewOsFs(), dir+"/a/b.csv")
	require.NoError(t, err)
	assert.True(t, exists)

	entries, err := fs.List(context.Background(), "/a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/a/b.csv", entries[0].Path)
}
