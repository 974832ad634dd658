package ftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/core"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote/aferofs"
	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
	"github.com/ajitpratap0/nebula-ftp/pkg/testutil"
)

func intPtr(v int) *int { return &v }

func readerConfig(path string, depth int) *config.ConnectorConfig {
	cfg := config.NewConnectorConfig("orders")
	cfg.Server = config.ServerConfig{Kind: config.TransportMemory}
	cfg.Reader = &config.ReaderConfig{
		Path:              path,
		Column:            "0:id:long, 1:name:string",
		MaxTraversalLevel: intPtr(depth),
	}
	return cfg
}

func fieldErrors(t *testing.T, err error) *errors.FieldErrors {
	t.Helper()
	var fe *errors.FieldErrors
	require.True(t, errors.As(err, &fe), "expected field errors, got %v", err)
	return fe
}

func TestReader_ValidateAndSubTasks(t *testing.T) {
	fs := testutil.MemoryTree(t, "/data/in/a.csv", "/data/in/sub/b.csv")
	r, err := NewReader(readerConfig("/data/in", 1), fs)
	require.NoError(t, err)
	assert.Equal(t, core.StateUnvalidated, r.State())

	require.NoError(t, r.Validate(testutil.TestContext(t)))
	assert.Equal(t, core.StateValid, r.State())

	s, err := r.SelectedSchema()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, s.ColumnNames())

	it, err := r.SubTasks(testutil.TestContext(t), nil)
	require.NoError(t, err)
	task, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "ftp_0", task.ID())
	assert.Equal(t, []string{"/data/in/a.csv"}, task.SourcePaths())
	assert.Same(t, s, task.Schema())
	_, ok = it.Next()
	assert.False(t, ok)
}

func TestReader_SubTasksReEnumerate(t *testing.T) {
	fs := testutil.MemoryTree(t, "/data/in/a.csv")
	r, err := NewReader(readerConfig("/data/in", 1), fs)
	require.NoError(t, err)
	require.NoError(t, r.Validate(testutil.TestContext(t)))

	first, err := r.SubTasks(testutil.TestContext(t), core.AllTables)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Remaining())

	require.NoError(t, fs.WriteFile("/data/in/b.csv", []byte("2,b\n")))

	second, err := r.SubTasks(testutil.TestContext(t), core.AllTables)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Remaining())
	assert.Equal(t, 1, first.Remaining())
}

func TestReader_SubTasksFilteredOut(t *testing.T) {
	r, err := NewReader(readerConfig("/data/in", 1), testutil.MemoryTree(t, "/data/in/a.csv"))
	require.NoError(t, err)
	require.NoError(t, r.Validate(testutil.TestContext(t)))

	it, err := r.SubTasks(testutil.TestContext(t), func(table string) bool { return table != "orders" })
	require.NoError(t, err)
	assert.Zero(t, it.Remaining())
}

func TestReader_SubTasksRequireValidation(t *testing.T) {
	r, err := NewReader(readerConfig("/data/in", 1), testutil.MemoryTree(t, "/data/in/a.csv"))
	require.NoError(t, err)

	_, err = r.SubTasks(testutil.TestContext(t), nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestReader_NoMatchVersusEnumerationError(t *testing.T) {
	t.Run("zero files", func(t *testing.T) {
		fs := aferofs.NewMemory()
		require.NoError(t, fs.MkdirAll(testutil.TestContext(t), "/data/in"))

		r, err := NewReader(readerConfig("/data/in", 3), fs)
		require.NoError(t, err)

		err = r.Validate(testutil.TestContext(t))
		require.Error(t, err)
		assert.Equal(t, core.StateInvalid, r.State())

		fe := fieldErrors(t, err)
		assert.Equal(t, []string{FieldPath}, fe.Fields())
		assert.True(t, errors.IsType(fe.Get(FieldPath), errors.ErrorTypeNoMatch))
		assert.False(t, errors.IsType(fe.Get(FieldPath), errors.ErrorTypeEnumeration))
	})

	t.Run("transport failure", func(t *testing.T) {
		r, err := NewReader(readerConfig("/data/in", 3), testutil.FailingLister{})
		require.NoError(t, err)

		err = r.Validate(testutil.TestContext(t))
		require.Error(t, err)
		assert.Equal(t, core.StateInvalid, r.State())

		fe := fieldErrors(t, err)
		assert.True(t, errors.IsType(fe.Get(FieldPath), errors.ErrorTypeEnumeration))
		assert.False(t, errors.IsType(fe.Get(FieldPath), errors.ErrorTypeNoMatch))
	})

	t.Run("files only beyond depth", func(t *testing.T) {
		r, err := NewReader(readerConfig("/data/in", 1), testutil.MemoryTree(t, "/data/in/sub/b.csv"))
		require.NoError(t, err)

		fe := fieldErrors(t, r.Validate(testutil.TestContext(t)))
		assert.True(t, errors.IsType(fe.Get(FieldPath), errors.ErrorTypeNoMatch))
	})
}

func TestReader_ValidateAggregatesFields(t *testing.T) {
	cfg := readerConfig("relative/path", -1)
	cfg.Reader.Column = "0:id:long, 1:flag:boolean_typo"
	cfg.Reader.Compress = "rar"
	cfg.Reader.Encoding = "klingon"
	cfg.Reader.FileFormat = config.FileFormatConfig{Type: "parquet", FieldDelimiter: ","}

	lister := testutil.NewRecordingLister(aferofs.NewMemory())
	r, err := NewReader(cfg, lister)
	require.NoError(t, err)

	fe := fieldErrors(t, r.Validate(testutil.TestContext(t)))
	assert.Equal(t, []string{
		FieldColumn, FieldCompress, FieldEncoding, FieldFileFormat, FieldMaxTraversalLevel, FieldPath,
	}, fe.Fields())
	assert.True(t, errors.IsType(fe.Get(FieldColumn), errors.ErrorTypeSchema))
	assert.Zero(t, lister.Calls(), "no live enumeration when the path is structurally invalid")
}

func TestReader_ValidateOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ReaderConfig)
		field  string
	}{
		{"read-only compress accepted", func(c *config.ReaderConfig) { c.Compress = "bzip2" }, ""},
		{"gbk encoding", func(c *config.ReaderConfig) { c.Encoding = "GBK" }, ""},
		{"latin1 encoding", func(c *config.ReaderConfig) { c.Encoding = "ISO-8859-1" }, ""},
		{"tab delimiter", func(c *config.ReaderConfig) { c.FileFormat.FieldDelimiter = `\t` }, ""},
		{"text format", func(c *config.ReaderConfig) { c.FileFormat.Type = "TEXT" }, ""},
		{"long delimiter", func(c *config.ReaderConfig) { c.FileFormat.FieldDelimiter = "||" }, FieldFileFormat},
		{"empty column", func(c *config.ReaderConfig) { c.Column = "" }, FieldColumn},
		{"unknown compress", func(c *config.ReaderConfig) { c.Compress = "xz" }, FieldCompress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := readerConfig("/data/in", 1)
			tt.mutate(cfg.Reader)
			r, err := NewReader(cfg, testutil.MemoryTree(t, "/data/in/a.csv"))
			require.NoError(t, err)

			err = r.Validate(testutil.TestContext(t))
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			fe := fieldErrors(t, err)
			assert.Equal(t, []string{tt.field}, fe.Fields())
		})
	}
}

func TestReader_MultipleRootsAndWildcard(t *testing.T) {
	fs := testutil.MemoryTree(t, "/a/1.csv", "/a/2.txt", "/b/3.csv")
	cfg := readerConfig("/a/*.csv", 1)
	cfg.Reader.Paths = []string{"/b", "/a/1.csv"}

	r, err := NewReader(cfg, fs)
	require.NoError(t, err)
	require.NoError(t, r.Validate(testutil.TestContext(t)))

	it, err := r.SubTasks(testutil.TestContext(t), nil)
	require.NoError(t, err)
	var got []string
	for task, ok := it.Next(); ok; task, ok = it.Next() {
		got = append(got, task.SourcePaths()...)
	}
	assert.Equal(t, []string{"/a/1.csv", "/b/3.csv"}, got)
}

func TestReader_DefaultDepth(t *testing.T) {
	cfg := readerConfig("/data", 0)
	cfg.Reader.MaxTraversalLevel = nil
	r, err := NewReader(cfg, aferofs.NewMemory())
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxTraversalLevel, r.Traversal().MaxDepth)
}

func TestNewReader_Errors(t *testing.T) {
	_, err := NewReader(nil, aferofs.NewMemory())
	assert.Error(t, err)

	_, err = NewReader(config.NewConnectorConfig("x"), aferofs.NewMemory())
	assert.Error(t, err)

	_, err = NewReader(readerConfig("/d", 1), nil)
	assert.Error(t, err)
}

func TestReader_SchemaIsShared(t *testing.T) {
	r, err := NewReader(readerConfig("/data/in", 1), testutil.MemoryTree(t, "/data/in/a.csv", "/data/in/b.csv"))
	require.NoError(t, err)
	require.NoError(t, r.Validate(testutil.TestContext(t)))

	it, err := r.SubTasks(testutil.TestContext(t), nil)
	require.NoError(t, err)
	var schemas []*schema.TableSchema
	for task, ok := it.Next(); ok; task, ok = it.Next() {
		schemas = append(schemas, task.Schema())
	}
	require.Len(t, schemas, 2)
	assert.Same(t, schemas[0], schemas[1])
}
