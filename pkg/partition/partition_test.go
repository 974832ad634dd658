package partition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nerrors "github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
)

func mustSchema(t *testing.T) *schema.TableSchema {
	t.Helper()
	s, err := schema.ParseNamed("orders", "0:id:long, 1:name:string, 2:created:date:yyyy-MM-dd")
	require.NoError(t, err)
	return s
}

func readSettings() *Settings {
	return &Settings{FileFormat: "csv", FieldDelimiter: ",", Compress: "none", Encoding: "utf-8"}
}

func TestForRead(t *testing.T) {
	s := mustSchema(t)
	settings := readSettings()

	tasks, err := ForRead([]string{"/d/c.csv", "/d/a.csv", "/d/b.csv", "/d/a.csv"}, s, settings)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	for i, want := range []string{"/d/a.csv", "/d/b.csv", "/d/c.csv"} {
		task := tasks[i]
		assert.Equal(t, i, task.Seq())
		assert.Equal(t, IDPrefix+string(rune('0'+i)), task.ID())
		assert.Equal(t, KindRead, task.Kind())
		assert.Equal(t, []string{want}, task.SourcePaths())
		assert.Empty(t, task.Target())
		assert.Same(t, s, task.Schema())
		assert.Same(t, settings, task.settings)
	}
}

func TestForRead_Reproducible(t *testing.T) {
	s := mustSchema(t)
	settings := readSettings()
	files := []string{"/x/2.csv", "/x/1.csv", "/x/3.csv"}

	first, err := ForRead(files, s, settings)
	require.NoError(t, err)
	second, err := ForRead([]string{"/x/3.csv", "/x/1.csv", "/x/2.csv"}, s, settings)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].TemplateValues(), second[i].TemplateValues())
	}
}

func TestForRead_Empty(t *testing.T) {
	tasks, err := ForRead(nil, mustSchema(t), readSettings())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestForRead_Errors(t *testing.T) {
	_, err := ForRead([]string{"/a"}, nil, readSettings())
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypePartition))

	_, err = ForRead([]string{"/a"}, mustSchema(t), nil)
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypePartition))

	_, err = ForRead([]string{""}, mustSchema(t), readSettings())
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypePartition))
}

func TestSubTaskContext_IsolatedFromCallers(t *testing.T) {
	tasks, err := ForRead([]string{"/d/a.csv"}, mustSchema(t), readSettings())
	require.NoError(t, err)

	paths := tasks[0].SourcePaths()
	paths[0] = "/tampered"
	assert.Equal(t, []string{"/d/a.csv"}, tasks[0].SourcePaths())

	settings := tasks[0].Settings()
	settings.Compress = "gzip"
	assert.Equal(t, "none", tasks[0].Settings().Compress)
}

func TestTemplateValues(t *testing.T) {
	tasks, err := ForRead([]string{"/d/a.csv"}, mustSchema(t), readSettings())
	require.NoError(t, err)

	values := tasks[0].TemplateValues()
	assert.Equal(t, "ftp_0", values["id"])
	assert.Equal(t, "read", values["kind"])
	assert.Equal(t, []string{"/d/a.csv"}, values["source_paths"])
	assert.Equal(t, "csv", values["file_format"])
	assert.NotContains(t, values, "write_mode")

	columns := values["columns"].([]map[string]interface{})
	require.Len(t, columns, 3)
	assert.Equal(t, map[string]interface{}{"name": "id", "type": "LONG", "index": 0}, columns[0])
	assert.Equal(t, "yyyy-MM-dd", columns[2]["format"])
}

func TestIterator_NotRestartable(t *testing.T) {
	tasks, err := ForRead([]string{"/a", "/b"}, mustSchema(t), readSettings())
	require.NoError(t, err)

	it := NewIterator(tasks)
	assert.Equal(t, 2, it.Remaining())

	var ids []string
	for task, ok := it.Next(); ok; task, ok = it.Next() {
		ids = append(ids, task.ID())
	}
	assert.Equal(t, []string{"ftp_0", "ftp_1"}, ids)

	_, ok := it.Next()
	assert.False(t, ok)
	assert.Zero(t, it.Remaining())
}

// recordingTask appends its name to a shared log.
type recordingTask struct {
	name string
	log  *[]string
	err  error
}

func (r recordingTask) Name() string { return r.name }

func (r recordingTask) Run(context.Context) error {
	*r.log = append(*r.log, r.name)
	return r.err
}

func TestForWrite(t *testing.T) {
	settings := &Settings{FileFormat: "csv", Compress: "gzip", WriteMode: "truncate"}
	mapping := TableMapping{SourceTable: "orders", Columns: mustSchema(t), TargetPath: "/out"}

	plan, err := ForWrite(mapping, settings)
	require.NoError(t, err)
	assert.Empty(t, plan.PreTasks)
	assert.Equal(t, "ftp_0", plan.Main.ID())
	assert.Equal(t, KindWrite, plan.Main.Kind())
	assert.Equal(t, "/out/orders", plan.Main.Target())
	assert.Empty(t, plan.Main.SourcePaths())
	assert.Same(t, mapping.Columns, plan.Main.Schema())
}

func TestTableMapping_ResolveFileName(t *testing.T) {
	m := TableMapping{SourceTable: "orders"}
	assert.Equal(t, "orders", m.ResolveFileName(nil))
	assert.Equal(t, "export", m.ResolveFileName(&Settings{FileName: "export"}))

	m.FileName = "override"
	assert.Equal(t, "override", m.ResolveFileName(&Settings{FileName: "export"}))
}

func TestForWrite_Errors(t *testing.T) {
	_, err := ForWrite(TableMapping{SourceTable: "t", TargetPath: "/out"}, nil)
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypePartition))

	_, err = ForWrite(TableMapping{SourceTable: "t"}, &Settings{})
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypePartition))

	_, err = ForWrite(TableMapping{TargetPath: "/out"}, &Settings{})
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypePartition))

	_, err = ForWrite(TableMapping{SourceTable: "t", TargetPath: "/out"}, &Settings{}, nil)
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypePartition))
}

func TestWritePlan_PreTasksRunFirst(t *testing.T) {
	var log []string
	plan, err := ForWrite(
		TableMapping{SourceTable: "t", TargetPath: "/out"},
		&Settings{},
		recordingTask{name: "manifest", log: &log},
		recordingTask{name: "prepare", log: &log},
	)
	require.NoError(t, err)

	err = plan.Execute(context.Background(), func(_ context.Context, task *SubTaskContext) error {
		log = append(log, "main:"+task.ID())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"manifest", "prepare", "main:ftp_0"}, log)
}

func TestWritePlan_PreTaskFailureStopsPlan(t *testing.T) {
	var log []string
	boom := errors.New("disk full")
	plan, err := ForWrite(
		TableMapping{SourceTable: "t", TargetPath: "/out"},
		&Settings{},
		recordingTask{name: "manifest", log: &log, err: boom},
	)
	require.NoError(t, err)

	mainRan := false
	err = plan.Execute(context.Background(), func(context.Context, *SubTaskContext) error {
		mainRan = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, nerrors.IsType(err, nerrors.ErrorTypeInternal))
	assert.False(t, mainRan)
}

func TestWritePlan_Cancelled(t *testing.T) {
	plan, err := ForWrite(TableMapping{SourceTable: "t", TargetPath: "/out"}, &Settings{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = plan.Execute(ctx, func(context.Context, *SubTaskContext) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
