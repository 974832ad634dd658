package ftp

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/core"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/registry"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/manifest"
	"github.com/ajitpratap0/nebula-ftp/pkg/partition"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote/aferofs"
	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
)

func writerConfig() *config.ConnectorConfig {
	cfg := config.NewConnectorConfig("export")
	cfg.Server = config.ServerConfig{Kind: config.TransportMemory}
	cfg.Writer = &config.WriterConfig{Path: "/out"}
	return cfg
}

func sourceMapping(t *testing.T) partition.TableMapping {
	t.Helper()
	s, err := schema.ParseNamed("orders", "id:long, name:string")
	require.NoError(t, err)
	return partition.TableMapping{SourceTable: "orders", Columns: s}
}

func TestWriter_Validate(t *testing.T) {
	w, err := NewWriter(writerConfig(), aferofs.NewMemory())
	require.NoError(t, err)
	require.NoError(t, w.Validate(context.Background()))
	assert.Equal(t, core.StateValid, w.State())

	settings := w.Settings()
	assert.Equal(t, WriteModeTruncate, settings.WriteMode)
	assert.Equal(t, "none", settings.Compress)
	assert.Equal(t, "utf-8", settings.Encoding)
}

func TestWriter_ValidateAggregatesFields(t *testing.T) {
	cfg := writerConfig()
	cfg.Writer.Path = "out"
	cfg.Writer.WriteMode = "overwrite"
	cfg.Writer.Compress = "zip"
	cfg.Writer.DateFormat = "   "
	cfg.Writer.FileName = "a/b"

	w, err := NewWriter(cfg, aferofs.NewMemory())
	require.NoError(t, err)

	err = w.Validate(context.Background())
	fe := fieldErrors(t, err)
	assert.Equal(t, []string{FieldCompress, FieldDateFormat, FieldFileName, FieldPath, FieldWriteMode}, fe.Fields())
	assert.Equal(t, core.StateInvalid, w.State())
}

func TestWriter_SubTaskWithManifest(t *testing.T) {
	fs := aferofs.NewMemory()
	cfg := writerConfig()
	cfg.Writer.WriteMetaData = true
	cfg.Writer.Compress = "gzip"

	w, err := NewWriter(cfg, fs)
	require.NoError(t, err)
	require.NoError(t, w.Validate(context.Background()))

	plan, err := w.SubTask(sourceMapping(t))
	require.NoError(t, err)
	require.Len(t, plan.PreTasks, 1)
	assert.Equal(t, "write-manifest", plan.PreTasks[0].Name())
	assert.Equal(t, "/out/orders", plan.Main.Target())

	var sawManifest bool
	err = plan.Execute(context.Background(), func(ctx context.Context, task *partition.SubTaskContext) error {
		data, err := afero.ReadFile(fs.Fs(), "/out/orders.meta.json.gz")
		if err != nil {
			return err
		}
		m, err := manifest.Decode(data, "gzip")
		if err != nil {
			return err
		}
		sawManifest = m.SourceTable == "orders" && len(m.Columns) == 2
		return nil
	})
	require.NoError(t, err)
	assert.True(t, sawManifest)
}

func TestWriter_SubTaskWithoutManifest(t *testing.T) {
	w, err := NewWriter(writerConfig(), aferofs.NewMemory())
	require.NoError(t, err)
	require.NoError(t, w.Validate(context.Background()))

	m := sourceMapping(t)
	m.TargetPath = "/elsewhere"
	m.FileName = "custom.csv"
	plan, err := w.SubTask(m)
	require.NoError(t, err)
	assert.Empty(t, plan.PreTasks)
	assert.Equal(t, "/elsewhere/custom.csv", plan.Main.Target())
	assert.Equal(t, partition.KindWrite, plan.Main.Kind())
}

func TestWriter_NonConflict(t *testing.T) {
	fs := aferofs.NewMemory()
	cfg := writerConfig()
	cfg.Writer.WriteMode = "NONCONFLICT"

	w, err := NewWriter(cfg, fs)
	require.NoError(t, err)
	require.NoError(t, w.Validate(context.Background()))
	assert.Equal(t, WriteModeNonConflict, w.Settings().WriteMode)

	plan, err := w.SubTask(sourceMapping(t))
	require.NoError(t, err)
	require.Len(t, plan.PreTasks, 1)

	run := func(context.Context, *partition.SubTaskContext) error { return nil }
	require.NoError(t, plan.Execute(context.Background(), run))

	require.NoError(t, fs.WriteFile("/out/orders", []byte("existing")))
	err = plan.Execute(context.Background(), run)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestWriter_SubTaskRequiresValidation(t *testing.T) {
	w, err := NewWriter(writerConfig(), aferofs.NewMemory())
	require.NoError(t, err)

	_, err = w.SubTask(sourceMapping(t))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestWriter_ManifestNeedsSourceSchema(t *testing.T) {
	cfg := writerConfig()
	cfg.Writer.WriteMetaData = true
	w, err := NewWriter(cfg, aferofs.NewMemory())
	require.NoError(t, err)
	require.NoError(t, w.Validate(context.Background()))

	_, err = w.SubTask(partition.TableMapping{SourceTable: "orders"})
	assert.True(t, errors.IsType(err, errors.ErrorTypePartition))
}

func TestRegistration(t *testing.T) {
	require.True(t, registry.Has(Tag))

	info, err := registry.Info(Tag)
	require.NoError(t, err)
	assert.Contains(t, info.Transports, config.TransportFTP)

	fs := aferofs.NewMemory()
	require.NoError(t, fs.WriteFile("/data/in/a.csv", []byte("x")))

	reader, err := registry.CreateReader(Tag, readerConfig("/data/in", 1), fs)
	require.NoError(t, err)
	assert.Equal(t, core.RoleReader, reader.Role())

	writer, err := registry.CreateWriter(Tag, writerConfig(), fs)
	require.NoError(t, err)
	assert.Equal(t, core.RoleWriter, writer.Role())

	_, err = registry.CreateReader(Tag, writerConfig(), fs)
	assert.Error(t, err)
}

func TestLifecycle_ConcurrentValidateRejected(t *testing.T) {
	w, err := NewWriter(writerConfig(), aferofs.NewMemory())
	require.NoError(t, err)

	require.NoError(t, w.lifecycle.Begin())
	err = w.Validate(context.Background())
	assert.Error(t, err)
	w.lifecycle.Finish(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, w.Validate(ctx))
}
