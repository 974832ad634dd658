package ftp

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-ftp/pkg/config"
	"github.com/ajitpratap0/nebula-ftp/pkg/connector/core"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/logger"
	"github.com/ajitpratap0/nebula-ftp/pkg/manifest"
	"github.com/ajitpratap0/nebula-ftp/pkg/metrics"
	"github.com/ajitpratap0/nebula-ftp/pkg/observability"
	"github.com/ajitpratap0/nebula-ftp/pkg/partition"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
)

// Writer is the target descriptor of the FTP connector.
type Writer struct {
	name      string
	cfg       *config.WriterConfig
	fs        remote.FileSystem
	settings  *partition.Settings
	lifecycle core.Lifecycle
	logger    *zap.Logger
}

var _ core.Writer = (*Writer)(nil)

// NewWriter creates a writer over fs.
func NewWriter(cfg *config.ConnectorConfig, fs remote.FileSystem) (*Writer, error) {
	if cfg == nil || cfg.Writer == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "writer section is required")
	}
	if fs == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "writer requires a filesystem")
	}
	cfg.ApplyDefaults()

	settings := partition.WriteSettings(cfg.Writer)
	settings.WriteMode = normalizeWriteMode(settings.WriteMode)

	return &Writer{
		name:     cfg.Name,
		cfg:      cfg.Writer,
		fs:       fs,
		settings: settings,
		logger: logger.Get().With(
			zap.String("connector", cfg.Name),
			zap.String("role", string(core.RoleWriter)),
		),
	}, nil
}

// Name implements core.Descriptor.
func (w *Writer) Name() string { return w.name }

// Role implements core.Descriptor.
func (w *Writer) Role() core.Role { return core.RoleWriter }

// State implements core.Descriptor.
func (w *Writer) State() core.State { return w.lifecycle.State() }

// Settings returns the write settings shared by every plan.
func (w *Writer) Settings() partition.Settings {
	return *w.settings
}

// Validate checks the writer options. Writers fan in and need no live check.
func (w *Writer) Validate(ctx context.Context) (err error) {
	if err := w.lifecycle.Begin(); err != nil {
		return err
	}
	ctx = logger.ContextWithConnector(ctx, w.name)
	_, span := observability.StartSpan(ctx, "ftp.writer.validate", attribute.String("connector", w.name))
	defer func() {
		observability.EndSpan(span, err)
		w.lifecycle.Finish(err)
		metrics.Validations.WithLabelValues(string(core.RoleWriter), string(w.lifecycle.State())).Inc()
	}()

	var fe errors.FieldErrors
	fe.Add(FieldPath, remote.ValidatePath(w.cfg.Path))
	fe.Add(FieldWriteMode, validateWriteMode(w.cfg.WriteMode))
	fe.Add(FieldCompress, validateCompress(w.cfg.Compress, true))
	fe.Add(FieldEncoding, validateEncoding(w.cfg.Encoding))
	fe.Add(FieldFileFormat, validateFileFormat(w.cfg.FileFormat))
	fe.Add(FieldDateFormat, validateDateFormat(w.cfg.DateFormat))
	fe.Add(FieldFileName, validateFileName(w.cfg.FileName))

	if err := fe.Err(); err != nil {
		logger.FromContext(ctx, w.logger).Warn("writer validation failed",
			zap.Strings("fields", fe.Fields()), zap.Error(err))
		return err
	}
	return nil
}

// SubTask implements core.Writer. An empty mapping target defaults to the
// configured path. With write_mode nonConflict the plan first checks that
// the target does not exist; with write_meta_data it then writes the
// manifest.
func (w *Writer) SubTask(mapping partition.TableMapping) (*partition.WritePlan, error) {
	if err := w.lifecycle.RequireValid(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(mapping.TargetPath) == "" {
		mapping.TargetPath = remote.CleanPath(w.cfg.Path)
	}

	var preTasks []partition.Task
	if w.settings.WriteMode == WriteModeNonConflict {
		preTasks = append(preTasks, &conflictCheck{
			fs:     w.fs,
			target: remote.CleanPath(mapping.TargetPath + "/" + mapping.ResolveFileName(w.settings)),
		})
	}
	if w.cfg.WriteMetaData {
		mw, err := manifest.NewWriter(w.fs, mapping, w.settings)
		if err != nil {
			return nil, err
		}
		preTasks = append(preTasks, mw)
	}

	plan, err := partition.ForWrite(mapping, w.settings, preTasks...)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("write plan built",
		zap.String("target", plan.Main.Target()),
		zap.Int("pre_tasks", len(plan.PreTasks)))
	return plan, nil
}

// conflictCheck fails when the write target already exists.
type conflictCheck struct {
	fs     remote.FileLister
	target string
}

func (c *conflictCheck) Name() string { return "check-conflict" }

func (c *conflictCheck) Run(ctx context.Context) error {
	exists, err := c.fs.Exists(ctx, c.target)
	if err != nil {
		return err
	}
	if exists {
		return errors.Newf(errors.ErrorTypeValidation, "target %s already exists and write mode is %s",
			c.target, WriteModeNonConflict).WithDetail("path", c.target)
	}
	return nil
}
