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
	"github.com/ajitpratap0/nebula-ftp/pkg/metrics"
	"github.com/ajitpratap0/nebula-ftp/pkg/observability"
	"github.com/ajitpratap0/nebula-ftp/pkg/partition"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
)

// Validation field names.
const (
	FieldColumn            = "column"
	FieldPath              = "path"
	FieldMaxTraversalLevel = "max_traversal_level"
	FieldCompress          = "compress"
	FieldEncoding          = "encoding"
	FieldFileFormat        = "file_format"
	FieldWriteMode         = "write_mode"
	FieldDateFormat        = "date_format"
	FieldFileName          = "file_name"
)

// schemaCache is shared by every reader of the process.
var schemaCache = schema.NewCache(schema.DefaultCacheSize)

// Reader is the source descriptor of the FTP connector.
type Reader struct {
	name      string
	cfg       *config.ReaderConfig
	base      config.BaseConfig
	lister    remote.FileLister
	settings  *partition.Settings
	lifecycle core.Lifecycle
	logger    *zap.Logger
}

var _ core.Reader = (*Reader)(nil)

// NewReader creates a reader over lister. The configuration must carry a
// reader section; it is not validated until Validate is called.
func NewReader(cfg *config.ConnectorConfig, lister remote.FileLister) (*Reader, error) {
	if cfg == nil || cfg.Reader == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "reader section is required")
	}
	if lister == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "reader requires a file lister")
	}
	cfg.ApplyDefaults()

	return &Reader{
		name:     cfg.Name,
		cfg:      cfg.Reader,
		base:     cfg.BaseConfig,
		lister:   lister,
		settings: partition.ReadSettings(cfg.Reader),
		logger: logger.Get().With(
			zap.String("connector", cfg.Name),
			zap.String("role", string(core.RoleReader)),
		),
	}, nil
}

// Name implements core.Descriptor.
func (r *Reader) Name() string { return r.name }

// Role implements core.Descriptor.
func (r *Reader) Role() core.Role { return core.RoleReader }

// State implements core.Descriptor.
func (r *Reader) State() core.State { return r.lifecycle.State() }

// Traversal returns the enumeration bounds of the reader.
func (r *Reader) Traversal() remote.TraversalConfig {
	depth := DefaultMaxTraversalLevel
	if r.cfg.MaxTraversalLevel != nil {
		depth = *r.cfg.MaxTraversalLevel
	}
	return remote.TraversalConfig{Roots: r.cfg.Roots(), MaxDepth: depth}
}

// Validate checks the reader options and then enumerates the remote roots. A
// transport failure is reported as an enumeration error on the path field,
// an empty result as a no_match error on the same field.
func (r *Reader) Validate(ctx context.Context) (err error) {
	if err := r.lifecycle.Begin(); err != nil {
		return err
	}
	ctx = logger.ContextWithConnector(ctx, r.name)
	ctx, span := observability.StartSpan(ctx, "ftp.reader.validate", attribute.String("connector", r.name))
	defer func() {
		observability.EndSpan(span, err)
		r.lifecycle.Finish(err)
		metrics.Validations.WithLabelValues(string(core.RoleReader), string(r.lifecycle.State())).Inc()
	}()

	var fe errors.FieldErrors

	if _, err := schemaCache.Parse(r.name, r.cfg.Column); err != nil {
		fe.Add(FieldColumn, err)
	}

	traversal := r.Traversal()
	if len(traversal.Roots) == 0 {
		fe.Add(FieldPath, errors.New(errors.ErrorTypeConfig, "at least one path is required"))
	}
	for _, root := range traversal.Roots {
		fe.Add(FieldPath, remote.ValidatePath(root))
	}
	if traversal.MaxDepth < 0 {
		fe.Add(FieldMaxTraversalLevel, errors.Newf(errors.ErrorTypeConfig,
			"max traversal level must be >= 0, got %d", traversal.MaxDepth))
	}

	fe.Add(FieldCompress, validateCompress(r.cfg.Compress, false))
	fe.Add(FieldEncoding, validateEncoding(r.cfg.Encoding))
	fe.Add(FieldFileFormat, validateFileFormat(r.cfg.FileFormat))

	if !fe.Has(FieldPath) && !fe.Has(FieldMaxTraversalLevel) {
		fe.Add(FieldPath, r.checkRoots(ctx, traversal))
	}

	if err := fe.Err(); err != nil {
		logger.FromContext(ctx, r.logger).Warn("reader validation failed",
			zap.Strings("fields", fe.Fields()), zap.Error(err))
		return err
	}
	return nil
}

// checkRoots runs one live enumeration bounded by the validation timeout.
func (r *Reader) checkRoots(ctx context.Context, traversal remote.TraversalConfig) error {
	if timeout := r.base.Timeouts.Validation; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	files, err := remote.NewEnumerator(r.lister, r.logger).Enumerate(ctx, traversal)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Newf(errors.ErrorTypeNoMatch, "no files found under %s within depth %d",
			strings.Join(traversal.Roots, ", "), traversal.MaxDepth).
			WithDetail("roots", traversal.Roots).
			WithDetail("max_depth", traversal.MaxDepth)
	}
	logger.FromContext(ctx, r.logger).Debug("live enumeration matched files", zap.Int("files", len(files)))
	return nil
}

// SelectedSchema implements core.Reader.
func (r *Reader) SelectedSchema() (*schema.TableSchema, error) {
	return schemaCache.Parse(r.name, r.cfg.Column)
}

// Settings returns the read settings shared by every sub-task.
func (r *Reader) Settings() partition.Settings {
	return *r.settings
}

// SubTasks implements core.Reader. The reader exposes a single table named
// after the connector; a filter rejecting it yields no sub-tasks.
func (r *Reader) SubTasks(ctx context.Context, filter core.TableFilter) (*partition.Iterator, error) {
	if err := r.lifecycle.RequireValid(); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = core.AllTables
	}
	if !filter(r.name) {
		return partition.NewIterator(nil), nil
	}

	s, err := r.SelectedSchema()
	if err != nil {
		return nil, err
	}

	ctx = logger.ContextWithConnector(ctx, r.name)
	files, err := remote.NewEnumerator(r.lister, r.logger).Enumerate(ctx, r.Traversal())
	if err != nil {
		return nil, err
	}

	tasks, err := partition.ForRead(files, s, r.settings)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, r.logger).Info("read sub-tasks planned", zap.Int("subtasks", len(tasks)))
	return partition.NewIterator(tasks), nil
}
