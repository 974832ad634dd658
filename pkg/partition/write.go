package partition

import (
	"context"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/logger"
	"github.com/ajitpratap0/nebula-ftp/pkg/metrics"
	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
)

// TableMapping maps a source table onto a target directory.
type TableMapping struct {
	SourceTable string
	// Columns is the source schema, used by the manifest
	Columns    *schema.TableSchema
	TargetPath string
	// FileName overrides the settings file name and the table name
	FileName string
}

// ResolveFileName picks the target file name: mapping override, then the
// configured name, then the source table.
func (m TableMapping) ResolveFileName(settings *Settings) string {
	switch {
	case strings.TrimSpace(m.FileName) != "":
		return strings.TrimSpace(m.FileName)
	case settings != nil && strings.TrimSpace(settings.FileName) != "":
		return strings.TrimSpace(settings.FileName)
	default:
		return strings.TrimSpace(m.SourceTable)
	}
}

// Task is a step that must finish before a write sub-task starts.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// WritePlan is a write sub-task and the steps that must precede it.
type WritePlan struct {
	PreTasks []Task
	Main     *SubTaskContext
}

// ForWrite builds the single write context for mapping and attaches the
// pre-tasks that must run first.
func ForWrite(mapping TableMapping, settings *Settings, preTasks ...Task) (*WritePlan, error) {
	if settings == nil {
		return nil, errors.New(errors.ErrorTypePartition, "write partition requires settings")
	}
	dir := strings.TrimSpace(mapping.TargetPath)
	if dir == "" {
		return nil, errors.New(errors.ErrorTypePartition, "write partition requires a target path").
			WithDetail("source_table", mapping.SourceTable)
	}
	name := mapping.ResolveFileName(settings)
	if name == "" {
		return nil, errors.New(errors.ErrorTypePartition, "write partition requires a file name or source table").
			WithDetail("target_path", dir)
	}

	for _, task := range preTasks {
		if task == nil {
			return nil, errors.New(errors.ErrorTypePartition, "write partition received a nil pre-task")
		}
	}

	main := newSubTask(0, KindWrite, nil, path.Join(dir, name), mapping.Columns, settings)
	metrics.SubTasksEmitted.WithLabelValues(string(KindWrite)).Inc()

	return &WritePlan{
		PreTasks: append([]Task(nil), preTasks...),
		Main:     main,
	}, nil
}

// Execute runs every pre-task in order and then hands the main context to
// run. The first failure stops the plan.
func (p *WritePlan) Execute(ctx context.Context, run func(context.Context, *SubTaskContext) error) error {
	log := logger.FromContext(logger.ContextWithSubTask(ctx, p.Main.ID()), logger.Get())

	for _, task := range p.PreTasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Debug("running pre-task", zap.String("task", task.Name()))
		if err := task.Run(ctx); err != nil {
			return errors.Wrap(err, errors.TypeOr(err, errors.ErrorTypeInternal), "pre-task "+task.Name()+" failed").
				WithDetail("subtask", p.Main.ID())
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return run(ctx, p.Main)
}
