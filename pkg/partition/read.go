package partition

import (
	"strings"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/metrics"
	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
)

// ForRead builds one read context per distinct file, numbered in lexical
// path order so that the same remote content always yields the same IDs.
func ForRead(files []string, s *schema.TableSchema, settings *Settings) ([]*SubTaskContext, error) {
	if s == nil {
		return nil, errors.New(errors.ErrorTypePartition, "read partition requires a schema")
	}
	if settings == nil {
		return nil, errors.New(errors.ErrorTypePartition, "read partition requires settings")
	}

	ordered := normalize(files)
	tasks := make([]*SubTaskContext, 0, len(ordered))
	for i, file := range ordered {
		if strings.TrimSpace(file) == "" {
			return nil, errors.New(errors.ErrorTypePartition, "read partition received an empty file path")
		}
		tasks = append(tasks, newSubTask(i, KindRead, []string{file}, "", s, settings))
	}

	metrics.SubTasksEmitted.WithLabelValues(string(KindRead)).Add(float64(len(tasks)))
	return tasks, nil
}

// Iterator hands out a fixed sequence of contexts once. It is not
// restartable; obtain a new one to observe fresh remote content.
type Iterator struct {
	tasks []*SubTaskContext
	pos   int
}

// NewIterator wraps tasks.
func NewIterator(tasks []*SubTaskContext) *Iterator {
	return &Iterator{tasks: tasks}
}

// Next returns the next context, or false when the sequence is exhausted.
func (it *Iterator) Next() (*SubTaskContext, bool) {
	if it.pos >= len(it.tasks) {
		return nil, false
	}
	task := it.tasks[it.pos]
	it.pos++
	return task, true
}

// Remaining returns how many contexts Next will still produce.
func (it *Iterator) Remaining() int {
	return len(it.tasks) - it.pos
}
