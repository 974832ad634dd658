package remote

import (
	"context"
	"path"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/logger"
	"github.com/ajitpratap0/nebula-ftp/pkg/metrics"
	"github.com/ajitpratap0/nebula-ftp/pkg/observability"
)

// Enumerate walks the configured roots and returns every regular file found
// within MaxDepth levels, deduplicated and sorted.
//
// Roots are depth 0 and children of an entry at depth d are at depth d+1.
// Files are collected while depth <= MaxDepth. A directory is only listed if
// its children could still be collected, so entries past the limit are
// pruned without being fetched. A root whose last element is a glob pattern
// lists its parent and keeps the matching children at depth 1.
//
// Any listing failure aborts the walk with an enumeration error; no partial
// result is returned. Zero files is a successful empty result.
func Enumerate(ctx context.Context, cfg TraversalConfig, lister FileLister) ([]string, error) {
	return NewEnumerator(lister, nil).Enumerate(ctx, cfg)
}

// Enumerator performs bounded traversals against one lister.
type Enumerator struct {
	lister FileLister
	logger *zap.Logger
}

// NewEnumerator creates an Enumerator. A nil logger uses the global logger.
func NewEnumerator(lister FileLister, log *zap.Logger) *Enumerator {
	if log == nil {
		log = logger.Get()
	}
	return &Enumerator{
		lister: lister,
		logger: log.With(zap.String("component", "enumerator")),
	}
}

// Enumerate runs one traversal. See the package level Enumerate.
func (e *Enumerator) Enumerate(ctx context.Context, cfg TraversalConfig) (files []string, err error) {
	ctx, span := observability.StartSpan(ctx, "remote.enumerate",
		attribute.StringSlice("roots", cfg.Roots),
		attribute.Int("max_depth", cfg.MaxDepth),
	)
	defer func() {
		observability.EndSpan(span, err)
		e.record(ctx, files, err)
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &walk{
		enumerator: e,
		maxDepth:   cfg.MaxDepth,
		files:      make(map[string]struct{}),
		expanded:   make(map[string]struct{}),
	}

	for _, root := range dedupe(cfg.Roots) {
		if IsPattern(root) {
			if err := w.expandPattern(ctx, root); err != nil {
				return nil, err
			}
			continue
		}
		w.push(RemoteEntry{Path: root, IsDir: true, Depth: 0})
	}

	if err := w.run(ctx); err != nil {
		return nil, err
	}

	files = make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	sort.Strings(files)

	if w.pruned > 0 {
		metrics.EntriesPruned.Add(float64(w.pruned))
	}
	return files, nil
}

func (e *Enumerator) record(ctx context.Context, files []string, err error) {
	log := logger.FromContext(ctx, e.logger)
	switch {
	case err != nil && ctx.Err() != nil:
		metrics.Enumerations.WithLabelValues(metrics.StatusCancelled).Inc()
		log.Debug("enumeration cancelled", zap.Error(err))
	case err != nil && errors.IsType(err, errors.ErrorTypeConfig):
		metrics.Enumerations.WithLabelValues(metrics.StatusInvalid).Inc()
		log.Debug("enumeration rejected", zap.Error(err))
	case err != nil:
		metrics.Enumerations.WithLabelValues(metrics.StatusError).Inc()
		log.Warn("enumeration failed", zap.Error(err))
	case len(files) == 0:
		metrics.Enumerations.WithLabelValues(metrics.StatusEmpty).Inc()
		log.Debug("enumeration matched no files")
	default:
		metrics.Enumerations.WithLabelValues(metrics.StatusSuccess).Inc()
		metrics.FilesDiscovered.Add(float64(len(files)))
		log.Debug("enumeration completed", zap.Int("files", len(files)))
	}
}

// walk holds the state of a single traversal.
type walk struct {
	enumerator *Enumerator
	maxDepth   int
	pending    []RemoteEntry
	files      map[string]struct{}
	expanded   map[string]struct{}
	pruned     int
}

func (w *walk) push(entry RemoteEntry) {
	w.pending = append(w.pending, entry)
}

func (w *walk) run(ctx context.Context) error {
	for len(w.pending) > 0 {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeEnumeration, "enumeration cancelled")
		}

		last := len(w.pending) - 1
		item := w.pending[last]
		w.pending = w.pending[:last]

		if !item.IsDir {
			w.collect(item)
			continue
		}
		if _, seen := w.expanded[item.Path]; seen {
			continue
		}
		w.expanded[item.Path] = struct{}{}

		entries, err := w.list(ctx, item)
		if err != nil {
			return err
		}

		// a path naming a file lists as that file alone
		if len(entries) == 1 && !entries[0].IsDir && CleanPath(entries[0].Path) == item.Path {
			w.collect(RemoteEntry{Path: item.Path, Depth: item.Depth})
			continue
		}

		for _, entry := range entries {
			w.admit(RemoteEntry{
				Path:  CleanPath(entry.Path),
				IsDir: entry.IsDir,
				Depth: item.Depth + 1,
			})
		}
	}
	return nil
}

// admit queues a child when it can still contribute files.
func (w *walk) admit(entry RemoteEntry) {
	if entry.IsDir {
		if entry.Depth < w.maxDepth {
			w.push(entry)
		} else {
			w.pruned++
		}
		return
	}
	if entry.Depth <= w.maxDepth {
		w.push(entry)
	} else {
		w.pruned++
	}
}

func (w *walk) collect(entry RemoteEntry) {
	if entry.Depth > w.maxDepth {
		w.pruned++
		return
	}
	w.files[entry.Path] = struct{}{}
}

func (w *walk) list(ctx context.Context, item RemoteEntry) ([]Entry, error) {
	timer := metrics.NewTimer("list")
	entries, err := w.enumerator.lister.List(ctx, item.Path)
	metrics.ListingLatency.WithLabelValues(metrics.Status(err)).Observe(timer.Stop().Seconds())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEnumeration, "failed to list "+item.Path).
			WithDetail("path", item.Path).
			WithDetail("depth", item.Depth)
	}
	return entries, nil
}

func (w *walk) expandPattern(ctx context.Context, root string) error {
	parent, pattern := path.Split(root)
	parent = CleanPath(parent)

	entries, err := w.list(ctx, RemoteEntry{Path: parent, IsDir: true})
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if ok, _ := path.Match(pattern, entry.Name()); !ok {
			continue
		}
		w.admit(RemoteEntry{Path: CleanPath(entry.Path), IsDir: entry.IsDir, Depth: 1})
	}
	return nil
}

func dedupe(roots []string) []string {
	seen := make(map[string]struct{}, len(roots))
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		clean := CleanPath(root)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	sort.Strings(out)
	return out
}
