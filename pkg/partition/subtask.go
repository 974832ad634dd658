// Package partition turns enumerated files and write mappings into sub-task
// contexts, the independent units the execution layer runs concurrently.
//
// Reads fan out to one context per file. Writes fan in to one context per
// target mapping, preceded by optional pre-tasks such as the manifest write.
// Contexts are immutable once built and share the job's schema and settings.
package partition

import (
	"fmt"
	"sort"

	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
)

// IDPrefix prefixes every sub-task identifier.
const IDPrefix = "ftp_"

// Kind distinguishes read and write sub-tasks.
type Kind string

const (
	KindRead  Kind = "read"
	KindWrite Kind = "write"
)

// SubTaskContext describes one executable unit of work.
type SubTaskContext struct {
	id          string
	seq         int
	kind        Kind
	sourcePaths []string
	target      string
	schema      *schema.TableSchema
	settings    *Settings
}

func newSubTask(seq int, kind Kind, sources []string, target string, s *schema.TableSchema, settings *Settings) *SubTaskContext {
	return &SubTaskContext{
		id:          fmt.Sprintf("%s%d", IDPrefix, seq),
		seq:         seq,
		kind:        kind,
		sourcePaths: sources,
		target:      target,
		schema:      s,
		settings:    settings,
	}
}

// ID returns the stable identifier, IDPrefix followed by Seq.
func (c *SubTaskContext) ID() string { return c.id }

// Seq returns the position of the context in its partition.
func (c *SubTaskContext) Seq() int { return c.seq }

// Kind returns whether the context reads or writes.
func (c *SubTaskContext) Kind() Kind { return c.kind }

// SourcePaths returns a copy of the files the sub-task reads.
func (c *SubTaskContext) SourcePaths() []string {
	out := make([]string, len(c.sourcePaths))
	copy(out, c.sourcePaths)
	return out
}

// Target returns the file a write sub-task produces, empty for reads.
func (c *SubTaskContext) Target() string { return c.target }

// Schema returns the shared, immutable table schema. It may be nil for a
// write sub-task whose source schema is unknown.
func (c *SubTaskContext) Schema() *schema.TableSchema { return c.schema }

// Settings returns a copy of the shared connector settings.
func (c *SubTaskContext) Settings() Settings { return *c.settings }

// TemplateValues returns the plain values the job template step serializes.
func (c *SubTaskContext) TemplateValues() map[string]interface{} {
	values := map[string]interface{}{
		"id":   c.id,
		"seq":  c.seq,
		"kind": string(c.kind),
	}
	if len(c.sourcePaths) > 0 {
		values["source_paths"] = c.SourcePaths()
	}
	if c.target != "" {
		values["target"] = c.target
	}
	if c.schema != nil {
		columns := make([]map[string]interface{}, 0, c.schema.Len())
		for _, col := range c.schema.Columns() {
			column := map[string]interface{}{
				"name": col.Name,
				"type": string(col.Type),
			}
			if col.HasIndex() {
				column["index"] = col.Index
			}
			if col.Format != "" {
				column["format"] = col.Format
			}
			columns = append(columns, column)
		}
		values["columns"] = columns
	}
	c.settings.values(values)
	return values
}

// normalize returns the distinct paths of files in lexical order.
func normalize(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
