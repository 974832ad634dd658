// Package manifest writes the metadata file that describes a written table's
// source schema. It runs as a pre-task of the write sub-task so downstream
// consumers can read the manifest before the data file appears.
package manifest

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-ftp/pkg/compression"
	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
	"github.com/ajitpratap0/nebula-ftp/pkg/logger"
	"github.com/ajitpratap0/nebula-ftp/pkg/partition"
	"github.com/ajitpratap0/nebula-ftp/pkg/remote"
	"github.com/ajitpratap0/nebula-ftp/pkg/schema"
)

// Suffix is appended to the target file name.
const Suffix = ".meta.json"

// Manifest is the serialized metadata document.
type Manifest struct {
	SourceTable    string    `json:"source_table"`
	Target         string    `json:"target"`
	Columns        []Column  `json:"columns"`
	CreatedAt      time.Time `json:"created_at"`
	Compress       string    `json:"compress"`
	Encoding       string    `json:"encoding"`
	Format         string    `json:"format"`
	FieldDelimiter string    `json:"field_delimiter,omitempty"`
	Header         bool      `json:"header"`
}

// Column describes one source column.
type Column struct {
	Index  *int   `json:"index,omitempty"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
}

// Build assembles the manifest of a write mapping.
func Build(mapping partition.TableMapping, settings *partition.Settings, createdAt time.Time) *Manifest {
	m := &Manifest{
		SourceTable:    mapping.SourceTable,
		Target:         path.Join(mapping.TargetPath, mapping.ResolveFileName(settings)),
		Columns:        columns(mapping.Columns),
		CreatedAt:      createdAt.UTC(),
		Compress:       settings.Compress,
		Encoding:       settings.Encoding,
		Format:         settings.FileFormat,
		FieldDelimiter: settings.FieldDelimiter,
		Header:         settings.Header,
	}
	return m
}

func columns(s *schema.TableSchema) []Column {
	if s == nil {
		return []Column{}
	}
	out := make([]Column, 0, s.Len())
	for _, col := range s.Columns() {
		c := Column{Name: col.Name, Type: string(col.Type), Format: col.Format}
		if col.HasIndex() {
			idx := col.Index
			c.Index = &idx
		}
		out = append(out, c)
	}
	return out
}

// Path returns where the manifest of mapping is stored: next to the data
// file, with the extension of the compress token.
func Path(mapping partition.TableMapping, settings *partition.Settings) (string, error) {
	token, err := compression.LookupWritableToken(settings.Compress)
	if err != nil {
		return "", err
	}
	name := mapping.ResolveFileName(settings) + Suffix + token.Extension
	return path.Join(mapping.TargetPath, name), nil
}

// Encode serializes m and compresses it with the compress token.
func Encode(m *Manifest, compress string) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode manifest")
	}
	codec, err := compression.ForToken(compress)
	if err != nil {
		return nil, err
	}
	packed, err := codec.Compress(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to compress manifest").
			WithDetail("compress", compress)
	}
	return packed, nil
}

// Decode reverses Encode.
func Decode(data []byte, compress string) (*Manifest, error) {
	codec, err := compression.ForToken(compress)
	if err != nil {
		return nil, err
	}
	raw, err := codec.Decompress(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decompress manifest")
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to decode manifest")
	}
	return &m, nil
}

// Writer is the pre-task that stores the manifest through a FileWriter.
type Writer struct {
	fs       remote.FileWriter
	mapping  partition.TableMapping
	settings *partition.Settings
	now      func() time.Time
	logger   *zap.Logger
}

var _ partition.Task = (*Writer)(nil)

// NewWriter creates the manifest pre-task for mapping.
func NewWriter(fs remote.FileWriter, mapping partition.TableMapping, settings *partition.Settings) (*Writer, error) {
	if fs == nil {
		return nil, errors.New(errors.ErrorTypePartition, "manifest writer requires a file writer")
	}
	if settings == nil {
		return nil, errors.New(errors.ErrorTypePartition, "manifest writer requires settings")
	}
	if mapping.Columns == nil {
		return nil, errors.New(errors.ErrorTypePartition, "manifest writer requires the source schema").
			WithDetail("source_table", mapping.SourceTable)
	}
	return &Writer{
		fs:       fs,
		mapping:  mapping,
		settings: settings,
		now:      time.Now,
		logger:   logger.Get().With(zap.String("component", "manifest")),
	}, nil
}

// WithClock replaces the time source, for reproducible output.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Name implements partition.Task.
func (w *Writer) Name() string {
	return "write-manifest"
}

// Run implements partition.Task.
func (w *Writer) Run(ctx context.Context) error {
	target, err := Path(w.mapping, w.settings)
	if err != nil {
		return err
	}
	data, err := Encode(Build(w.mapping, w.settings, w.now()), w.settings.Compress)
	if err != nil {
		return err
	}

	if err := w.fs.MkdirAll(ctx, path.Dir(target)); err != nil {
		return errors.Wrap(err, errors.TypeOr(err, errors.ErrorTypeFile), "failed to create manifest directory").WithDetail("path", target)
	}
	if err := w.fs.Put(ctx, target, bytes.NewReader(data)); err != nil {
		return errors.Wrap(err, errors.TypeOr(err, errors.ErrorTypeFile), "failed to write manifest").WithDetail("path", target)
	}

	logger.FromContext(ctx, w.logger).Info("manifest written",
		zap.String("path", target),
		zap.Int("bytes", len(data)))
	return nil
}
