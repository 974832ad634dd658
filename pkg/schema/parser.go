package schema

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
)

// Parse parses a column specification into an unnamed TableSchema.
//
// Two syntaxes are accepted. The text form lists one entry per line or
// comma-separated, each "index:name:type[:format]" or "name:type[:format]":
//
//	0:id:long, 1:name:string, 2:created:date:yyyy-MM-dd HH:mm:ss
//
// The JSON form is an array of objects:
//
//	[{"index":0,"name":"id","type":"long"},{"name":"created","type":"date","format":"yyyy-MM-dd"}]
//
// Parsing is all-or-nothing: any bad entry fails the whole specification
// with a schema error whose "index" detail identifies the entry.
func Parse(raw string) (*TableSchema, error) {
	return ParseNamed("", raw)
}

// ParseNamed is Parse with a table name attached to the result.
func ParseNamed(table, raw string) (*TableSchema, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New(errors.ErrorTypeSchema, "column specification is empty")
	}

	var (
		entries []rawColumn
		err     error
	)
	if strings.HasPrefix(trimmed, "[") {
		entries, err = decodeJSON(trimmed)
	} else {
		entries, err = decodeText(trimmed)
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrorTypeSchema, "column specification declares no columns")
	}

	columns, err := resolve(entries)
	if err != nil {
		return nil, err
	}
	return newTableSchema(table, columns), nil
}

// rawColumn is one undecoded entry; Index is NoIndex when absent.
type rawColumn struct {
	position int
	text     string
	Index    *int   `json:"index"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Format   string `json:"format"`
}

func (r rawColumn) ref() int {
	if r.Index != nil {
		return *r.Index
	}
	return r.position
}

func decodeJSON(raw string) ([]rawColumn, error) {
	var entries []rawColumn
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSchema, "column specification is not a valid JSON array")
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); err != io.EOF {
		return nil, errors.New(errors.ErrorTypeSchema, "column specification has data after the JSON array")
	}
	for i := range entries {
		entries[i].position = i
		entries[i].text = describe(entries[i])
	}
	return entries, nil
}

func describe(r rawColumn) string {
	parts := []string{r.Name, r.Type}
	if r.Index != nil {
		parts = append([]string{strconv.Itoa(*r.Index)}, parts...)
	}
	if r.Format != "" {
		parts = append(parts, r.Format)
	}
	return strings.Join(parts, ":")
}

func decodeText(raw string) ([]rawColumn, error) {
	var fields []string
	if strings.ContainsAny(raw, "\r\n") {
		fields = strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' })
		for i, f := range fields {
			fields[i] = strings.TrimSuffix(strings.TrimSpace(f), ",")
		}
	} else {
		fields = strings.Split(raw, ",")
	}

	entries := make([]rawColumn, 0, len(fields))
	for _, field := range fields {
		text := strings.TrimSpace(field)
		if text == "" {
			continue
		}
		entry := rawColumn{position: len(entries), text: text}

		tokens := strings.Split(text, ":")
		for i := range tokens {
			tokens[i] = strings.TrimSpace(tokens[i])
		}
		if idx, err := strconv.Atoi(tokens[0]); err == nil {
			entry.Index = &idx
			tokens = tokens[1:]
		}
		if len(tokens) < 2 {
			return nil, entryError(entry, "expected [index:]name:type[:format], got %q", text)
		}
		entry.Name = tokens[0]
		entry.Type = tokens[1]
		entry.Format = strings.Join(tokens[2:], ":")
		entries = append(entries, entry)
	}
	return entries, nil
}

func resolve(entries []rawColumn) ([]ColumnSpec, error) {
	columns := make([]ColumnSpec, 0, len(entries))
	seenNames := make(map[string]int, len(entries))
	seenIndexes := make(map[int]int, len(entries))

	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, entryError(entry, "column name is empty")
		}

		colType, ok := LookupType(entry.Type)
		if !ok {
			return nil, entryError(entry, "unknown type %q, must be one of %s",
				entry.Type, strings.Join(SupportedTypes(), ","))
		}

		index := NoIndex
		if entry.Index != nil {
			index = *entry.Index
			if index < 0 {
				return nil, entryError(entry, "negative index %d", index)
			}
			if prev, dup := seenIndexes[index]; dup {
				return nil, entryError(entry, "duplicate index %d, already used by entry %d", index, prev)
			}
			seenIndexes[index] = entry.ref()
		}

		key := strings.ToLower(name)
		if prev, dup := seenNames[key]; dup {
			return nil, entryError(entry, "duplicate column name %q, already used by entry %d", name, prev)
		}
		seenNames[key] = entry.ref()

		columns = append(columns, ColumnSpec{
			Index:  index,
			Name:   name,
			Type:   colType,
			Format: strings.TrimSpace(entry.Format),
		})
	}
	return columns, nil
}

func entryError(entry rawColumn, format string, args ...interface{}) *errors.Error {
	ref := entry.ref()
	return errors.Newf(errors.ErrorTypeSchema, "column entry %d: "+format, append([]interface{}{ref}, args...)...).
		WithDetail("position", entry.position).
		WithDetail("index", ref).
		WithDetail("entry", entry.text)
}
