package schema

// NoIndex marks a column declared without a positional index.
const NoIndex = -1

// ColumnSpec describes one column of the extracted or written record.
type ColumnSpec struct {
	// Index is the source field position, NoIndex when not positional
	Index  int        `json:"index"`
	Name   string     `json:"name"`
	Type   ColumnType `json:"type"`
	Format string     `json:"format,omitempty"`
}

// HasIndex reports whether the column was declared with a positional index.
func (c ColumnSpec) HasIndex() bool {
	return c.Index != NoIndex
}

// TableSchema is an ordered sequence of columns. It is built once by Parse
// and never modified afterwards, so it can be shared by concurrent sub-tasks.
type TableSchema struct {
	name    string
	columns []ColumnSpec
	byName  map[string]int
}

func newTableSchema(name string, columns []ColumnSpec) *TableSchema {
	byName := make(map[string]int, len(columns))
	for i, c := range columns {
		byName[c.Name] = i
	}
	return &TableSchema{name: name, columns: columns, byName: byName}
}

// Name returns the table name the schema was parsed for.
func (s *TableSchema) Name() string {
	return s.name
}

// Len returns the number of columns.
func (s *TableSchema) Len() int {
	return len(s.columns)
}

// Column returns the i-th column.
func (s *TableSchema) Column(i int) ColumnSpec {
	return s.columns[i]
}

// Columns returns a copy of the columns in declaration order.
func (s *TableSchema) Columns() []ColumnSpec {
	out := make([]ColumnSpec, len(s.columns))
	copy(out, s.columns)
	return out
}

// ColumnNames returns the column names in declaration order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Lookup finds a column by name.
func (s *TableSchema) Lookup(name string) (ColumnSpec, bool) {
	i, ok := s.byName[name]
	if !ok {
		return ColumnSpec{}, false
	}
	return s.columns[i], true
}

// Equal reports whether two schemas have the same name and columns in the same order.
func (s *TableSchema) Equal(other *TableSchema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.name != other.name || len(s.columns) != len(other.columns) {
		return false
	}
	for i := range s.columns {
		if s.columns[i] != other.columns[i] {
			return false
		}
	}
	return true
}
