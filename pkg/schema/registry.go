// Package schema parses the textual column specification of a file connector
// into an ordered, immutable TableSchema.
package schema

import (
	"sort"
	"strings"
)

// ColumnType is the logical type of a column in an unstructured file.
type ColumnType string

const (
	TypeString  ColumnType = "STRING"
	TypeLong    ColumnType = "LONG"
	TypeDouble  ColumnType = "DOUBLE"
	TypeDate    ColumnType = "DATE"
	TypeBoolean ColumnType = "BOOLEAN"
)

// registeredTypes is the static type registry, keyed by lower-case token.
var registeredTypes = map[string]ColumnType{
	"string":  TypeString,
	"long":    TypeLong,
	"double":  TypeDouble,
	"date":    TypeDate,
	"boolean": TypeBoolean,
}

// LookupType matches token case-insensitively against the registered types.
func LookupType(token string) (ColumnType, bool) {
	t, ok := registeredTypes[strings.ToLower(strings.TrimSpace(token))]
	return t, ok
}

// SupportedTypes returns the registered type names in sorted order.
func SupportedTypes() []string {
	names := make([]string, 0, len(registeredTypes))
	for _, t := range registeredTypes {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// String returns the type name
func (t ColumnType) String() string {
	return string(t)
}
