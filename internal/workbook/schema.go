// Package workbook implements the multi-table container store shared by
// every business area: one JSON workbook file per domain, several named
// tables inside it, and a typed codec between stored cells and records.
package workbook

// FieldType enumerates the cell types a schema can declare.
type FieldType string

const (
	// Text cells are stored and returned verbatim.
	Text FieldType = "text"
	// Integer cells are whole counts; invalid or blank cells decode to
	// the field default.
	Integer FieldType = "integer"
	// Decimal cells are currency-like amounts rendered with two decimal
	// places; invalid or blank cells decode to the field default.
	Decimal FieldType = "decimal"
	// Date cells are ISO calendar dates; invalid or blank cells decode
	// to the absent date (zero time).
	Date FieldType = "date"
)

// Field is one column of a table schema.
type Field struct {
	Name    string
	Type    FieldType
	Default any
}

// Schema is the ordered column set of one table, tagged with a version
// so column changes are explicit migrations instead of silent defaults.
type Schema struct {
	Version int
	Fields  []Field
}

// ColumnNames returns the schema's column names in declaration order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldByName returns the schema field with the given name.
func (s Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TableSpec names a table and the schema it is written with. SaveTable
// receives the full set so tables that never existed are materialized
// with their canonical columns.
type TableSpec struct {
	Name   string
	Schema Schema
}
