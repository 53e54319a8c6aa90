package domain

// ColumnKind is the storage type of a frame column.
type ColumnKind int

const (
	KindFloat ColumnKind = iota // float64; NaN is written as null
	KindInt                     // int64
	KindText                    // string
	KindDate                    // time.Time at midnight UTC
	KindBlob                    // []byte
)

func (k ColumnKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Column is a named, typed column. A nil element is a null.
type Column struct {
	Name   string
	Kind   ColumnKind
	Values []any
}

// Frame is a column-oriented table handed to writers.
type Frame struct {
	Name    string
	Columns []Column
}

// Len returns the number of rows.
func (f Frame) Len() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0].Values)
}

// Column looks up a column by name.
func (f Frame) Column(name string) (Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Row returns the values of row i across all columns.
func (f Frame) Row(i int) []any {
	row := make([]any, len(f.Columns))
	for c, col := range f.Columns {
		row[c] = col.Values[i]
	}
	return row
}
