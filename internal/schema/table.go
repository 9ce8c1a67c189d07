package schema

// Column is one physical column of a live table.
type Column struct {
	Name     string
	Nullable bool
}

// Table describes the columns a table has in the connected database. The
// zero value describes a table that does not exist.
type Table struct {
	Name    string
	columns map[string]Column
}

func NewTable(name string, columns ...Column) Table {
	t := Table{Name: name, columns: make(map[string]Column, len(columns))}
	for _, column := range columns {
		t.columns[column.Name] = column
	}
	return t
}

func (t Table) Exists() bool {
	return len(t.columns) > 0
}

func (t Table) Has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// First returns the first candidate column the table has, or "".
func (t Table) First(candidates ...string) string {
	for _, candidate := range candidates {
		if t.Has(candidate) {
			return candidate
		}
	}
	return ""
}

// Required reports whether the column exists and is NOT NULL.
func (t Table) Required(column string) bool {
	c, ok := t.columns[column]
	return ok && !c.Nullable
}
