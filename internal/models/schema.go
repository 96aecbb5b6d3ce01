package models

// TableInfo is a base table in a user schema.
type TableInfo struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

type ColumnInfo struct {
	Schema   string `json:"schema"`
	Table    string `json:"table"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// PrimaryKeyInfo is one column of a primary key; composite keys yield one
// entry per column sharing Name.
type PrimaryKeyInfo struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Name   string `json:"name"`
	Column string `json:"column"`
	Type   string `json:"type"`
}

// UniqueKeyInfo is a unique constraint with its columns in probe order.
type UniqueKeyInfo struct {
	Schema  string   `json:"schema"`
	Table   string   `json:"table"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ForeignKeyInfo is one column of a foreign key constraint.
type ForeignKeyInfo struct {
	Name             string `json:"name"`
	Schema           string `json:"schema"`
	Table            string `json:"table"`
	Column           string `json:"column"`
	ReferencedSchema string `json:"referenced_schema"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// Snapshot is the catalog metadata of one connection as of its last
// successful refresh. A Snapshot is never mutated once published.
type Snapshot struct {
	Tables      []TableInfo      `json:"tables"`
	Columns     []ColumnInfo     `json:"columns"`
	ForeignKeys []ForeignKeyInfo `json:"foreign_keys"`
	PrimaryKeys []PrimaryKeyInfo `json:"primary_keys"`
	UniqueKeys  []UniqueKeyInfo  `json:"unique_keys"`
}

// EmptySnapshot returns a snapshot with empty, non-nil slices.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Tables:      []TableInfo{},
		Columns:     []ColumnInfo{},
		ForeignKeys: []ForeignKeyInfo{},
		PrimaryKeys: []PrimaryKeyInfo{},
		UniqueKeys:  []UniqueKeyInfo{},
	}
}

// TableColumns returns the columns of schema.table in snapshot order.
func (s *Snapshot) TableColumns(schema, table string) []ColumnInfo {
	var cols []ColumnInfo
	for _, c := range s.Columns {
		if c.Schema == schema && c.Table == table {
			cols = append(cols, c)
		}
	}
	return cols
}

// ForeignKeyFor returns the first foreign key entry on schema.table.column.
func (s *Snapshot) ForeignKeyFor(schema, table, column string) (ForeignKeyInfo, bool) {
	for _, fk := range s.ForeignKeys {
		if fk.Schema == schema && fk.Table == table && fk.Column == column {
			return fk, true
		}
	}
	return ForeignKeyInfo{}, false
}

// HasTable reports whether schema.table is among the snapshot's tables.
func (s *Snapshot) HasTable(schema, table string) bool {
	for _, t := range s.Tables {
		if t.Schema == schema && t.Name == table {
			return true
		}
	}
	return false
}
