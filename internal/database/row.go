package database

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type missingValue struct{}

func (missingValue) String() string { return "<missing>" }

// Missing is returned by Row.Value for columns the row does not have.
var Missing any = missingValue{}

// Row is one result row: column names and values in result order.
type Row struct {
	Columns []string
	Values  []any
}

// NewRow pairs names with values; both slices must have the same length.
func NewRow(columns []string, values []any) Row {
	return Row{Columns: columns, Values: values}
}

// Len is the number of columns in the row.
func (r Row) Len() int {
	return len(r.Columns)
}

// Lookup returns the value of the first column called name.
func (r Row) Lookup(name string) (any, bool) {
	for i, col := range r.Columns {
		if col == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Value returns the named value or Missing.
func (r Row) Value(name string) any {
	v, ok := r.Lookup(name)
	if !ok {
		return Missing
	}
	return v
}

// String returns the named value formatted as a string. NULL and missing
// columns yield "".
func (r Row) String(name string) string {
	v, ok := r.Lookup(name)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

// Map copies the row into a map. Duplicate column names keep the last value.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, col := range r.Columns {
		m[col] = r.Values[i]
	}
	return m
}

// MarshalJSON encodes the row as an object, keeping column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
