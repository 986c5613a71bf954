// Package tabular provides the in-memory columnar dataset the transform
// engine operates on: column enumeration, observed type strings, renames,
// strict type casts, and row accounting.
package tabular

import (
	"fmt"
	"strings"

	"github.com/datacanary/datacanary/pkg/coltype"
)

// Column is a named, typed value vector. A nil entry in Values is a null.
type Column struct {
	Name   string
	Type   coltype.Type
	Values []any
}

// Dataset is an ordered collection of equal-length columns with unique names.
type Dataset struct {
	cols []Column
}

// New builds a dataset from columns, validating shape invariants.
func New(cols ...Column) (*Dataset, error) {
	seen := make(map[string]struct{}, len(cols))
	rows := -1
	for i, c := range cols {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("column at index %d has no name", i)
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if rows == -1 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), rows)
		}
	}
	ds := &Dataset{cols: make([]Column, len(cols))}
	copy(ds.cols, cols)
	return ds, nil
}

// Names returns the column names in dataset order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether a column with the given name exists.
func (d *Dataset) Has(name string) bool {
	return d.index(name) >= 0
}

// TypeOf returns the observed type of a column.
func (d *Dataset) TypeOf(name string) (coltype.Type, bool) {
	i := d.index(name)
	if i < 0 {
		return coltype.Type{}, false
	}
	return d.cols[i].Type, true
}

// Values returns the value vector of a column. The returned slice is the
// live backing store; callers must not mutate it.
func (d *Dataset) Values(name string) ([]any, bool) {
	i := d.index(name)
	if i < 0 {
		return nil, false
	}
	return d.cols[i].Values, true
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	if len(d.cols) == 0 {
		return 0
	}
	return len(d.cols[0].Values)
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int {
	return len(d.cols)
}

// IsEmpty reports whether the dataset has no columns or no rows.
func (d *Dataset) IsEmpty() bool {
	return d == nil || len(d.cols) == 0 || d.RowCount() == 0
}

// Rename changes a column's name in place.
func (d *Dataset) Rename(oldName, newName string) error {
	i := d.index(oldName)
	if i < 0 {
		return fmt.Errorf("column %q not found", oldName)
	}
	if newName == oldName {
		return nil
	}
	if strings.TrimSpace(newName) == "" {
		return fmt.Errorf("new name for column %q is empty", oldName)
	}
	if d.index(newName) >= 0 {
		return fmt.Errorf("column %q already exists", newName)
	}
	d.cols[i].Name = newName
	return nil
}

// Cast converts a column to the target type. The cast is all-or-nothing:
// if any value fails to convert the column is left untouched and the error
// names the first offending row.
func (d *Dataset) Cast(name string, target coltype.Type) error {
	i := d.index(name)
	if i < 0 {
		return fmt.Errorf("column %q not found", name)
	}
	src := d.cols[i].Values
	converted := make([]any, len(src))
	for row, v := range src {
		cv, err := castValue(v, target)
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		converted[row] = cv
	}
	d.cols[i].Values = converted
	d.cols[i].Type = target
	return nil
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{cols: make([]Column, len(d.cols))}
	for i, c := range d.cols {
		vals := make([]any, len(c.Values))
		copy(vals, c.Values)
		out.cols[i] = Column{Name: c.Name, Type: c.Type, Values: vals}
	}
	return out
}

// DuplicateRowCount counts every row that belongs to a fully-identical
// tuple group of size > 1, first occurrences included.
func (d *Dataset) DuplicateRowCount() int {
	rows := d.RowCount()
	if rows == 0 {
		return 0
	}
	counts := make(map[string]int, rows)
	for r := 0; r < rows; r++ {
		counts[d.rowKey(r)]++
	}
	dup := 0
	for _, n := range counts {
		if n > 1 {
			dup += n
		}
	}
	return dup
}

func (d *Dataset) rowKey(row int) string {
	var b strings.Builder
	for _, c := range d.cols {
		v := c.Values[row]
		if v == nil {
			b.WriteString("\x00~null")
		} else {
			fmt.Fprintf(&b, "\x00%T:%v", v, v)
		}
	}
	return b.String()
}

func (d *Dataset) index(name string) int {
	for i, c := range d.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}
