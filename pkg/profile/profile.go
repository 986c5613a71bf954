// Package profile computes the statistical baseline for a dataset: row and
// duplicate counts plus per-column stats. The reconciler consumes the
// column profiles; the assembled contract persists the whole report for
// later drift comparison.
package profile

import (
	"fmt"
	"sort"

	"github.com/datacanary/datacanary/pkg/tabular"
)

// ColumnProfile is the observed baseline for a single column. It is
// immutable once produced.
type ColumnProfile struct {
	Name          string   `json:"name"`
	Dtype         string   `json:"dtype"`
	NullCount     int      `json:"null_count"`
	NullRatio     float64  `json:"null_ratio"`
	DistinctCount int      `json:"distinct_count"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	TopValues     []string `json:"top_values_sample,omitempty"`
	Role          string   `json:"role,omitempty"`
}

// Issue is a non-fatal data-quality warning raised during profiling.
type Issue struct {
	Severity string `json:"severity"`
	Type     string `json:"type"`
	Column   string `json:"column,omitempty"`
	Message  string `json:"message"`
}

// Report is the full profiling output for one dataset snapshot.
type Report struct {
	RowCount      int               `json:"row_count"`
	DuplicateRows int               `json:"duplicate_rows"`
	Schema        map[string]string `json:"schema"`
	Columns       []ColumnProfile   `json:"columns"`
	Issues        []Issue           `json:"issues,omitempty"`
}

// ColumnNames returns the profiled column names in dataset order.
func (r Report) ColumnNames() []string {
	names := make([]string, 0, len(r.Columns))
	for _, c := range r.Columns {
		names = append(names, c.Name)
	}
	return names
}

// highNullRatio is the warning threshold for mostly-missing columns.
const highNullRatio = 0.3

// topValueSample caps the per-column sample handed to the advisory process.
const topValueSample = 5

// Dataset runs the basic checks over a dataset and returns its report.
func Dataset(ds *tabular.Dataset) Report {
	rep := Report{
		RowCount:      ds.RowCount(),
		DuplicateRows: ds.DuplicateRowCount(),
		Schema:        make(map[string]string, ds.ColumnCount()),
	}

	for _, name := range ds.Names() {
		typ, _ := ds.TypeOf(name)
		vals, _ := ds.Values(name)
		rep.Schema[name] = typ.String()
		rep.Columns = append(rep.Columns, columnStats(name, typ.String(), typ.IsNumeric(), vals))
	}

	if rep.DuplicateRows > 0 {
		rep.Issues = append(rep.Issues, Issue{
			Severity: "warning",
			Type:     "duplicate_rows",
			Message:  fmt.Sprintf("There are %d duplicate rows.", rep.DuplicateRows),
		})
	}
	for _, col := range rep.Columns {
		if col.NullRatio > highNullRatio {
			rep.Issues = append(rep.Issues, Issue{
				Severity: "warning",
				Type:     "high_null_ratio",
				Column:   col.Name,
				Message:  fmt.Sprintf("Column '%s' has %.0f%% missing values.", col.Name, col.NullRatio*100),
			})
		}
	}
	return rep
}

func columnStats(name, dtype string, numeric bool, vals []any) ColumnProfile {
	p := ColumnProfile{Name: name, Dtype: dtype}

	counts := make(map[string]int)
	hasNull := false
	for _, v := range vals {
		if v == nil {
			p.NullCount++
			hasNull = true
			continue
		}
		counts[fmt.Sprintf("%v", v)]++
		if numeric {
			f, ok := asFloat(v)
			if ok {
				if p.Min == nil || f < *p.Min {
					p.Min = ptr(f)
				}
				if p.Max == nil || f > *p.Max {
					p.Max = ptr(f)
				}
			}
		}
	}

	if len(vals) > 0 {
		p.NullRatio = float64(p.NullCount) / float64(len(vals))
	}
	p.DistinctCount = len(counts)
	if hasNull {
		p.DistinctCount++
	}
	p.TopValues = topValues(counts, topValueSample)
	return p
}

// topValues formats the most frequent values as "value (count)", ties
// broken by value for determinism.
func topValues(counts map[string]int, n int) []string {
	type vc struct {
		val   string
		count int
	}
	all := make([]vc, 0, len(counts))
	for v, c := range counts {
		all = append(all, vc{v, c})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].val < all[j].val
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = fmt.Sprintf("%s (%d)", e.val, e.count)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func ptr(f float64) *float64 { return &f }
