// Package transform applies a physical schema to a dataset: renames,
// casts, and an audit log describing every action taken or skipped per
// column. Failures are column-isolated: one bad column never blocks the
// rest of a wide table.
package transform

import (
	"errors"
	"fmt"

	"github.com/datacanary/datacanary/pkg/coltype"
	"github.com/datacanary/datacanary/pkg/contract"
	"github.com/datacanary/datacanary/pkg/tabular"
)

// Input contract violations, distinguishable from per-column data issues.
var (
	ErrEmptyDataset = errors.New("dataset cannot be nil or empty")
	ErrEmptySchema  = errors.New("physical schema cannot be empty")
)

// LogEntry records what happened to one schema column during a transform
// run. Actions reads in order, e.g. ["RENAME: a -> b", "CAST: Int64 -> Float64"].
type LogEntry struct {
	Column     string   `json:"column"`
	TargetName string   `json:"target_name"`
	TargetType string   `json:"target_type"`
	Actions    []string `json:"actions"`
}

// Apply transforms a private copy of the dataset according to the physical
// schema and returns it with the transformation log: exactly one entry per
// schema column, in schema order.
//
// A source column absent from the dataset is logged as SKIP and the run
// continues; a failed cast is logged as CAST_ERROR and leaves that
// column's data unconverted. Neither aborts the remaining columns.
func Apply(ds *tabular.Dataset, schema []contract.PhysicalColumn) (*tabular.Dataset, []LogEntry, error) {
	if ds == nil || ds.IsEmpty() {
		return nil, nil, ErrEmptyDataset
	}
	if len(schema) == 0 {
		return nil, nil, ErrEmptySchema
	}

	out := ds.Clone()
	log := make([]LogEntry, 0, len(schema))

	for _, col := range schema {
		entry := LogEntry{
			Column:     col.SourceName,
			TargetName: col.TargetName,
			TargetType: col.TargetType,
		}

		if !out.Has(col.SourceName) {
			entry.Actions = append(entry.Actions, fmt.Sprintf("SKIP: Column '%s' not found in dataset", col.SourceName))
			log = append(log, entry)
			continue
		}

		current := col.SourceName
		if col.SourceName != col.TargetName {
			// A rename collision means the schema itself is bad (duplicate
			// target names); that is a caller error the validator exists to
			// catch, not a per-column data problem.
			if err := out.Rename(col.SourceName, col.TargetName); err != nil {
				return nil, nil, fmt.Errorf("rename %s -> %s: %w", col.SourceName, col.TargetName, err)
			}
			current = col.TargetName
			entry.Actions = append(entry.Actions, fmt.Sprintf("RENAME: %s -> %s", col.SourceName, col.TargetName))
		}

		observed, _ := out.TypeOf(current)
		if observed.String() != col.TargetType {
			target := coltype.Parse(col.TargetType)
			if err := out.Cast(current, target); err != nil {
				entry.Actions = append(entry.Actions, fmt.Sprintf("CAST_ERROR: Failed to cast to %s: %v", col.TargetType, err))
			} else {
				entry.Actions = append(entry.Actions, fmt.Sprintf("CAST: %s -> %s", observed, col.TargetType))
			}
		}

		if len(entry.Actions) == 0 {
			entry.Actions = append(entry.Actions, "NO_CHANGE: No transformations applied")
		}
		log = append(log, entry)
	}

	return out, log, nil
}
