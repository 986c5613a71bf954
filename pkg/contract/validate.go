package contract

import (
	"fmt"
	"sort"
)

// Validate checks a contract for internal consistency before it is
// persisted or trusted. Every problem is accumulated so a caller sees all
// of them in one pass; an invalid contract is a normal outcome for the
// caller to handle, never an error.
func Validate(c MetadataContract) (bool, []string) {
	var issues []string

	if len(c.PhysicalSchema) == 0 {
		issues = append(issues, "Physical schema is empty")
	}

	targetNames := make([]string, 0, len(c.PhysicalSchema))
	for idx, col := range c.PhysicalSchema {
		if col.SourceName == "" {
			issues = append(issues, fmt.Sprintf("Column %d missing source_name", idx))
		}
		if col.TargetName == "" {
			issues = append(issues, fmt.Sprintf("Column %d missing target_name", idx))
		} else {
			targetNames = append(targetNames, col.TargetName)
		}
		if col.TargetType == "" {
			issues = append(issues, fmt.Sprintf("Column %d missing target_type", idx))
		}
		if col.ColumnIndex != idx {
			issues = append(issues, fmt.Sprintf("Column %s has non-sequential index: %d != %d", col.SourceName, col.ColumnIndex, idx))
		}
	}

	if dups := duplicates(targetNames); len(dups) > 0 {
		issues = append(issues, fmt.Sprintf("Duplicate target names found: %v", dups))
	}

	required := map[string]string{
		"table_name":  c.Identity.TableName,
		"version":     c.Identity.Version,
		"created_at":  c.Identity.CreatedAt,
		"source_path": c.Identity.SourcePath,
		"target_path": c.Identity.TargetPath,
	}
	for _, field := range requiredIdentityFields {
		if required[field] == "" {
			issues = append(issues, fmt.Sprintf("Identity missing required field: %s", field))
		}
	}

	if len(c.StatisticalProfile.Columns) == 0 {
		issues = append(issues, "Statistical profile is empty")
	}

	return len(issues) == 0, issues
}

// duplicates returns the sorted set of names appearing more than once.
func duplicates(names []string) []string {
	counts := make(map[string]int, len(names))
	for _, n := range names {
		counts[n]++
	}
	var out []string
	for n, c := range counts {
		if c > 1 {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
