// Package reconcile merges the three independent sources of column
// metadata (the profiled source schema, advisory suggestions, and human
// overrides) into one physical schema. Precedence is user > AI > source
// for both names and types; reconciliation is a pure function of its
// inputs and is safely re-runnable.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/datacanary/datacanary/pkg/advice"
	"github.com/datacanary/datacanary/pkg/contract"
	"github.com/datacanary/datacanary/pkg/profile"
)

// Sentinel errors for input contract violations. These signal upstream
// programming or configuration problems, not data-quality issues.
var (
	ErrNoColumns     = errors.New("columns list cannot be empty")
	ErrUnnamedColumn = errors.New("column profile missing required name")
)

// Override carries the human reviewer's decisions for one column, keyed by
// the original source name. Empty fields mean "no override".
type Override struct {
	Name string `yaml:"name" json:"name,omitempty"`
	Type string `yaml:"type" json:"type,omitempty"`
}

// Columns builds the physical schema from profiled columns, advisory
// reports, and user overrides.
//
// One PhysicalColumn is emitted per profile, at the profile's position:
// reconciliation never reorders or drops columns. Suggestions and
// overrides referencing unknown column names are silently unmatched.
func Columns(
	profiles []profile.ColumnProfile,
	naming *advice.NamingReport,
	types *advice.TypeReport,
	overrides map[string]Override,
) ([]contract.PhysicalColumn, error) {
	if len(profiles) == 0 {
		return nil, ErrNoColumns
	}

	// Last write wins on duplicate suggestion names; duplicates indicate a
	// misbehaving advisor but must not crash the merge.
	nameSuggestions := make(map[string]string)
	if naming != nil {
		for _, v := range naming.Violations {
			nameSuggestions[v.ColumnName] = v.SuggestedName
		}
	}
	typeSuggestions := make(map[string]string)
	if types != nil {
		for _, s := range types.Suggestions {
			typeSuggestions[s.ColumnName] = s.SuggestedType
		}
	}

	out := make([]contract.PhysicalColumn, 0, len(profiles))
	for idx, p := range profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("column at index %d: %w", idx, ErrUnnamedColumn)
		}

		aiName := nameSuggestions[p.Name]
		aiType := typeSuggestions[p.Name]
		var userName, userType string
		if ov, ok := overrides[p.Name]; ok {
			userName = ov.Name
			userType = ov.Type
		}

		sourceType := p.Dtype
		if sourceType == "" {
			sourceType = "String"
		}

		out = append(out, contract.PhysicalColumn{
			SourceName: p.Name,
			TargetName: firstNonEmpty(userName, aiName, p.Name),
			SourceType: p.Dtype,
			TargetType: firstNonEmpty(userType, aiType, sourceType),
			IsNullable: p.NullRatio > 0,
			Role:       p.Role,

			AISuggestedName:  aiName,
			UserOverrideName: userName,
			AISuggestedType:  aiType,
			UserOverrideType: userType,

			ColumnIndex: idx,
		})
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
