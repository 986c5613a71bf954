// Package advice defines the reports an external advisory process produces
// about a profiled dataset. Reports are untrusted input to reconciliation:
// a suggestion referencing an unknown column is silently unmatched, and at
// most one suggestion per column is honored (last write wins).
package advice

import (
	"context"

	"github.com/datacanary/datacanary/pkg/profile"
)

// NamingSuggestion recommends a replacement name for one column.
type NamingSuggestion struct {
	ColumnName    string `json:"column_name"`
	SuggestedName string `json:"suggested_name"`
	Reason        string `json:"reason"`
}

// NamingReport is the complete naming-convention critique for a dataset.
type NamingReport struct {
	Summary    string             `json:"summary"`
	Violations []NamingSuggestion `json:"violations"`
}

// TypeSuggestion recommends a more precise logical type for one column.
type TypeSuggestion struct {
	ColumnName  string `json:"column_name"`
	CurrentType string `json:"current_dtype,omitempty"`
	LogicalType string `json:"suggested_logical_type,omitempty"`

	// SuggestedType is the concrete target type name the transformer can
	// resolve, e.g. "UInt64" or "Decimal(10,2)".
	SuggestedType string `json:"suggested_type"`
	Reasoning     string `json:"reasoning"`
}

// TypeReport is the complete type critique for a dataset.
type TypeReport struct {
	Summary     string           `json:"summary"`
	Suggestions []TypeSuggestion `json:"suggestions"`
}

// Advisor produces naming and type reports for profiled columns.
//
// Implementations may call out to a network service; both methods honor
// the context and may return transient errors for retrying.
type Advisor interface {
	CheckNaming(ctx context.Context, columns []string) (*NamingReport, error)
	CheckTypes(ctx context.Context, schema map[string]string, columns []profile.ColumnProfile) (*TypeReport, error)
}
