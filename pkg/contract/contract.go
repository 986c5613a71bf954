// Package contract defines the persisted metadata contract: the dataset's
// identity, its reconciled physical schema, and the statistical baseline a
// future ingestion is compared against. The JSON field names here are the
// wire format other tooling depends on; renames are breaking changes.
package contract

import (
	"encoding/json"

	"github.com/datacanary/datacanary/pkg/profile"
)

// PhysicalColumn is the reconciled, canonical descriptor for one column.
// The four provenance fields are kept after resolution so the contract
// stays auditable; "present" means non-empty.
type PhysicalColumn struct {
	SourceName string `json:"source_name"`
	TargetName string `json:"target_name"`
	SourceType string `json:"source_type"`
	TargetType string `json:"target_type"`
	IsNullable bool   `json:"is_nullable"`
	Role       string `json:"role,omitempty"`

	AISuggestedName  string `json:"ai_suggested_name,omitempty"`
	UserOverrideName string `json:"user_override_name,omitempty"`
	AISuggestedType  string `json:"ai_suggested_type,omitempty"`
	UserOverrideType string `json:"user_override_type,omitempty"`

	// ColumnIndex must equal the column's position in the physical schema.
	ColumnIndex int `json:"column_index"`
}

// Identity names a contract: a fixed required-field set plus an open
// extension map. On the wire the extensions are flattened into the same
// JSON object as the required fields.
type Identity struct {
	TableName  string
	Version    string
	CreatedAt  string
	SourcePath string
	TargetPath string
	CreatedBy  string
	Extensions map[string]string
}

// requiredIdentityFields are the keys the validator insists on.
var requiredIdentityFields = []string{"table_name", "version", "created_at", "source_path", "target_path"}

// MarshalJSON flattens required fields and extensions into one object.
func (id Identity) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, 6+len(id.Extensions))
	m["table_name"] = id.TableName
	m["version"] = id.Version
	m["created_at"] = id.CreatedAt
	m["source_path"] = id.SourcePath
	m["target_path"] = id.TargetPath
	m["created_by"] = id.CreatedBy
	for k, v := range id.Extensions {
		m[k] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the flat wire object back into required fields and
// extensions.
func (id *Identity) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	take := func(key string) string {
		v := m[key]
		delete(m, key)
		return v
	}
	id.TableName = take("table_name")
	id.Version = take("version")
	id.CreatedAt = take("created_at")
	id.SourcePath = take("source_path")
	id.TargetPath = take("target_path")
	id.CreatedBy = take("created_by")
	if len(m) > 0 {
		id.Extensions = m
	} else {
		id.Extensions = nil
	}
	return nil
}

// LLMUsage tracks advisory token consumption for one contract.
type LLMUsage struct {
	Model            string `json:"model"`
	Calls            int    `json:"calls"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// StatisticalProfile is the persisted baseline used for drift comparison.
// It mirrors the profiler's report so the contract stays self-contained.
type StatisticalProfile struct {
	RowCount      int                     `json:"row_count"`
	DuplicateRows int                     `json:"duplicate_rows"`
	Schema        map[string]string       `json:"schema,omitempty"`
	Columns       []profile.ColumnProfile `json:"columns"`
	Issues        []profile.Issue         `json:"issues,omitempty"`
}

// BaselineFrom converts a profiling report into the persisted baseline.
func BaselineFrom(rep profile.Report) StatisticalProfile {
	return StatisticalProfile{
		RowCount:      rep.RowCount,
		DuplicateRows: rep.DuplicateRows,
		Schema:        rep.Schema,
		Columns:       rep.Columns,
		Issues:        rep.Issues,
	}
}

// MetadataContract is the versioned record created once per approved
// reconciliation, validated before persistence, then immutable.
type MetadataContract struct {
	Identity           Identity           `json:"identity"`
	PhysicalSchema     []PhysicalColumn   `json:"physical_schema"`
	StatisticalProfile StatisticalProfile `json:"statistical_profile"`
	LLMUsage           *LLMUsage          `json:"llm_usage,omitempty"`
	ColumnRoles        map[string]string  `json:"column_roles,omitempty"`
}
