package contract

import "time"

// AssembleParams carries everything Assemble needs. ExtraIdentity keys that
// collide with a required identity field take effect last, i.e. the caller's
// intent overrides the positional argument; callers must use that carefully.
type AssembleParams struct {
	TableName  string
	Version    string
	SourcePath string
	TargetPath string
	CreatedBy  string

	PhysicalSchema     []PhysicalColumn
	StatisticalProfile StatisticalProfile

	ExtraIdentity map[string]string
	ColumnRoles   map[string]string
	LLMUsage      *LLMUsage
}

// Assemble packages a contract from its parts and stamps the creation time.
// No validation happens here: assembling and validating are separate steps
// so a caller can assemble, inspect, and then decide.
func Assemble(p AssembleParams) MetadataContract {
	id := Identity{
		TableName:  p.TableName,
		Version:    p.Version,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		SourcePath: p.SourcePath,
		TargetPath: p.TargetPath,
		CreatedBy:  p.CreatedBy,
	}

	for k, v := range p.ExtraIdentity {
		switch k {
		case "table_name":
			id.TableName = v
		case "version":
			id.Version = v
		case "created_at":
			id.CreatedAt = v
		case "source_path":
			id.SourcePath = v
		case "target_path":
			id.TargetPath = v
		case "created_by":
			id.CreatedBy = v
		default:
			if id.Extensions == nil {
				id.Extensions = make(map[string]string)
			}
			id.Extensions[k] = v
		}
	}

	return MetadataContract{
		Identity:           id,
		PhysicalSchema:     p.PhysicalSchema,
		StatisticalProfile: p.StatisticalProfile,
		LLMUsage:           p.LLMUsage,
		ColumnRoles:        p.ColumnRoles,
	}
}
