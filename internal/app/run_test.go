package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanary/datacanary/pkg/advice"
	"github.com/datacanary/datacanary/pkg/contract"
	"github.com/datacanary/datacanary/pkg/export"
	"github.com/datacanary/datacanary/pkg/profile"
)

type stubAdvisor struct {
	naming    *advice.NamingReport
	types     *advice.TypeReport
	namingErr error
	typesErr  error
	usage     contract.LLMUsage
}

func (s *stubAdvisor) CheckNaming(_ context.Context, _ []string) (*advice.NamingReport, error) {
	return s.naming, s.namingErr
}

func (s *stubAdvisor) CheckTypes(_ context.Context, _ map[string]string, _ []profile.ColumnProfile) (*advice.TypeReport, error) {
	return s.types, s.typesErr
}

func (s *stubAdvisor) Usage() contract.LLMUsage { return s.usage }

func writeInput(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sales.csv")
	data := "User ID,Amount,Region\n1,10.5,north\n2,20.25,south\n3,8.75,north\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	adv := &stubAdvisor{
		naming: &advice.NamingReport{
			Summary: "1 violation found",
			Violations: []advice.NamingSuggestion{
				{ColumnName: "User ID", SuggestedName: "user_id", Reason: "not snake_case"},
			},
		},
		types: &advice.TypeReport{
			Summary: "1 suggestion",
			Suggestions: []advice.TypeSuggestion{
				{ColumnName: "Amount", SuggestedType: "Decimal(10,2)", Reasoning: "currency"},
			},
		},
		usage: contract.LLMUsage{Model: "stub", Calls: 2, TotalTokens: 100},
	}

	opts := Options{
		InputPath:     input,
		OutputPrefix:  filepath.Join(dir, "out", "sales"),
		Advisor:       adv,
		ExtraIdentity: map[string]string{"department": "finance"},
		Logger:        zerolog.Nop(),
	}
	res, err := opts.Run(context.Background())
	require.NoError(t, err)

	require.FileExists(t, res.Outputs.ParquetPath)
	require.FileExists(t, res.Outputs.ContractPath)

	loaded, err := export.LoadContract(res.Outputs.ContractPath)
	require.NoError(t, err)

	assert.Equal(t, "sales", loaded.Identity.TableName)
	assert.Equal(t, "1.0.0", loaded.Identity.Version)
	assert.Equal(t, "finance", loaded.Identity.Extensions["department"])

	require.Len(t, loaded.PhysicalSchema, 3)
	assert.Equal(t, "user_id", loaded.PhysicalSchema[0].TargetName)
	assert.Equal(t, "user_id", loaded.PhysicalSchema[0].AISuggestedName)
	assert.Equal(t, "Decimal(10,2)", loaded.PhysicalSchema[1].TargetType)

	require.NotNil(t, loaded.LLMUsage)
	assert.Equal(t, 2, loaded.LLMUsage.Calls)

	assert.Equal(t, 3, loaded.StatisticalProfile.RowCount)
	assert.Contains(t, res.Summary, "sales.parquet")
}

func TestRun_AdvisoryFailureDegrades(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	adv := &stubAdvisor{
		namingErr: errors.New("quota exhausted"),
		typesErr:  errors.New("quota exhausted"),
	}

	opts := Options{
		InputPath:    input,
		OutputPrefix: filepath.Join(dir, "sales"),
		Advisor:      adv,
		Logger:       zerolog.Nop(),
	}
	res, err := opts.Run(context.Background())
	require.NoError(t, err)

	loaded, err := export.LoadContract(res.Outputs.ContractPath)
	require.NoError(t, err)

	// Source names survive untouched and no usage block is recorded.
	assert.Equal(t, "User ID", loaded.PhysicalSchema[0].TargetName)
	assert.Nil(t, loaded.LLMUsage)
}

func TestRun_NoAdvisor(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	opts := Options{
		InputPath:    input,
		OutputPrefix: filepath.Join(dir, "sales"),
		Logger:       zerolog.Nop(),
	}
	res, err := opts.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Contract.LLMUsage)
}

func TestRun_OverridesWin(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir)

	ovPath := filepath.Join(dir, "overrides.yaml")
	ov := `columns:
  "User ID":
    name: customer_id
    type: Int64
roles:
  customer_id: primary_key
`
	require.NoError(t, os.WriteFile(ovPath, []byte(ov), 0o644))

	adv := &stubAdvisor{
		naming: &advice.NamingReport{
			Violations: []advice.NamingSuggestion{
				{ColumnName: "User ID", SuggestedName: "user_id"},
			},
		},
	}

	opts := Options{
		InputPath:     input,
		OutputPrefix:  filepath.Join(dir, "sales"),
		OverridesPath: ovPath,
		Advisor:       adv,
		Logger:        zerolog.Nop(),
	}
	res, err := opts.Run(context.Background())
	require.NoError(t, err)

	col := res.Contract.PhysicalSchema[0]
	assert.Equal(t, "customer_id", col.TargetName)
	assert.Equal(t, "user_id", col.AISuggestedName)
	assert.Equal(t, "customer_id", col.UserOverrideName)
	assert.Equal(t, "primary_key", res.Contract.ColumnRoles["customer_id"])
}

func TestRun_MissingInput(t *testing.T) {
	opts := Options{
		InputPath:    filepath.Join(t.TempDir(), "nope.csv"),
		OutputPrefix: filepath.Join(t.TempDir(), "out"),
		Logger:       zerolog.Nop(),
	}
	_, err := opts.Run(context.Background())
	require.Error(t, err)
}

func TestLoadOverrides_EmptyPath(t *testing.T) {
	ov, err := LoadOverrides("")
	require.NoError(t, err)
	assert.Empty(t, ov.Columns)
	assert.Empty(t, ov.Roles)
}

func TestTableNameFromPath(t *testing.T) {
	tests := map[string]string{
		"/data/input/sales.csv": "sales",
		"sales.csv":             "sales",
		"sales":                 "sales",
		`C:\data\orders.csv`:    "orders",
	}
	for in, want := range tests {
		assert.Equal(t, want, tableNameFromPath(in), in)
	}
}
