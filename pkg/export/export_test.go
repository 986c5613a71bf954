package export_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacanary/datacanary/pkg/coltype"
	"github.com/datacanary/datacanary/pkg/contract"
	"github.com/datacanary/datacanary/pkg/export"
	"github.com/datacanary/datacanary/pkg/profile"
	"github.com/datacanary/datacanary/pkg/tabular"
)

func sampleContract() *contract.MetadataContract {
	c := contract.Assemble(contract.AssembleParams{
		TableName:  "sales",
		Version:    "1.0.0",
		SourcePath: "in/sales.csv",
		TargetPath: "out/sales.parquet",
		CreatedBy:  "tester",
		PhysicalSchema: []contract.PhysicalColumn{
			{SourceName: "user_id", TargetName: "user_id", SourceType: "Int64", TargetType: "Int64", ColumnIndex: 0},
		},
		StatisticalProfile: contract.StatisticalProfile{
			RowCount: 2,
			Columns:  []profile.ColumnProfile{{Name: "user_id", Dtype: "Int64"}},
		},
		ExtraIdentity: map[string]string{"department": "finance"},
	})
	return &c
}

func sampleDataset(t *testing.T) *tabular.Dataset {
	t.Helper()
	ds, err := tabular.New(
		tabular.Column{Name: "user_id", Type: coltype.Int64, Values: []any{int64(1), nil}},
		tabular.Column{Name: "region", Type: coltype.String, Values: []any{"north", "south"}},
	)
	require.NoError(t, err)
	return ds
}

func TestSaveLoadContract_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sales_metadata.json")
	orig := sampleContract()

	require.NoError(t, export.SaveContract(orig, path))

	// Pretty-printed JSON, extensions flattened into identity.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n  "))
	assert.Contains(t, string(raw), `"department": "finance"`)

	loaded, err := export.LoadContract(path)
	require.NoError(t, err)
	assert.Equal(t, orig, loaded)
}

func TestSaveContract_NilContract(t *testing.T) {
	err := export.SaveContract(nil, filepath.Join(t.TempDir(), "x.json"))
	assert.ErrorIs(t, err, export.ErrNilContract)
}

func TestLoadContract_MissingFile(t *testing.T) {
	_, err := export.LoadContract(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read contract")
}

func TestGenerateOutputs(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out", "sales")

	outputs, err := export.GenerateOutputs(sampleDataset(t), sampleContract(), prefix)
	require.NoError(t, err)

	assert.Equal(t, prefix+".parquet", outputs.ParquetPath)
	assert.Equal(t, prefix+"_metadata.json", outputs.ContractPath)
	require.FileExists(t, outputs.ParquetPath)
	require.FileExists(t, outputs.ContractPath)

	info, err := os.Stat(outputs.ParquetPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestGenerateOutputs_InputErrors(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "sales")

	_, err := export.GenerateOutputs(nil, sampleContract(), prefix)
	assert.ErrorIs(t, err, export.ErrEmptyDataset)

	_, err = export.GenerateOutputs(sampleDataset(t), nil, prefix)
	assert.ErrorIs(t, err, export.ErrNilContract)
}

func TestSummary(t *testing.T) {
	dir := t.TempDir()
	parquet := filepath.Join(dir, "sales.parquet")
	meta := filepath.Join(dir, "sales_metadata.json")
	require.NoError(t, os.WriteFile(parquet, make([]byte, 2048), 0o644))
	require.NoError(t, os.WriteFile(meta, []byte("{}"), 0o644))

	s := export.Summary(export.Outputs{ParquetPath: parquet, ContractPath: meta})
	assert.Contains(t, s, "Generated files:")
	assert.Contains(t, s, "sales.parquet (2.00 KB)")
	assert.Contains(t, s, "sales_metadata.json (2 B)")
}

func TestSummary_MissingFile(t *testing.T) {
	s := export.Summary(export.Outputs{ParquetPath: filepath.Join(t.TempDir(), "gone.parquet")})
	assert.Contains(t, s, "gone.parquet (missing)")
}
